package ledger

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/fentz26/worldtime/internal/cards"
	"github.com/fentz26/worldtime/internal/models"
	"github.com/fentz26/worldtime/internal/turntime"
)

// Codec converts between ledger records and the card text that stores
// them. Decode skips records it cannot read.
type Codec interface {
	Name() string
	Encode(rec Record) string
	Decode(text string) []Record
	Separator() string
}

// CodecByName returns the codec registered under name ("text" or "json").
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", "text":
		return TextCodec{}, nil
	case "json":
		return JSONCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown ledger codec %q", name)
	}
}

var (
	anyBlock     = regexp.MustCompile(`(?s)\[Turn Data\]\n.*?\n\[/Turn Data\]`)
	fullBlock    = regexp.MustCompile(`(?s)^\[Turn Data\]\nAction Type: (.*?)\nAction Text: (.*?)\nResponse Text: (.*?)\nGenerated Entities: (.*?)\nTrigger Mentions: (.*?)\nAI Command: (.*?)\nTimestamp: (.*?)\n\[/Turn Data\]$`)
	compactBlock = regexp.MustCompile(`(?s)^\[Turn Data\]\nAction Type: ([^\n]*)\nAction Text: (.*?)\nTimestamp: ([^\n]*)\n\[/Turn Data\]$`)
	triggerToken = regexp.MustCompile(`\[trigger:([^:\]]*):([^\]]*)\]`)
	entityToken  = regexp.MustCompile(`\[[^\]]+\]`)
)

// TextCodec stores records as human readable [Turn Data] blocks. Compact
// omits the response, entity, trigger and command lines.
type TextCodec struct {
	Compact bool
}

func (TextCodec) Name() string      { return "text" }
func (TextCodec) Separator() string { return "\n\n" }

func (c TextCodec) Encode(rec Record) string {
	if c.Compact {
		return fmt.Sprintf("[Turn Data]\nAction Type: %s\nAction Text: %s\nTimestamp: %s\n[/Turn Data]",
			rec.ActionType, rec.ActionText, rec.Timestamp)
	}
	triggers := make([]string, len(rec.Triggers))
	for i, t := range rec.Triggers {
		triggers[i] = t.String()
	}
	command := rec.AICommand
	if command == "" {
		command = "None"
	}
	return fmt.Sprintf("[Turn Data]\nAction Type: %s\nAction Text: %s\nResponse Text: %s\nGenerated Entities: %s\nTrigger Mentions: %s\nAI Command: %s\nTimestamp: %s\n[/Turn Data]",
		rec.ActionType, rec.ActionText, rec.ResponseText,
		strings.Join(rec.Entities, " "), strings.Join(triggers, " "), command, rec.Timestamp)
}

// Decode reads full and compact blocks in card order.
func (TextCodec) Decode(text string) []Record {
	var out []Record
	for _, block := range anyBlock.FindAllString(text, -1) {
		if rec, ok := decodeFull(block); ok {
			out = append(out, rec)
			continue
		}
		if rec, ok := decodeCompact(block); ok {
			out = append(out, rec)
		}
	}
	return out
}

func decodeFull(block string) (Record, bool) {
	m := fullBlock.FindStringSubmatch(block)
	if m == nil {
		return Record{}, false
	}
	ts, ok := turntime.Parse(strings.TrimSpace(m[7]))
	if !ok {
		return Record{}, false
	}
	rec := Record{
		ActionType:   models.ActionType(m[1]),
		ActionText:   m[2],
		ResponseText: m[3],
		Entities:     entityToken.FindAllString(m[4], -1),
		Timestamp:    ts,
	}
	for _, t := range triggerToken.FindAllStringSubmatch(m[5], -1) {
		rec.Triggers = append(rec.Triggers, cards.Trigger{Title: t[1], Key: t[2]})
	}
	if m[6] != "None" {
		rec.AICommand = m[6]
	}
	return rec, true
}

func decodeCompact(block string) (Record, bool) {
	m := compactBlock.FindStringSubmatch(block)
	if m == nil {
		return Record{}, false
	}
	ts, ok := turntime.Parse(strings.TrimSpace(m[3]))
	if !ok {
		return Record{}, false
	}
	return Record{ActionType: models.ActionType(m[1]), ActionText: m[2], Timestamp: ts}, true
}

// JSONCodec stores one JSON object per line.
type JSONCodec struct{}

func (JSONCodec) Name() string      { return "json" }
func (JSONCodec) Separator() string { return "\n" }

func (JSONCodec) Encode(rec Record) string {
	data, err := json.Marshal(rec)
	if err != nil {
		return ""
	}
	return string(data)
}

func (JSONCodec) Decode(text string) []Record {
	var out []Record
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out
}
