// Package ledger keeps the append-only turn ledger stored in the "WTG Data"
// card. The card text is the only durable copy; every mutation rewrites it
// whole.
package ledger

import (
	"strings"

	"github.com/fentz26/worldtime/internal/cards"
	"github.com/fentz26/worldtime/internal/models"
	"github.com/fentz26/worldtime/internal/turntime"
)

// InitializedMarker records on the data card that the clock was set.
const InitializedMarker = "[SETTIME_INITIALIZED]"

// Record is one processed player turn.
type Record struct {
	ActionType   models.ActionType `json:"action_type"`
	ActionText   string            `json:"action_text"`
	ResponseText string            `json:"response_text,omitempty"`
	Entities     []string          `json:"entities,omitempty"`
	Triggers     []cards.Trigger   `json:"triggers,omitempty"`
	AICommand    string            `json:"ai_command,omitempty"`
	Timestamp    turntime.Duration `json:"timestamp"`
}

// Text is the action and response joined, used for similarity checks.
func (r Record) Text() string { return r.ActionText + " " + r.ResponseText }

// Ledger is the turn record store a session reconciles against.
type Ledger interface {
	ParseAll() []Record
	Append(rec Record)
	PruneFuture(limit turntime.Duration) int
	LastTimestamp() (turntime.Duration, bool)
	Initialized() bool
	MarkInitialized()
}

// CardLedger stores records on the data card of a deck.
type CardLedger struct {
	deck  *cards.Deck
	codec Codec
}

var _ Ledger = (*CardLedger)(nil)

// New returns a ledger over deck's data card. A nil codec selects the
// text codec.
func New(deck *cards.Deck, codec Codec) *CardLedger {
	if codec == nil {
		codec = TextCodec{}
	}
	return &CardLedger{deck: deck, codec: codec}
}

func (l *CardLedger) card() *models.Card { return cards.DataCard(l.deck) }

func (l *CardLedger) entry() string {
	if c := l.deck.Find(cards.TitleData); c != nil {
		return c.Entry
	}
	return ""
}

// ParseAll returns every readable record in card order.
func (l *CardLedger) ParseAll() []Record {
	return l.codec.Decode(l.entry())
}

// Append adds rec to the end of the card text. Anything else on the card
// is left as it is.
func (l *CardLedger) Append(rec Record) {
	enc := l.codec.Encode(rec)
	if enc == "" {
		return
	}
	c := l.card()
	if strings.TrimSpace(c.Entry) == "" {
		c.Entry = enc
		return
	}
	c.Entry += l.codec.Separator() + enc
}

// PruneFuture drops records stamped after limit and returns how many were
// removed. Applying it twice with the same limit is a no-op the second
// time.
func (l *CardLedger) PruneFuture(limit turntime.Duration) int {
	all := l.ParseAll()
	kept := all[:0:0]
	for _, rec := range all {
		if !rec.Timestamp.After(limit) {
			kept = append(kept, rec)
		}
	}
	removed := len(all) - len(kept)
	if removed > 0 {
		l.write(l.Initialized(), kept)
	}
	return removed
}

// LastTimestamp returns the timestamp of the newest record.
func (l *CardLedger) LastTimestamp() (turntime.Duration, bool) {
	all := l.ParseAll()
	if len(all) == 0 {
		return turntime.Duration{}, false
	}
	return all[len(all)-1].Timestamp, true
}

// Initialized reports whether the clock was ever set for this session.
func (l *CardLedger) Initialized() bool {
	return strings.Contains(l.entry(), InitializedMarker)
}

// MarkInitialized records that the clock was set.
func (l *CardLedger) MarkInitialized() {
	if l.Initialized() {
		return
	}
	c := l.card()
	if c.Entry == "" {
		c.Entry = InitializedMarker
		return
	}
	c.Entry = InitializedMarker + "\n" + c.Entry
}

func (l *CardLedger) write(initialized bool, records []Record) {
	blocks := make([]string, 0, len(records))
	for _, rec := range records {
		if enc := l.codec.Encode(rec); enc != "" {
			blocks = append(blocks, enc)
		}
	}
	body := strings.Join(blocks, l.codec.Separator())
	if initialized {
		if body == "" {
			body = InitializedMarker
		} else {
			body = InitializedMarker + "\n" + body
		}
	}
	l.card().Entry = body
}
