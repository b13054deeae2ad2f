// Package command parses and applies player bracket commands and the
// inline time commands a model may emit at the start of its output.
package command

import (
	"regexp"
	"strings"
)

// Kind is a player command.
type Kind string

const (
	Settime Kind = "settime"
	Advance Kind = "advance"
	Sleep   Kind = "sleep"
	Reset   Kind = "reset"
	Light   Kind = "light"
	Normal  Kind = "normal"
	Invalid Kind = "invalid"
)

// Command is a parsed bracket command. Args are lowercased words after
// the command name.
type Command struct {
	Kind Kind     `json:"kind"`
	Args []string `json:"args,omitempty"`
	Raw  string   `json:"raw"`
}

var userPattern = regexp.MustCompile(`(?s)^\[(.+?)\]$`)

// ParseUser reads text as a bracket command. ok is false when the trimmed
// text is not a single [ ... ] group; an unrecognized command inside
// brackets parses as Invalid.
func ParseUser(text string) (cmd Command, ok bool) {
	trimmed := strings.TrimSpace(text)
	m := userPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return Command{}, false
	}
	fields := strings.Fields(strings.ToLower(m[1]))
	if len(fields) == 0 {
		return Command{Kind: Invalid, Raw: trimmed}, true
	}

	cmd = Command{Args: fields[1:], Raw: trimmed}
	switch Kind(fields[0]) {
	case Settime, Advance, Reset, Light, Normal:
		cmd.Kind = Kind(fields[0])
	case Sleep:
		cmd.Kind = Sleep
		if len(cmd.Args) > 0 {
			cmd.Kind = Invalid
		}
	default:
		cmd.Kind = Invalid
	}
	return cmd, true
}
