// Package session defines the explicit per-session state threaded through
// every engine phase.
package session

import (
	"github.com/fentz26/worldtime/internal/anchor"
	"github.com/fentz26/worldtime/internal/cooldown"
	"github.com/fentz26/worldtime/internal/models"
	"github.com/fentz26/worldtime/internal/turntime"
)

// State is everything a phase reads besides history and cards. Phases
// take a State and return the updated copy.
type State struct {
	Mode        models.Mode       `json:"mode"`
	Anchor      anchor.Anchor     `json:"anchor"`
	Elapsed     turntime.Duration `json:"elapsed"`
	Current     anchor.Moment     `json:"current"`
	Cooldowns   cooldown.Gate     `json:"cooldowns"`
	Initialized bool              `json:"initialized"`

	// Per-turn flags, set by one phase and consumed by a later one.
	InsertMarker      bool   `json:"insert_marker,omitempty"`
	ModifiedByCommand bool   `json:"modified_by_command,omitempty"`
	AICommand         string `json:"ai_command,omitempty"`
	Changed           bool   `json:"changed,omitempty"`
}

// New returns the state of a fresh session.
func New(mode models.Mode) State {
	if !mode.Valid() {
		mode = models.ModeLightweight
	}
	a := anchor.Default()
	return State{
		Mode:    mode,
		Anchor:  a,
		Current: anchor.Derive(a, turntime.Duration{}),
	}
}

// Lightweight reports whether advanced features are off.
func (s State) Lightweight() bool { return s.Mode == models.ModeLightweight }

// SetElapsed replaces the elapsed duration and re-derives the current
// date and time.
func (s *State) SetElapsed(d turntime.Duration) {
	if d != s.Elapsed {
		s.Changed = true
	}
	s.Elapsed = d
	s.Current = anchor.Derive(s.Anchor, d)
}

// Advance adds delta to the elapsed duration.
func (s *State) Advance(delta turntime.Duration) {
	s.SetElapsed(turntime.Add(s.Elapsed, delta))
}

// SetAnchor replaces the anchor, zeroes the elapsed duration and clears
// all cooldowns.
func (s *State) SetAnchor(a anchor.Anchor) {
	s.Anchor = a
	s.Elapsed = turntime.Duration{}
	s.Current = anchor.Derive(a, s.Elapsed)
	s.Cooldowns.Clear()
	s.Changed = true
}

// Marker returns the embedded checkpoint for the current elapsed time.
func (s State) Marker() string { return s.Elapsed.Marker() }

// WokeUntil is when the armed sleep cooldown ends, for display.
func (s State) WokeUntil() *anchor.Moment {
	return s.momentOf(s.Cooldowns.SleepAvailableAt)
}

// AdvancedUntil is when the armed advance cooldown ends, for display.
func (s State) AdvancedUntil() *anchor.Moment {
	return s.momentOf(s.Cooldowns.AdvanceAvailableAt)
}

func (s State) momentOf(d *turntime.Duration) *anchor.Moment {
	if d == nil {
		return nil
	}
	m := anchor.Derive(s.Anchor, *d)
	return &m
}

// ResetTurnFlags clears the flags that only live for one turn.
func (s *State) ResetTurnFlags() {
	s.InsertMarker = false
	s.ModifiedByCommand = false
	s.AICommand = ""
	s.Changed = false
}
