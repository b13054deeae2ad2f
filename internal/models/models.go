// Package models defines the core domain types shared by the engine, the
// store and the daemon API.
package models

import (
	"encoding/json"
	"time"
)

// ActionType is the kind of a history entry.
type ActionType string

const (
	ActionDo       ActionType = "do"
	ActionSay      ActionType = "say"
	ActionStory    ActionType = "story"
	ActionContinue ActionType = "continue"
)

// IsPlayerAction reports whether the entry came from the player rather
// than a bare continuation.
func (a ActionType) IsPlayerAction() bool {
	return a == ActionDo || a == ActionSay || a == ActionStory
}

// HistoryEntry is one turn of host history, oldest first.
type HistoryEntry struct {
	Type ActionType `json:"type"`
	Text string     `json:"text"`
}

// Card is a host-visible title/text record.
type Card struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Type        string `json:"type,omitempty"`
	Keys        string `json:"keys,omitempty"` // comma-separated triggers
	Entry       string `json:"entry"`
	Description string `json:"description,omitempty"`
}

// Mode selects the feature set of a session.
type Mode string

const (
	ModeLightweight Mode = "lightweight"
	ModeNormal      Mode = "normal"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeLightweight || m == ModeNormal
}

// Session is a persisted narrative session. State holds the serialized
// engine state.
type Session struct {
	ID        string          `json:"id"`
	Mode      Mode            `json:"mode"`
	State     json.RawMessage `json:"state,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Decision is an audit record of one processed phase.
type Decision struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Action     string    `json:"action"`
	InputsHash string    `json:"inputs_hash"`
	Outcome    string    `json:"outcome"`
	Details    string    `json:"details,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
