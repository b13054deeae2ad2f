package tui

import (
	"github.com/fentz26/worldtime/internal/ledger"
	"github.com/fentz26/worldtime/internal/models"
	"github.com/fentz26/worldtime/internal/session"
)

// SessionInfo is a session with its clock state decoded.
type SessionInfo struct {
	ID    string
	State session.State
}

// LedgerInfo is the decoded turn ledger of a session.
type LedgerInfo struct {
	Initialized bool            `json:"initialized"`
	Records     []ledger.Record `json:"records"`
}

// Role selects who is typing in the console.
type Role int

const (
	RolePlayer Role = iota
	RoleNarrator
)

func (r Role) String() string {
	if r == RoleNarrator {
		return "narrator"
	}
	return "player"
}

// Line is one transcript entry.
type Line struct {
	Kind models.ActionType
	Text string
	// System marks bracketed engine messages.
	System bool
}
