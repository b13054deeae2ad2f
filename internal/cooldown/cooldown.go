// Package cooldown gates AI-issued time commands so a model cannot chain
// sleeps or advances back to back.
package cooldown

import (
	"fmt"
	"strings"

	"github.com/fentz26/worldtime/internal/anchor"
	"github.com/fentz26/worldtime/internal/turntime"
)

// Kind is a gated command.
type Kind string

const (
	Sleep   Kind = "sleep"
	Advance Kind = "advance"
)

// Windows after an accepted command before the same kind is accepted
// again, measured in story time.
var (
	SleepWindow   = turntime.Hours(8)
	AdvanceWindow = turntime.Minutes(5)
)

// Window returns the cooldown length for k.
func Window(k Kind) turntime.Duration {
	if k == Sleep {
		return SleepWindow
	}
	return AdvanceWindow
}

// Initiation is the last accepted AI command.
type Initiation struct {
	Kind    Kind              `json:"kind"`
	At      turntime.Duration `json:"at"`
	Command string            `json:"command"`
}

// Gate holds the story time at which each command kind becomes available.
type Gate struct {
	SleepAvailableAt   *turntime.Duration `json:"sleep_available_at,omitempty"`
	AdvanceAvailableAt *turntime.Duration `json:"advance_available_at,omitempty"`
	Last               *Initiation        `json:"last,omitempty"`
}

// AvailableAt returns when k unlocks, or nil when it is not armed.
func (g *Gate) AvailableAt(k Kind) *turntime.Duration {
	if k == Sleep {
		return g.SleepAvailableAt
	}
	return g.AdvanceAvailableAt
}

// Arm blocks k until now plus its window.
func (g *Gate) Arm(k Kind, now turntime.Duration) {
	at := turntime.Add(now, Window(k))
	if k == Sleep {
		g.SleepAvailableAt = &at
	} else {
		g.AdvanceAvailableAt = &at
	}
}

// IsActive reports whether k is still blocked at now.
func (g *Gate) IsActive(k Kind, now turntime.Duration) bool {
	at := g.AvailableAt(k)
	return at != nil && turntime.Compare(&now, at) < 0
}

// AnyActive reports whether either kind is blocked at now.
func (g *Gate) AnyActive(now turntime.Duration) bool {
	return g.IsActive(Sleep, now) || g.IsActive(Advance, now)
}

// Record remembers an accepted AI command.
func (g *Gate) Record(k Kind, now turntime.Duration, command string) {
	g.Last = &Initiation{Kind: k, At: now, Command: command}
}

// Clear unblocks every kind and forgets the last command.
func (g *Gate) Clear() {
	*g = Gate{}
}

// Render formats the cooldown card entry against the session anchor.
func (g *Gate) Render(a anchor.Anchor) string {
	var lines []string
	if g.SleepAvailableAt != nil {
		lines = append(lines, "Sleep available after: "+anchor.Derive(a, *g.SleepAvailableAt).String())
	}
	if g.AdvanceAvailableAt != nil {
		lines = append(lines, "Advance available after: "+anchor.Derive(a, *g.AdvanceAvailableAt).String())
	}
	if g.Last != nil {
		name := strings.ToUpper(string(g.Last.Kind[:1])) + string(g.Last.Kind[1:])
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines,
			fmt.Sprintf("Last %s initiated: %s (%s)", g.Last.Kind, anchor.Derive(a, g.Last.At), g.Last.At),
			fmt.Sprintf("%s command: %s", name, g.Last.Command))
	}
	return strings.Join(lines, "\n")
}
