package cards

import (
	"fmt"
	"strings"

	"github.com/fentz26/worldtime/internal/anchor"
	"github.com/fentz26/worldtime/internal/models"
	"github.com/fentz26/worldtime/internal/turntime"
)

// System card titles.
const (
	TitleData       = "WTG Data"
	TitleDateTime   = "Current Date and Time"
	TitleSettings   = "World Time Generator Settings"
	TitleCooldowns  = "WTG Cooldowns"
	TitleExclusions = "WTG Exclusions"
	TitleTimeConfig = "WTG Time Config"
	TitleCommands   = "WTG Commands Guide"
)

var systemTitles = []string{
	TitleData, TitleDateTime, TitleSettings, TitleCooldowns,
	TitleExclusions, TitleTimeConfig, TitleCommands,
}

// IsSystem reports whether title names one of the engine's own cards.
func IsSystem(title string) bool {
	for _, t := range systemTitles {
		if SameTitle(t, title) {
			return true
		}
	}
	return false
}

const dateTimeKeys = "date,time,current date,current time,clock,hour"

// CommandHelp lists the player commands; modeToggles adds [light]/[normal].
func CommandHelp(modeToggles bool) string {
	lines := []string{
		"[settime mm/dd/yyyy time] - Set starting date and time",
		"[advance N [hours|days|months|years] [M minutes]] - Advance time/date",
		"[sleep] - Sleep to next morning",
		"[reset] - Reset to most recent mention in history",
	}
	if modeToggles {
		lines = append(lines,
			"[light] - Switch to lightweight mode",
			"[normal] - Switch to normal mode")
	}
	return "Commands:\n" + strings.Join(lines, "\n")
}

// DataCard returns the ledger card, creating it empty when missing.
func DataCard(d *Deck) *models.Card {
	return d.FindOrCreate(TitleData, func(c *models.Card) {
		c.Type = "system"
		c.Keys = "wtg_internal_data,do_not_include_in_context"
		c.Description = "System data for World Time Generator - Internal use only, do not include in context"
	})
}

// DateTimeCard returns the current date and time card.
func DateTimeCard(d *Deck, modeToggles bool) *models.Card {
	return d.FindOrCreate(TitleDateTime, func(c *models.Card) {
		c.Type = "event"
		c.Keys = dateTimeKeys
		c.Description = CommandHelp(modeToggles)
	})
}

// CooldownCard returns the cooldown tracking card.
func CooldownCard(d *Deck) *models.Card {
	return d.FindOrCreate(TitleCooldowns, func(c *models.Card) {
		c.Type = "system"
		c.Description = "Internal cooldown tracking for AI commands; no keys; not included in context"
	})
}

// ExclusionsCard returns the card listing titles excluded from stamping.
func ExclusionsCard(d *Deck) *models.Card {
	return d.FindOrCreate(TitleExclusions, func(c *models.Card) {
		c.Type = "system"
		c.Description = "Cards excluded from WTG timestamp injection"
	})
}

// CommandsCard returns the player-facing command reference.
func CommandsCard(d *Deck, modeToggles bool) *models.Card {
	return d.FindOrCreate(TitleCommands, func(c *models.Card) {
		c.Type = "system"
		c.Description = "WTG command reference"
		c.Entry = "Available WTG Commands:\n\n" +
			"[settime mm/dd/yyyy time] - Set starting date and time\n" +
			"  Example: [settime 01/01/2025 12:00 pm]\n\n" +
			"[advance N units] - Advance time forward\n" +
			"  Example: [advance 2 days], [advance 1 hours 30 minutes]\n\n" +
			"[sleep] - Sleep until later or the next morning\n\n" +
			"[reset] - Reset time to the most recent date mentioned in the story"
		if modeToggles {
			c.Entry += "\n\n[light] / [normal] - Switch between lightweight and normal mode"
		}
	})
}

// DateTimeView is what the current date and time card displays.
type DateTimeView struct {
	Anchor        anchor.Anchor
	Current       anchor.Moment
	Elapsed       turntime.Duration
	WokeUntil     *anchor.Moment
	AdvancedUntil *anchor.Moment
}

// Render formats the card entry.
func (v DateTimeView) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Starting date: %s\nStarting time: %s\nCurrent date: %s\nCurrent time: %s\nTurn time: %s",
		v.Anchor.Date, v.Anchor.Time, v.Current.Date, v.Current.Time, v.Elapsed)
	if v.WokeUntil != nil {
		fmt.Fprintf(&b, "\n\nWoke up on: %s", v.WokeUntil)
	}
	if v.AdvancedUntil != nil {
		fmt.Fprintf(&b, "\n\nAdvanced until: %s", v.AdvancedUntil)
	}
	return b.String()
}

// UpdateDateTime rewrites the current date and time card.
func UpdateDateTime(d *Deck, v DateTimeView, modeToggles bool) {
	DateTimeCard(d, modeToggles).Entry = v.Render()
}
