package tui

import (
	"strings"

	"github.com/fentz26/worldtime/internal/engine"
	"github.com/fentz26/worldtime/internal/models"
	"github.com/fentz26/worldtime/internal/turntime"
)

// promptEntries is how many history entries the console sends as context.
const promptEntries = 8

// Story is the history the console keeps locally and hands to every phase.
type Story struct {
	History []models.HistoryEntry
	Actions int
}

// Classify maps console input to an action type. A leading quote is
// speech and a leading ! is raw story text.
func Classify(text string) (models.ActionType, string) {
	text = strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(text, `"`):
		return models.ActionSay, text
	case strings.HasPrefix(text, "!"):
		return models.ActionStory, strings.TrimSpace(text[1:])
	default:
		return models.ActionDo, text
	}
}

// Turn builds the payload of a phase for text.
func (s *Story) Turn(text string) engine.Turn {
	history := make([]models.HistoryEntry, len(s.History))
	copy(history, s.History)
	return engine.Turn{Text: text, History: history, ActionCount: s.Actions}
}

// WithPlayer returns a copy of the story with a player action appended.
func (s *Story) WithPlayer(kind models.ActionType, text string) *Story {
	next := &Story{History: make([]models.HistoryEntry, len(s.History), len(s.History)+1), Actions: s.Actions + 1}
	copy(next.History, s.History)
	next.History = append(next.History, models.HistoryEntry{Type: kind, Text: text})
	return next
}

// AddNarration appends generated text as a continuation.
func (s *Story) AddNarration(text string) {
	s.History = append(s.History, models.HistoryEntry{Type: models.ActionContinue, Text: text})
}

// Prompt joins the newest entries into the text sent to the context phase.
func (s *Story) Prompt() string {
	start := len(s.History) - promptEntries
	if start < 0 {
		start = 0
	}
	parts := make([]string, 0, len(s.History)-start)
	for _, h := range s.History[start:] {
		parts = append(parts, strings.TrimSpace(h.Text))
	}
	return strings.Join(parts, "\n")
}

// Visible strips turn time markers for display.
func Visible(text string) string {
	return strings.TrimSpace(turntime.StripMarkers(text))
}
