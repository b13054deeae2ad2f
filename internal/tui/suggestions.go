package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Suggestions provides autocomplete for bracket commands and console
// commands.
type Suggestions struct {
	items       []SuggestionItem
	filtered    []SuggestionItem
	selectedIdx int
	visible     bool
	prefix      string // "[" or ":"
}

// SuggestionItem represents a single autocomplete suggestion
type SuggestionItem struct {
	Text        string
	Description string
}

var bracketSuggestions = []SuggestionItem{
	{Text: "[settime mm/dd/yyyy h:mm am]", Description: "Set the starting date and time"},
	{Text: "[advance 1 hours]", Description: "Advance by hours, days, months or years"},
	{Text: "[sleep]", Description: "Sleep until later that day or the next"},
	{Text: "[reset]", Description: "Reset to the newest date and time mentioned"},
	{Text: "[light]", Description: "Switch to lightweight mode"},
	{Text: "[normal]", Description: "Switch to normal mode"},
}

var consoleSuggestions = []SuggestionItem{
	{Text: ":new", Description: "Start a new session (:new normal)"},
	{Text: ":card", Description: "Add a card (:card Title: entry)"},
	{Text: ":ledger", Description: "Show the turn ledger"},
	{Text: ":quit", Description: "Leave the console"},
}

// NewSuggestions creates a new suggestions handler
func NewSuggestions() *Suggestions {
	return &Suggestions{}
}

// Update updates suggestions based on current input
func (s *Suggestions) Update(input string) {
	if input == "" || strings.Contains(input, " ") && !strings.HasPrefix(input, "[") {
		s.hide()
		return
	}

	switch {
	case strings.HasPrefix(input, "[") && !strings.Contains(input, "]"):
		s.prefix = "["
		s.items = bracketSuggestions
	case strings.HasPrefix(input, ":"):
		s.prefix = ":"
		s.items = consoleSuggestions
	default:
		s.hide()
		return
	}
	s.visible = true
	s.filter(strings.ToLower(input))
}

func (s *Suggestions) hide() {
	s.visible = false
	s.filtered = nil
	s.prefix = ""
}

func (s *Suggestions) filter(query string) {
	s.filtered = []SuggestionItem{}
	for _, item := range s.items {
		if strings.HasPrefix(strings.ToLower(item.Text), query) {
			s.filtered = append(s.filtered, item)
		}
	}
	s.selectedIdx = 0
}

// Next moves to the next suggestion
func (s *Suggestions) Next() {
	if len(s.filtered) == 0 {
		return
	}
	s.selectedIdx = (s.selectedIdx + 1) % len(s.filtered)
}

// Prev moves to the previous suggestion
func (s *Suggestions) Prev() {
	if len(s.filtered) == 0 {
		return
	}
	s.selectedIdx--
	if s.selectedIdx < 0 {
		s.selectedIdx = len(s.filtered) - 1
	}
}

// Selected returns the currently selected suggestion
func (s *Suggestions) Selected() *SuggestionItem {
	if !s.visible || len(s.filtered) == 0 || s.selectedIdx >= len(s.filtered) {
		return nil
	}
	return &s.filtered[s.selectedIdx]
}

// IsVisible returns whether suggestions are currently visible
func (s *Suggestions) IsVisible() bool {
	return s.visible && len(s.filtered) > 0
}

// Render renders the suggestions dropdown
func (s *Suggestions) Render(width int) string {
	if !s.IsVisible() {
		return ""
	}

	var b strings.Builder

	suggestionStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(secondaryColor).
		Padding(0, 1).
		Width(width - 4)

	selectedStyle := lipgloss.NewStyle().
		Background(primaryColor).
		Foreground(fgColor).
		Bold(true)

	itemStyle := lipgloss.NewStyle().Foreground(fgColor)
	descStyle := lipgloss.NewStyle().Foreground(mutedColor).Italic(true)

	header := "Time commands"
	if s.prefix == ":" {
		header = "Console"
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(primaryColor).Render(header))
	b.WriteString("\n")

	maxVisible := 5
	for i, item := range s.filtered {
		if i >= maxVisible {
			b.WriteString(descStyle.Render(fmt.Sprintf("  ... and %d more", len(s.filtered)-maxVisible)))
			break
		}

		var line string
		if i == s.selectedIdx {
			line = selectedStyle.Render("▶ " + item.Text)
			if item.Description != "" {
				line += " " + selectedStyle.Render(item.Description)
			}
		} else {
			line = itemStyle.Render("  " + item.Text)
			if item.Description != "" {
				line += " " + descStyle.Render(item.Description)
			}
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	return suggestionStyle.Render(b.String())
}
