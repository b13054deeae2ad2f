package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fentz26/worldtime/internal/models"
)

var (
	cmdBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255")).
			Padding(0, 1)

	cmdErrorStyle = cmdBarStyle.Copy().
			Foreground(errorColor)
)

// CmdBarModel shows console feedback below the input.
type CmdBarModel struct {
	message string
	isError bool
}

// NewCmdBarModel creates a new command bar
func NewCmdBarModel() *CmdBarModel {
	return &CmdBarModel{}
}

// SetMessage replaces the feedback line.
func (m *CmdBarModel) SetMessage(msg string, isError bool) {
	m.message = msg
	m.isError = isError
}

// View renders the command bar
func (m *CmdBarModel) View(role Role) string {
	if m.message != "" {
		if m.isError {
			return cmdErrorStyle.Render(m.message)
		}
		return cmdBarStyle.Render(m.message)
	}
	return cmdBarStyle.Render(fmt.Sprintf("typing as %s • tab switch • [ time commands • : console • ctrl+l ledger • ctrl+c quit", role))
}

// ParseCard reads "Title: entry" into a card keyed by its title.
func ParseCard(args string) (models.Card, bool) {
	title, entry, ok := strings.Cut(args, ":")
	title = strings.TrimSpace(title)
	if !ok || title == "" {
		return models.Card{}, false
	}
	return models.Card{
		Title: title,
		Type:  "class",
		Keys:  strings.ToLower(title),
		Entry: strings.TrimSpace(entry),
	}, true
}

// Execute processes a console command.
func (m *CmdBarModel) Execute(client *Client, sessionID, input string) tea.Cmd {
	name, args, _ := strings.Cut(strings.TrimPrefix(strings.TrimSpace(input), ":"), " ")
	args = strings.TrimSpace(args)

	switch name {
	case "quit", "q":
		return tea.Quit
	case "new":
		return func() tea.Msg {
			info, err := client.CreateSession(models.Mode(args))
			if err != nil {
				return errMsg{err}
			}
			return sessionMsg{info: info, fresh: true}
		}
	case "card":
		card, ok := ParseCard(args)
		if !ok {
			return func() tea.Msg { return cmdResultMsg{"Usage: :card <title>: <entry>"} }
		}
		return func() tea.Msg {
			saved, err := client.PutCard(sessionID, card)
			if err != nil {
				return errMsg{err}
			}
			return cmdResultMsg{fmt.Sprintf("Card saved: %s", saved.Title)}
		}
	case "ledger":
		return fetchLedger(client, sessionID)
	default:
		return func() tea.Msg { return cmdResultMsg{fmt.Sprintf("Unknown command: %s", name)} }
	}
}

type cmdResultMsg struct {
	message string
}
