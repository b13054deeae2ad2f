package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fentz26/worldtime/internal/ledger"
	"github.com/fentz26/worldtime/internal/models"
)

var (
	listTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	kindDo    = lipgloss.NewStyle().Foreground(lipgloss.Color("4")) // Blue
	kindSay   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")) // Green
	kindStory = lipgloss.NewStyle().Foreground(lipgloss.Color("3")) // Yellow
)

// RecordItem implements list.Item for the ledger list
type RecordItem struct {
	Record ledger.Record
}

func (i RecordItem) FilterValue() string { return i.Record.ActionText }
func (i RecordItem) Title() string       { return i.Record.ActionText }
func (i RecordItem) Description() string {
	desc := fmt.Sprintf("%s • %s", formatKind(i.Record.ActionType), i.Record.Timestamp)
	if i.Record.AICommand != "" {
		desc += " • " + i.Record.AICommand
	}
	return desc
}

func formatKind(kind models.ActionType) string {
	switch kind {
	case models.ActionDo:
		return kindDo.Render("● do")
	case models.ActionSay:
		return kindSay.Render("● say")
	case models.ActionStory:
		return kindStory.Render("● story")
	default:
		return string(kind)
	}
}

// LedgerListModel shows the turn ledger, newest record first.
type LedgerListModel struct {
	client    *Client
	sessionID string
	list      list.Model
	loading   bool
}

// NewLedgerListModel creates a new ledger list model
func NewLedgerListModel(client *Client) *LedgerListModel {
	delegate := list.NewDefaultDelegate()
	l := list.New([]list.Item{}, delegate, 80, 20)
	l.Title = "Turn ledger"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = listTitleStyle

	return &LedgerListModel{
		client: client,
		list:   l,
	}
}

// SetSize sets the list dimensions
func (m *LedgerListModel) SetSize(w, h int) {
	m.list.SetSize(w, h)
}

// Refresh fetches the ledger of a session from the API
func (m *LedgerListModel) Refresh(sessionID string) tea.Cmd {
	m.sessionID = sessionID
	m.loading = true
	return fetchLedger(m.client, sessionID)
}

func fetchLedger(client *Client, sessionID string) tea.Cmd {
	return func() tea.Msg {
		info, err := client.Ledger(sessionID)
		if err != nil {
			return errMsg{err}
		}
		return ledgerLoadedMsg{info}
	}
}

// SetRecords replaces the list contents.
func (m *LedgerListModel) SetRecords(info *LedgerInfo) {
	m.loading = false
	items := make([]list.Item, 0, len(info.Records))
	for i := len(info.Records) - 1; i >= 0; i-- {
		items = append(items, RecordItem{Record: info.Records[i]})
	}
	m.list.SetItems(items)
	m.list.Title = fmt.Sprintf("Turn ledger (%d)", len(items))
}

// Update handles messages
func (m *LedgerListModel) Update(msg tea.Msg) (*LedgerListModel, tea.Cmd) {
	switch msg := msg.(type) {
	case ledgerLoadedMsg:
		m.SetRecords(msg.info)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "r" && m.list.FilterState() != list.Filtering {
			return m, m.Refresh(m.sessionID)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the ledger list
func (m *LedgerListModel) View() string {
	if m.loading {
		return "Loading ledger..."
	}
	return m.list.View()
}

type ledgerLoadedMsg struct {
	info *LedgerInfo
}
