// Package tui provides the interactive play console of worldtime.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fentz26/worldtime/internal/engine"
	"github.com/fentz26/worldtime/internal/models"
	"github.com/fentz26/worldtime/internal/session"
)

var (
	// Colors
	primaryColor   = lipgloss.Color("#7C3AED")
	secondaryColor = lipgloss.Color("#6366F1")
	successColor   = lipgloss.Color("#10B981")
	warningColor   = lipgloss.Color("#F59E0B")
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#6B7280")
	fgColor        = lipgloss.Color("#F9FAFB")
	cyanColor      = lipgloss.Color("#06B6D4")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	playerStyle = lipgloss.NewStyle().
			Foreground(cyanColor).
			Bold(true)

	systemStyle = lipgloss.NewStyle().
			Foreground(warningColor).
			Italic(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	onlineStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	offlineStyle = lipgloss.NewStyle().
			Foreground(errorColor)
)

// App is the main TUI application model.
type App struct {
	client       *Client
	sessionID    string
	mode         models.Mode
	state        session.State
	story        *Story
	lines        []Line
	role         Role
	input        textinput.Model
	viewport     viewport.Model
	width        int
	height       int
	busy         bool
	daemonOnline bool
	showLedger   bool
	suggestions  *Suggestions
	cmdBar       *CmdBarModel
	ledger       *LedgerListModel
}

// New creates a console for the daemon at apiAddr. An empty sessionID
// starts a new session in mode.
func New(apiAddr, sessionID string, mode models.Mode) *App {
	ti := textinput.New()
	ti.Placeholder = "What do you do? Start with [settime mm/dd/yyyy h:mm am]"
	ti.Focus()
	ti.CharLimit = 2000
	ti.Width = 80

	vp := viewport.New(80, 20)
	client := NewClient(apiAddr)

	return &App{
		client:      client,
		sessionID:   sessionID,
		mode:        mode,
		state:       session.New(mode),
		story:       &Story{},
		input:       ti,
		viewport:    vp,
		suggestions: NewSuggestions(),
		cmdBar:      NewCmdBarModel(),
		ledger:      NewLedgerListModel(client),
	}
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		a.checkDaemon(),
		a.openSession(),
	)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit

		case "ctrl+l":
			a.showLedger = !a.showLedger
			if a.showLedger {
				return a, a.ledger.Refresh(a.sessionID)
			}
			return a, nil

		case "esc":
			if a.showLedger {
				a.showLedger = false
				return a, nil
			}
			a.cmdBar.SetMessage("", false)
		}

		if a.showLedger {
			var cmd tea.Cmd
			a.ledger, cmd = a.ledger.Update(msg)
			return a, cmd
		}

		switch msg.String() {
		case "up":
			if a.suggestions.IsVisible() {
				a.suggestions.Prev()
				return a, nil
			}
			a.viewport.LineUp(1)

		case "down":
			if a.suggestions.IsVisible() {
				a.suggestions.Next()
				return a, nil
			}
			a.viewport.LineDown(1)

		case "tab":
			if a.acceptSuggestion() {
				return a, nil
			}
			a.toggleRole()
			return a, nil

		case "enter":
			if a.acceptSuggestion() {
				return a, nil
			}
			text := strings.TrimSpace(a.input.Value())
			if text == "" || a.busy {
				return a, nil
			}
			a.input.SetValue("")
			a.suggestions.Update("")
			return a, a.submit(text)
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.input.Width = msg.Width - 6
		a.viewport.Width = msg.Width
		a.viewport.Height = max(3, msg.Height-9)
		a.ledger.SetSize(msg.Width, max(3, msg.Height-6))
		a.refreshTranscript()

	case daemonStatusMsg:
		a.daemonOnline = msg.online

	case sessionMsg:
		a.sessionID = msg.info.ID
		a.state = msg.info.State
		a.mode = msg.info.State.Mode
		if msg.fresh {
			a.story = &Story{}
			a.lines = nil
			a.cmdBar.SetMessage(fmt.Sprintf("Session %s started (%s)", shortID(a.sessionID), a.mode), false)
		}
		a.refreshTranscript()

	case playerTurnMsg:
		a.busy = false
		a.story = msg.story
		a.state = msg.context.State
		a.lines = append(a.lines, Line{
			Kind:   msg.kind,
			Text:   Visible(msg.input.Text),
			System: strings.HasPrefix(strings.TrimSpace(msg.input.Text), "["),
		})
		a.role = RoleNarrator
		a.cmdBar.SetMessage(describeEvents(msg.input, msg.context), false)
		a.refreshTranscript()

	case narrationMsg:
		a.busy = false
		a.story.AddNarration(msg.result.Text)
		a.state = msg.result.State
		a.lines = append(a.lines, Line{Kind: models.ActionContinue, Text: Visible(msg.result.Text)})
		a.role = RolePlayer
		a.cmdBar.SetMessage(describeEvents(msg.result), false)
		a.refreshTranscript()

	case ledgerLoadedMsg:
		if a.showLedger {
			a.ledger.SetRecords(msg.info)
		} else {
			a.cmdBar.SetMessage(fmt.Sprintf("Ledger: %d records (ctrl+l to browse)", len(msg.info.Records)), false)
		}

	case cmdResultMsg:
		a.cmdBar.SetMessage(msg.message, false)

	case errMsg:
		a.busy = false
		a.cmdBar.SetMessage("Error: "+msg.err.Error(), true)
	}

	if a.showLedger {
		var cmd tea.Cmd
		a.ledger, cmd = a.ledger.Update(msg)
		return a, cmd
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)
	a.suggestions.Update(a.input.Value())

	return a, tea.Batch(cmds...)
}

func (a *App) acceptSuggestion() bool {
	if !a.suggestions.IsVisible() {
		return false
	}
	if selected := a.suggestions.Selected(); selected != nil {
		a.input.SetValue(selected.Text)
		a.input.CursorEnd()
		a.suggestions.Update("")
	}
	return true
}

func (a *App) toggleRole() {
	if a.role == RolePlayer {
		a.role = RoleNarrator
		a.input.Placeholder = "Write what happens next..."
	} else {
		a.role = RolePlayer
		a.input.Placeholder = "What do you do?"
	}
}

// submit routes a line to the console, the player turn or the narrator.
func (a *App) submit(text string) tea.Cmd {
	if strings.HasPrefix(text, ":") {
		return a.cmdBar.Execute(a.client, a.sessionID, text)
	}
	if a.sessionID == "" {
		a.cmdBar.SetMessage("No session yet; try :new", true)
		return nil
	}
	a.busy = true
	if a.role == RoleNarrator {
		return a.narrate(text)
	}
	return a.playTurn(text)
}

// playTurn runs the input phase on the player's text, records the
// rewritten action and runs the context phase over the new history.
func (a *App) playTurn(text string) tea.Cmd {
	client, id, story := a.client, a.sessionID, a.story
	return func() tea.Msg {
		kind, body := Classify(text)
		in, err := client.RunPhase(id, engine.PhaseInput, story.Turn(body))
		if err != nil {
			return errMsg{err}
		}
		next := story.WithPlayer(kind, in.Text)
		ctx, err := client.RunPhase(id, engine.PhaseContext, next.Turn(next.Prompt()))
		if err != nil {
			return errMsg{err}
		}
		return playerTurnMsg{story: next, kind: kind, input: in, context: ctx}
	}
}

// narrate runs the output phase on narrator text.
func (a *App) narrate(text string) tea.Cmd {
	client, id, story := a.client, a.sessionID, a.story
	return func() tea.Msg {
		res, err := client.RunPhase(id, engine.PhaseOutput, story.Turn(text))
		if err != nil {
			return errMsg{err}
		}
		return narrationMsg{result: res}
	}
}

func (a *App) openSession() tea.Cmd {
	client, id, mode := a.client, a.sessionID, a.mode
	return func() tea.Msg {
		if id != "" {
			info, err := client.GetSession(id)
			if err != nil {
				return errMsg{err}
			}
			return sessionMsg{info: info}
		}
		info, err := client.CreateSession(mode)
		if err != nil {
			return errMsg{err}
		}
		return sessionMsg{info: info, fresh: true}
	}
}

func (a *App) checkDaemon() tea.Cmd {
	client := a.client
	return func() tea.Msg {
		return daemonStatusMsg{online: client.Ping()}
	}
}

func (a *App) refreshTranscript() {
	width := a.viewport.Width
	if width <= 0 {
		width = 80
	}
	wrap := lipgloss.NewStyle().Width(width - 2)

	var b strings.Builder
	for _, l := range a.lines {
		switch {
		case l.System:
			b.WriteString(systemStyle.Render(wrap.Render(l.Text)))
		case l.Kind.IsPlayerAction():
			b.WriteString(playerStyle.Render(wrap.Render("> " + l.Text)))
		default:
			b.WriteString(wrap.Render(l.Text))
		}
		b.WriteString("\n\n")
	}
	if len(a.lines) == 0 {
		b.WriteString(helpStyle.Render("Set the clock with [settime mm/dd/yyyy h:mm am], then play. Tab switches between player and narrator."))
	}
	a.viewport.SetContent(b.String())
	a.viewport.GotoBottom()
}

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	daemonStatus := onlineStyle.Render("● DAEMON")
	if !a.daemonOnline {
		daemonStatus = offlineStyle.Render("○ DAEMON")
	}
	header := titleStyle.Render("WTG World Time") + "  " + daemonStatus
	if a.sessionID != "" {
		header += "  " + helpStyle.Render("session "+shortID(a.sessionID))
	}
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(statusBarStyle.Width(max(a.width, 20)).Render(ClockLine(a.state)))
	b.WriteString("\n")
	if cd := CooldownLine(a.state); cd != "" {
		b.WriteString(helpStyle.Render(cd))
	}
	b.WriteString("\n")

	if a.showLedger {
		b.WriteString(a.ledger.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("esc back • r refresh • / filter"))
		return b.String()
	}

	b.WriteString(a.viewport.View())
	b.WriteString("\n")
	if s := a.suggestions.Render(max(a.width, 20)); s != "" {
		b.WriteString(s)
		b.WriteString("\n")
	}

	prompt := playerStyle.Render("> ")
	if a.role == RoleNarrator {
		prompt = systemStyle.Render("~ ")
	}
	if a.busy {
		prompt = helpStyle.Render("… ")
	}
	b.WriteString(inputBoxStyle.Width(max(a.width-2, 20)).Render(prompt + a.input.View()))
	b.WriteString("\n")
	b.WriteString(a.cmdBar.View(a.role))
	return b.String()
}

// describeEvents summarizes what the phases decided.
func describeEvents(results ...*engine.Result) string {
	var kinds []string
	for _, r := range results {
		for _, ev := range r.Events {
			s := string(ev.Kind)
			if ev.Detail != "" {
				s += "(" + ev.Detail + ")"
			}
			kinds = append(kinds, s)
		}
	}
	if len(kinds) == 0 {
		return ""
	}
	return strings.Join(kinds, " • ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

type daemonStatusMsg struct {
	online bool
}

type sessionMsg struct {
	info  *SessionInfo
	fresh bool
}

type playerTurnMsg struct {
	story   *Story
	kind    models.ActionType
	input   *engine.Result
	context *engine.Result
}

type narrationMsg struct {
	result *engine.Result
}

type errMsg struct {
	err error
}
