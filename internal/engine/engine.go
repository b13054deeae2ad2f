// Package engine runs the three per-turn phases against a session's state
// and card deck: Input rewrites player commands, Context reconciles the
// clock before generation and Output accounts for the generated text.
package engine

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/fentz26/worldtime/internal/anchor"
	"github.com/fentz26/worldtime/internal/cards"
	"github.com/fentz26/worldtime/internal/command"
	"github.com/fentz26/worldtime/internal/ledger"
	"github.com/fentz26/worldtime/internal/models"
	"github.com/fentz26/worldtime/internal/session"
)

// Phase names a turn phase.
type Phase string

const (
	PhaseInput   Phase = "input"
	PhaseContext Phase = "context"
	PhaseOutput  Phase = "output"
)

// ParsePhase validates a phase name.
func ParsePhase(s string) (Phase, bool) {
	switch p := Phase(s); p {
	case PhaseInput, PhaseContext, PhaseOutput:
		return p, true
	}
	return "", false
}

// Turn is the host data handed to a phase.
type Turn struct {
	Text        string                `json:"text"`
	History     []models.HistoryEntry `json:"history"`
	ActionCount int                   `json:"action_count"`
}

// EventKind classifies something a phase did.
type EventKind string

const (
	EventPassthrough     EventKind = "passthrough"
	EventInitialized     EventKind = "initialized"
	EventBanner          EventKind = "banner"
	EventCommand         EventKind = "command"
	EventCommandRejected EventKind = "command_rejected"
	EventModeChanged     EventKind = "mode_changed"
	EventRollback        EventKind = "rollback"
	EventLedgerPruned    EventKind = "ledger_pruned"
	EventStampsStripped  EventKind = "stamps_stripped"
	EventAdvanced        EventKind = "advanced"
	EventInlineApplied   EventKind = "inline_applied"
	EventInlineRejected  EventKind = "inline_rejected"
	EventTampered        EventKind = "marker_tampered"
	EventLedgerAppend    EventKind = "ledger_append"
	EventExcluded        EventKind = "excluded"
	EventStamped         EventKind = "stamped"
	EventMarker          EventKind = "marker_inserted"
)

// Event is one observable decision made during a phase.
type Event struct {
	Kind   EventKind `json:"kind"`
	Detail string    `json:"detail,omitempty"`
}

// Result is the output of a phase.
type Result struct {
	State  session.State `json:"state"`
	Text   string        `json:"text"`
	Events []Event       `json:"events,omitempty"`
}

func (r *Result) emit(kind EventKind, detail string) {
	r.Events = append(r.Events, Event{Kind: kind, Detail: detail})
}

// Has reports whether the phase emitted an event of kind.
func (r Result) Has(kind EventKind) bool {
	for _, ev := range r.Events {
		if ev.Kind == kind {
			return true
		}
	}
	return false
}

// Engine holds the per-process configuration of the phases. It keeps no
// session state; every call reads and returns an explicit State.
type Engine struct {
	dispatcher *command.Dispatcher
	codec      ledger.Codec
	logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithDispatcher sets the command dispatcher.
func WithDispatcher(d *command.Dispatcher) Option {
	return func(e *Engine) { e.dispatcher = d }
}

// WithCodec sets the ledger codec used in normal mode.
func WithCodec(c ledger.Codec) Option {
	return func(e *Engine) { e.codec = c }
}

// WithLogger sets the logger for phase decisions.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New returns an engine.
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.dispatcher == nil {
		e.dispatcher = command.NewDispatcher()
	}
	if e.codec == nil {
		e.codec = ledger.TextCodec{}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Run dispatches to the named phase.
func (e *Engine) Run(phase Phase, st session.State, deck *cards.Deck, turn Turn) Result {
	switch phase {
	case PhaseInput:
		return e.Input(st, deck, turn)
	case PhaseContext:
		return e.Context(st, deck, turn)
	default:
		return e.Output(st, deck, turn)
	}
}

// Ledger picks the ledger encoding for the session mode. Lightweight
// sessions write compact text blocks unless records are kept as JSON.
func (e *Engine) Ledger(st session.State, deck *cards.Deck) *ledger.CardLedger {
	if _, isText := e.codec.(ledger.TextCodec); isText && st.Lightweight() {
		return ledger.New(deck, ledger.TextCodec{Compact: true})
	}
	return ledger.New(deck, e.codec)
}

func (e *Engine) modeToggles() bool { return e.dispatcher.ModeToggle() }

// ensureSystemCards creates the engine's cards once the clock is set.
func (e *Engine) ensureSystemCards(st session.State, deck *cards.Deck) {
	e.refreshClockCards(st, deck)
	cards.EnsureSettings(deck, st.Mode)
	cards.CommandsCard(deck, e.modeToggles())
	if !st.Lightweight() {
		cards.DataCard(deck)
	}
}

func (e *Engine) refreshClockCards(st session.State, deck *cards.Deck) {
	cards.UpdateDateTime(deck, cards.DateTimeView{
		Anchor:        st.Anchor,
		Current:       st.Current,
		Elapsed:       st.Elapsed,
		WokeUntil:     st.WokeUntil(),
		AdvancedUntil: st.AdvancedUntil(),
	}, e.modeToggles())
	cards.CooldownCard(deck).Entry = st.Cooldowns.Render(st.Anchor)
}

// initFromTimeConfig applies a time config card marked initialized to a
// session whose clock was never set.
func (e *Engine) initFromTimeConfig(st session.State, deck *cards.Deck, l ledger.Ledger, res *Result) session.State {
	if st.Anchor.Date != anchor.DefaultDate || st.Initialized {
		return st
	}
	cfg, ok := cards.ReadTimeConfig(deck)
	if !ok || !cfg.Initialized {
		return st
	}
	st = e.initialize(st, deck, l, cfg.Anchor)
	res.emit(EventInitialized, "time config")
	return st
}

func (e *Engine) initialize(st session.State, deck *cards.Deck, l ledger.Ledger, a anchor.Anchor) session.State {
	st.SetAnchor(a)
	st.Initialized = true
	l.MarkInitialized()
	e.ensureSystemCards(st, deck)
	e.logger.Debug("clock initialized", "date", a.Date, "time", a.Time)
	return st
}

// lastPlayerAction returns the newest player action when the newest
// history entry is one. A trailing continue entry means the turn is a
// continuation and no action is returned.
func lastPlayerAction(history []models.HistoryEntry) (models.HistoryEntry, bool) {
	if n := len(history); n > 0 && history[n-1].Type == models.ActionContinue {
		return models.HistoryEntry{}, false
	}
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Type.IsPlayerAction() {
			return history[i], true
		}
	}
	return models.HistoryEntry{}, false
}

var sentenceEnd = regexp.MustCompile(`[.!?]+["')\]]*(\s+|$)`)

// firstSentences returns up to n leading sentences of text.
func firstSentences(text string, n int) string {
	text = strings.TrimSpace(text)
	locs := sentenceEnd.FindAllStringIndex(text, n)
	if len(locs) < n {
		return text
	}
	return strings.TrimSpace(text[:locs[n-1][1]])
}

// ensureLeadingSpace prefixes text with a space unless it has one.
func ensureLeadingSpace(text string) string {
	if strings.HasPrefix(text, " ") {
		return text
	}
	return " " + text
}
