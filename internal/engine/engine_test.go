package engine

import (
	"io"
	"log/slog"
	"math/rand"
	"strings"
	"testing"

	"github.com/fentz26/worldtime/internal/anchor"
	"github.com/fentz26/worldtime/internal/cards"
	"github.com/fentz26/worldtime/internal/command"
	"github.com/fentz26/worldtime/internal/ledger"
	"github.com/fentz26/worldtime/internal/models"
	"github.com/fentz26/worldtime/internal/pacing"
	"github.com/fentz26/worldtime/internal/session"
	"github.com/fentz26/worldtime/internal/turntime"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return New(
		WithDispatcher(command.NewDispatcher(command.WithRand(rand.New(rand.NewSource(7))))),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

// started returns a normal-mode session set to 01/01/2025 8:00 AM with
// its per-turn flags cleared.
func started(t *testing.T, e *Engine, deck *cards.Deck) session.State {
	t.Helper()
	res := e.Input(session.New(models.ModeNormal), deck, Turn{Text: "[settime 01/01/2025 8:00 am]"})
	if !res.Has(EventCommand) {
		t.Fatalf("settime failed: %q", res.Text)
	}
	st := res.State
	st.ResetTurnFlags()
	return st
}

func TestInputSettime(t *testing.T) {
	e := newTestEngine(t)
	deck := cards.NewDeck(nil)

	res := e.Input(session.New(models.ModeNormal), deck, Turn{Text: "[settime 01/01/2025 8:00 am]"})
	if !strings.HasPrefix(res.Text, "[SYSTEM] Starting date and time set to 01/01/2025 8:00 AM.") {
		t.Errorf("Text = %q", res.Text)
	}
	if !res.State.Initialized || !res.State.ModifiedByCommand || !res.State.InsertMarker {
		t.Errorf("unexpected state: %+v", res.State)
	}
	if !ledger.New(deck, nil).Initialized() {
		t.Error("data card not marked initialized")
	}
	dt := deck.Find(cards.TitleDateTime)
	if dt == nil || !strings.Contains(dt.Entry, "Current time: 8:00 AM") {
		t.Errorf("date/time card = %+v", dt)
	}
	if deck.Find(cards.TitleSettings) == nil || deck.Find(cards.TitleCommands) == nil {
		t.Error("system cards not created")
	}
}

func TestInputPassthrough(t *testing.T) {
	e := newTestEngine(t)
	deck := cards.NewDeck(nil)
	st := started(t, e, deck)

	res := e.Input(st, deck, Turn{Text: "I open the door."})
	if res.Text != "I open the door." || len(res.Events) != 0 {
		t.Errorf("Input() = %+v", res)
	}
}

func TestInputRejectedCommand(t *testing.T) {
	e := newTestEngine(t)
	deck := cards.NewDeck(nil)
	st := session.New(models.ModeNormal)

	res := e.Input(st, deck, Turn{Text: "[advance 2 hours]"})
	if !res.Has(EventCommandRejected) || !res.State.Elapsed.IsZero() {
		t.Errorf("Input() = %+v", res)
	}
	if !strings.Contains(res.Text, "descriptive (Unknown)") {
		t.Errorf("Text = %q", res.Text)
	}
}

func TestContextTrustsCommandMarker(t *testing.T) {
	e := newTestEngine(t)
	deck := cards.NewDeck(nil)
	in := e.Input(session.New(models.ModeNormal), deck, Turn{Text: "[settime 01/01/2025 8:00 am]"})

	history := []models.HistoryEntry{
		{Type: models.ActionStory, Text: strings.Repeat("long prose ", 500)},
		{Type: models.ActionDo, Text: in.Text},
	}
	res := e.Context(in.State, deck, Turn{Text: "ctx", History: history})
	if !res.State.Elapsed.IsZero() {
		t.Errorf("Elapsed = %v, want zero", res.State.Elapsed)
	}
	if res.State.ModifiedByCommand {
		t.Error("ModifiedByCommand not consumed")
	}
	if !strings.HasSuffix(res.Text, "\nCurrent date: 01/01/2025; Current time: 8:00 AM") {
		t.Errorf("Text = %q", res.Text)
	}
	if !strings.Contains(res.Text, "Messages enclosed in [ ]") || !strings.Contains(res.Text, "<scratchpad>") {
		t.Errorf("instructions missing: %q", res.Text)
	}
}

func TestContextChargesProse(t *testing.T) {
	e := newTestEngine(t)
	deck := cards.NewDeck(nil)
	st := started(t, e, deck)

	history := []models.HistoryEntry{
		{Type: models.ActionStory, Text: "Start. [[00y00m00d00h10n00s]]"},
		{Type: models.ActionDo, Text: strings.Repeat("x", 1400)},
		{Type: models.ActionContinue, Text: strings.Repeat("y", 700)},
	}
	res := e.Context(st, deck, Turn{Text: "ctx", History: history})
	// 2100 chars is 3 minutes, boosted to floor(3.9) with no ledger.
	if res.State.Elapsed != turntime.Minutes(13) {
		t.Errorf("Elapsed = %v, want 13 minutes", res.State.Elapsed)
	}
	if res.State.Current.Time != "8:13 AM" || res.State.InsertMarker {
		t.Errorf("unexpected state: %+v", res.State)
	}
}

func TestContextInsertsMarkerAfterLongProse(t *testing.T) {
	e := newTestEngine(t)
	deck := cards.NewDeck(nil)
	st := started(t, e, deck)

	history := []models.HistoryEntry{{Type: models.ActionStory, Text: strings.Repeat("z", pacing.MarkerInterval)}}
	res := e.Context(st, deck, Turn{Text: "ctx", History: history})
	if !res.State.InsertMarker {
		t.Error("InsertMarker not set")
	}
	if res.State.Elapsed != turntime.Minutes(13) {
		t.Errorf("Elapsed = %v, want 13 minutes", res.State.Elapsed)
	}
}

func TestContextRollbackPrunesLedger(t *testing.T) {
	e := newTestEngine(t)
	deck := cards.NewDeck(nil)
	st := started(t, e, deck)
	l := ledger.New(deck, nil)
	l.Append(ledger.Record{ActionType: models.ActionDo, ActionText: "open the door", Timestamp: turntime.Minutes(5)})
	l.Append(ledger.Record{ActionType: models.ActionDo, ActionText: "look around", Timestamp: turntime.Minutes(10)})

	history := []models.HistoryEntry{
		{Type: models.ActionDo, Text: "climb the tree"},
		{Type: models.ActionContinue, Text: "You climb. [[00y00m00d00h07n00s]]"},
		{Type: models.ActionDo, Text: "jump"},
	}
	res := e.Context(st, deck, Turn{Text: "ctx", History: history})
	if !res.Has(EventRollback) {
		t.Fatalf("rollback not detected: %+v", res.Events)
	}
	recs := l.ParseAll()
	if len(recs) != 1 || recs[0].ActionText != "open the door" {
		t.Errorf("ledger = %+v", recs)
	}
	if res.State.Elapsed != turntime.Minutes(7) {
		t.Errorf("Elapsed = %v, want 7 minutes", res.State.Elapsed)
	}
}

func TestOutputBanner(t *testing.T) {
	e := newTestEngine(t)
	res := e.Output(session.New(models.ModeNormal), cards.NewDeck(nil), Turn{Text: "Once upon a time."})
	if res.Text != Banner || !res.Has(EventBanner) {
		t.Errorf("Output() = %q", res.Text)
	}
}

func TestOutputInitializesFromCard(t *testing.T) {
	e := newTestEngine(t)
	deck := cards.NewDeck([]models.Card{{Title: "Intro", Entry: "[settime 03/04/2025 9:00 am] The tale begins."}})

	res := e.Output(session.New(models.ModeNormal), deck, Turn{Text: "Rain falls."})
	if res.State.Anchor != (anchor.Anchor{Date: "03/04/2025", Time: "9:00 AM"}) || !res.State.Initialized {
		t.Errorf("Anchor = %+v", res.State.Anchor)
	}
	if got := deck.Find("Intro").Entry; got != "The tale begins." {
		t.Errorf("card entry = %q", got)
	}
	if res.Text != " Rain falls." {
		t.Errorf("Text = %q", res.Text)
	}
}

func TestOutputChargesNarrative(t *testing.T) {
	e := newTestEngine(t)
	deck := cards.NewDeck(nil)
	st := started(t, e, deck)

	history := []models.HistoryEntry{{Type: models.ActionDo, Text: "look"}}
	res := e.Output(st, deck, Turn{Text: strings.Repeat("z", 1400), History: history, ActionCount: 2})
	if res.State.Current.Time != "8:02 AM" {
		t.Errorf("Current = %+v", res.State.Current)
	}
	if !strings.HasPrefix(res.Text, " z") {
		t.Errorf("Text lacks leading space: %q", res.Text[:5])
	}
	recs := ledger.New(deck, nil).ParseAll()
	if len(recs) != 1 || recs[0].ActionText != "look" || recs[0].Timestamp != turntime.Minutes(2) {
		t.Errorf("ledger = %+v", recs)
	}
	if dt := deck.Find(cards.TitleDateTime); !strings.Contains(dt.Entry, "Current time: 8:02 AM") {
		t.Errorf("date/time card = %q", dt.Entry)
	}
}

func TestOutputSkipsLedgerOnContinue(t *testing.T) {
	e := newTestEngine(t)
	deck := cards.NewDeck(nil)
	st := started(t, e, deck)

	history := []models.HistoryEntry{
		{Type: models.ActionDo, Text: "look"},
		{Type: models.ActionContinue, Text: "You look."},
	}
	e.Output(st, deck, Turn{Text: "More happens.", History: history})
	if n := len(ledger.New(deck, nil).ParseAll()); n != 0 {
		t.Errorf("ledger has %d records, want 0", n)
	}
}

func TestOutputInlineSleep(t *testing.T) {
	e := newTestEngine(t)
	deck := cards.NewDeck(nil)
	st := started(t, e, deck)

	history := []models.HistoryEntry{{Type: models.ActionDo, Text: "go to bed"}}
	res := e.Output(st, deck, Turn{Text: "(sleep 8 hours) You wake refreshed.", History: history})
	if res.Text != " You wake refreshed." {
		t.Errorf("Text = %q", res.Text)
	}
	if res.State.Current.Time != "4:00 PM" || !res.Has(EventInlineApplied) {
		t.Errorf("unexpected result: %+v", res.State.Current)
	}
	recs := ledger.New(deck, nil).ParseAll()
	if len(recs) != 1 || recs[0].AICommand != "(sleep 8 hours)" {
		t.Errorf("ledger = %+v", recs)
	}
	if cd := deck.Find(cards.TitleCooldowns); !strings.Contains(cd.Entry, "Sleep available after: 01/02/2025 12:00 AM") {
		t.Errorf("cooldown card = %q", cd.Entry)
	}
}

func TestOutputLightweightStripsInline(t *testing.T) {
	e := newTestEngine(t)
	deck := cards.NewDeck(nil)
	in := e.Input(session.New(models.ModeLightweight), deck, Turn{Text: "[settime 01/01/2025 8:00 am]"})
	st := in.State
	st.ResetTurnFlags()

	res := e.Output(st, deck, Turn{Text: "(advance 3 days) Time flies."})
	if res.Text != " Time flies." || !res.State.Elapsed.IsZero() {
		t.Errorf("Output() = %q %+v", res.Text, res.State.Elapsed)
	}
}

func TestOutputTamperWarning(t *testing.T) {
	e := newTestEngine(t)
	deck := cards.NewDeck(nil)
	st := started(t, e, deck)

	res := e.Output(st, deck, Turn{Text: "Story goes on. [[00y00m00d05h00n00s]]"})
	if res.Text != " Story goes on."+TamperWarning || !res.Has(EventTampered) {
		t.Errorf("Text = %q", res.Text)
	}
}

func TestOutputInsertsMarker(t *testing.T) {
	e := newTestEngine(t)
	deck := cards.NewDeck(nil)
	st := started(t, e, deck)
	st.InsertMarker = true

	res := e.Output(st, deck, Turn{Text: "Short."})
	if res.Text != " Short. [[00y00m00d00h00n00s]]" || res.State.InsertMarker {
		t.Errorf("Output() = %q", res.Text)
	}
}

func TestOutputStampsMentionedCards(t *testing.T) {
	e := newTestEngine(t)
	deck := cards.NewDeck([]models.Card{{Title: "Mira", Type: "character", Keys: "Mira", Entry: "A smuggler."}})
	st := started(t, e, deck)

	history := []models.HistoryEntry{{Type: models.ActionSay, Text: "hello"}}
	res := e.Output(st, deck, Turn{Text: "Mira waves.", History: history})
	if got := deck.Find("Mira").Entry; got != "A smuggler.\n\nMet on 01/01/2025 8:00 AM" {
		t.Errorf("card entry = %q", got)
	}
	if !res.Has(EventStamped) {
		t.Error("stamp event missing")
	}
}

func TestDisabledPassthrough(t *testing.T) {
	e := newTestEngine(t)
	deck := cards.NewDeck(nil)
	st := started(t, e, deck)
	deck.Find(cards.TitleSettings).Entry = strings.Replace(
		cards.DefaultSettingsEntry(models.ModeNormal), "Disable WTG Entirely: false", "Disable WTG Entirely: true", 1)

	for _, phase := range []Phase{PhaseInput, PhaseContext} {
		if res := e.Run(phase, st, deck, Turn{Text: "[sleep]"}); res.Text != "[sleep]" {
			t.Errorf("%s Text = %q", phase, res.Text)
		}
	}
	if res := e.Output(st, deck, Turn{Text: "Plain."}); res.Text != " Plain." {
		t.Errorf("output Text = %q", res.Text)
	}
}

func TestFirstSentences(t *testing.T) {
	tests := []struct{ in, want string }{
		{"One. Two! Three?", "One. Two!"},
		{"Only one.", "Only one."},
		{"No ending", "No ending"},
		{`"Go," she said. He went. Done.`, `"Go," she said. He went.`},
	}
	for _, tt := range tests {
		if got := firstSentences(tt.in, 2); got != tt.want {
			t.Errorf("firstSentences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
