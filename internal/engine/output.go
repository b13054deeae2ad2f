package engine

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/fentz26/worldtime/internal/anchor"
	"github.com/fentz26/worldtime/internal/cards"
	"github.com/fentz26/worldtime/internal/command"
	"github.com/fentz26/worldtime/internal/ledger"
	"github.com/fentz26/worldtime/internal/models"
	"github.com/fentz26/worldtime/internal/pacing"
	"github.com/fentz26/worldtime/internal/session"
	"github.com/fentz26/worldtime/internal/turntime"
)

// Banner asks the player to set the clock before the first turn.
const Banner = " Please switch to story mode and use the command, [settime mm/dd/yyyy time] to set a custom starting date and time. (eg: [settime 01/01/1900 12:00 am])\n\n" +
	"To enable all of the features, use the command [normal]. You can go back to lightweight mode by using the command [light].\n\n" +
	"Lightweight mode is recommended for free users and llama models, as normal mode relies on the model's instruction following to generate characters and locations."

// TamperWarning is appended when generated text ends in a foreign marker.
const TamperWarning = "\n[Warning: Turn time metadata altered by AI. Please retry.]"

// RecentScan is how many history entries are scanned for card mentions.
const RecentScan = 5

var trailingMarker = regexp.MustCompile(`\[\[(.*?)\]\]$`)

// Output runs after generation. It applies a leading model time command,
// charges the narrative's length to the clock, records the turn in the
// ledger and stamps newly mentioned cards.
func (e *Engine) Output(st session.State, deck *cards.Deck, turn Turn) Result {
	res := Result{State: st}
	settings := cards.ReadSettings(deck, st.Mode)
	if settings.Disabled {
		res.Text = ensureLeadingSpace(turn.Text)
		res.emit(EventPassthrough, "disabled")
		return res
	}

	l := e.Ledger(st, deck)
	if !st.Initialized && l.Initialized() {
		st.Initialized = true
	}
	st = e.initFromCards(st, deck, l, &res)
	if !st.Initialized && st.Anchor == anchor.Default() {
		res.State = st
		res.Text = Banner
		res.emit(EventBanner, "")
		return res
	}

	lastAction, hasAction := lastPlayerAction(turn.History)

	inline := command.ApplyInline(st, turn.Text, settings.DynamicTime, settings.Debug)
	st = inline.State
	switch {
	case inline.Applied:
		res.emit(EventInlineApplied, inline.Command.Raw)
		e.logger.Debug("model command applied", "command", inline.Command.Raw, "current", st.Current.String())
	case inline.Rejected:
		res.emit(EventInlineRejected, inline.Command.Raw)
		e.logger.Debug("model command on cooldown", "command", inline.Command.Raw)
	}

	text := strings.TrimSpace(inline.Text)
	tampered := false
	if m := trailingMarker.FindStringSubmatch(text); m != nil {
		tampered = m[1] != st.Elapsed.String()
		text = trailingMarker.ReplaceAllString(text, "")
	}
	narrative := strings.TrimSpace(text)

	factor := 1.0
	if settings.DynamicTime {
		factor = pacing.DynamicFactor(lastAction.Text + " " + narrative)
	}
	minutes := pacing.BaseMinutes(len(narrative), settings.Multiplier, factor)
	if !inline.Applied && st.Anchor.Time != anchor.Unknown && minutes > 0 {
		st.Advance(turntime.Minutes(minutes))
		res.emit(EventAdvanced, strconv.Itoa(minutes))
	}

	var triggers []cards.Trigger
	if st.Initialized && narrative != "" {
		triggers = cards.TriggerMentions(deck, narrative)
	}

	if hasAction {
		l.Append(ledger.Record{
			ActionType:   lastAction.Type,
			ActionText:   lastAction.Text,
			ResponseText: firstSentences(narrative, 2),
			Triggers:     triggers,
			AICommand:    st.AICommand,
			Timestamp:    st.Elapsed,
		})
		res.emit(EventLedgerAppend, st.Elapsed.String())
	}

	for _, title := range cards.ProcessExclusionMarkers(deck) {
		res.emit(EventExcluded, title)
	}
	for _, title := range cards.StampMentions(deck, mentionScanText(lastAction, turn), st.Current) {
		res.emit(EventStamped, title)
	}

	if st.Changed || turn.ActionCount == 1 || turn.ActionCount%5 == 0 {
		e.refreshClockCards(st, deck)
		st.Changed = false
	}

	out := narrative
	if tampered {
		out += TamperWarning
		res.emit(EventTampered, "")
		e.logger.Debug("generated text carried a foreign marker")
	}
	if st.InsertMarker {
		out += " " + st.Marker()
		res.emit(EventMarker, st.Elapsed.String())
		st.InsertMarker = false
	}

	res.State = st
	res.Text = ensureLeadingSpace(out)
	return res
}

// initFromCards sets the clock of a never-initialized session from the
// time config card or, failing that, a [settime] embedded in any card.
func (e *Engine) initFromCards(st session.State, deck *cards.Deck, l ledger.Ledger, res *Result) session.State {
	if st = e.initFromTimeConfig(st, deck, l, res); st.Initialized || st.Anchor.Date != anchor.DefaultDate {
		return st
	}
	if a, ok := cards.DetectSettime(deck); ok {
		res.emit(EventInitialized, "card settime")
		return e.initialize(st, deck, l, a)
	}
	return st
}

func mentionScanText(lastAction models.HistoryEntry, turn Turn) string {
	parts := []string{lastAction.Text, turn.Text}
	from := max(0, len(turn.History)-RecentScan)
	for _, h := range turn.History[from:] {
		parts = append(parts, h.Text)
	}
	return strings.Join(parts, " ")
}
