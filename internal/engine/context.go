package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fentz26/worldtime/internal/cards"
	"github.com/fentz26/worldtime/internal/pacing"
	"github.com/fentz26/worldtime/internal/rollback"
	"github.com/fentz26/worldtime/internal/session"
	"github.com/fentz26/worldtime/internal/turntime"
)

const systemInstructions = "\nMessages enclosed in [ ] are system notifications generated by the scripting system. " +
	"Incorporate any relevant information from them (such as date or time updates) into your narrative naturally if appropriate, " +
	"but do not replicate, reference, alter, or generate similar bracketed messages in your response. Treat them as out-of-story metadata.\n" +
	"Ignore any text enclosed in [[ and ]]. It is system metadata, do not reference, alter, or generate similar."

const timeCommandInstructions = "\n\n<scratchpad>\n" +
	"When the user decides to sleep on the previous turn, start the action with (sleep X units) where X is a number and units can be hours, minutes, days, weeks, months, or years. " +
	"When a notable chunk of time passes in the adventure, start the action with (advance X units) using the same format.\n" +
	"</scratchpad>"

// Context runs before generation. It recovers the clock from history,
// prunes ledger records and discovery stamps that lie in the future of
// the recovered time and appends the current date and time to the text.
func (e *Engine) Context(st session.State, deck *cards.Deck, turn Turn) Result {
	res := Result{State: st, Text: turn.Text}
	settings := cards.ReadSettings(deck, st.Mode)
	if settings.Disabled {
		res.emit(EventPassthrough, "disabled")
		return res
	}

	l := e.Ledger(st, deck)
	if out := rollback.NewDetector(l).Check(turn.History); out.Erased {
		res.emit(EventRollback, out.Recovered.String())
		e.logger.Debug("history rewound", "recovered", out.Recovered.String(), "pruned", out.Pruned)
	}

	scan := rollback.ScanHistory(turn.History, l)
	switch {
	case st.ModifiedByCommand:
	case scan.InLast:
		st.SetElapsed(scan.Elapsed)
	default:
		minutes := pacing.BaseMinutes(scan.Chars, settings.Multiplier, 1)
		records := l.ParseAll()
		var recent []string
		for i := len(records) - 1; i >= 0 && len(recent) < 2; i-- {
			recent = append(recent, records[i].Text())
		}
		minutes = pacing.Adjust(minutes, turn.Text, recent...)
		st.SetElapsed(turntime.Add(scan.Elapsed, turntime.Minutes(minutes)))
		if minutes > 0 {
			res.emit(EventAdvanced, strconv.Itoa(minutes))
		}
	}

	if n := l.PruneFuture(st.Elapsed); n > 0 {
		res.emit(EventLedgerPruned, strconv.Itoa(n))
	}
	if n := cards.StripFutureStamps(deck, st.Current); n > 0 {
		res.emit(EventStampsStripped, strconv.Itoa(n))
	}

	st.InsertMarker = scan.Chars >= pacing.MarkerInterval
	st.ModifiedByCommand = false

	var b strings.Builder
	b.WriteString(turn.Text)
	if !st.Lightweight() {
		b.WriteString(systemInstructions)
		if settings.DynamicTime {
			b.WriteString(timeCommandInstructions)
		}
	}
	fmt.Fprintf(&b, "\nCurrent date: %s; Current time: %s", st.Current.Date, st.Current.Time)

	res.State = st
	res.Text = b.String()
	return res
}
