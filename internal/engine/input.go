package engine

import (
	"github.com/fentz26/worldtime/internal/cards"
	"github.com/fentz26/worldtime/internal/command"
	"github.com/fentz26/worldtime/internal/session"
)

// Input runs before the player's text reaches the model. A bracket
// command is applied and the text is replaced with the resulting system
// message; anything else passes through.
func (e *Engine) Input(st session.State, deck *cards.Deck, turn Turn) Result {
	res := Result{State: st, Text: turn.Text}
	if cards.ReadSettings(deck, st.Mode).Disabled {
		res.emit(EventPassthrough, "disabled")
		return res
	}

	l := e.Ledger(st, deck)
	st.ResetTurnFlags()
	st = e.initFromTimeConfig(st, deck, l, &res)

	cmd, ok := command.ParseUser(turn.Text)
	if !ok {
		res.State = st
		return res
	}

	out := e.dispatcher.Dispatch(st, cmd, turn.History)
	res.Text = out.Message
	switch {
	case out.Applied:
		st = out.State
		if out.Initialized {
			l.MarkInitialized()
			e.ensureSystemCards(st, deck)
		}
		if out.AnchorSet {
			cards.RefreshPlaceholderStamps(deck, st.Current)
		}
		e.refreshClockCards(st, deck)
		res.emit(EventCommand, string(cmd.Kind))
		e.logger.Debug("command applied", "command", cmd.Kind, "current", st.Current.String())
	case out.State.Mode != st.Mode:
		st = out.State
		cards.EnsureSettings(deck, st.Mode)
		res.emit(EventModeChanged, string(st.Mode))
		e.logger.Debug("mode changed", "mode", st.Mode)
	default:
		res.emit(EventCommandRejected, string(cmd.Kind))
		e.logger.Debug("command rejected", "command", cmd.Raw, "message", out.Message)
	}
	res.State = st
	return res
}
