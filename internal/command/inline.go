package command

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/fentz26/worldtime/internal/anchor"
	"github.com/fentz26/worldtime/internal/cooldown"
	"github.com/fentz26/worldtime/internal/session"
	"github.com/fentz26/worldtime/internal/turntime"
)

var (
	inlinePattern = regexp.MustCompile(`^\s*\((sleep|advance)\s+(\d+)\s+(\w+)\)\s*`)
	strayPattern  = regexp.MustCompile(`(?i)\((?:sleep|advance)[^)]*\)`)
	multiSpace    = regexp.MustCompile(` {2,}`)
)

// Inline is a model-issued time command found at the start of output.
type Inline struct {
	Kind   cooldown.Kind
	Amount int
	Unit   string
	Raw    string
}

// ParseInline reads a leading "(sleep N unit)" or "(advance N unit)".
func ParseInline(text string) (Inline, bool) {
	m := inlinePattern.FindStringSubmatch(text)
	if m == nil {
		return Inline{}, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return Inline{}, false
	}
	return Inline{
		Kind:   cooldown.Kind(m[1]),
		Amount: n,
		Unit:   strings.ToLower(m[3]),
		Raw:    strings.TrimSpace(m[0]),
	}, true
}

// Delta converts the command into a duration. Years and months use the
// approximate calendar. ok is false for unknown units or zero amounts.
func (c Inline) Delta() (turntime.Duration, bool) {
	var d turntime.Duration
	switch c.Unit {
	case "year", "years":
		d.Days = c.Amount * anchor.DaysPerYear
	case "month", "months":
		d.Days = c.Amount * anchor.DaysPerMonth
	case "week", "weeks":
		d.Days = c.Amount * 7
	case "day", "days":
		d.Days = c.Amount
	case "hour", "hours":
		d.Hours = c.Amount
	case "minute", "minutes":
		d.Minutes = c.Amount
	default:
		return d, false
	}
	return d, !d.IsZero()
}

// StripLeading removes a leading inline command from text.
func StripLeading(text string) string {
	return strings.TrimSpace(inlinePattern.ReplaceAllString(text, ""))
}

// StripStray removes inline command fragments anywhere in text.
func StripStray(text string) string {
	text = strayPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(multiSpace.ReplaceAllString(text, " "))
}

// InlineResult reports what ApplyInline did to the output text.
type InlineResult struct {
	State    session.State
	Text     string
	Command  *Inline
	Applied  bool
	Rejected bool
}

// ApplyInline processes a leading model command. When enabled is false
// every command is stripped without effect. An accepted command advances
// the clock, arms its cooldown and is recorded; a command whose cooldown
// is still running is stripped and ignored. With debug on, accepted
// command text is left in place.
func ApplyInline(st session.State, text string, enabled, debug bool) InlineResult {
	res := InlineResult{State: st, Text: text}
	if !enabled {
		res.Text = StripStray(text)
		return res
	}

	cmd, ok := ParseInline(text)
	if ok {
		res.Command = &cmd
		if res.State.Cooldowns.IsActive(cmd.Kind, res.State.Elapsed) {
			res.Rejected = true
			res.Text = StripLeading(res.Text)
		} else {
			if delta, valid := cmd.Delta(); valid {
				res.State.Advance(delta)
				res.State.Cooldowns.Arm(cmd.Kind, res.State.Elapsed)
				res.State.Cooldowns.Record(cmd.Kind, res.State.Elapsed, cmd.Raw)
				res.State.AICommand = cmd.Raw
				res.Applied = true
			}
			if !debug {
				res.Text = StripLeading(res.Text)
			}
		}
	} else {
		res.State.AICommand = ""
	}

	if res.State.Cooldowns.AnyActive(res.State.Elapsed) || !debug {
		res.Text = StripStray(res.Text)
	}
	return res
}
