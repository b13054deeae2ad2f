package command

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fentz26/worldtime/internal/anchor"
	"github.com/fentz26/worldtime/internal/cooldown"
	"github.com/fentz26/worldtime/internal/models"
	"github.com/fentz26/worldtime/internal/session"
	"github.com/fentz26/worldtime/internal/turntime"
)

// Sleep length bounds for the [sleep] command.
const (
	MinSleepHours   = 6
	SleepHourSpread = 3
)

// WakeTime is the anchor time set when sleeping from an unknown time.
const WakeTime = "8:00 AM"

var (
	historyDate = regexp.MustCompile(`\d{1,2}[/.-]\d{1,2}[/.-]\d{2}(?:\d{2})?`)
	historyTime = regexp.MustCompile(`(?i)(\d{1,2}(?::\d{2})?\s*(?:AM|PM|a\.m\.|p\.m\.))|(\d{1,2}:\d{2})|(morning|afternoon|noon|evening|night|dawn|dusk|midday|midnight)`)
	leadingInt  = regexp.MustCompile(`^\d+`)
)

// Dispatcher applies player commands to session state. Its capabilities
// are fixed at construction; the session mode is read per dispatch.
type Dispatcher struct {
	modeToggle bool
	rng        *rand.Rand
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithModeToggle enables the [light] and [normal] commands.
func WithModeToggle(enabled bool) Option {
	return func(d *Dispatcher) { d.modeToggle = enabled }
}

// WithRand sets the random source used by [sleep].
func WithRand(r *rand.Rand) Option {
	return func(d *Dispatcher) { d.rng = r }
}

// NewDispatcher returns a dispatcher with the given options.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{}
	for _, opt := range opts {
		opt(d)
	}
	if d.rng == nil {
		d.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return d
}

// ModeToggle reports whether mode switching commands are available.
func (d *Dispatcher) ModeToggle() bool { return d.modeToggle }

// Result is the outcome of a dispatched command. On rejection State is
// the input state unchanged.
type Result struct {
	State   session.State
	Message string
	// Applied is true when the command moved the clock or the anchor.
	Applied bool
	// AnchorSet is true after a successful settime or reset; placeholder
	// discovery stamps should be refreshed and the session marked
	// initialized (settime only).
	AnchorSet   bool
	Initialized bool
}

// Dispatch applies cmd to st. history is the host history, oldest first,
// and is only read by reset.
func (d *Dispatcher) Dispatch(st session.State, cmd Command, history []models.HistoryEntry) Result {
	switch cmd.Kind {
	case Settime:
		return d.settime(st, cmd.Args)
	case Advance:
		return d.advance(st, cmd.Args)
	case Sleep:
		return d.sleep(st)
	case Reset:
		return d.reset(st, history)
	case Light, Normal:
		if d.modeToggle {
			return d.switchMode(st, cmd.Kind)
		}
	}
	return Result{State: st, Message: d.invalidMessage()}
}

func (d *Dispatcher) invalidMessage() string {
	if d.modeToggle {
		return "[Invalid command. Available: settime, advance, reset, sleep, light, normal.]"
	}
	return "[Invalid command. Available: settime, advance, reset, sleep.]"
}

func applied(st session.State, msg string) Result {
	st.InsertMarker = true
	st.ModifiedByCommand = true
	st.Changed = true
	return Result{State: st, Message: msg, Applied: true}
}

func (d *Dispatcher) settime(st session.State, args []string) Result {
	if len(args) == 0 {
		return Result{State: st, Message: d.invalidMessage()}
	}
	date, err := anchor.ParseDate(args[0])
	if err != nil {
		return Result{State: st, Message: fmt.Sprintf("[Invalid date: %s. Use mm/dd/yyyy or dd/mm/yyyy.]", args[0])}
	}
	clock := anchor.Unknown
	if len(args) > 1 {
		clock = anchor.NormalizeTime(strings.Join(args[1:], " "))
	}

	st.SetAnchor(anchor.Anchor{Date: date, Time: clock})
	st.Initialized = true
	res := applied(st, fmt.Sprintf("[SYSTEM] Starting date and time set to %s %s. %s",
		st.Anchor.Date, st.Anchor.Time, st.Marker()))
	res.AnchorSet = true
	res.Initialized = true
	return res
}

// advanceUnit maps a unit word to a duration field. Minutes need at least
// "mi"; any other word starting with "m" is months.
func advanceUnit(amount int, unit string) turntime.Duration {
	unit = strings.ToLower(unit)
	switch {
	case strings.HasPrefix(unit, "y"):
		return turntime.Duration{Years: amount}
	case strings.HasPrefix(unit, "mi"):
		return turntime.Duration{Minutes: amount}
	case strings.HasPrefix(unit, "m"):
		return turntime.Duration{Months: amount}
	case strings.HasPrefix(unit, "d"):
		return turntime.Duration{Days: amount}
	default:
		return turntime.Duration{Hours: amount}
	}
}

func (d *Dispatcher) advance(st session.State, args []string) Result {
	if !st.Anchor.Numeric() {
		return Result{State: st, Message: fmt.Sprintf(
			"[Time advancement not applied as current time is descriptive (%s). Use [settime] to set a numeric time if needed.]",
			st.Anchor.Time)}
	}
	if len(args) == 0 || !leadingInt.MatchString(args[0]) {
		return Result{State: st, Message: d.invalidMessage()}
	}
	amount, err := strconv.Atoi(leadingInt.FindString(args[0]))
	if err != nil {
		return Result{State: st, Message: d.invalidMessage()}
	}
	unit := "hours"
	if len(args) > 1 {
		unit = args[1]
	}
	extra := 0
	if !st.Lightweight() && len(args) > 3 && args[2] == "minutes" {
		extra, _ = strconv.Atoi(args[3])
	}

	delta := advanceUnit(amount, unit)
	delta.Minutes += extra
	st.Advance(delta)
	st.Cooldowns.Arm(cooldown.Advance, st.Elapsed)

	suffix := ""
	if extra > 0 {
		suffix = fmt.Sprintf(" and %d minutes", extra)
	}
	return applied(st, fmt.Sprintf("[SYSTEM] Advanced %d %s%s. New date/time: %s. %s",
		amount, unit, suffix, st.Current, st.Marker()))
}

func (d *Dispatcher) sleep(st session.State) Result {
	var msg string
	if anchor.IsNumeric(st.Current.Time) {
		before := st.Current.Date
		st.Advance(turntime.Duration{
			Hours:   d.rng.Intn(SleepHourSpread) + MinSleepHours,
			Minutes: d.rng.Intn(60),
		})
		when := "later that day"
		if st.Current.Date != before {
			when = "the next day"
		}
		msg = fmt.Sprintf("[SYSTEM] You go to sleep and wake up %s on %s at %s. %s",
			when, st.Current.Date, st.Current.Time, st.Marker())
	} else {
		st.Anchor.Time = WakeTime
		st.SetElapsed(turntime.Days(1))
		msg = fmt.Sprintf("[SYSTEM] You go to sleep and wake up the next morning on %s at %s. %s",
			st.Current.Date, st.Current.Time, st.Marker())
	}
	st.Cooldowns.Arm(cooldown.Sleep, st.Elapsed)
	return applied(st, msg)
}

// FindMention returns the newest date and time mentioned in history. A
// descriptive time word is skipped when the current time is already a
// clock time. time is empty when only a date was found.
func FindMention(history []models.HistoryEntry, currentPrecise bool) (date, clock string, ok bool) {
	for i := len(history) - 1; i >= 0 && date == ""; i-- {
		if all := historyDate.FindAllString(history[i].Text, -1); len(all) > 0 {
			date = all[len(all)-1]
		}
	}
	for i := len(history) - 1; i >= 0 && clock == ""; i-- {
		all := historyTime.FindAllString(history[i].Text, -1)
		if len(all) == 0 {
			continue
		}
		last := strings.TrimSpace(all[len(all)-1])
		if anchor.IsDescriptive(last) && currentPrecise {
			continue
		}
		clock = last
	}
	return date, clock, date != ""
}

func (d *Dispatcher) reset(st session.State, history []models.HistoryEntry) Result {
	notFound := Result{State: st, Message: "[No date or time mentions found in history.]"}

	rawDate, rawTime, ok := FindMention(history, anchor.IsNumeric(st.Current.Time))
	if !ok {
		return notFound
	}
	date, err := anchor.ParseDate(rawDate)
	if err != nil {
		return notFound
	}
	clock := st.Anchor.Time
	if rawTime != "" {
		clock = anchor.NormalizeTime(rawTime)
	}

	st.SetElapsed(anchor.DateDiff(st.Anchor.Date, st.Anchor.Time, date, clock))
	st.Cooldowns.Clear()
	res := applied(st, fmt.Sprintf("[SYSTEM] Date and time reset to most recent mention: %s. %s",
		st.Current, st.Marker()))
	res.AnchorSet = true
	return res
}

func (d *Dispatcher) switchMode(st session.State, kind Kind) Result {
	if kind == Light {
		st.Mode = models.ModeLightweight
		return Result{State: st, Message: "[Switched to Lightweight mode. All advanced features disabled.]"}
	}
	st.Mode = models.ModeNormal
	return Result{State: st, Message: "[Switched to Normal mode. All advanced features enabled.]"}
}
