package command

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/fentz26/worldtime/internal/anchor"
	"github.com/fentz26/worldtime/internal/cooldown"
	"github.com/fentz26/worldtime/internal/models"
	"github.com/fentz26/worldtime/internal/session"
	"github.com/fentz26/worldtime/internal/turntime"
)

func anchored(date, clock string) session.State {
	st := session.New(models.ModeNormal)
	st.SetAnchor(anchor.Anchor{Date: date, Time: clock})
	st.ResetTurnFlags()
	return st
}

func TestParseUser(t *testing.T) {
	tests := []struct {
		in   string
		ok   bool
		kind Kind
		args int
	}{
		{"[settime 01/02/2025 8:00 am]", true, Settime, 3},
		{"  [ADVANCE 3 hours] ", true, Advance, 2},
		{"[sleep]", true, Sleep, 0},
		{"[sleep 8 hours]", true, Invalid, 2},
		{"[reset]", true, Reset, 0},
		{"[light]", true, Light, 0},
		{"[dance]", true, Invalid, 0},
		{"[ ]", true, Invalid, 0},
		{"I walk [slowly] home", false, "", 0},
		{"plain text", false, "", 0},
	}
	for _, tt := range tests {
		cmd, ok := ParseUser(tt.in)
		if ok != tt.ok {
			t.Errorf("ParseUser(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if !ok {
			continue
		}
		if cmd.Kind != tt.kind || len(cmd.Args) != tt.args {
			t.Errorf("ParseUser(%q) = %+v, want kind %s with %d args", tt.in, cmd, tt.kind, tt.args)
		}
	}
}

func TestSettime(t *testing.T) {
	d := NewDispatcher()
	st := session.New(models.ModeNormal)
	cmd, _ := ParseUser("[settime 01/02/2025 8:00 am]")

	res := d.Dispatch(st, cmd, nil)
	if !res.Applied || !res.AnchorSet || !res.Initialized {
		t.Fatalf("settime not applied: %+v", res)
	}
	if res.State.Anchor != (anchor.Anchor{Date: "01/02/2025", Time: "8:00 AM"}) {
		t.Errorf("Anchor = %+v", res.State.Anchor)
	}
	if !res.State.Elapsed.IsZero() || !res.State.InsertMarker || !res.State.ModifiedByCommand {
		t.Errorf("unexpected state: %+v", res.State)
	}
	if !strings.HasPrefix(res.Message, "[SYSTEM]") || !strings.Contains(res.Message, "[[00y00m00d00h00n00s]]") {
		t.Errorf("Message = %q", res.Message)
	}
}

func TestSettimeWithoutTime(t *testing.T) {
	d := NewDispatcher()
	st := anchored("01/01/2025", "8:00 AM")
	cmd, _ := ParseUser("[settime 05/05/2026]")

	res := d.Dispatch(st, cmd, nil)
	if !res.Applied {
		t.Fatalf("settime rejected: %s", res.Message)
	}
	if res.State.Anchor != (anchor.Anchor{Date: "05/05/2026", Time: anchor.Unknown}) {
		t.Errorf("Anchor = %+v", res.State.Anchor)
	}
}

func TestSettimeRejectsBadDate(t *testing.T) {
	d := NewDispatcher()
	st := anchored("01/01/2025", "8:00 AM")
	cmd, _ := ParseUser("[settime 13/40/2024]")

	res := d.Dispatch(st, cmd, nil)
	if res.Applied {
		t.Fatal("bad date was applied")
	}
	if res.State.Anchor != st.Anchor || res.State.Elapsed != st.Elapsed {
		t.Errorf("state changed on rejection: %+v", res.State)
	}
	if !strings.Contains(res.Message, "Invalid date") {
		t.Errorf("Message = %q", res.Message)
	}
}

func TestAdvance(t *testing.T) {
	tests := []struct {
		input string
		want  anchor.Moment
	}{
		{"[advance 2 hours]", anchor.Moment{Date: "01/01/2025", Time: "10:00 AM"}},
		{"[advance 30 minutes]", anchor.Moment{Date: "01/01/2025", Time: "8:30 AM"}},
		{"[advance 90 min]", anchor.Moment{Date: "01/01/2025", Time: "9:30 AM"}},
		{"[advance 2 months]", anchor.Moment{Date: "03/01/2025", Time: "8:00 AM"}},
		{"[advance 3 days]", anchor.Moment{Date: "01/04/2025", Time: "8:00 AM"}},
		{"[advance 1 years]", anchor.Moment{Date: "01/01/2026", Time: "8:00 AM"}},
		{"[advance 4]", anchor.Moment{Date: "01/01/2025", Time: "12:00 PM"}},
	}

	d := NewDispatcher()
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			st := anchored("01/01/2025", "8:00 AM")
			cmd, ok := ParseUser(tt.input)
			if !ok {
				t.Fatalf("ParseUser(%q) failed", tt.input)
			}

			res := d.Dispatch(st, cmd, nil)
			if !res.Applied {
				t.Fatalf("advance rejected: %s", res.Message)
			}
			if res.State.Current != tt.want {
				t.Errorf("Current = %+v, want %+v", res.State.Current, tt.want)
			}
			if !res.State.Cooldowns.IsActive(cooldown.Advance, res.State.Elapsed) {
				t.Error("advance cooldown not armed")
			}
		})
	}
}

func TestAdvanceExtraMinutes(t *testing.T) {
	d := NewDispatcher()
	st := anchored("01/01/2025", "8:00 AM")
	cmd, _ := ParseUser("[advance 1 hours minutes 30]")

	res := d.Dispatch(st, cmd, nil)
	if res.State.Current.Time != "9:30 AM" {
		t.Errorf("Current = %+v", res.State.Current)
	}
	if !strings.Contains(res.Message, "and 30 minutes") {
		t.Errorf("Message = %q", res.Message)
	}
}

func TestAdvanceRejectsDescriptiveTime(t *testing.T) {
	d := NewDispatcher()
	st := session.New(models.ModeNormal)
	cmd, _ := ParseUser("[advance 3 days]")

	res := d.Dispatch(st, cmd, nil)
	if res.Applied || !res.State.Elapsed.IsZero() {
		t.Fatalf("advance on unknown time applied: %+v", res)
	}
	if !strings.Contains(res.Message, "descriptive (Unknown)") {
		t.Errorf("Message = %q", res.Message)
	}
}

func TestSleep(t *testing.T) {
	d := NewDispatcher(WithRand(rand.New(rand.NewSource(1))))
	st := anchored("01/01/2025", "8:00 AM")
	cmd, _ := ParseUser("[sleep]")

	res := d.Dispatch(st, cmd, nil)
	if !res.Applied {
		t.Fatalf("sleep rejected: %s", res.Message)
	}
	e := res.State.Elapsed
	if e.Hours < MinSleepHours || e.Hours >= MinSleepHours+SleepHourSpread || e.Minutes > 59 || e.Days != 0 {
		t.Errorf("Elapsed = %+v, want 6-8 hours", e)
	}
	if res.State.Current.Date != "01/01/2025" || !strings.Contains(res.Message, "later that day") {
		t.Errorf("unexpected result: %+v %q", res.State.Current, res.Message)
	}
	if !res.State.Cooldowns.IsActive(cooldown.Sleep, res.State.Elapsed) {
		t.Error("sleep cooldown not armed")
	}
}

func TestSleepFromUnknownTime(t *testing.T) {
	d := NewDispatcher()
	st := session.New(models.ModeNormal)
	cmd, _ := ParseUser("[sleep]")

	res := d.Dispatch(st, cmd, nil)
	if res.State.Current != (anchor.Moment{Date: "01/02/1900", Time: WakeTime}) {
		t.Errorf("Current = %+v", res.State.Current)
	}
	if res.State.Elapsed != turntime.Days(1) {
		t.Errorf("Elapsed = %+v", res.State.Elapsed)
	}
}

func TestReset(t *testing.T) {
	d := NewDispatcher()
	st := anchored("01/01/2025", "8:00 AM")
	st.Cooldowns.Arm(cooldown.Sleep, st.Elapsed)
	history := []models.HistoryEntry{
		{Type: models.ActionStory, Text: "The letter was dated 02/01/2025."},
		{Type: models.ActionStory, Text: "By 03/15/2025 at 3:30 PM the ship arrived."},
		{Type: models.ActionDo, Text: "You wait until evening."},
	}
	cmd, _ := ParseUser("[reset]")

	res := d.Dispatch(st, cmd, history)
	if !res.Applied {
		t.Fatalf("reset rejected: %s", res.Message)
	}
	if res.State.Current != (anchor.Moment{Date: "03/15/2025", Time: "3:30 PM"}) {
		t.Errorf("Current = %+v", res.State.Current)
	}
	if res.State.Anchor != st.Anchor {
		t.Errorf("reset moved the anchor: %+v", res.State.Anchor)
	}
	if res.State.Cooldowns.SleepAvailableAt != nil {
		t.Error("reset kept cooldowns")
	}
}

func TestResetWithoutMentions(t *testing.T) {
	d := NewDispatcher()
	st := anchored("01/01/2025", "8:00 AM")
	cmd, _ := ParseUser("[reset]")

	res := d.Dispatch(st, cmd, []models.HistoryEntry{{Type: models.ActionStory, Text: "Nothing here."}})
	if res.Applied || res.Message != "[No date or time mentions found in history.]" {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestModeToggle(t *testing.T) {
	cmd, _ := ParseUser("[light]")
	st := session.New(models.ModeNormal)

	res := NewDispatcher().Dispatch(st, cmd, nil)
	if res.State.Mode != models.ModeNormal || !strings.HasPrefix(res.Message, "[Invalid command") {
		t.Errorf("toggle without capability: %+v", res)
	}

	res = NewDispatcher(WithModeToggle(true)).Dispatch(st, cmd, nil)
	if res.State.Mode != models.ModeLightweight {
		t.Errorf("Mode = %q, want lightweight", res.State.Mode)
	}
}

func TestInlineCooldownWindow(t *testing.T) {
	st := anchored("01/01/2025", "10:00 PM")

	res := ApplyInline(st, "(sleep 8 hours) You sleep soundly.", true, false)
	if !res.Applied || res.Text != "You sleep soundly." {
		t.Fatalf("first sleep: %+v", res)
	}
	if res.State.Current != (anchor.Moment{Date: "01/02/2025", Time: "6:00 AM"}) {
		t.Errorf("Current = %+v", res.State.Current)
	}
	st = res.State

	res = ApplyInline(st, "(sleep 8 hours) You doze again.", true, false)
	if res.Applied || !res.Rejected || res.Text != "You doze again." {
		t.Fatalf("sleep inside cooldown: %+v", res)
	}
	if res.State.Elapsed != st.Elapsed {
		t.Errorf("rejected sleep moved the clock: %+v", res.State.Elapsed)
	}

	st.Advance(turntime.Hours(8))
	res = ApplyInline(st, "(sleep 8 hours) Another night.", true, false)
	if !res.Applied {
		t.Fatalf("sleep after cooldown: %+v", res)
	}
}

func TestInlineDisabledStrips(t *testing.T) {
	st := anchored("01/01/2025", "8:00 AM")
	res := ApplyInline(st, "(advance 2 hours) Later (sleep 1 hours) on.", false, false)
	if res.Applied || res.Text != "Later on." {
		t.Errorf("unexpected result: %+v", res)
	}
	if res.State.Elapsed != st.Elapsed {
		t.Error("disabled inline moved the clock")
	}
}

func TestInlineDelta(t *testing.T) {
	tests := []struct {
		in   string
		want turntime.Duration
		ok   bool
	}{
		{"(advance 2 weeks)", turntime.Days(14), true},
		{"(advance 1 year)", turntime.Days(365), true},
		{"(sleep 90 minutes)", turntime.Minutes(90), true},
		{"(advance 3 fortnights)", turntime.Duration{}, false},
		{"(advance 0 hours)", turntime.Duration{}, false},
	}
	for _, tt := range tests {
		c, ok := ParseInline(tt.in)
		if !ok {
			t.Fatalf("ParseInline(%q) failed", tt.in)
		}
		got, valid := c.Delta()
		if valid != tt.ok || (valid && got != tt.want) {
			t.Errorf("%q Delta() = %+v, %v; want %+v, %v", tt.in, got, valid, tt.want, tt.ok)
		}
	}
}
