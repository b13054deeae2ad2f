// Package anchor resolves the session's starting date and time and derives
// the current in-fiction date and time from an elapsed duration.
package anchor

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fentz26/worldtime/internal/turntime"
)

const (
	// Unknown is the time label used before a numeric time is known.
	Unknown = "Unknown"
	// DefaultDate is the anchor date of a session that was never set.
	DefaultDate = "01/01/1900"

	// Approximate calendar used when the anchor time is descriptive.
	DaysPerYear  = 365
	DaysPerMonth = 30
)

// ErrInvalidDate is returned by ParseDate for dates that do not exist.
var ErrInvalidDate = errors.New("invalid date")

// Anchor is the fixed starting point of the session clock.
type Anchor struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// Moment is a rendered date and time.
type Moment struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// String renders "mm/dd/yyyy time".
func (m Moment) String() string { return m.Date + " " + m.Time }

// Default returns the anchor of an uninitialized session.
func Default() Anchor {
	return Anchor{Date: DefaultDate, Time: Unknown}
}

// IsDefault reports whether the anchor still carries placeholder values.
func (a Anchor) IsDefault() bool {
	return a.Date == DefaultDate || a.Time == Unknown
}

// Numeric reports whether the anchor time can be advanced numerically.
func (a Anchor) Numeric() bool { return IsNumeric(a.Time) }

var (
	clockPattern = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?(?::(\d{2}))?\s*([AaPp])?\.?(?:[Mm]\.?)?$`)
	digitPattern = regexp.MustCompile(`\d`)
	periodSuffix = regexp.MustCompile(`(?i)(am|pm|a\.m\.|p\.m\.)$`)
	dateSplit    = strings.NewReplacer(".", "/", "-", "/")
)

var descriptive = map[string]string{
	"morning":   "8:00 AM",
	"afternoon": "2:00 PM",
	"noon":      "12:00 PM",
	"evening":   "6:00 PM",
	"night":     "10:00 PM",
	"dawn":      "6:00 AM",
	"dusk":      "8:00 PM",
	"midday":    "12:00 PM",
	"midnight":  "12:00 AM",
}

// IsDescriptive reports whether word is one of the fixed time-of-day words.
func IsDescriptive(word string) bool {
	_, ok := descriptive[strings.ToLower(strings.TrimSpace(word))]
	return ok
}

// parseClock reads "h[:mm[:ss]] [AM|PM]" into 24-hour components.
// Without a period the hour is read as 24-hour time.
func parseClock(s string) (h, m, sec int, ok bool) {
	match := clockPattern.FindStringSubmatch(strings.TrimSpace(s))
	if match == nil {
		return 0, 0, 0, false
	}
	h, _ = strconv.Atoi(match[1])
	if match[2] != "" {
		m, _ = strconv.Atoi(match[2])
	}
	if match[3] != "" {
		sec, _ = strconv.Atoi(match[3])
	}
	if m > 59 || sec > 59 {
		return 0, 0, 0, false
	}
	switch strings.ToLower(match[4]) {
	case "a":
		if h < 1 || h > 12 {
			return 0, 0, 0, false
		}
		if h == 12 {
			h = 0
		}
	case "p":
		if h < 1 || h > 12 {
			return 0, 0, 0, false
		}
		if h < 12 {
			h += 12
		}
	default:
		if strings.ContainsAny(s, "mM") || h > 23 {
			return 0, 0, 0, false
		}
	}
	return h, m, sec, true
}

func formatClock(h, m, s int) string {
	period := "AM"
	if h >= 12 {
		period = "PM"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	if s > 0 {
		return fmt.Sprintf("%d:%02d:%02d %s", h12, m, s, period)
	}
	return fmt.Sprintf("%d:%02d %s", h12, m, period)
}

// IsNumeric reports whether t is a clock time rather than Unknown or a label.
func IsNumeric(t string) bool {
	if t == "" || t == Unknown {
		return false
	}
	_, _, _, ok := parseClock(t)
	return ok
}

// NormalizeTime canonicalizes a user supplied time. Clock times become
// "h:mm AM/PM", the fixed descriptive words map to their clock time and
// anything else becomes a capitalized opaque label.
func NormalizeTime(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, Unknown) {
		return Unknown
	}
	if v, ok := descriptive[strings.ToLower(s)]; ok {
		return v
	}
	if h, m, sec, ok := parseClock(s); ok {
		return formatClock(h, m, sec)
	}
	if digitPattern.MatchString(s) {
		return periodSuffix.ReplaceAllStringFunc(s, strings.ToUpper)
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func splitDate(s string) (month, day, year int, ok bool) {
	parts := strings.Split(dateSplit.Replace(strings.TrimSpace(s)), "/")
	if len(parts) != 3 {
		return 0, 0, 0, false
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, 0, 0, false
		}
		nums[i] = n
	}
	return nums[0], nums[1], nums[2], true
}

// ValidDate reports whether the triple names a real calendar day.
func ValidDate(month, day, year int) bool {
	if month < 1 || month > 12 || day < 1 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Year() == year && int(t.Month()) == month && t.Day() == day
}

// ParseDate accepts mm/dd/yyyy or dd/mm/yyyy with "/", "." or "-"
// separators and returns the canonical mm/dd/yyyy form. Two-digit years
// are read as 20xx. When the first field cannot be a month and the second
// can, the two are swapped.
func ParseDate(s string) (string, error) {
	month, day, year, ok := splitDate(s)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrInvalidDate, s)
	}
	if year < 100 {
		year += 2000
	}
	if month > 12 && day <= 12 {
		month, day = day, month
	}
	if !ValidDate(month, day, year) {
		return "", fmt.Errorf("%w: %s", ErrInvalidDate, s)
	}
	return FormatDate(month, day, year), nil
}

// FormatDate renders mm/dd/yyyy.
func FormatDate(month, day, year int) string {
	return fmt.Sprintf("%02d/%02d/%d", month, day, year)
}

func formatTime(t time.Time) string {
	return FormatDate(int(t.Month()), t.Day(), t.Year())
}

// Derive returns the anchor advanced by d. With a numeric anchor time the
// calendar is applied exactly: years, then months, then days, then the
// clock with day carry. With a descriptive time only the date moves, by
// an approximate day count, and the label is kept.
func Derive(a Anchor, d turntime.Duration) Moment {
	month, day, year, ok := splitDate(a.Date)
	if !ok {
		return Moment{Date: a.Date, Time: a.Time}
	}
	if year < 100 {
		year += 2000
	}

	h, m, s, numeric := parseClock(a.Time)
	if !numeric {
		days := DaysPerYear*d.Years + DaysPerMonth*d.Months + d.Days
		t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days)
		return Moment{Date: formatTime(t), Time: a.Time}
	}

	t := time.Date(year, time.Month(month), day, h, m, s, 0, time.UTC)
	t = t.AddDate(d.Years, 0, 0)
	t = t.AddDate(0, d.Months, 0)
	t = t.AddDate(0, 0, d.Days)
	t = t.Add(time.Duration(d.Hours)*time.Hour +
		time.Duration(d.Minutes)*time.Minute +
		time.Duration(d.Seconds)*time.Second)

	return Moment{Date: formatTime(t), Time: formatClock(t.Hour(), t.Minute(), t.Second())}
}

// Instant converts a rendered date and time to a comparable value.
// Descriptive or Unknown times are read as midnight.
func Instant(date, clock string) (time.Time, bool) {
	month, day, year, ok := splitDate(date)
	if !ok || !ValidDate(month, day, year) {
		return time.Time{}, false
	}
	h, m, s, numeric := parseClock(clock)
	if !numeric {
		h, m, s = 0, 0, 0
	}
	return time.Date(year, time.Month(month), day, h, m, s, 0, time.UTC), true
}

// DateDiff returns the duration from one date and time to another using
// field-wise borrow. It is zero when the end precedes the start.
func DateDiff(startDate, startTime, endDate, endTime string) turntime.Duration {
	start, ok := Instant(startDate, startTime)
	if !ok {
		return turntime.Duration{}
	}
	end, ok := Instant(endDate, endTime)
	if !ok || end.Before(start) {
		return turntime.Duration{}
	}

	years := end.Year() - start.Year()
	months := int(end.Month()) - int(start.Month())
	days := end.Day() - start.Day()
	hours := end.Hour() - start.Hour()
	minutes := end.Minute() - start.Minute()
	seconds := end.Second() - start.Second()

	if seconds < 0 {
		seconds += 60
		minutes--
	}
	if minutes < 0 {
		minutes += 60
		hours--
	}
	if hours < 0 {
		hours += 24
		days--
	}
	// Borrow whole months walking back from the end month.
	for back := 0; days < 0; back++ {
		days += time.Date(end.Year(), end.Month()-time.Month(back), 0, 0, 0, 0, 0, time.UTC).Day()
		months--
	}
	if months < 0 {
		months += 12
		years--
	}

	return turntime.Duration{
		Years:   years,
		Months:  months,
		Days:    days,
		Hours:   hours,
		Minutes: minutes,
		Seconds: seconds,
	}
}
