// Package turntime implements the elapsed in-fiction duration accumulated
// across a session and its checkpoint marker wire format.
package turntime

import (
	"fmt"
	"regexp"
	"strconv"
)

// Duration is the elapsed story time since the session anchor.
// After Add, Seconds and Minutes are < 60, Hours < 24 and Months < 12.
// Days and Years are unbounded; days never fold into months.
type Duration struct {
	Years   int `json:"years"`
	Months  int `json:"months"`
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

var (
	markerPattern   = regexp.MustCompile(`^(\d{2,})y(\d{2,})m(\d{2,})d(\d{2,})h(\d{2,})n(\d{2,})s$`)
	embeddedPattern = regexp.MustCompile(`\[\[(\d{2,}y\d{2,}m\d{2,}d\d{2,}h\d{2,}n\d{2,}s)\]\]`)
)

// Minutes returns a duration of n minutes.
func Minutes(n int) Duration { return Duration{Minutes: n} }

// Hours returns a duration of n hours.
func Hours(n int) Duration { return Duration{Hours: n} }

// Days returns a duration of n days.
func Days(n int) Duration { return Duration{Days: n} }

// Add returns d advanced by delta, carrying seconds into minutes, minutes
// into hours, hours into days and months into years.
func Add(d, delta Duration) Duration {
	out := d

	out.Seconds += delta.Seconds
	out.Minutes += out.Seconds / 60
	out.Seconds %= 60

	out.Minutes += delta.Minutes
	out.Hours += out.Minutes / 60
	out.Minutes %= 60

	out.Hours += delta.Hours
	out.Days += out.Hours / 24
	out.Hours %= 24

	out.Days += delta.Days

	out.Months += delta.Months
	out.Years += out.Months / 12
	out.Months %= 12

	out.Years += delta.Years
	return out
}

// Add is the method form of Add.
func (d Duration) Add(delta Duration) Duration { return Add(d, delta) }

// Compare orders two durations lexicographically from years down to
// seconds. A nil operand compares equal to anything.
func Compare(a, b *Duration) int {
	if a == nil || b == nil {
		return 0
	}
	x := [6]int{a.Years, a.Months, a.Days, a.Hours, a.Minutes, a.Seconds}
	y := [6]int{b.Years, b.Months, b.Days, b.Hours, b.Minutes, b.Seconds}
	for i := range x {
		switch {
		case x[i] < y[i]:
			return -1
		case x[i] > y[i]:
			return 1
		}
	}
	return 0
}

// Before reports whether d is strictly earlier than other.
func (d Duration) Before(other Duration) bool { return Compare(&d, &other) < 0 }

// After reports whether d is strictly later than other.
func (d Duration) After(other Duration) bool { return Compare(&d, &other) > 0 }

// IsZero reports whether no time has elapsed.
func (d Duration) IsZero() bool { return d == Duration{} }

// String renders the marker form, e.g. 00y00m01d02h03n04s.
func (d Duration) String() string {
	return fmt.Sprintf("%02dy%02dm%02dd%02dh%02dn%02ds",
		d.Years, d.Months, d.Days, d.Hours, d.Minutes, d.Seconds)
}

// Marker renders the duration as it is embedded in text: [[...]].
func (d Duration) Marker() string { return "[[" + d.String() + "]]" }

// Parse reads a marker string without brackets. Fields wider than two
// digits are accepted so that every formatted duration parses back.
func Parse(s string) (Duration, bool) {
	m := markerPattern.FindStringSubmatch(s)
	if m == nil {
		return Duration{}, false
	}
	var f [6]int
	for i := range f {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return Duration{}, false
		}
		f[i] = n
	}
	return Duration{Years: f[0], Months: f[1], Days: f[2], Hours: f[3], Minutes: f[4], Seconds: f[5]}, true
}

// FindLast returns the last [[marker]] embedded in text.
func FindLast(text string) (Duration, bool) {
	all := embeddedPattern.FindAllStringSubmatch(text, -1)
	if len(all) == 0 {
		return Duration{}, false
	}
	return Parse(all[len(all)-1][1])
}

// StripMarkers removes every embedded [[marker]] from text.
func StripMarkers(text string) string {
	return embeddedPattern.ReplaceAllString(text, "")
}
