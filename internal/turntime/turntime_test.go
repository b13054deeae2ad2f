package turntime

import "testing"

func TestAddCarries(t *testing.T) {
	tests := []struct {
		name  string
		start Duration
		delta Duration
		want  Duration
	}{
		{"seconds into minutes", Duration{Seconds: 90}, Duration{}, Duration{Minutes: 1, Seconds: 30}},
		{"minutes into hours", Duration{Minutes: 50}, Minutes(20), Duration{Hours: 1, Minutes: 10}},
		{"hours into days", Duration{Hours: 23}, Hours(3), Duration{Days: 1, Hours: 2}},
		{"days never carry", Duration{Days: 400}, Days(40), Duration{Days: 440}},
		{"months into years", Duration{Months: 11}, Duration{Months: 3}, Duration{Years: 1, Months: 2}},
		{"chained", Duration{Hours: 23, Minutes: 59, Seconds: 59}, Duration{Seconds: 1}, Duration{Days: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Add(tt.start, tt.delta)
			if got != tt.want {
				t.Errorf("Add(%v, %v) = %v, want %v", tt.start, tt.delta, got, tt.want)
			}
		})
	}
}

func TestAddAssociative(t *testing.T) {
	a := Duration{Hours: 20, Minutes: 45, Seconds: 50}
	b := Duration{Months: 7, Hours: 5, Minutes: 30}
	c := Duration{Years: 1, Months: 6, Days: 3, Minutes: 50, Seconds: 15}

	left := Add(Add(a, b), c)
	right := Add(a, Add(b, c))
	if left != right {
		t.Errorf("(a+b)+c = %v, a+(b+c) = %v", left, right)
	}
}

func TestCompare(t *testing.T) {
	early := Duration{Days: 1, Hours: 23}
	late := Duration{Days: 2}

	if Compare(&early, &late) != -1 {
		t.Error("expected early < late")
	}
	if Compare(&late, &early) != 1 {
		t.Error("expected late > early")
	}
	if Compare(&early, &early) != 0 {
		t.Error("expected equal")
	}
	if Compare(nil, &late) != 0 || Compare(&early, nil) != 0 {
		t.Error("nil operand should compare equal")
	}
	if !early.Before(late) || !late.After(early) {
		t.Error("Before/After disagree with Compare")
	}
}

func TestMarkerRoundTrip(t *testing.T) {
	cases := []Duration{
		{},
		{Years: 3, Months: 11, Days: 29, Hours: 23, Minutes: 59, Seconds: 59},
		{Days: 365},
		{Years: 120, Days: 1000, Minutes: 5},
	}
	for _, d := range cases {
		got, ok := Parse(d.String())
		if !ok {
			t.Fatalf("Parse(%q) failed", d.String())
		}
		if got != d {
			t.Errorf("round trip %v -> %q -> %v", d, d.String(), got)
		}
	}
}

func TestMarkerFormat(t *testing.T) {
	d := Duration{Days: 1, Hours: 2, Minutes: 3, Seconds: 4}
	if got := d.String(); got != "00y00m01d02h03n04s" {
		t.Errorf("String() = %q", got)
	}
	if got := d.Marker(); got != "[[00y00m01d02h03n04s]]" {
		t.Errorf("Marker() = %q", got)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "1y2m3d4h5n6s", "00y00m00d00h00n", "aay00m00d00h00n00s"} {
		if _, ok := Parse(s); ok {
			t.Errorf("Parse(%q) should fail", s)
		}
	}
}

func TestFindLast(t *testing.T) {
	text := "went out [[00y00m00d01h00n00s]] and later came back [[00y00m00d03h15n00s]] home"
	d, ok := FindLast(text)
	if !ok {
		t.Fatal("expected a marker")
	}
	if d != (Duration{Hours: 3, Minutes: 15}) {
		t.Errorf("FindLast = %v", d)
	}
	if _, ok := FindLast("no markers here [[bogus]]"); ok {
		t.Error("expected no marker")
	}
	if got := StripMarkers(text); got != "went out  and later came back  home" {
		t.Errorf("StripMarkers = %q", got)
	}
}
