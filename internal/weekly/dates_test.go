package weekly

import (
	"testing"
	"time"
)

func TestFormatDate_UsesLocalCalendarComponents(t *testing.T) {
	// Midnight local time in zones on either side of UTC. Converting to
	// UTC first would shift these onto a neighbouring day.
	zones := []struct {
		name   string
		offset int
	}{
		{"UTC", 0},
		{"UTC+7", 7 * 3600},
		{"UTC-7", -7 * 3600},
		{"UTC+12", 12 * 3600},
	}

	for _, z := range zones {
		t.Run(z.name, func(t *testing.T) {
			loc := time.FixedZone(z.name, z.offset)
			d := time.Date(2024, 11, 20, 0, 0, 0, 0, loc)

			if got := FormatDate(d); got != "2024-11-20" {
				t.Errorf("FormatDate: got %q, want 2024-11-20", got)
			}
		})
	}
}

func TestFormatDate_RoundTrip(t *testing.T) {
	loc := time.FixedZone("UTC-7", -7*3600)

	for day := 1; day <= 28; day++ {
		d := time.Date(2024, 2, day, 0, 0, 0, 0, loc)

		parsed, err := ParseDate(FormatDate(d))
		if err != nil {
			t.Fatalf("ParseDate(%q): %v", FormatDate(d), err)
		}

		y1, m1, d1 := d.Date()
		y2, m2, d2 := parsed.Date()
		if y1 != y2 || m1 != m2 || d1 != d2 {
			t.Errorf("round trip: %v became %v", d, parsed)
		}
	}
}

func TestWeekStart(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"monday maps to itself", "2024-11-18", "2024-11-18"},
		{"wednesday", "2024-11-20", "2024-11-18"},
		{"saturday", "2024-11-23", "2024-11-18"},
		{"sunday belongs to the preceding monday", "2024-11-24", "2024-11-18"},
		{"next monday starts a new week", "2024-11-25", "2024-11-25"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in, err := ParseDate(tc.in)
			if err != nil {
				t.Fatalf("ParseDate: %v", err)
			}

			if got := FormatDate(WeekStart(in)); got != tc.want {
				t.Errorf("WeekStart(%s): got %s, want %s", tc.in, got, tc.want)
			}
		})
	}
}

func TestWeekDates(t *testing.T) {
	start, _ := ParseDate("2024-11-18")

	dates := WeekDates(start)
	if len(dates) != 7 {
		t.Fatalf("got %d dates, want 7", len(dates))
	}
	if got := FormatDate(dates[0]); got != "2024-11-18" {
		t.Errorf("first day: got %s, want 2024-11-18", got)
	}
	if got := FormatDate(dates[6]); got != "2024-11-24" {
		t.Errorf("last day: got %s, want 2024-11-24", got)
	}
}

func TestShortTime(t *testing.T) {
	cases := []struct{ in, want string }{
		{"09:00:00", "09:00"},
		{"13:30:00", "13:30"},
		{"09:00", "09:00"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := ShortTime(tc.in); got != tc.want {
			t.Errorf("ShortTime(%q): got %q, want %q", tc.in, got, tc.want)
		}
	}
}
