package weekly

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// FormatDate renders a calendar date from the time's own local
// components. Going through UTC-based ISO formatting shifts the day for
// zones behind UTC, so the year/month/day are taken as-is.
func FormatDate(t time.Time) string {
	year, month, day := t.Date()
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// WeekStart returns the Monday of t's week at midnight, in t's location.
func WeekStart(t time.Time) time.Time {
	offset := int(t.Weekday()) - int(time.Monday)
	if t.Weekday() == time.Sunday {
		offset = 6
	}

	monday := t.AddDate(0, 0, -offset)

	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, t.Location())
}

// WeekDates returns the seven days starting at weekStart.
func WeekDates(weekStart time.Time) []time.Time {
	dates := make([]time.Time, 7)
	for i := range dates {
		dates[i] = weekStart.AddDate(0, 0, i)
	}

	return dates
}

func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()

	return ay == by && am == bm && ad == bd
}

// ShortTime trims seconds off an HH:MM:SS slot time for display.
func ShortTime(s string) string {
	if len(s) > 5 {
		return s[:5]
	}

	return s
}
