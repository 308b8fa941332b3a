package task

import (
	"time"

	tockerrors "github.com/abatilo/tock/internal/errors"
)

// DateLayout is the calendar-date form used for display and day comparisons.
const DateLayout = "2006-01-02"

// ParseTime tries to parse a time string in common formats.
// Layouts without a zone are interpreted in local time.
func ParseTime(s string) (time.Time, error) {
	zoned := []string{
		time.RFC3339,
		time.RFC3339Nano,
	}
	for _, f := range zoned {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	local := []string{
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04",
		DateLayout,
	}
	for _, f := range local {
		if t, err := time.ParseInLocation(f, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, tockerrors.InvalidDateError{Value: s}
}

// SameDay reports whether a and b fall on the same calendar date in a's location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

// DayOf truncates t to local midnight of its calendar date.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DescribeDue phrases a deadline relative to now: "today", "tomorrow", or
// "on <date>".
func DescribeDue(deadline, now time.Time) string {
	deadline = deadline.In(now.Location())
	switch {
	case SameDay(now, deadline):
		return "today"
	case SameDay(now.AddDate(0, 0, 1), deadline):
		return "tomorrow"
	default:
		return "on " + deadline.Format(DateLayout)
	}
}
