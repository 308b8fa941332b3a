package task

import (
	"time"

	tockerrors "github.com/abatilo/tock/internal/errors"
)

// ReminderOffset is a named lead time before a deadline.
type ReminderOffset string

const (
	Remind5Min   ReminderOffset = "5min"
	Remind15Min  ReminderOffset = "15min"
	Remind30Min  ReminderOffset = "30min"
	Remind1Hour  ReminderOffset = "1hour"
	Remind2Hours ReminderOffset = "2hours"
	Remind1Day   ReminderOffset = "1day"
	Remind2Days  ReminderOffset = "2days"
	Remind1Week  ReminderOffset = "1week"
)

// ReminderOffsets lists the accepted offsets from shortest to longest.
func ReminderOffsets() []ReminderOffset {
	return []ReminderOffset{
		Remind5Min, Remind15Min, Remind30Min, Remind1Hour,
		Remind2Hours, Remind1Day, Remind2Days, Remind1Week,
	}
}

// IsValidReminderOffset checks if an offset string is one of the known lead times.
func IsValidReminderOffset(o ReminderOffset) bool {
	switch o {
	case Remind5Min, Remind15Min, Remind30Min, Remind1Hour,
		Remind2Hours, Remind1Day, Remind2Days, Remind1Week:
		return true
	default:
		return false
	}
}

// ReminderAt converts an offset to the absolute instant it names for deadline.
// Day-based offsets use calendar arithmetic so they keep the wall-clock time
// across DST changes.
func ReminderAt(deadline time.Time, offset ReminderOffset) (time.Time, error) {
	switch offset {
	case Remind5Min:
		return deadline.Add(-5 * time.Minute), nil
	case Remind15Min:
		return deadline.Add(-15 * time.Minute), nil
	case Remind30Min:
		return deadline.Add(-30 * time.Minute), nil
	case Remind1Hour:
		return deadline.Add(-time.Hour), nil
	case Remind2Hours:
		return deadline.Add(-2 * time.Hour), nil
	case Remind1Day:
		return deadline.AddDate(0, 0, -1), nil
	case Remind2Days:
		return deadline.AddDate(0, 0, -2), nil
	case Remind1Week:
		return deadline.AddDate(0, 0, -7), nil
	default:
		return time.Time{}, tockerrors.InvalidReminderError{Value: string(offset)}
	}
}

// ResolveReminder interprets value as either an offset before deadline or an
// absolute instant. An empty value yields nil.
func ResolveReminder(value string, deadline *time.Time) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if IsValidReminderOffset(ReminderOffset(value)) {
		if deadline == nil {
			return nil, tockerrors.ValidationError{Field: "reminder", Reason: "an offset reminder requires a deadline"}
		}
		at, err := ReminderAt(*deadline, ReminderOffset(value))
		if err != nil {
			return nil, err
		}
		return &at, nil
	}
	at, err := ParseTime(value)
	if err != nil {
		return nil, tockerrors.InvalidReminderError{Value: value}
	}
	return &at, nil
}
