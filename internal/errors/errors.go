//nolint:revive // Package name intentionally matches stdlib for domain clarity
package errors

import "fmt"

// ValidationError indicates malformed input that was rejected before any mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PersistenceError indicates the adapter could not read or write a key.
// The in-memory state is kept; callers surface this as a warning.
type PersistenceError struct {
	Key string
	Err error
}

func (e PersistenceError) Error() string {
	return fmt.Sprintf("persisting %q: %v", e.Key, e.Err)
}

func (e PersistenceError) Unwrap() error {
	return e.Err
}

// CapabilityError indicates the platform cannot present notifications at all.
type CapabilityError struct {
	Reason string
}

func (e CapabilityError) Error() string {
	return "notifications unavailable: " + e.Reason
}

// PermissionDeniedError indicates the user declined notifications.
type PermissionDeniedError struct{}

func (e PermissionDeniedError) Error() string {
	return "notification permission denied: reminders are disabled until restart"
}

// InvalidPriorityError indicates an invalid priority value.
type InvalidPriorityError struct {
	Value string
}

func (e InvalidPriorityError) Error() string {
	return fmt.Sprintf("invalid priority: %s (valid: high, medium, low)", e.Value)
}

// InvalidFilterError indicates an unknown status filter.
type InvalidFilterError struct {
	Value string
}

func (e InvalidFilterError) Error() string {
	return fmt.Sprintf(
		"invalid filter: %s (valid: all, today, upcoming, completed, high, medium, low)",
		e.Value,
	)
}

// InvalidSortError indicates an unknown sort key.
type InvalidSortError struct {
	Value string
}

func (e InvalidSortError) Error() string {
	return fmt.Sprintf("invalid sort: %s (valid: manual, due, priority, project)", e.Value)
}

// InvalidReminderError indicates a reminder that is neither a known offset nor a time.
type InvalidReminderError struct {
	Value string
}

func (e InvalidReminderError) Error() string {
	return fmt.Sprintf(
		"invalid reminder: %s (use 5min, 15min, 30min, 1hour, 2hours, 1day, 2days, 1week or a date-time)",
		e.Value,
	)
}

// InvalidDateError indicates an unparseable date or date-time.
type InvalidDateError struct {
	Value string
}

func (e InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date: %s (use 2006-01-02, 2006-01-02 15:04 or RFC3339)", e.Value)
}

// ConfigError indicates an invalid configuration value.
type ConfigError struct {
	Key    string
	Reason string
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Key, e.Reason)
}

// WatcherRunningError indicates another process already polls reminders for this data directory.
type WatcherRunningError struct {
	PID int
}

func (e WatcherRunningError) Error() string {
	return fmt.Sprintf("reminder watcher already running (pid %d)", e.PID)
}
