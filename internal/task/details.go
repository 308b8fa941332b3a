package task

import (
	"strings"
	"time"

	tockerrors "github.com/abatilo/tock/internal/errors"
)

// Details is a partial update.
// nil pointer => "no change"
// empty string for Project => clear
// Clear* flags remove the field and win over a value given alongside them.
type Details struct {
	Text        *string
	Completed   *bool
	Deadline    *time.Time
	Priority    *Priority
	Project     *string
	Description *string

	// Reminder is either an offset ("15min", "1day", ...) resolved against the
	// task's deadline after this update, or an absolute instant.
	Reminder *string

	ClearDeadline bool
	ClearReminder bool
}

// IsEmpty reports whether applying d would change nothing.
func (d Details) IsEmpty() bool {
	return d.Text == nil && d.Completed == nil && d.Deadline == nil &&
		d.Priority == nil && d.Project == nil && d.Description == nil &&
		d.Reminder == nil && !d.ClearDeadline && !d.ClearReminder
}

// Apply validates d against t and, only if every field is valid, mutates t.
// Either all fields are applied or none are.
func (d Details) Apply(t *Task) error {
	next := t.Clone()

	if d.Text != nil {
		text := strings.TrimSpace(*d.Text)
		if text == "" {
			return tockerrors.ValidationError{Field: "text", Reason: "must not be empty"}
		}
		next.Text = text
	}
	if d.Completed != nil {
		next.Completed = *d.Completed
	}
	if d.Priority != nil {
		if !IsValidPriority(*d.Priority) {
			return tockerrors.InvalidPriorityError{Value: string(*d.Priority)}
		}
		next.Priority = *d.Priority
	}
	if d.Project != nil {
		next.Project = strings.TrimSpace(*d.Project)
	}
	if d.Description != nil {
		next.Description = *d.Description
	}

	switch {
	case d.ClearDeadline:
		next.Deadline = nil
	case d.Deadline != nil:
		dl := *d.Deadline
		next.Deadline = &dl
	}

	switch {
	case d.ClearReminder:
		next.Reminder = nil
	case d.Reminder != nil:
		at, err := ResolveReminder(strings.TrimSpace(*d.Reminder), next.Deadline)
		if err != nil {
			return err
		}
		next.Reminder = at
	}

	*t = *next
	return nil
}
