package reminder

import (
	"context"
	"time"

	"github.com/abatilo/tock/internal/task"
)

// Permission is the user's decision about receiving notifications.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	// PermissionDefault means the user has not decided yet.
	PermissionDefault Permission = "default"
)

// ParsePermission maps a stored decision back to a Permission. Anything
// unrecognized counts as undecided.
func ParsePermission(s string) Permission {
	switch Permission(s) {
	case PermissionGranted:
		return PermissionGranted
	case PermissionDenied:
		return PermissionDenied
	default:
		return PermissionDefault
	}
}

// Notification is one user-visible reminder.
type Notification struct {
	// Tag identifies the underlying event; sinks collapse repeats of the same tag.
	Tag    string
	Title  string
	Body   string
	TaskID string
	// At is the reminder instant that triggered this notification.
	At time.Time
}

// Sink presents notifications and negotiates permission to do so.
type Sink interface {
	// Supported reports whether this platform can show notifications at all.
	Supported() bool
	QueryPermission(ctx context.Context) (Permission, error)
	// RequestPermission may block until the user answers. It returns granted or denied.
	RequestPermission(ctx context.Context) (Permission, error)
	Dispatch(ctx context.Context, n Notification) error
}

// Pruner is implemented by sinks that remember delivered notifications.
// After every check the scheduler calls Prune with the start of the next
// window; reminders before it can never be detected again.
type Pruner interface {
	Prune(before time.Time)
}

// TaskSource provides the current task collection. Implementations must
// return copies that no concurrent mutation can change.
type TaskSource interface {
	Tasks() []*task.Task
}

// Tag returns the dedup tag for a task's reminder.
func Tag(taskID string) string {
	return "task-" + taskID
}

// NotificationFor builds the reminder for t as seen at now.
func NotificationFor(t *task.Task, title string, now time.Time) Notification {
	n := Notification{
		Tag:    Tag(t.ID),
		Title:  title,
		TaskID: t.ID,
	}
	if t.Reminder != nil {
		n.At = *t.Reminder
	}
	if t.Deadline != nil {
		n.Body = `The task "` + t.Text + `" is due ` + task.DescribeDue(*t.Deadline, now)
	} else {
		n.Body = `Reminder for "` + t.Text + `"`
	}
	return n
}
