package output

import (
	"time"

	"github.com/abatilo/tock/internal/reminder"
	"github.com/abatilo/tock/internal/task"
)

// Formatter defines the interface for output formatting.
type Formatter interface {
	FormatTask(t *task.Task) string
	FormatTaskList(tasks []*task.Task) string
	FormatProjects(projects []string, current string) string
	FormatReminders(results []reminder.DispatchResult) string
	FormatError(err error) string
	FormatMessage(msg string) string
}

const timeLayout = "2006-01-02 15:04"

// formatTime renders t in local time, dropping a midnight clock.
func formatTime(t time.Time) string {
	local := t.Local()
	if local.Hour() == 0 && local.Minute() == 0 {
		return local.Format(task.DateLayout)
	}
	return local.Format(timeLayout)
}
