package output

import (
	"encoding/json"
	"time"

	"github.com/abatilo/tock/internal/reminder"
	"github.com/abatilo/tock/internal/task"
)

// JSONFormatter formats output as JSON.
type JSONFormatter struct{}

// marshalJSON marshals a value to indented JSON with a trailing newline.
func marshalJSON(v any) string {
	data, _ := json.MarshalIndent(v, "", "  ")
	return string(data) + "\n"
}

// NewJSONFormatter creates a new JSONFormatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// taskJSON is the JSON representation of a task.
type taskJSON struct {
	ID          string         `json:"id"`
	Text        string         `json:"text"`
	Completed   bool           `json:"completed"`
	Priority    string         `json:"priority"`
	Deadline    *string        `json:"deadline"`
	Reminder    *string        `json:"reminder"`
	Project     string         `json:"project,omitempty"`
	Description string         `json:"description,omitempty"`
	Subtasks    []task.Subtask `json:"subtasks"`
}

func formatOptional(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func toTaskJSON(t *task.Task) taskJSON {
	subtasks := t.Subtasks
	if subtasks == nil {
		subtasks = []task.Subtask{}
	}
	return taskJSON{
		ID:          t.ID,
		Text:        t.Text,
		Completed:   t.Completed,
		Priority:    string(t.Priority),
		Deadline:    formatOptional(t.Deadline),
		Reminder:    formatOptional(t.Reminder),
		Project:     t.Project,
		Description: t.Description,
		Subtasks:    subtasks,
	}
}

// FormatTask formats a single task as JSON.
func (f *JSONFormatter) FormatTask(t *task.Task) string {
	return marshalJSON(toTaskJSON(t))
}

// FormatTaskList formats a list of tasks as JSON.
func (f *JSONFormatter) FormatTaskList(tasks []*task.Task) string {
	jsonTasks := make([]taskJSON, len(tasks))
	for i, t := range tasks {
		jsonTasks[i] = toTaskJSON(t)
	}
	return marshalJSON(jsonTasks)
}

type projectsJSON struct {
	Projects []string `json:"projects"`
	Current  string   `json:"current,omitempty"`
}

// FormatProjects formats the project list as JSON.
func (f *JSONFormatter) FormatProjects(projects []string, current string) string {
	if projects == nil {
		projects = []string{}
	}
	return marshalJSON(projectsJSON{Projects: projects, Current: current})
}

type reminderJSON struct {
	TaskID string `json:"task_id"`
	Tag    string `json:"tag"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	At     string `json:"at"`
	Error  string `json:"error,omitempty"`
}

// FormatReminders formats the outcome of a check cycle as JSON.
func (f *JSONFormatter) FormatReminders(results []reminder.DispatchResult) string {
	out := make([]reminderJSON, len(results))
	for i, r := range results {
		out[i] = reminderJSON{
			TaskID: r.Notification.TaskID,
			Tag:    r.Notification.Tag,
			Title:  r.Notification.Title,
			Body:   r.Notification.Body,
			At:     r.Notification.At.Format(time.RFC3339),
		}
		if r.Err != nil {
			out[i].Error = r.Err.Error()
		}
	}
	return marshalJSON(out)
}

// errorJSON is the JSON representation of an error.
type errorJSON struct {
	Error string `json:"error"`
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(err error) string {
	return marshalJSON(errorJSON{Error: err.Error()})
}

// messageJSON is the JSON representation of a message.
type messageJSON struct {
	Message string `json:"message"`
}

// FormatMessage formats a simple message as JSON.
func (f *JSONFormatter) FormatMessage(msg string) string {
	return marshalJSON(messageJSON{Message: msg})
}
