package output

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/abatilo/tock/internal/reminder"
	"github.com/abatilo/tock/internal/task"
)

//nolint:gochecknoglobals // Shared terminal palette
var (
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
)

// HumanFormatter formats output for human-readable terminal display.
type HumanFormatter struct{}

// NewHumanFormatter creates a new HumanFormatter.
func NewHumanFormatter() *HumanFormatter {
	return &HumanFormatter{}
}

// FormatTask formats a single task for display.
func (f *HumanFormatter) FormatTask(t *task.Task) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s [%s] %s\n", f.statusIcon(t.Completed), t.ID, bold(t.Text))
	fmt.Fprintf(&sb, "  Priority: %s\n", f.priorityLabel(t.Priority))
	if t.Deadline != nil {
		fmt.Fprintf(&sb, "  Due:      %s\n", formatTime(*t.Deadline))
	}
	if t.Reminder != nil {
		fmt.Fprintf(&sb, "  Remind:   %s\n", formatTime(*t.Reminder))
	}
	if t.Project != "" {
		fmt.Fprintf(&sb, "  Project:  %s\n", cyan(t.Project))
	}
	if len(t.Subtasks) > 0 {
		fmt.Fprintf(&sb, "  Subtasks: %s\n", f.progress(t.Subtasks))
		for i, st := range t.Subtasks {
			connector := "├── "
			if i == len(t.Subtasks)-1 {
				connector = "└── "
			}
			fmt.Fprintf(&sb, "    %s%d %s %s\n", connector, i+1, f.statusIcon(st.Completed), st.Text)
		}
	}
	if t.Description != "" {
		sb.WriteString("\n")
		sb.WriteString(t.Description)
		sb.WriteString("\n")
	}

	return sb.String()
}

// FormatTaskList formats a list of tasks for display.
func (f *HumanFormatter) FormatTaskList(tasks []*task.Task) string {
	if len(tasks) == 0 {
		return "No tasks found.\n"
	}

	var sb strings.Builder
	for _, t := range tasks {
		sb.WriteString(f.formatTaskLine(t))
	}
	return sb.String()
}

// formatTaskLine formats a single task as a compact one-liner.
func (f *HumanFormatter) formatTaskLine(t *task.Task) string {
	text := t.Text
	if t.Completed {
		text = dim(text)
	}
	var extra []string
	if t.Deadline != nil {
		extra = append(extra, "due "+formatTime(*t.Deadline))
	}
	if t.Project != "" {
		extra = append(extra, cyan("@"+t.Project))
	}
	if len(t.Subtasks) > 0 {
		extra = append(extra, f.progress(t.Subtasks))
	}
	suffix := ""
	if len(extra) > 0 {
		suffix = "  " + strings.Join(extra, " ")
	}
	return fmt.Sprintf("%s %s [%s] %s%s\n", f.statusIcon(t.Completed), f.priorityMark(t.Priority), t.ID, text, suffix)
}

func (f *HumanFormatter) statusIcon(completed bool) string {
	if completed {
		return green("[x]")
	}
	return "[ ]"
}

func (f *HumanFormatter) priorityMark(p task.Priority) string {
	switch p {
	case task.PriorityHigh:
		return red("H")
	case task.PriorityMedium:
		return yellow("M")
	case task.PriorityLow:
		return dim("L")
	default:
		return "?"
	}
}

func (f *HumanFormatter) priorityLabel(p task.Priority) string {
	switch p {
	case task.PriorityHigh:
		return red(string(p))
	case task.PriorityMedium:
		return yellow(string(p))
	default:
		return string(p)
	}
}

func (f *HumanFormatter) progress(subtasks []task.Subtask) string {
	done := 0
	for _, st := range subtasks {
		if st.Completed {
			done++
		}
	}
	return dim(fmt.Sprintf("%d/%d", done, len(subtasks)))
}

// FormatProjects lists projects, marking the last-used one.
func (f *HumanFormatter) FormatProjects(projects []string, current string) string {
	if len(projects) == 0 {
		return "No projects.\n"
	}
	var sb strings.Builder
	for _, p := range projects {
		if p == current {
			fmt.Fprintf(&sb, "* %s\n", bold(p))
		} else {
			fmt.Fprintf(&sb, "  %s\n", p)
		}
	}
	return sb.String()
}

// FormatReminders reports the notifications sent by one check cycle.
func (f *HumanFormatter) FormatReminders(results []reminder.DispatchResult) string {
	if len(results) == 0 {
		return "No reminders due.\n"
	}
	var sb strings.Builder
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(&sb, "%s [%s] %s: %v\n", red("failed"), r.Notification.TaskID, r.Notification.Body, r.Err)
			continue
		}
		fmt.Fprintf(&sb, "%s [%s] %s\n", green("sent"), r.Notification.TaskID, r.Notification.Body)
	}
	return sb.String()
}

// FormatError formats an error for display.
func (f *HumanFormatter) FormatError(err error) string {
	return fmt.Sprintf("%s %s\n", red("Error:"), err.Error())
}

// FormatMessage formats a simple message.
func (f *HumanFormatter) FormatMessage(msg string) string {
	return msg + "\n"
}
