package task

import (
	"strings"
	"time"
)

// Priority represents the importance level of a task.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// PriorityOrder returns the sort order for a priority (lower = higher priority).
// Unrecognized priorities sort after every known one.
func PriorityOrder(p Priority) int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// IsValidPriority checks if a priority string is valid.
func IsValidPriority(p Priority) bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// Subtask is a checklist item addressed by its position in the parent task.
type Subtask struct {
	Text      string `yaml:"text" json:"text"`
	Completed bool   `yaml:"completed" json:"completed"`
}

// Task represents a tracked to-do item.
type Task struct {
	ID          string     `yaml:"id"`
	Text        string     `yaml:"text"`
	Completed   bool       `yaml:"completed"`
	Deadline    *time.Time `yaml:"deadline,omitempty"`
	Priority    Priority   `yaml:"priority"`
	Project     string     `yaml:"project,omitempty"`
	Subtasks    []Subtask  `yaml:"subtasks"`
	Description string     `yaml:"description,omitempty"`
	Reminder    *time.Time `yaml:"reminder,omitempty"`
}

// New creates an incomplete, medium-priority task with the given id.
func New(id, text string) *Task {
	return &Task{
		ID:       id,
		Text:     strings.TrimSpace(text),
		Priority: PriorityMedium,
		Subtasks: []Subtask{},
	}
}

// Clone returns a deep copy that shares no memory with t.
func (t *Task) Clone() *Task {
	c := *t
	if t.Deadline != nil {
		d := *t.Deadline
		c.Deadline = &d
	}
	if t.Reminder != nil {
		r := *t.Reminder
		c.Reminder = &r
	}
	c.Subtasks = make([]Subtask, len(t.Subtasks))
	copy(c.Subtasks, t.Subtasks)
	return &c
}

// Toggle flips the completion flag.
func (t *Task) Toggle() {
	t.Completed = !t.Completed
}

// AddSubtask appends an incomplete subtask.
func (t *Task) AddSubtask(text string) {
	t.Subtasks = append(t.Subtasks, Subtask{Text: text})
}

// ToggleSubtask flips the subtask at index. Returns false if index is out of range.
func (t *Task) ToggleSubtask(index int) bool {
	if index < 0 || index >= len(t.Subtasks) {
		return false
	}
	t.Subtasks[index].Completed = !t.Subtasks[index].Completed
	return true
}

// UpdateSubtask replaces the text of the subtask at index.
func (t *Task) UpdateSubtask(index int, text string) bool {
	if index < 0 || index >= len(t.Subtasks) {
		return false
	}
	t.Subtasks[index].Text = text
	return true
}

// RemoveSubtask deletes the subtask at index, shifting later subtasks down.
func (t *Task) RemoveSubtask(index int) bool {
	if index < 0 || index >= len(t.Subtasks) {
		return false
	}
	t.Subtasks = append(t.Subtasks[:index], t.Subtasks[index+1:]...)
	return true
}

// HasPendingReminder reports whether the scheduler should consider this task.
func (t *Task) HasPendingReminder() bool {
	return !t.Completed && t.Deadline != nil && t.Reminder != nil
}
