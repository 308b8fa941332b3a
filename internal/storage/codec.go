package storage

import (
	"bytes"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abatilo/tock/internal/task"
)

// taskRecord is the flat, YAML-serializable form of a task.
// Every field is optional on read so documents written by older versions load.
type taskRecord struct {
	ID          string         `yaml:"id"`
	Text        string         `yaml:"text"`
	Completed   bool           `yaml:"completed"`
	Deadline    string         `yaml:"deadline,omitempty"`
	Priority    string         `yaml:"priority"`
	Project     string         `yaml:"project,omitempty"`
	Subtasks    []task.Subtask `yaml:"subtasks"`
	Description string         `yaml:"description,omitempty"`
	Reminder    string         `yaml:"reminder,omitempty"`
}

func toRecord(t *task.Task) taskRecord {
	rec := taskRecord{
		ID:          t.ID,
		Text:        t.Text,
		Completed:   t.Completed,
		Priority:    string(t.Priority),
		Project:     t.Project,
		Subtasks:    t.Subtasks,
		Description: t.Description,
	}
	if rec.Subtasks == nil {
		rec.Subtasks = []task.Subtask{}
	}
	if t.Deadline != nil {
		rec.Deadline = t.Deadline.Format(time.RFC3339Nano)
	}
	if t.Reminder != nil {
		rec.Reminder = t.Reminder.Format(time.RFC3339Nano)
	}
	return rec
}

// fromRecord fills in defaults for anything the record left out. A timestamp
// that cannot be parsed is dropped rather than failing the whole load.
func fromRecord(rec taskRecord) *task.Task {
	t := &task.Task{
		ID:          strings.TrimSpace(rec.ID),
		Text:        rec.Text,
		Completed:   rec.Completed,
		Priority:    task.Priority(rec.Priority),
		Project:     strings.TrimSpace(rec.Project),
		Subtasks:    rec.Subtasks,
		Description: rec.Description,
	}
	if t.Priority == "" {
		t.Priority = task.PriorityMedium
	}
	if t.Subtasks == nil {
		t.Subtasks = []task.Subtask{}
	}
	t.Deadline = parseOptionalTime(rec.Deadline)
	t.Reminder = parseOptionalTime(rec.Reminder)
	return t
}

func parseOptionalTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parsed, err := task.ParseTime(s)
	if err != nil {
		return nil
	}
	return &parsed
}

// EncodeTasks serializes tasks, in order, as a YAML sequence.
func EncodeTasks(tasks []*task.Task) ([]byte, error) {
	records := make([]taskRecord, len(tasks))
	for i, t := range tasks {
		records[i] = toRecord(t)
	}
	return encodeYAML(records)
}

// DecodeTasks parses a YAML sequence of task records. Records without an id,
// or whose id repeats an earlier record, are given a fresh one; repaired
// reports whether that happened, in which case the caller must persist the
// result so the new ids stick.
func DecodeTasks(data []byte) (tasks []*task.Task, repaired bool, err error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []*task.Task{}, false, nil
	}

	var records []taskRecord
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, false, &parseError{"invalid task document: " + err.Error()}
	}

	tasks = make([]*task.Task, 0, len(records))
	for _, rec := range records {
		tasks = append(tasks, fromRecord(rec))
	}
	return tasks, ensureIDs(tasks), nil
}

// ensureIDs assigns generated IDs to tasks that are missing one or collide
// with an earlier task. It returns true if any ID was assigned.
func ensureIDs(tasks []*task.Task) bool {
	taken := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if t.ID != "" {
			taken[t.ID] = true
		}
	}
	existsFn := func(id string) bool {
		return taken[id]
	}

	claimed := make(map[string]bool, len(tasks))
	now := time.Now()
	repaired := false
	for _, t := range tasks {
		if t.ID != "" && !claimed[t.ID] {
			claimed[t.ID] = true
			continue
		}
		t.ID = task.GenerateID(t.Text, now, existsFn)
		taken[t.ID] = true
		claimed[t.ID] = true
		repaired = true
	}
	return repaired
}

// EncodeStrings serializes a list of names.
func EncodeStrings(names []string) ([]byte, error) {
	if names == nil {
		names = []string{}
	}
	return encodeYAML(names)
}

// DecodeStrings parses a list of names.
func DecodeStrings(data []byte) ([]string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []string{}, nil
	}
	var names []string
	if err := yaml.Unmarshal(data, &names); err != nil {
		return nil, &parseError{"invalid name list: " + err.Error()}
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

func encodeYAML(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
