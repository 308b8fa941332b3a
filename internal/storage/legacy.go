package storage

import (
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/abatilo/tock/internal/task"
)

// legacyPriorities maps the browser app's priority names onto ours.
//
//nolint:gochecknoglobals // Read-only lookup table
var legacyPriorities = map[string]task.Priority{
	"alta":  task.PriorityHigh,
	"media": task.PriorityMedium,
	"baja":  task.PriorityLow,
}

// ImportLegacy reads a JSON array exported from the browser version of the
// app. Both the English field names and the older Spanish ones (texto,
// completada, prioridad, proyecto, descripcion, recordatorio) are accepted.
// Records without any text are skipped. IDs are kept when present and unique
// according to existsFn; otherwise a fresh one is generated.
func ImportLegacy(data []byte, existsFn func(string) bool) ([]*task.Task, error) {
	if !gjson.ValidBytes(data) {
		return nil, &parseError{"legacy import: not valid JSON"}
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, &parseError{"legacy import: expected a JSON array of tasks"}
	}

	taken := map[string]bool{}
	exists := func(id string) bool {
		return taken[id] || existsFn(id)
	}

	var tasks []*task.Task
	now := time.Now()
	root.ForEach(func(_, rec gjson.Result) bool {
		text := strings.TrimSpace(firstOf(rec, "text", "texto").String())
		if text == "" {
			return true
		}

		t := task.New("", text)
		t.Completed = firstOf(rec, "completed", "completada").Bool()
		t.Project = strings.TrimSpace(firstOf(rec, "project", "proyecto").String())
		t.Description = firstOf(rec, "description", "descripcion").String()
		t.Priority = legacyPriority(firstOf(rec, "priority", "prioridad").String())
		t.Deadline = parseOptionalTime(rec.Get("deadline").String())
		t.Reminder = parseOptionalTime(firstOf(rec, "reminder", "recordatorio").String())

		rec.Get("subtasks").ForEach(func(_, sub gjson.Result) bool {
			t.Subtasks = append(t.Subtasks, task.Subtask{
				Text:      firstOf(sub, "text", "texto").String(),
				Completed: firstOf(sub, "completed", "completada").Bool(),
			})
			return true
		})

		id := strings.TrimSpace(rec.Get("id").String())
		if id == "" || exists(id) {
			id = task.GenerateID(text, now, exists)
		}
		t.ID = id
		taken[id] = true

		tasks = append(tasks, t)
		return true
	})

	if tasks == nil {
		tasks = []*task.Task{}
	}
	return tasks, nil
}

// firstOf returns the first of the named fields present on rec.
func firstOf(rec gjson.Result, names ...string) gjson.Result {
	for _, name := range names {
		if v := rec.Get(name); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}

func legacyPriority(s string) task.Priority {
	s = strings.ToLower(strings.TrimSpace(s))
	if p, ok := legacyPriorities[s]; ok {
		return p
	}
	if s == "" {
		return task.PriorityMedium
	}
	return task.Priority(s)
}
