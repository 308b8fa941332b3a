package storage

import (
	"strings"

	tockerrors "github.com/abatilo/tock/internal/errors"
	"github.com/abatilo/tock/internal/task"
)

// Keys under which the adapter stores its documents.
const (
	KeyTasks            = "tasks"
	KeyProjects         = "projects"
	KeyLastProject      = "last_project"
	KeyNotifyPermission = "notify_permission"
)

// Adapter maps the task collection, the project registry and small settings
// onto a Backend. Every failure is returned as a PersistenceError.
type Adapter struct {
	backend Backend
}

// NewAdapter creates an Adapter over backend.
func NewAdapter(backend Backend) *Adapter {
	return &Adapter{backend: backend}
}

// LoadTasks returns the persisted tasks in manual order, or an empty slice if
// none were saved yet. repaired is true when records were given new ids and
// the collection should be saved back.
func (a *Adapter) LoadTasks() (tasks []*task.Task, repaired bool, err error) {
	data, err := a.backend.Read(KeyTasks)
	if err != nil {
		return []*task.Task{}, false, tockerrors.PersistenceError{Key: KeyTasks, Err: err}
	}
	tasks, repaired, err = DecodeTasks(data)
	if err != nil {
		return []*task.Task{}, false, tockerrors.PersistenceError{Key: KeyTasks, Err: err}
	}
	return tasks, repaired, nil
}

// SaveTasks replaces the persisted task collection.
func (a *Adapter) SaveTasks(tasks []*task.Task) error {
	data, err := EncodeTasks(tasks)
	if err != nil {
		return tockerrors.PersistenceError{Key: KeyTasks, Err: err}
	}
	if err = a.backend.Write(KeyTasks, data); err != nil {
		return tockerrors.PersistenceError{Key: KeyTasks, Err: err}
	}
	return nil
}

// LoadProjects returns the project registry in insertion order.
func (a *Adapter) LoadProjects() ([]string, error) {
	data, err := a.backend.Read(KeyProjects)
	if err != nil {
		return []string{}, tockerrors.PersistenceError{Key: KeyProjects, Err: err}
	}
	names, err := DecodeStrings(data)
	if err != nil {
		return []string{}, tockerrors.PersistenceError{Key: KeyProjects, Err: err}
	}

	// Older registries may carry padding or blanks
	cleaned := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			cleaned = append(cleaned, n)
		}
	}
	return cleaned, nil
}

// SaveProjects replaces the project registry.
func (a *Adapter) SaveProjects(names []string) error {
	return a.saveStrings(KeyProjects, names)
}

// LoadLastProject returns the project most recently used for a new task.
func (a *Adapter) LoadLastProject() (string, error) {
	return a.loadString(KeyLastProject)
}

// SaveLastProject records the project most recently used for a new task.
func (a *Adapter) SaveLastProject(name string) error {
	return a.saveString(KeyLastProject, name)
}

// LoadPermission returns the stored notification decision, or "" if the user
// was never asked.
func (a *Adapter) LoadPermission() (string, error) {
	return a.loadString(KeyNotifyPermission)
}

// SavePermission stores the user's notification decision.
func (a *Adapter) SavePermission(decision string) error {
	return a.saveString(KeyNotifyPermission, decision)
}

func (a *Adapter) loadString(key string) (string, error) {
	data, err := a.backend.Read(key)
	if err != nil {
		return "", tockerrors.PersistenceError{Key: key, Err: err}
	}
	values, err := DecodeStrings(data)
	if err != nil {
		return "", tockerrors.PersistenceError{Key: key, Err: err}
	}
	if len(values) == 0 {
		return "", nil
	}
	return values[0], nil
}

func (a *Adapter) saveString(key, value string) error {
	if value == "" {
		return a.saveStrings(key, nil)
	}
	return a.saveStrings(key, []string{value})
}

func (a *Adapter) saveStrings(key string, values []string) error {
	data, err := EncodeStrings(values)
	if err != nil {
		return tockerrors.PersistenceError{Key: key, Err: err}
	}
	if err = a.backend.Write(key, data); err != nil {
		return tockerrors.PersistenceError{Key: key, Err: err}
	}
	return nil
}
