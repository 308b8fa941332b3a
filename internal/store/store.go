// Package store owns the authoritative in-memory task collection and project
// registry. Every successful mutation is written through to the persistence
// adapter before the call returns.
//
// Lookups by unknown id or out-of-range index are silent no-ops: the caller
// may be acting on a stale view. A failed write is returned as a
// PersistenceError but the in-memory change is kept.
package store

import (
	"slices"
	"strings"
	"sync"
	"time"

	tockerrors "github.com/abatilo/tock/internal/errors"
	"github.com/abatilo/tock/internal/task"
)

// Persister is the persistence contract the store writes through to.
type Persister interface {
	// LoadTasks reports repaired when it had to assign ids; the store then
	// writes the collection back so those ids survive the next load.
	LoadTasks() (tasks []*task.Task, repaired bool, err error)
	SaveTasks(tasks []*task.Task) error
	LoadProjects() ([]string, error)
	SaveProjects(names []string) error
	LoadLastProject() (string, error)
	SaveLastProject(name string) error
}

// Store is the Task Store. It is safe for use by the CLI mutation path and the
// reminder scheduler's read path at the same time.
type Store struct {
	mu          sync.RWMutex
	persister   Persister
	tasks       []*task.Task
	projects    []string
	lastProject string
	now         func() time.Time
}

// NewTask holds the inputs for AddTask. Zero values mean "not set".
type NewTask struct {
	Text        string
	Deadline    *time.Time
	Priority    task.Priority
	Project     string
	Description string

	// Reminder is an offset before Deadline ("15min", "1day", ...) or an absolute instant.
	Reminder string
}

// Open loads the store from p. The returned Store is always usable; a non-nil
// error reports which collections could not be loaded and were started empty.
func Open(p Persister) (*Store, error) {
	s := &Store{
		persister: p,
		tasks:     []*task.Task{},
		projects:  []string{},
		now:       time.Now,
	}

	return s, s.load()
}

// Reload replaces the in-memory collections with what the persister holds.
// Collections that fail to load keep their current contents.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	tasks, repaired, err := s.persister.LoadTasks()
	keep(err)
	if err == nil && tasks != nil {
		s.tasks = tasks
		if repaired {
			keep(s.saveTasks())
		}
	}
	projects, err := s.persister.LoadProjects()
	keep(err)
	if err == nil && projects != nil {
		s.projects = projects
	}
	last, err := s.persister.LoadLastProject()
	keep(err)
	if err == nil {
		s.lastProject = last
	}

	return firstErr
}

// Tasks returns deep copies of every task in manual order.
func (s *Store) Tasks() []*task.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*task.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out
}

// Task returns a copy of the task with the given id.
func (s *Store) Task(id string) (*task.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t := s.find(id); t != nil {
		return t.Clone(), true
	}
	return nil, false
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

func (s *Store) find(id string) *task.Task {
	for _, t := range s.tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (s *Store) exists(id string) bool {
	return s.find(id) != nil
}

func (s *Store) saveTasks() error {
	return s.persister.SaveTasks(s.tasks)
}

func (s *Store) saveProjects() error {
	return s.persister.SaveProjects(s.projects)
}

// AddTask validates in, appends a new task, and persists. On a persistence
// failure the created task is still returned alongside the error.
func (s *Store) AddTask(in NewTask) (*task.Task, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, tockerrors.ValidationError{Field: "text", Reason: "must not be empty"}
	}
	priority := in.Priority
	if priority == "" {
		priority = task.PriorityMedium
	}
	if !task.IsValidPriority(priority) {
		return nil, tockerrors.InvalidPriorityError{Value: string(priority)}
	}

	var deadline *time.Time
	if in.Deadline != nil {
		d := *in.Deadline
		deadline = &d
	}
	reminder, err := task.ResolveReminder(strings.TrimSpace(in.Reminder), deadline)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := task.GenerateID(text, s.now(), s.exists)
	t := task.New(id, text)
	t.Deadline = deadline
	t.Priority = priority
	t.Project = strings.TrimSpace(in.Project)
	t.Description = in.Description
	t.Reminder = reminder
	s.tasks = append(s.tasks, t)

	return t.Clone(), s.saveTasks()
}

// RemoveTask hard-deletes the task.
func (s *Store) RemoveTask(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.tasks, func(t *task.Task) bool { return t.ID == id })
	if idx < 0 {
		return nil
	}
	s.tasks = slices.Delete(s.tasks, idx, idx+1)
	return s.saveTasks()
}

// ToggleTask flips the task's completion flag.
func (s *Store) ToggleTask(id string) error {
	return s.mutate(id, func(t *task.Task) bool {
		t.Toggle()
		return true
	})
}

// UpdateTaskText replaces the task's text.
func (s *Store) UpdateTaskText(id, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return tockerrors.ValidationError{Field: "text", Reason: "must not be empty"}
	}
	return s.mutate(id, func(t *task.Task) bool {
		t.Text = text
		return true
	})
}

// UpdateTaskDetails applies a partial update. Invalid details leave the task untouched.
func (s *Store) UpdateTaskDetails(id string, d task.Details) error {
	if d.IsEmpty() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.find(id)
	if t == nil {
		return nil
	}
	if err := d.Apply(t); err != nil {
		return err
	}
	return s.saveTasks()
}

// AddSubtask appends an incomplete subtask.
func (s *Store) AddSubtask(id, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return tockerrors.ValidationError{Field: "subtask", Reason: "must not be empty"}
	}
	return s.mutate(id, func(t *task.Task) bool {
		t.AddSubtask(text)
		return true
	})
}

// ToggleSubtask flips the subtask at index.
func (s *Store) ToggleSubtask(id string, index int) error {
	return s.mutate(id, func(t *task.Task) bool {
		return t.ToggleSubtask(index)
	})
}

// UpdateSubtask replaces the text of the subtask at index.
func (s *Store) UpdateSubtask(id string, index int, text string) error {
	return s.mutate(id, func(t *task.Task) bool {
		return t.UpdateSubtask(index, text)
	})
}

// RemoveSubtask deletes the subtask at index.
func (s *Store) RemoveSubtask(id string, index int) error {
	return s.mutate(id, func(t *task.Task) bool {
		return t.RemoveSubtask(index)
	})
}

// mutate runs fn on the task under the write lock and persists if fn reports a change.
func (s *Store) mutate(id string, fn func(t *task.Task) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.find(id)
	if t == nil || !fn(t) {
		return nil
	}
	return s.saveTasks()
}

// ClearCompleted removes every completed task with a single write and reports
// how many were removed.
func (s *Store) ClearCompleted() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.tasks)
	s.tasks = slices.DeleteFunc(s.tasks, func(t *task.Task) bool { return t.Completed })
	removed := before - len(s.tasks)
	if removed == 0 {
		return 0, nil
	}
	return removed, s.saveTasks()
}

// UpdateTaskPosition moves the task at fromIndex to toIndex in the manual
// order. It returns false, without error, for negative, out-of-range, or
// equal indices.
func (s *Store) UpdateTaskPosition(fromIndex, toIndex int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.tasks)
	if fromIndex < 0 || toIndex < 0 || fromIndex >= n || toIndex >= n || fromIndex == toIndex {
		return false, nil
	}

	moved := s.tasks[fromIndex]
	s.tasks = slices.Delete(s.tasks, fromIndex, fromIndex+1)
	s.tasks = slices.Insert(s.tasks, toIndex, moved)
	return true, s.saveTasks()
}

// Import appends tasks in order with a single write. Tasks without an id, or
// whose id is already taken, get a fresh one. It returns the number added.
func (s *Store) Import(tasks []*task.Task) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, t := range tasks {
		if t == nil || strings.TrimSpace(t.Text) == "" {
			continue
		}
		c := t.Clone()
		if c.ID == "" || s.exists(c.ID) {
			c.ID = task.GenerateID(c.Text, s.now(), s.exists)
		}
		if !task.IsValidPriority(c.Priority) {
			c.Priority = task.PriorityMedium
		}
		s.tasks = append(s.tasks, c)
		added++
	}
	if added == 0 {
		return 0, nil
	}
	return added, s.saveTasks()
}
