package store_test

import (
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tockerrors "github.com/abatilo/tock/internal/errors"
	"github.com/abatilo/tock/internal/storage"
	"github.com/abatilo/tock/internal/store"
	"github.com/abatilo/tock/internal/task"
)

// countingPersister records how often each collection is written.
type countingPersister struct {
	*storage.Adapter
	taskSaves    int
	projectSaves int
}

func (c *countingPersister) SaveTasks(tasks []*task.Task) error {
	c.taskSaves++
	return c.Adapter.SaveTasks(tasks)
}

func (c *countingPersister) SaveProjects(names []string) error {
	c.projectSaves++
	return c.Adapter.SaveProjects(names)
}

func newStore(t *testing.T) (*store.Store, *storage.MemoryBackend, *countingPersister) {
	t.Helper()
	backend := storage.NewMemoryBackend()
	p := &countingPersister{Adapter: storage.NewAdapter(backend)}
	s, err := store.Open(p)
	require.NoError(t, err)
	return s, backend, p
}

func date(s string) *time.Time {
	d, err := task.ParseTime(s)
	if err != nil {
		panic(err)
	}
	return &d
}

func TestAddTask_DefaultsAndPersists(t *testing.T) {
	s, backend, _ := newStore(t)

	tk, err := s.AddTask(store.NewTask{Text: "  Buy milk  "})
	require.NoError(t, err)

	assert.NotEmpty(t, tk.ID)
	assert.Equal(t, "Buy milk", tk.Text)
	assert.False(t, tk.Completed)
	assert.Equal(t, task.PriorityMedium, tk.Priority)
	assert.Empty(t, tk.Subtasks)
	assert.Nil(t, tk.Deadline)
	assert.Nil(t, tk.Reminder)

	reloaded, err := store.Open(storage.NewAdapter(backend))
	require.NoError(t, err)
	got, ok := reloaded.Task(tk.ID)
	require.True(t, ok)
	assert.Equal(t, "Buy milk", got.Text)
}

func TestAddTask_RejectsEmptyText(t *testing.T) {
	s, _, p := newStore(t)

	for _, text := range []string{"", "   ", "\t\n"} {
		_, err := s.AddTask(store.NewTask{Text: text})
		var verr tockerrors.ValidationError
		require.ErrorAs(t, err, &verr)
	}
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, p.taskSaves)
}

func TestAddTask_RejectsInvalidPriority(t *testing.T) {
	s, _, _ := newStore(t)

	_, err := s.AddTask(store.NewTask{Text: "x", Priority: "urgent"})
	var perr tockerrors.InvalidPriorityError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 0, s.Len())
}

func TestAddTask_ResolvesReminderOffset(t *testing.T) {
	s, _, _ := newStore(t)

	tk, err := s.AddTask(store.NewTask{
		Text:     "Dentist",
		Deadline: date("2024-01-10T15:00:00Z"),
		Reminder: "1hour",
	})
	require.NoError(t, err)
	require.NotNil(t, tk.Reminder)
	assert.True(t, tk.Reminder.Equal(*date("2024-01-10T14:00:00Z")))
}

func TestAddTask_IDsAreUnique(t *testing.T) {
	s, _, _ := newStore(t)

	seen := map[string]bool{}
	for range 300 {
		tk, err := s.AddTask(store.NewTask{Text: "same text every time"})
		require.NoError(t, err)
		require.False(t, seen[tk.ID], "duplicate id %s", tk.ID)
		seen[tk.ID] = true
	}
}

func TestPersistenceFailureKeepsInMemoryState(t *testing.T) {
	s, backend, _ := newStore(t)
	backend.FailWrites = fs.ErrPermission

	tk, err := s.AddTask(store.NewTask{Text: "Still here"})

	var perr tockerrors.PersistenceError
	require.ErrorAs(t, err, &perr)
	require.NotNil(t, tk)
	_, ok := s.Task(tk.ID)
	assert.True(t, ok, "in-memory change must not be rolled back")

	require.Error(t, s.ToggleTask(tk.ID))
	got, _ := s.Task(tk.ID)
	assert.True(t, got.Completed)
}

func TestUnknownIDsAndIndexesAreNoOps(t *testing.T) {
	s, backend, p := newStore(t)
	tk, err := s.AddTask(store.NewTask{Text: "Only task"})
	require.NoError(t, err)
	require.NoError(t, s.AddSubtask(tk.ID, "step"))

	before, _ := backend.Read(storage.KeyTasks)
	savesBefore := p.taskSaves

	assert.NoError(t, s.ToggleTask("missing"))
	assert.NoError(t, s.RemoveTask("missing"))
	assert.NoError(t, s.UpdateTaskText("missing", "x"))
	assert.NoError(t, s.UpdateTaskDetails("missing", task.Details{Completed: new(bool)}))
	assert.NoError(t, s.AddSubtask("missing", "x"))
	assert.NoError(t, s.UpdateSubtask(tk.ID, 1, "x"))
	assert.NoError(t, s.UpdateSubtask(tk.ID, -1, "x"))
	assert.NoError(t, s.ToggleSubtask(tk.ID, 7))
	assert.NoError(t, s.RemoveSubtask(tk.ID, 1))
	assert.NoError(t, s.UpdateSubtask("missing", 0, "x"))

	after, _ := backend.Read(storage.KeyTasks)
	assert.Equal(t, before, after)
	assert.Equal(t, savesBefore, p.taskSaves)

	got, _ := s.Task(tk.ID)
	assert.Equal(t, []task.Subtask{{Text: "step"}}, got.Subtasks)
}

func TestSubtaskOperationsAddressByPosition(t *testing.T) {
	s, _, _ := newStore(t)
	tk, _ := s.AddTask(store.NewTask{Text: "Trip"})

	require.NoError(t, s.AddSubtask(tk.ID, "pack"))
	require.NoError(t, s.AddSubtask(tk.ID, "book"))
	require.NoError(t, s.AddSubtask(tk.ID, "go"))
	require.NoError(t, s.ToggleSubtask(tk.ID, 1))
	require.NoError(t, s.UpdateSubtask(tk.ID, 2, "leave"))
	require.NoError(t, s.RemoveSubtask(tk.ID, 0))

	got, _ := s.Task(tk.ID)
	assert.Equal(t, []task.Subtask{
		{Text: "book", Completed: true},
		{Text: "leave"},
	}, got.Subtasks)
}

func TestTasksReturnsCopies(t *testing.T) {
	s, _, _ := newStore(t)
	tk, _ := s.AddTask(store.NewTask{Text: "Original"})

	snapshot := s.Tasks()
	snapshot[0].Text = "mutated"
	snapshot[0].Subtasks = append(snapshot[0].Subtasks, task.Subtask{Text: "leak"})

	got, _ := s.Task(tk.ID)
	assert.Equal(t, "Original", got.Text)
	assert.Empty(t, got.Subtasks)
}

func TestUpdateTaskDetails(t *testing.T) {
	s, _, _ := newStore(t)
	tk, _ := s.AddTask(store.NewTask{Text: "Report", Project: "Work"})

	high := task.PriorityHigh
	desc := "quarterly numbers"
	none := ""
	require.NoError(t, s.UpdateTaskDetails(tk.ID, task.Details{
		Priority:    &high,
		Description: &desc,
		Project:     &none,
		Deadline:    date("2024-02-01"),
	}))

	got, _ := s.Task(tk.ID)
	assert.Equal(t, task.PriorityHigh, got.Priority)
	assert.Equal(t, "quarterly numbers", got.Description)
	assert.Empty(t, got.Project)
	require.NotNil(t, got.Deadline)

	bad := task.Priority("someday")
	err := s.UpdateTaskDetails(tk.ID, task.Details{Priority: &bad, Description: &none})
	require.Error(t, err)
	got, _ = s.Task(tk.ID)
	assert.Equal(t, "quarterly numbers", got.Description, "invalid details must not partially apply")
}

func TestClearCompleted_SingleWrite(t *testing.T) {
	s, _, p := newStore(t)
	a, _ := s.AddTask(store.NewTask{Text: "a"})
	b, _ := s.AddTask(store.NewTask{Text: "b"})
	c, _ := s.AddTask(store.NewTask{Text: "c"})
	require.NoError(t, s.ToggleTask(a.ID))
	require.NoError(t, s.ToggleTask(c.ID))

	saves := p.taskSaves
	removed, err := s.ClearCompleted()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, saves+1, p.taskSaves)

	tasks := s.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, b.ID, tasks[0].ID)
}

func TestUpdateTaskPosition(t *testing.T) {
	s, _, _ := newStore(t)
	for _, text := range []string{"a", "b", "c", "d"} {
		_, err := s.AddTask(store.NewTask{Text: text})
		require.NoError(t, err)
	}
	texts := func() []string {
		var out []string
		for _, tk := range s.Tasks() {
			out = append(out, tk.Text)
		}
		return out
	}

	ok, err := s.UpdateTaskPosition(0, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"b", "c", "a", "d"}, texts())

	ok, err = s.UpdateTaskPosition(3, 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"d", "b", "c", "a"}, texts())

	for _, tc := range [][2]int{{-1, 0}, {0, 4}, {4, 0}, {2, 2}} {
		ok, err = s.UpdateTaskPosition(tc[0], tc[1])
		require.NoError(t, err)
		assert.False(t, ok, "UpdateTaskPosition(%d, %d)", tc[0], tc[1])
	}
	assert.Equal(t, []string{"d", "b", "c", "a"}, texts())
}

func TestOpen_CorruptDocumentStartsEmpty(t *testing.T) {
	backend := storage.NewMemoryBackend()
	require.NoError(t, backend.Write(storage.KeyTasks, []byte("::: not yaml [")))

	s, err := store.Open(storage.NewAdapter(backend))
	var perr tockerrors.PersistenceError
	require.True(t, errors.As(err, &perr))
	require.NotNil(t, s)
	assert.Equal(t, 0, s.Len())

	_, err = s.AddTask(store.NewTask{Text: "usable anyway"})
	assert.NoError(t, err)
}

func TestOpen_RepairedIDsAreStableAcrossLoads(t *testing.T) {
	backend := storage.NewMemoryBackend()
	require.NoError(t, backend.Write(storage.KeyTasks, []byte("- text: Old task\n- id: dup\n  text: a\n- id: dup\n  text: b\n")))

	first, err := store.Open(storage.NewAdapter(backend))
	require.NoError(t, err)
	second, err := store.Open(storage.NewAdapter(backend))
	require.NoError(t, err)

	ids := func(s *store.Store) []string {
		var out []string
		for _, tk := range s.Tasks() {
			out = append(out, tk.ID)
		}
		return out
	}
	require.Len(t, ids(first), 3)
	assert.Equal(t, ids(first), ids(second))

	require.NoError(t, second.Reload())
	assert.Equal(t, ids(first), ids(second))

	// An id shown by one process still addresses the task in the next.
	oldID := first.Tasks()[0].ID
	third, err := store.Open(storage.NewAdapter(backend))
	require.NoError(t, err)
	require.NoError(t, third.ToggleTask(oldID))
	tk, ok := third.Task(oldID)
	require.True(t, ok)
	assert.True(t, tk.Completed)
}

func TestOpen_RepairWriteFailureIsReported(t *testing.T) {
	backend := storage.NewMemoryBackend()
	require.NoError(t, backend.Write(storage.KeyTasks, []byte("- text: Old task\n")))
	backend.FailWrites = errors.New("read-only disk")

	s, err := store.Open(storage.NewAdapter(backend))
	var perr tockerrors.PersistenceError
	require.True(t, errors.As(err, &perr))
	require.Equal(t, 1, s.Len())
	assert.NotEmpty(t, s.Tasks()[0].ID)
}

func TestReload_PicksUpChangesFromAnotherStore(t *testing.T) {
	backend := storage.NewMemoryBackend()
	watcher, err := store.Open(storage.NewAdapter(backend))
	require.NoError(t, err)
	writer, err := store.Open(storage.NewAdapter(backend))
	require.NoError(t, err)

	tk, err := writer.AddTask(store.NewTask{Text: "from the CLI"})
	require.NoError(t, err)
	assert.Equal(t, 0, watcher.Len())

	require.NoError(t, watcher.Reload())
	_, ok := watcher.Task(tk.ID)
	assert.True(t, ok)
}

func TestReload_KeepsStateWhenDocumentIsCorrupt(t *testing.T) {
	s, backend, _ := newStore(t)
	_, err := s.AddTask(store.NewTask{Text: "keep me"})
	require.NoError(t, err)

	require.NoError(t, backend.Write(storage.KeyTasks, []byte("::: not yaml [")))
	require.Error(t, s.Reload())
	assert.Equal(t, 1, s.Len())
}

func TestImport_AssignsFreshIDsAndWritesOnce(t *testing.T) {
	s, _, p := newStore(t)
	existing, err := s.AddTask(store.NewTask{Text: "already here"})
	require.NoError(t, err)

	clash := task.New(existing.ID, "same id")
	noID := task.New("", "no id")
	noID.Priority = "urgent"
	blank := task.New("zzz", "   ")

	saves := p.taskSaves
	added, err := s.Import([]*task.Task{clash, noID, blank, nil})
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, saves+1, p.taskSaves)

	tasks := s.Tasks()
	require.Len(t, tasks, 3)
	seen := map[string]bool{}
	for _, tk := range tasks {
		require.NotEmpty(t, tk.ID)
		require.False(t, seen[tk.ID])
		seen[tk.ID] = true
	}
	assert.Equal(t, task.PriorityMedium, tasks[2].Priority)

	added, err = s.Import(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, added)
	assert.Equal(t, saves+1, p.taskSaves)
}
