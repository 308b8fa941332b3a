package reminder_test

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tockerrors "github.com/abatilo/tock/internal/errors"
	"github.com/abatilo/tock/internal/reminder"
	"github.com/abatilo/tock/internal/task"
)

//nolint:gochecknoglobals // Fixed reference instant
var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeSource struct {
	mu    sync.Mutex
	tasks []*task.Task
}

func (f *fakeSource) Tasks() []*task.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*task.Task, len(f.tasks))
	for i, t := range f.tasks {
		out[i] = t.Clone()
	}
	return out
}

func (f *fakeSource) add(t *task.Task) {
	f.mu.Lock()
	f.tasks = append(f.tasks, t)
	f.mu.Unlock()
}

type fakeSink struct {
	unsupported bool
	permission  reminder.Permission
	answer      reminder.Permission
	// block makes RequestPermission wait for ctx cancellation.
	block bool
	fail  map[string]error

	mu         sync.Mutex
	requests   int
	dispatched []reminder.Notification
}

func (f *fakeSink) Supported() bool { return !f.unsupported }

func (f *fakeSink) QueryPermission(context.Context) (reminder.Permission, error) {
	if f.permission == "" {
		return reminder.PermissionGranted, nil
	}
	return f.permission, nil
}

func (f *fakeSink) RequestPermission(ctx context.Context) (reminder.Permission, error) {
	f.mu.Lock()
	f.requests++
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return reminder.PermissionDefault, ctx.Err()
	}
	return f.answer, nil
}

func (f *fakeSink) Dispatch(_ context.Context, n reminder.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dispatched = append(f.dispatched, n)
	return f.fail[n.TaskID]
}

func (f *fakeSink) sent() []reminder.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]reminder.Notification(nil), f.dispatched...)
}

type manualTicker struct {
	ch chan time.Time
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }
func (m *manualTicker) Stop()               {}

type harness struct {
	source *fakeSource
	sink   *fakeSink
	clock  *reminder.FakeClock
	ticker *manualTicker
	sched  *reminder.Scheduler
}

func newHarness(t *testing.T, sink *fakeSink) *harness {
	t.Helper()
	h := &harness{
		source: &fakeSource{},
		sink:   sink,
		clock:  reminder.NewFakeClock(t0),
		ticker: &manualTicker{ch: make(chan time.Time)},
	}
	h.sched = reminder.New(h.source, sink,
		reminder.WithInterval(10*time.Second),
		reminder.WithClock(h.clock),
		reminder.WithLogger(log.New(io.Discard, "", 0)),
		reminder.WithTicker(func(time.Duration) reminder.Ticker { return h.ticker }),
	)
	t.Cleanup(h.sched.Stop)
	return h
}

// tick advances the clock and waits for the resulting check to finish.
func (h *harness) tick(t *testing.T, d time.Duration) {
	t.Helper()
	h.clock.Advance(d)
	now := h.clock.Now()
	h.ticker.ch <- now
	require.Eventually(t, func() bool {
		last, ok := h.sched.LastCheck()
		return ok && last.Equal(now)
	}, time.Second, time.Millisecond)
}

func remindAt(id string, at time.Time) *task.Task {
	tk := task.New(id, "task "+id)
	deadline := at.Add(time.Hour)
	tk.Deadline = &deadline
	tk.Reminder = &at
	return tk
}

func taskIDs(ns []reminder.Notification) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.TaskID
	}
	return out
}

func TestStart_ImmediateCheckUsesFirstWindow(t *testing.T) {
	h := newHarness(t, &fakeSink{})
	h.source.add(remindAt("inside", t0.Add(-5*time.Second)))
	h.source.add(remindAt("edge", t0.Add(-10*time.Second)))
	h.source.add(remindAt("future", t0.Add(time.Second)))
	h.source.add(remindAt("now", t0))

	require.NoError(t, h.sched.Start(context.Background()))

	assert.Equal(t, reminder.StateActive, h.sched.State())
	assert.Equal(t, []string{"inside", "now"}, taskIDs(h.sink.sent()))
	last, ok := h.sched.LastCheck()
	require.True(t, ok)
	assert.True(t, last.Equal(t0))
}

func TestReminderFiresExactlyOnce(t *testing.T) {
	h := newHarness(t, &fakeSink{})
	h.source.add(remindAt("once", t0.Add(5*time.Second)))

	require.NoError(t, h.sched.Start(context.Background()))
	assert.Empty(t, h.sink.sent())

	h.tick(t, 10*time.Second)
	assert.Equal(t, []string{"once"}, taskIDs(h.sink.sent()))

	h.tick(t, 10*time.Second)
	h.tick(t, 10*time.Second)
	assert.Len(t, h.sink.sent(), 1)
}

func TestCheck_SkipsCompletedAndDeadlineless(t *testing.T) {
	h := newHarness(t, &fakeSink{})

	completed := remindAt("completed", t0)
	completed.Completed = true
	noDeadline := remindAt("no-deadline", t0)
	noDeadline.Deadline = nil
	h.source.add(completed)
	h.source.add(noDeadline)
	h.source.add(remindAt("pending", t0))

	require.NoError(t, h.sched.Start(context.Background()))
	assert.Equal(t, []string{"pending"}, taskIDs(h.sink.sent()))
}

func TestCheck_NotificationContent(t *testing.T) {
	h := newHarness(t, &fakeSink{})
	tk := task.New("abc", "Call mom")
	deadline := t0.Add(2 * time.Hour)
	at := t0
	tk.Deadline = &deadline
	tk.Reminder = &at
	h.source.add(tk)

	require.NoError(t, h.sched.Start(context.Background()))
	sent := h.sink.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "task-abc", sent[0].Tag)
	assert.Equal(t, reminder.DefaultTitle, sent[0].Title)
	assert.Equal(t, `The task "Call mom" is due today`, sent[0].Body)
	assert.True(t, sent[0].At.Equal(t0))
}

func TestCheck_DispatchFailureDoesNotStopOthers(t *testing.T) {
	boom := errors.New("boom")
	h := newHarness(t, &fakeSink{fail: map[string]error{"first": boom}})
	h.source.add(remindAt("first", t0.Add(-time.Second)))
	h.source.add(remindAt("second", t0.Add(-2*time.Second)))

	results := h.sched.Check(context.Background())

	require.Len(t, results, 2)
	require.ErrorIs(t, results[0].Err, boom)
	require.NoError(t, results[1].Err)
	require.ErrorIs(t, reminder.Failed(results), boom)
	assert.Equal(t, []string{"first", "second"}, taskIDs(h.sink.sent()))

	// lastCheck still advances, so the failed reminder is not retried.
	h.clock.Advance(time.Second)
	assert.Empty(t, h.sched.Check(context.Background()))
}

func TestStart_PermissionDeniedReportedOnce(t *testing.T) {
	h := newHarness(t, &fakeSink{permission: reminder.PermissionDenied})
	h.source.add(remindAt("due", t0))

	err := h.sched.Start(context.Background())
	var denied tockerrors.PermissionDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, reminder.StateStopped, h.sched.State())
	assert.Empty(t, h.sink.sent())

	require.NoError(t, h.sched.Start(context.Background()))
	assert.Equal(t, reminder.StateStopped, h.sched.State())
}

func TestStart_UnsupportedPlatform(t *testing.T) {
	h := newHarness(t, &fakeSink{unsupported: true})

	err := h.sched.Start(context.Background())
	var capErr tockerrors.CapabilityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, reminder.StateStopped, h.sched.State())

	require.NoError(t, h.sched.Start(context.Background()))
}

func TestStart_RequestsPermissionWhenUndecided(t *testing.T) {
	tests := []struct {
		name   string
		answer reminder.Permission
		state  reminder.State
		denied bool
	}{
		{"granted", reminder.PermissionGranted, reminder.StateActive, false},
		{"denied", reminder.PermissionDenied, reminder.StateStopped, true},
		{"dismissed", reminder.PermissionDefault, reminder.StateStopped, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &fakeSink{permission: reminder.PermissionDefault, answer: tt.answer}
			h := newHarness(t, sink)

			err := h.sched.Start(context.Background())
			if tt.denied {
				var denied tockerrors.PermissionDeniedError
				require.ErrorAs(t, err, &denied)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.state, h.sched.State())
			assert.Equal(t, 1, sink.requests)
		})
	}
}

func TestStop_WhileAwaitingPermission(t *testing.T) {
	sink := &fakeSink{permission: reminder.PermissionDefault, block: true}
	h := newHarness(t, sink)

	errc := make(chan error, 1)
	go func() { errc <- h.sched.Start(context.Background()) }()

	require.Eventually(t, func() bool {
		return h.sched.State() == reminder.StateAwaitingPermission
	}, time.Second, time.Millisecond)

	h.sched.Stop()
	require.NoError(t, <-errc)
	assert.Equal(t, reminder.StateStopped, h.sched.State())
}

func TestStop_IsIdempotent(t *testing.T) {
	h := newHarness(t, &fakeSink{})

	h.sched.Stop()
	assert.Equal(t, reminder.StateUninitialized, h.sched.State())

	require.NoError(t, h.sched.Start(context.Background()))
	h.sched.Stop()
	h.sched.Stop()
	assert.Equal(t, reminder.StateStopped, h.sched.State())

	// No loop is left to receive ticks.
	select {
	case h.ticker.ch <- t0:
		t.Fatal("tick delivered after stop")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestStart_AgainAfterStopResumesFromLastCheck(t *testing.T) {
	h := newHarness(t, &fakeSink{})
	require.NoError(t, h.sched.Start(context.Background()))
	h.sched.Stop()

	h.source.add(remindAt("missed", t0.Add(30*time.Second)))
	h.clock.Advance(time.Minute)

	require.NoError(t, h.sched.Start(context.Background()))
	assert.Equal(t, reminder.StateActive, h.sched.State())
	assert.Equal(t, []string{"missed"}, taskIDs(h.sink.sent()))
}

func TestStart_IsNoOpWhenActive(t *testing.T) {
	h := newHarness(t, &fakeSink{})
	h.source.add(remindAt("due", t0))

	require.NoError(t, h.sched.Start(context.Background()))
	require.NoError(t, h.sched.Start(context.Background()))
	assert.Len(t, h.sink.sent(), 1)
}

func TestContextCancelStopsLoop(t *testing.T) {
	h := newHarness(t, &fakeSink{})
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, h.sched.Start(ctx))
	cancel()

	require.Eventually(t, func() bool {
		return h.sched.State() == reminder.StateStopped
	}, time.Second, time.Millisecond)
}

func TestParsePermission(t *testing.T) {
	assert.Equal(t, reminder.PermissionGranted, reminder.ParsePermission("granted"))
	assert.Equal(t, reminder.PermissionDenied, reminder.ParsePermission("denied"))
	assert.Equal(t, reminder.PermissionDefault, reminder.ParsePermission(""))
	assert.Equal(t, reminder.PermissionDefault, reminder.ParsePermission("maybe"))
	assert.Equal(t, "awaiting-permission", reminder.StateAwaitingPermission.String())
}

func TestObserverSeesEveryCycle(t *testing.T) {
	source := &fakeSource{}
	source.add(remindAt("due", t0.Add(-time.Second)))
	clock := reminder.NewFakeClock(t0)
	var cycles [][]reminder.DispatchResult
	sched := reminder.New(source, &fakeSink{},
		reminder.WithClock(clock),
		reminder.WithLogger(nil),
		reminder.WithObserver(func(r []reminder.DispatchResult) { cycles = append(cycles, r) }),
	)

	sched.Check(context.Background())
	clock.Advance(10 * time.Second)
	sched.Check(context.Background())

	require.Len(t, cycles, 2)
	assert.Len(t, cycles[0], 1)
	assert.Empty(t, cycles[1])
}

func TestBoundaryReminderIsSeenByBothWindows(t *testing.T) {
	source := &fakeSource{}
	source.add(remindAt("edge", t0))
	sched := reminder.New(source, &fakeSink{},
		reminder.WithClock(reminder.NewFakeClock(t0)),
		reminder.WithLogger(nil),
	)

	// The window is inclusive at lastCheck; the sink deduplicates the repeat.
	assert.Len(t, sched.Check(context.Background()), 1)
	assert.Len(t, sched.Check(context.Background()), 1)
}
