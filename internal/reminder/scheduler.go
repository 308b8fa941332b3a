// Package reminder polls the task collection and dispatches a notification for
// every pending reminder whose instant falls inside the current check window.
//
// A Scheduler moves through four states:
//
//	uninitialized -> awaiting-permission -> active -> stopped
//
// Unsupported platforms and denied permission go straight to stopped and are
// reported once.
package reminder

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"sync"
	"time"

	tockerrors "github.com/abatilo/tock/internal/errors"
)

const (
	DefaultInterval = 10 * time.Second
	DefaultTitle    = "Task Reminder"
)

// State is the lifecycle state of a Scheduler.
type State int

const (
	StateUninitialized State = iota
	StateAwaitingPermission
	StateActive
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateAwaitingPermission:
		return "awaiting-permission"
	case StateActive:
		return "active"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// DispatchResult records the outcome of one notification in a check cycle.
type DispatchResult struct {
	Notification Notification
	Err          error
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithInterval sets the polling interval. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithClock(c Clock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger routes scheduler diagnostics. A nil logger discards them.
func WithLogger(l *log.Logger) Option {
	return func(s *Scheduler) {
		if l == nil {
			l = log.New(io.Discard, "", 0)
		}
		s.logger = l
	}
}

func WithTitle(title string) Option {
	return func(s *Scheduler) {
		if title != "" {
			s.title = title
		}
	}
}

// WithTicker replaces the interval timer factory.
func WithTicker(newTicker func(time.Duration) Ticker) Option {
	return func(s *Scheduler) {
		if newTicker != nil {
			s.newTicker = newTicker
		}
	}
}

// WithObserver registers fn to receive the results of every check cycle,
// including empty ones.
func WithObserver(fn func([]DispatchResult)) Option {
	return func(s *Scheduler) {
		s.observe = fn
	}
}

// Scheduler is the reminder state machine. It is safe for concurrent use.
type Scheduler struct {
	source    TaskSource
	sink      Sink
	clock     Clock
	interval  time.Duration
	title     string
	logger    *log.Logger
	newTicker func(time.Duration) Ticker
	observe   func([]DispatchResult)

	mu        sync.Mutex
	state     State
	lastCheck time.Time
	checked   bool
	// reported is set once an unsupported platform or denial has been surfaced.
	reported bool
	cancel   context.CancelFunc
	done     chan struct{}

	// checkMu serializes check cycles so lastCheck windows never overlap.
	checkMu sync.Mutex
}

// New returns an uninitialized Scheduler reading from source and
// dispatching to sink.
func New(source TaskSource, sink Sink, opts ...Option) *Scheduler {
	s := &Scheduler{
		source:    source,
		sink:      sink,
		clock:     RealClock{},
		interval:  DefaultInterval,
		title:     DefaultTitle,
		logger:    log.New(os.Stderr, "tock: ", log.LstdFlags),
		newTicker: newRealTicker,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastCheck returns the end of the most recent check window.
func (s *Scheduler) LastCheck() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCheck, s.checked
}

// Start negotiates permission and, once granted, activates polling. It blocks
// while the user is asked. A CapabilityError or PermissionDeniedError is
// returned the first time only; later calls return nil and leave the
// scheduler stopped. Calling Start on an active scheduler is a no-op.
//
// Polling runs until Stop is called or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case s.state == StateActive, s.state == StateAwaitingPermission:
		s.mu.Unlock()
		return nil
	case s.reported:
		s.mu.Unlock()
		return nil
	}

	if !s.sink.Supported() {
		s.state = StateStopped
		s.reported = true
		s.mu.Unlock()
		err := tockerrors.CapabilityError{Reason: "this platform has no notification support"}
		s.logger.Printf("reminders disabled: %v", err)
		return err
	}

	negotiateCtx, cancel := context.WithCancel(ctx)
	s.state = StateAwaitingPermission
	s.cancel = cancel
	s.mu.Unlock()

	perm, err := s.negotiate(negotiateCtx)
	cancel()

	s.mu.Lock()
	if s.state != StateAwaitingPermission {
		// Stopped while the user was being asked.
		s.mu.Unlock()
		return nil
	}
	s.cancel = nil
	if err != nil {
		s.state = StateUninitialized
		s.mu.Unlock()
		return err
	}
	if perm != PermissionGranted {
		s.state = StateStopped
		s.reported = true
		s.mu.Unlock()
		s.logger.Printf("reminders disabled: notification permission denied")
		return tockerrors.PermissionDeniedError{}
	}
	runCtx, ticker, done := s.activateLocked(ctx)
	s.mu.Unlock()

	s.Check(runCtx)
	go s.loop(runCtx, ticker, done)
	return nil
}

func (s *Scheduler) negotiate(ctx context.Context) (Permission, error) {
	perm, err := s.sink.QueryPermission(ctx)
	if err != nil {
		return PermissionDefault, err
	}
	if perm != PermissionDefault {
		return perm, nil
	}

	perm, err = s.sink.RequestPermission(ctx)
	if err != nil {
		return PermissionDefault, err
	}
	switch perm {
	case PermissionGranted:
		s.logger.Printf("notifications enabled")
	case PermissionDenied:
		s.logger.Printf("notifications blocked; reminders will not be shown")
	case PermissionDefault:
		// An unanswered request counts as a refusal.
		perm = PermissionDenied
	}
	return perm, nil
}

// activateLocked clears any previous timer and starts a new one. The caller
// runs the first check before starting the loop, so it precedes every tick.
func (s *Scheduler) activateLocked(parent context.Context) (context.Context, Ticker, chan struct{}) {
	s.stopTimerLocked()
	runCtx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.state = StateActive
	return runCtx, s.newTicker(s.interval), done
}

func (s *Scheduler) loop(ctx context.Context, ticker Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			if s.state == StateActive && s.done == done {
				s.state = StateStopped
			}
			s.mu.Unlock()
			return
		case <-ticker.C():
			if ctx.Err() != nil {
				continue
			}
			s.Check(ctx)
		}
	}
}

// Stop cancels polling and any pending permission request, then waits for the
// polling goroutine to exit. Stopping a scheduler that never started, or
// stopping twice, does nothing.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	done := s.done
	s.stopTimerLocked()
	if s.state == StateActive || s.state == StateAwaitingPermission {
		s.state = StateStopped
	}
	s.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (s *Scheduler) stopTimerLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.done = nil
}

// Check runs one check cycle. The window is [lastCheck, now] once a check has
// happened and (now-interval, now] before that. A failed dispatch is logged
// and does not stop the remaining reminders.
func (s *Scheduler) Check(ctx context.Context) []DispatchResult {
	s.checkMu.Lock()
	defer s.checkMu.Unlock()

	now := s.clock.Now()
	s.mu.Lock()
	last, checked := s.lastCheck, s.checked
	s.mu.Unlock()

	var results []DispatchResult
	for _, t := range s.source.Tasks() {
		if !t.HasPendingReminder() || !s.inWindow(*t.Reminder, now, last, checked) {
			continue
		}
		n := NotificationFor(t, s.title, now)
		err := s.sink.Dispatch(ctx, n)
		if err != nil {
			s.logger.Printf("dispatching reminder for task %s: %v", t.ID, err)
		}
		results = append(results, DispatchResult{Notification: n, Err: err})
	}

	s.mu.Lock()
	s.lastCheck = now
	s.checked = true
	s.mu.Unlock()

	if p, ok := s.sink.(Pruner); ok {
		p.Prune(now)
	}
	if s.observe != nil {
		s.observe(results)
	}
	return results
}

func (s *Scheduler) inWindow(at, now, last time.Time, checked bool) bool {
	if at.After(now) {
		return false
	}
	if checked {
		return !at.Before(last)
	}
	return now.Sub(at) < s.interval
}

// Failed reports whether any dispatch in results failed.
func Failed(results []DispatchResult) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errors.Join(errs...)
}
