package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abatilo/tock/internal/config"
	tockerrors "github.com/abatilo/tock/internal/errors"
	"github.com/abatilo/tock/internal/notify"
	"github.com/abatilo/tock/internal/reminder"
	"github.com/abatilo/tock/internal/session"
	"github.com/abatilo/tock/internal/storage"
	"github.com/abatilo/tock/internal/store"
	"github.com/abatilo/tock/internal/task"
)

// reloadingSource re-reads the collection before every check so edits made by
// other tock invocations are seen by a long-running watcher.
type reloadingSource struct {
	store *store.Store
}

func (r reloadingSource) Tasks() []*task.Task {
	if err := r.store.Reload(); err != nil {
		printWarning(err)
	}
	return r.store.Tasks()
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

func buildSink(sinkName string, adapter *storage.Adapter) reminder.Sink {
	var sink reminder.Sink
	switch sinkName {
	case config.SinkTerminal:
		sink = notify.NewTerminal(os.Stdout)
	default:
		var prompter notify.Prompter
		if cfg.Notify.Prompt && isTerminal(os.Stdin) {
			prompter = notify.NewTerminalPrompter(os.Stdin, os.Stderr)
		}
		sink = notify.NewDesktop(adapter, prompter, logger)
	}
	return notify.NewDedup(sink)
}

func newScheduler(source reminder.TaskSource, sink reminder.Sink, opts ...reminder.Option) *reminder.Scheduler {
	base := []reminder.Option{
		reminder.WithInterval(cfg.Reminder.PollInterval),
		reminder.WithTitle(cfg.Reminder.Title),
		reminder.WithLogger(logger),
	}
	return reminder.New(source, sink, append(base, opts...)...)
}

// claimWatcher records rec as the watcher for dataDir. The returned release
// removes the record and must run when the watcher stops.
func claimWatcher(dataDir string, rec *session.Session) (func(), error) {
	claimed, owner, err := session.Claim(dataDir, rec)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, tockerrors.WatcherRunningError{PID: owner.PID}
	}
	return func() {
		if _, releaseErr := session.Release(dataDir, rec.PID); releaseErr != nil {
			printWarning(releaseErr)
		}
	}, nil
}

// watcherRunning returns a WatcherRunningError when a live watcher owns
// dataDir. A record left by a dead process is ignored.
func watcherRunning(dataDir string) error {
	if !session.Exists(dataDir) {
		return nil
	}
	owner, alive, err := session.Active(dataDir)
	if err != nil {
		return err
	}
	if alive {
		return tockerrors.WatcherRunningError{PID: owner.PID}
	}
	logger.Printf("ignoring stale watcher record (pid %d)", owner.PID)
	return nil
}

// watchCmd implements 'tock watch'.
func watchCmd() *cobra.Command {
	var sinkName string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Deliver reminders until interrupted",
		Run: func(cmd *cobra.Command, _ []string) {
			if !cmd.Flags().Changed("sink") {
				sinkName = cfg.Notify.Sink
			}
			if sinkName != config.SinkDesktop && sinkName != config.SinkTerminal {
				printError(tockerrors.ConfigError{Key: "notify.sink", Reason: "must be desktop or terminal, got " + sinkName})
			}

			adapter := getAdapter()
			s := getStore()

			pid := os.Getpid()
			release, err := claimWatcher(cfg.DataDir, &session.Session{
				PID:      pid,
				Sink:     sinkName,
				Interval: cfg.Reminder.PollInterval.String(),
			})
			if err != nil {
				printError(err)
			}
			defer release()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sched := newScheduler(reloadingSource{store: s}, buildSink(sinkName, adapter),
				reminder.WithObserver(func(results []reminder.DispatchResult) {
					if len(results) > 0 {
						printOutput(formatter.FormatReminders(results))
					}
				}),
			)

			if startErr := sched.Start(ctx); startErr != nil {
				printOutput(formatter.FormatError(startErr))
				return
			}
			logger.Printf("watching %s every %s (pid %d)", cfg.DataDir, cfg.Reminder.PollInterval, pid)

			<-ctx.Done()
			sched.Stop()
			logger.Printf("stopped")
		},
	}
	cmd.Flags().StringVar(&sinkName, "sink", config.SinkDesktop, "Where reminders go (desktop, terminal)")
	return cmd
}

// remindCmd implements 'tock remind'.
func remindCmd() *cobra.Command {
	var (
		sinkName string
		once     bool
	)
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Run a single reminder check over the last poll interval",
		Run: func(cmd *cobra.Command, _ []string) {
			if !once {
				printError(errors.New("use 'tock watch' for continuous reminders, or pass --once"))
			}
			if !cmd.Flags().Changed("sink") {
				sinkName = cfg.Notify.Sink
			}

			if err := watcherRunning(cfg.DataDir); err != nil {
				var running tockerrors.WatcherRunningError
				if errors.As(err, &running) {
					printError(err)
				}
				printWarning(err)
			}

			var results []reminder.DispatchResult
			sched := newScheduler(getStore(), buildSink(sinkName, getAdapter()),
				reminder.WithObserver(func(r []reminder.DispatchResult) { results = r }),
			)
			if err := sched.Start(context.Background()); err != nil {
				printError(err)
			}
			sched.Stop()

			printOutput(formatter.FormatReminders(results))
			if err := reminder.Failed(results); err != nil {
				os.Exit(1)
			}
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "Check once and exit")
	cmd.Flags().StringVar(&sinkName, "sink", config.SinkDesktop, "Where reminders go (desktop, terminal)")
	return cmd
}
