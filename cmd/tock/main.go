package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abatilo/tock/internal/config"
	tockerrors "github.com/abatilo/tock/internal/errors"
	"github.com/abatilo/tock/internal/output"
	"github.com/abatilo/tock/internal/storage"
	"github.com/abatilo/tock/internal/store"
	"github.com/abatilo/tock/internal/task"
	"github.com/abatilo/tock/internal/view"
)

//nolint:gochecknoglobals // CLI flags, config and formatter are package-level by design
var (
	jsonOutput bool
	configPath string
	dataDir    string
	cfg        *config.Config
	formatter  output.Formatter
	backend    storage.Backend
	logger     = log.New(os.Stderr, "tock: ", 0)
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tock",
		Short: "A personal task manager with reminders",
		Long:  "tock - A personal task manager with deadlines, projects, subtasks and reminders.",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if jsonOutput {
				formatter = output.NewJSONFormatter()
			} else {
				formatter = output.NewHumanFormatter()
			}

			loaded, err := config.Load(configPath)
			if err != nil {
				printError(err)
			}
			if dataDir != "" {
				loaded.DataDir = dataDir
			}
			cfg = loaded
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if closer, ok := backend.(io.Closer); ok {
				if err := closer.Close(); err != nil {
					printWarning(err)
				}
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory holding tasks and projects")

	rootCmd.AddCommand(
		initCmd(),
		addCmd(),
		listCmd(),
		showCmd(),
		doneCmd(),
		editCmd(),
		setCmd(),
		rmCmd(),
		clearCmd(),
		moveCmd(),
		subCmd(),
		projectCmd(),
		importCmd(),
		watchCmd(),
		remindCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// getBackend opens the configured backend once per process.
func getBackend() storage.Backend {
	if backend != nil {
		return backend
	}
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		db, err := storage.OpenSQLiteBackend(filepath.Join(cfg.DataDir, storage.DBFile))
		if err != nil {
			printError(tockerrors.PersistenceError{Key: storage.DBFile, Err: err})
		}
		backend = db
	default:
		backend = storage.NewDirBackend(cfg.DataDir)
	}
	return backend
}

func getAdapter() *storage.Adapter {
	return storage.NewAdapter(getBackend())
}

// getStore opens the store. Unreadable collections start empty with a warning.
func getStore() *store.Store {
	s, err := store.Open(getAdapter())
	if err != nil {
		printWarning(err)
	}
	return s
}

func printOutput(s string) {
	os.Stdout.WriteString(s) //nolint:gosec // stdout write errors are unrecoverable
}

func printError(err error) {
	os.Stdout.WriteString(formatter.FormatError(err)) //nolint:gosec // stdout write errors are unrecoverable
	os.Exit(1)
}

func printWarning(err error) {
	logger.Print(color.New(color.FgYellow).Sprint("warning: ", err.Error()))
}

// check handles an error from a store mutation. Persistence failures leave
// the in-memory change in place, so they are reported as warnings.
func check(err error) {
	if err == nil {
		return
	}
	var perr tockerrors.PersistenceError
	if errors.As(err, &perr) {
		printWarning(err)
		return
	}
	printError(err)
}

// resolveID accepts a full task id or a unique prefix of one.
func resolveID(s *store.Store, arg string) string {
	if _, ok := s.Task(arg); ok {
		return arg
	}
	var matches []string
	for _, t := range s.Tasks() {
		if strings.HasPrefix(t.ID, arg) {
			matches = append(matches, t.ID)
		}
	}
	switch len(matches) {
	case 0:
		printError(TaskNotFoundError{ID: arg})
	case 1:
		return matches[0]
	default:
		printError(AmbiguousIDError{Prefix: arg, Matches: matches})
	}
	return ""
}

// parsePosition converts a 1-based position argument into an index below limit.
func parsePosition(arg string, limit int) int {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > limit {
		printError(InvalidPositionError{Value: arg, Max: limit})
	}
	return n - 1
}

func parseDeadline(s string) *time.Time {
	if s == "" {
		return nil
	}
	d, err := task.ParseTime(s)
	if err != nil {
		printError(err)
	}
	return &d
}

// initCmd implements 'tock init'.
func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file and create the data directory",
		Run: func(_ *cobra.Command, _ []string) {
			path := configPath
			if path == "" {
				path = config.DefaultPath()
			}
			if err := config.WriteDefault(path); err != nil {
				printError(err)
			}
			dir := storage.NewDirBackend(cfg.DataDir)
			if !dir.IsInitialized() {
				//nolint:gosec // G301: 0755 is appropriate for the user's data directory
				if err := os.MkdirAll(dir.BasePath(), 0o755); err != nil {
					printError(err)
				}
			}

			msg := fmt.Sprintf("Config at %s, %s data at %s", path, cfg.Storage.Backend, dir.BasePath())
			if lister, ok := getBackend().(storage.Lister); ok {
				keys, err := lister.Keys()
				if err != nil {
					printError(err)
				}
				msg += fmt.Sprintf(" (%d collections)", len(keys))
			}
			printOutput(formatter.FormatMessage(msg))
		},
	}
}

// addCmd implements 'tock add'.
func addCmd() *cobra.Command {
	var (
		due, priority, project, remind, description string
		noProject                                   bool
	)
	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a new task",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			s := getStore()

			if !cmd.Flags().Changed("project") && !noProject {
				project = s.LastProject()
			}
			if noProject {
				project = ""
			}

			t, err := s.AddTask(store.NewTask{
				Text:        strings.Join(args, " "),
				Deadline:    parseDeadline(due),
				Priority:    task.Priority(priority),
				Project:     project,
				Description: description,
				Reminder:    remind,
			})
			if t == nil {
				printError(err)
			}
			check(err)

			if t.Project != "" {
				check(s.SetLastProject(t.Project))
			}
			printOutput(formatter.FormatTask(t))
		},
	}
	cmd.Flags().StringVar(&due, "due", "", "Deadline (2006-01-02, 2006-01-02 15:04 or RFC3339)")
	cmd.Flags().StringVarP(&priority, "priority", "p", "medium", "Priority (high, medium, low)")
	cmd.Flags().StringVarP(&project, "project", "P", "", "Project (defaults to the last one used)")
	cmd.Flags().BoolVar(&noProject, "no-project", false, "Do not assign a project")
	cmd.Flags().StringVarP(&remind, "remind", "r", "",
		"Reminder: offset before the deadline ("+offsetNames()+") or an absolute time")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Task description")
	return cmd
}

func offsetNames() string {
	offsets := task.ReminderOffsets()
	names := make([]string, len(offsets))
	for i, o := range offsets {
		names[i] = string(o)
	}
	return strings.Join(names, ", ")
}

// listCmd implements 'tock list'.
func listCmd() *cobra.Command {
	var filter, project, sortBy string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Run: func(_ *cobra.Command, _ []string) {
			status, err := view.ParseStatusFilter(filter)
			if err != nil {
				printError(err)
			}
			key, err := view.ParseSortKey(sortBy)
			if err != nil {
				printError(err)
			}

			s := getStore()
			tasks := view.Apply(s.Tasks(), view.Query{Status: status, Project: project, Sort: key}, time.Now())
			printOutput(formatter.FormatTaskList(tasks))
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "all", "Filter (all, today, upcoming, completed, high, medium, low)")
	cmd.Flags().StringVarP(&project, "project", "P", view.AllProjects, "Only tasks in this project")
	cmd.Flags().StringVarP(&sortBy, "sort", "s", "manual", "Sort (manual, due, priority, project)")
	return cmd
}

// showCmd implements 'tock show'.
func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show task details",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			s := getStore()
			t, _ := s.Task(resolveID(s, args[0]))
			printOutput(formatter.FormatTask(t))
		},
	}
}

// doneCmd implements 'tock done'.
func doneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a task's completion",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			s := getStore()
			id := resolveID(s, args[0])
			check(s.ToggleTask(id))
			t, _ := s.Task(id)
			printOutput(formatter.FormatTask(t))
		},
	}
}

// editCmd implements 'tock edit'.
func editCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <text>",
		Short: "Replace a task's text",
		Args:  cobra.MinimumNArgs(2),
		Run: func(_ *cobra.Command, args []string) {
			s := getStore()
			id := resolveID(s, args[0])
			check(s.UpdateTaskText(id, strings.Join(args[1:], " ")))
			t, _ := s.Task(id)
			printOutput(formatter.FormatTask(t))
		},
	}
}

// setCmd implements 'tock set'.
func setCmd() *cobra.Command {
	var (
		due, priority, project, description, remind string
		clearDue, clearProject, clearRemind          bool
	)
	cmd := &cobra.Command{
		Use:   "set <id>",
		Short: "Change a task's details",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			s := getStore()
			id := resolveID(s, args[0])

			flags := cmd.Flags()
			var d task.Details
			if flags.Changed("due") {
				d.Deadline = parseDeadline(due)
			}
			d.ClearDeadline = clearDue
			if flags.Changed("priority") {
				p := task.Priority(priority)
				d.Priority = &p
			}
			if flags.Changed("project") {
				d.Project = &project
			}
			if clearProject {
				none := ""
				d.Project = &none
			}
			if flags.Changed("description") {
				d.Description = &description
			}
			if flags.Changed("remind") {
				d.Reminder = &remind
			}
			d.ClearReminder = clearRemind

			if d.IsEmpty() {
				printError(tockerrors.ValidationError{Field: "details", Reason: "nothing to change"})
			}
			check(s.UpdateTaskDetails(id, d))
			t, _ := s.Task(id)
			printOutput(formatter.FormatTask(t))
		},
	}
	cmd.Flags().StringVar(&due, "due", "", "New deadline")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "Remove the deadline")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "New priority (high, medium, low)")
	cmd.Flags().StringVarP(&project, "project", "P", "", "New project")
	cmd.Flags().BoolVar(&clearProject, "clear-project", false, "Remove the project")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	cmd.Flags().StringVarP(&remind, "remind", "r", "", "New reminder (offset or absolute time)")
	cmd.Flags().BoolVar(&clearRemind, "clear-remind", false, "Remove the reminder")
	return cmd
}

// rmCmd implements 'tock rm'.
func rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			s := getStore()
			id := resolveID(s, args[0])
			check(s.RemoveTask(id))
			printOutput(formatter.FormatMessage(fmt.Sprintf("Removed task %s", id)))
		},
	}
}

// clearCmd implements 'tock clear'.
func clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every completed task",
		Run: func(_ *cobra.Command, _ []string) {
			removed, err := getStore().ClearCompleted()
			check(err)
			printOutput(formatter.FormatMessage(fmt.Sprintf("Removed %d completed task(s)", removed)))
		},
	}
}

// moveCmd implements 'tock move'.
func moveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <from> <to>",
		Short: "Move a task within the manual order (1-based positions)",
		Args:  cobra.ExactArgs(2),
		Run: func(_ *cobra.Command, args []string) {
			s := getStore()
			from := parsePosition(args[0], s.Len())
			to := parsePosition(args[1], s.Len())
			_, err := s.UpdateTaskPosition(from, to)
			check(err)
			printOutput(formatter.FormatTaskList(s.Tasks()))
		},
	}
}

// importCmd implements 'tock import'.
func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import tasks from a JSON export",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			data, err := os.ReadFile(args[0])
			if err != nil {
				printError(err)
			}

			s := getStore()
			tasks, err := storage.ImportLegacy(data, func(id string) bool {
				_, ok := s.Task(id)
				return ok
			})
			if err != nil {
				printError(err)
			}

			added, err := s.Import(tasks)
			check(err)
			printOutput(formatter.FormatMessage(fmt.Sprintf("Imported %d task(s)", added)))
		},
	}
}
