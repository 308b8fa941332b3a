package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/abatilo/tock/internal/store"
)

// subCmd implements the 'tock sub' command group.
func subCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sub",
		Short: "Manage a task's subtasks (1-based positions)",
	}

	cmd.AddCommand(
		subAddCmd(),
		subDoneCmd(),
		subEditCmd(),
		subRmCmd(),
	)

	return cmd
}

// subtaskTarget resolves the task id and subtask position arguments.
func subtaskTarget(s *store.Store, idArg, posArg string) (string, int) {
	id := resolveID(s, idArg)
	t, _ := s.Task(id)
	return id, parsePosition(posArg, len(t.Subtasks))
}

func printTask(s *store.Store, id string) {
	t, _ := s.Task(id)
	printOutput(formatter.FormatTask(t))
}

// subAddCmd implements 'tock sub add'.
func subAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <id> <text>",
		Short: "Append a subtask",
		Args:  cobra.MinimumNArgs(2),
		Run: func(_ *cobra.Command, args []string) {
			s := getStore()
			id := resolveID(s, args[0])
			check(s.AddSubtask(id, strings.Join(args[1:], " ")))
			printTask(s, id)
		},
	}
}

// subDoneCmd implements 'tock sub done'.
func subDoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <id> <position>",
		Short: "Toggle a subtask's completion",
		Args:  cobra.ExactArgs(2),
		Run: func(_ *cobra.Command, args []string) {
			s := getStore()
			id, index := subtaskTarget(s, args[0], args[1])
			check(s.ToggleSubtask(id, index))
			printTask(s, id)
		},
	}
}

// subEditCmd implements 'tock sub edit'.
func subEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <position> <text>",
		Short: "Replace a subtask's text",
		Args:  cobra.MinimumNArgs(3),
		Run: func(_ *cobra.Command, args []string) {
			s := getStore()
			id, index := subtaskTarget(s, args[0], args[1])
			check(s.UpdateSubtask(id, index, strings.Join(args[2:], " ")))
			printTask(s, id)
		},
	}
}

// subRmCmd implements 'tock sub rm'.
func subRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id> <position>",
		Short: "Delete a subtask",
		Args:  cobra.ExactArgs(2),
		Run: func(_ *cobra.Command, args []string) {
			s := getStore()
			id, index := subtaskTarget(s, args[0], args[1])
			check(s.RemoveSubtask(id, index))
			printTask(s, id)
		},
	}
}

