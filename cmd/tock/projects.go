package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// projectCmd implements the 'tock project' command group.
func projectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}

	cmd.AddCommand(
		projectAddCmd(),
		projectRenameCmd(),
		projectRmCmd(),
		projectLsCmd(),
	)

	return cmd
}

// projectAddCmd implements 'tock project add'.
func projectAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Register a project",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			s := getStore()
			check(s.AddProject(args[0]))
			printOutput(formatter.FormatProjects(s.Projects(), s.LastProject()))
		},
	}
}

// projectRenameCmd implements 'tock project rename'.
func projectRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a project and every task in it",
		Args:  cobra.ExactArgs(2),
		Run: func(_ *cobra.Command, args []string) {
			s := getStore()
			check(s.RenameProject(args[0], args[1]))
			printOutput(formatter.FormatProjects(s.Projects(), s.LastProject()))
		},
	}
}

// projectRmCmd implements 'tock project rm'.
func projectRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <name>",
		Short: "Delete a project; its tasks keep existing without one",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			s := getStore()
			check(s.DeleteProject(args[0]))
			printOutput(formatter.FormatMessage(fmt.Sprintf("Removed project %s", args[0])))
		},
	}
}

// projectLsCmd implements 'tock project ls'.
func projectLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List projects, marking the last one used",
		Run: func(_ *cobra.Command, _ []string) {
			s := getStore()
			printOutput(formatter.FormatProjects(s.Projects(), s.LastProject()))
		},
	}
}
