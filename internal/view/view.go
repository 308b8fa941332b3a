// Package view derives the presentable task sequence from the raw collection.
// It holds no state and never mutates its input.
package view

import (
	"cmp"
	"slices"
	"strings"
	"time"

	tockerrors "github.com/abatilo/tock/internal/errors"
	"github.com/abatilo/tock/internal/task"
)

// StatusFilter selects tasks by completion, deadline day, or priority.
type StatusFilter string

const (
	FilterAll       StatusFilter = "all"
	FilterToday     StatusFilter = "today"
	FilterUpcoming  StatusFilter = "upcoming"
	FilterCompleted StatusFilter = "completed"
	FilterHigh      StatusFilter = "high"
	FilterMedium    StatusFilter = "medium"
	FilterLow       StatusFilter = "low"
)

// SortKey selects the display order.
type SortKey string

const (
	SortManual   SortKey = "manual"
	SortDueDate  SortKey = "due"
	SortPriority SortKey = "priority"
	SortProject  SortKey = "project"
)

// AllProjects is the project filter value that passes every task.
const AllProjects = "all"

// Query holds the view parameters.
type Query struct {
	Status  StatusFilter
	Project string
	Sort    SortKey
}

// ParseStatusFilter validates a filter name. An empty string means FilterAll.
func ParseStatusFilter(s string) (StatusFilter, error) {
	f := StatusFilter(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterToday, FilterUpcoming, FilterCompleted, FilterHigh, FilterMedium, FilterLow:
		return f, nil
	default:
		return "", tockerrors.InvalidFilterError{Value: s}
	}
}

// ParseSortKey validates a sort name. An empty string means SortManual.
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "manual":
		return SortManual, nil
	case "due", "duedate", "due-date", "date":
		return SortDueDate, nil
	case "priority":
		return SortPriority, nil
	case "project":
		return SortProject, nil
	default:
		return "", tockerrors.InvalidSortError{Value: s}
	}
}

// Apply filters then sorts tasks for display. Sorting is stable, so ties keep
// the manual order of the input. now decides which calendar day is "today".
func Apply(tasks []*task.Task, q Query, now time.Time) []*task.Task {
	out := make([]*task.Task, 0, len(tasks))
	for _, t := range tasks {
		if matchesStatus(t, q.Status, now) && matchesProject(t, q.Project) {
			out = append(out, t)
		}
	}

	switch q.Sort {
	case SortDueDate:
		slices.SortStableFunc(out, compareDeadline)
	case SortPriority:
		slices.SortStableFunc(out, func(a, b *task.Task) int {
			if c := cmp.Compare(task.PriorityOrder(a.Priority), task.PriorityOrder(b.Priority)); c != 0 {
				return c
			}
			return compareDeadline(a, b)
		})
	case SortProject:
		slices.SortStableFunc(out, compareProject)
	case SortManual, "":
		// Manual order is the input order
	}
	return out
}

func matchesStatus(t *task.Task, f StatusFilter, now time.Time) bool {
	switch f {
	case FilterToday:
		return t.Deadline != nil && task.SameDay(now, *t.Deadline)
	case FilterUpcoming:
		return t.Deadline != nil && task.DayOf(t.Deadline.In(now.Location())).After(task.DayOf(now))
	case FilterCompleted:
		return t.Completed
	case FilterHigh:
		return !t.Completed && t.Priority == task.PriorityHigh
	case FilterMedium:
		return !t.Completed && t.Priority == task.PriorityMedium
	case FilterLow:
		return !t.Completed && t.Priority == task.PriorityLow
	default:
		return true
	}
}

func matchesProject(t *task.Task, project string) bool {
	if project == "" || project == AllProjects {
		return true
	}
	return t.Project == project
}

// compareDeadline orders by deadline ascending with missing deadlines last.
func compareDeadline(a, b *task.Task) int {
	switch {
	case a.Deadline == nil && b.Deadline == nil:
		return 0
	case a.Deadline == nil:
		return 1
	case b.Deadline == nil:
		return -1
	default:
		return a.Deadline.Compare(*b.Deadline)
	}
}

// compareProject orders by project name with unassigned tasks last.
func compareProject(a, b *task.Task) int {
	switch {
	case a.Project == "" && b.Project == "":
		return 0
	case a.Project == "":
		return 1
	case b.Project == "":
		return -1
	default:
		return strings.Compare(a.Project, b.Project)
	}
}
