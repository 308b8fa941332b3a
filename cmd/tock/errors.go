package main

import (
	"fmt"
	"strings"
)

// TaskNotFoundError indicates no task id starts with the given text.
type TaskNotFoundError struct {
	ID string
}

func (e TaskNotFoundError) Error() string {
	return fmt.Sprintf("task not found: %s", e.ID)
}

// AmbiguousIDError indicates an id prefix matches more than one task.
type AmbiguousIDError struct {
	Prefix  string
	Matches []string
}

func (e AmbiguousIDError) Error() string {
	return fmt.Sprintf("id prefix %q matches %s", e.Prefix, strings.Join(e.Matches, ", "))
}

// InvalidPositionError indicates a position argument outside 1..Max.
type InvalidPositionError struct {
	Value string
	Max   int
}

func (e InvalidPositionError) Error() string {
	if e.Max == 0 {
		return fmt.Sprintf("invalid position %s: nothing to address", e.Value)
	}
	return fmt.Sprintf("invalid position %s (valid: 1-%d)", e.Value, e.Max)
}
