package store

import (
	"errors"
	"slices"
	"strings"

	tockerrors "github.com/abatilo/tock/internal/errors"
)

// Projects returns every known project: registry entries in insertion order,
// then names only referenced by tasks, in first-seen order.
func (s *Store) Projects() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := slices.Clone(s.projects)
	for _, t := range s.tasks {
		if t.Project != "" && !slices.Contains(out, t.Project) {
			out = append(out, t.Project)
		}
	}
	return out
}

// AddProject registers a project. Names are trimmed and matched exactly; an
// existing name is a no-op.
func (s *Store) AddProject(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return tockerrors.ValidationError{Field: "project", Reason: "must not be empty"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.Contains(s.projects, name) {
		return nil
	}
	s.projects = append(s.projects, name)
	return s.saveProjects()
}

// RenameProject rewrites the registry entry and every task referencing oldName.
// Renaming onto an existing project merges the two.
func (s *Store) RenameProject(oldName, newName string) error {
	oldName = strings.TrimSpace(oldName)
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return tockerrors.ValidationError{Field: "project", Reason: "new name must not be empty"}
	}
	if oldName == "" || oldName == newName {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	if idx := slices.Index(s.projects, oldName); idx >= 0 {
		if slices.Contains(s.projects, newName) {
			s.projects = slices.Delete(s.projects, idx, idx+1)
		} else {
			s.projects[idx] = newName
		}
		changed = true
	}
	for _, t := range s.tasks {
		if t.Project == oldName {
			t.Project = newName
			changed = true
		}
	}
	var lastErr error
	if s.lastProject == oldName {
		s.lastProject = newName
		lastErr = s.persister.SaveLastProject(newName)
	}
	if !changed {
		return lastErr
	}
	return errors.Join(lastErr, s.saveTasks(), s.saveProjects())
}

// DeleteProject removes the project from the registry and clears it from
// referencing tasks. The tasks themselves are kept.
func (s *Store) DeleteProject(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	if idx := slices.Index(s.projects, name); idx >= 0 {
		s.projects = slices.Delete(s.projects, idx, idx+1)
		changed = true
	}
	for _, t := range s.tasks {
		if t.Project == name {
			t.Project = ""
			changed = true
		}
	}
	var lastErr error
	if s.lastProject == name {
		s.lastProject = ""
		lastErr = s.persister.SaveLastProject("")
	}
	if !changed {
		return lastErr
	}
	return errors.Join(lastErr, s.saveTasks(), s.saveProjects())
}

// LastProject returns the project most recently used for a new task.
func (s *Store) LastProject() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastProject
}

// SetLastProject records the project most recently used for a new task.
func (s *Store) SetLastProject(name string) error {
	name = strings.TrimSpace(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastProject == name {
		return nil
	}
	s.lastProject = name
	return s.persister.SaveLastProject(name)
}
