// Package session records the reminder watcher that currently owns a data
// directory, so two watchers never deliver the same reminders twice.
package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

const sessionFile = "watcher.json"

// Session describes a running watcher.
type Session struct {
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"started_at"`
	Sink      string    `json:"sink"`
	Interval  string    `json:"interval"`
}

//nolint:gochecknoglobals // Replaced in tests
var processAlive = func(pid int) bool {
	if pid <= 0 {
		return false
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = p.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, os.ErrPermission)
}

// sessionPath returns the full path to watcher.json for the given base path.
func sessionPath(basePath string) string {
	return filepath.Join(basePath, sessionFile)
}

// Exists checks if a session file exists.
func Exists(basePath string) bool {
	_, err := os.Stat(sessionPath(basePath))
	return err == nil
}

// Load reads the session from disk.
func Load(basePath string) (*Session, error) {
	data, err := os.ReadFile(sessionPath(basePath))
	if err != nil {
		return nil, err
	}

	var s Session
	if unmarshalErr := json.Unmarshal(data, &s); unmarshalErr != nil {
		return nil, unmarshalErr
	}

	return &s, nil
}

// Save writes the session to disk.
func Save(basePath string, s *Session) error {
	//nolint:gosec // G301: 0755 is appropriate for the user's data directory
	if mkdirErr := os.MkdirAll(basePath, 0o755); mkdirErr != nil {
		return mkdirErr
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	//nolint:gosec // G306: 0644 is appropriate for user-readable session files
	return os.WriteFile(sessionPath(basePath), data, 0o644)
}

// Delete removes the session file.
func Delete(basePath string) error {
	err := os.Remove(sessionPath(basePath))
	if os.IsNotExist(err) {
		return nil // Already deleted, not an error
	}
	return err
}

// Active returns the recorded watcher if its process is still running.
func Active(basePath string) (*Session, bool, error) {
	existing, err := Load(basePath)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return existing, processAlive(existing.PID), nil
}

// Claim records s as the watcher for basePath. Returns (claimed, owner, error).
// A live watcher that is not s keeps ownership and is returned as owner.
// A record left behind by a dead process is replaced.
func Claim(basePath string, s *Session) (bool, *Session, error) {
	existing, loadErr := Load(basePath)
	switch {
	case loadErr == nil:
		if existing.PID != s.PID && processAlive(existing.PID) {
			return false, existing, nil
		}
	case os.IsNotExist(loadErr):
	default:
		var syntaxErr *json.SyntaxError
		if !errors.As(loadErr, &syntaxErr) {
			return false, nil, loadErr
		}
		// A garbled record cannot name a live owner.
	}

	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now().UTC()
	}
	if saveErr := Save(basePath, s); saveErr != nil {
		return false, nil, saveErr
	}

	return true, nil, nil
}

// Release removes the session if pid is the owner.
// Returns true if released, false if not the owner.
func Release(basePath string, pid int) (bool, error) {
	existing, loadErr := Load(basePath)
	if os.IsNotExist(loadErr) {
		return false, nil
	}
	if loadErr != nil {
		return false, loadErr
	}

	if existing.PID != pid {
		return false, nil
	}

	if deleteErr := Delete(basePath); deleteErr != nil {
		return false, deleteErr
	}

	return true, nil
}
