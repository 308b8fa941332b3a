package storage

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const fileExt = ".yaml"

// Backend reads and writes raw documents by key.
// Read returns (nil, nil) when the key has never been written.
type Backend interface {
	Read(key string) ([]byte, error)
	Write(key string, data []byte) error
}

// Lister is implemented by backends that can enumerate their keys.
type Lister interface {
	Keys() ([]string, error)
}

// DirBackend stores each key as a YAML file inside a directory.
type DirBackend struct {
	basePath string
}

// NewDirBackend creates a DirBackend rooted at path. The directory is created on first write.
func NewDirBackend(path string) *DirBackend {
	return &DirBackend{basePath: path}
}

// BasePath returns the directory holding the data files.
func (b *DirBackend) BasePath() string {
	return b.basePath
}

// IsInitialized checks if the data directory exists.
func (b *DirBackend) IsInitialized() bool {
	info, err := os.Stat(b.basePath)
	return err == nil && info.IsDir()
}

// keyPath returns the full path for a key's file.
func (b *DirBackend) keyPath(key string) string {
	return filepath.Join(b.basePath, key+fileExt)
}

// Read loads the document stored under key.
func (b *DirBackend) Read(key string) ([]byte, error) {
	data, err := os.ReadFile(b.keyPath(key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	return data, err
}

// Write replaces the document stored under key. The file is swapped in with a
// rename so a crash mid-write never leaves a truncated document behind.
func (b *DirBackend) Write(key string, data []byte) error {
	//nolint:gosec // G301: 0755 is appropriate for a user-owned data directory
	if err := os.MkdirAll(b.basePath, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(b.basePath, "."+key+"-*"+fileExt)
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // No-op after a successful rename

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	//nolint:gosec // G302: task data is user-readable like any dotfile
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, b.keyPath(key))
}

// Keys lists the keys currently stored, sorted.
func (b *DirBackend) Keys() ([]string, error) {
	entries, err := os.ReadDir(b.basePath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileExt) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, fileExt))
	}
	sort.Strings(keys)
	return keys, nil
}

// MemoryBackend keeps documents in memory. Useful for tests and for running
// without a writable disk.
type MemoryBackend struct {
	mu   sync.Mutex
	docs map[string][]byte

	// FailWrites makes every Write return this error when set.
	FailWrites error
}

// NewMemoryBackend creates an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{docs: map[string][]byte{}}
}

// Read returns a copy of the document stored under key.
func (m *MemoryBackend) Read(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.docs[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

// Write stores a copy of data under key.
func (m *MemoryBackend) Write(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.docs[key] = append([]byte(nil), data...)
	return nil
}
