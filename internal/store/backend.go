package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Common errors for storage operations.
var (
	// ErrNotFound is returned when nothing has been persisted under a name yet.
	ErrNotFound = errors.New("state not found")
	// ErrInvalidName is returned for names that are not a single path component.
	ErrInvalidName = errors.New("invalid state name")
)

// Backend is the persistence boundary of the stores: load on init,
// save on every mutation. Implementations must be safe for concurrent use.
type Backend interface {
	// Load decodes the value persisted under name into v.
	// Returns ErrNotFound if nothing was saved yet.
	Load(name string, v any) error
	// Save replaces the value persisted under name.
	Save(name string, v any) error
}

// FileBackend implements Backend with one YAML file per name.
// Storage layout:
//
//	~/.maiai/
//	  ├── mai-ai-auth.yaml
//	  └── mai-ai-agents.yaml
type FileBackend struct {
	dir string
	mu  sync.Mutex
}

// NewFileBackend creates the directory if needed
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

// Dir returns the directory holding the state files
func (f *FileBackend) Dir() string {
	return f.dir
}

// Path returns the file backing name
func (f *FileBackend) Path(name string) string {
	return filepath.Join(f.dir, name+".yaml")
}

func validateName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Load implements Backend
func (f *FileBackend) Load(name string, v any) error {
	if err := validateName(name); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

// Save implements Backend. The file is replaced atomically so a concurrent
// reader never sees a half-written state.
func (f *FileBackend) Save(name string, v any) error {
	if err := validateName(name); err != nil {
		return err
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(f.dir, "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, f.Path(name)); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

// MemoryBackend keeps state in memory. Values round-trip through YAML so
// callers observe the same encoding as with FileBackend.
type MemoryBackend struct {
	mu    sync.Mutex
	data  map[string][]byte
	saves int
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

// Load implements Backend
func (m *MemoryBackend) Load(name string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[name]
	if !ok {
		return ErrNotFound
	}
	return yaml.Unmarshal(data, v)
}

// Save implements Backend
func (m *MemoryBackend) Save(name string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[name] = data
	m.saves++
	return nil
}

// Saves returns how many times Save succeeded
func (m *MemoryBackend) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
