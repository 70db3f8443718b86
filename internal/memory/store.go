package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrNoHistory is returned by Load when nothing has been saved yet.
var ErrNoHistory = errors.New("no saved history")

// Store persists the transcript history (every turn after the system
// turn). Save overwrites whatever was stored before.
type Store interface {
	// Load returns the saved turns, or ErrNoHistory when there are none.
	Load() ([]Turn, error)

	// Save replaces the stored history with turns.
	Save(turns []Turn) error

	// Remove deletes the stored history. It reports whether anything
	// was there; a missing history is not an error.
	Remove() (bool, error)

	// Close releases any resources held by the store.
	Close() error
}

// FileStore keeps the history in a JSON file as an array of
// {"role", "content"} objects.
type FileStore struct {
	path string
}

// NewFileStore creates a JSON file store at path. The file is not
// touched until the first Load or Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the history file.
func (s *FileStore) Load() ([]Turn, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoHistory
	}
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	var turns []Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("parse history %s: %w", s.path, err)
	}
	return turns, nil
}

// Save writes turns to a temporary file and renames it into place so
// a failed write never leaves a truncated history behind.
func (s *FileStore) Save(turns []Turn) error {
	if turns == nil {
		turns = []Turn{}
	}
	data, err := json.MarshalIndent(turns, "", "    ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create history directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace history: %w", err)
	}
	return nil
}

// Remove deletes the history file.
func (s *FileStore) Remove() (bool, error) {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("remove history: %w", err)
	}
	return true, nil
}

// Close is a no-op for file stores.
func (s *FileStore) Close() error { return nil }
