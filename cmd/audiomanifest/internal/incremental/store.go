package incremental

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/Marcus8009/languageapp/pkg/manifest"
)

// StateFile is the name of the state file inside the state directory.
const StateFile = "state.json"

// Store persists the index between runs.
type Store interface {
	Load() (*Index, error)
	Save(idx *Index) error
	Exists() bool
	Clear() error
}

// JSONStore implements Store as <dir>/state.json.
type JSONStore struct {
	dir  string
	path string
}

// NewJSONStore creates a store rooted at dir, typically .audiomanifest.
func NewJSONStore(dir string) *JSONStore {
	return &JSONStore{
		dir:  dir,
		path: filepath.Join(dir, StateFile),
	}
}

// Path returns the state file location.
func (s *JSONStore) Path() string { return s.path }

// Load reads the index from disk. A missing state file yields an empty index.
func (s *JSONStore) Load() (*Index, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewIndex(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}

	if idx.Version > IndexVersion {
		return nil, fmt.Errorf("state file version %d is newer than supported version %d", idx.Version, IndexVersion)
	}
	if idx.Entries == nil {
		idx.Entries = make(map[string]*Entry)
	}

	return &idx, nil
}

// Save writes the index atomically.
func (s *JSONStore) Save(idx *Index) error {
	if idx == nil {
		return fmt.Errorf("cannot save nil index")
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	idx.UpdatedAt = time.Now()
	idx.Version = IndexVersion

	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}

	if err := manifest.WriteFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("failed to save state file: %w", err)
	}
	return nil
}

// Exists returns true if the state file exists.
func (s *JSONStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Clear removes the state file. The directory may hold a project config,
// so only state.json is deleted.
func (s *JSONStore) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
