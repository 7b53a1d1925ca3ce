package incremental

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/Marcus8009/languageapp/pkg/config"
)

// Tracker reports what changed in the audio tree since the last manifest
// run.
type Tracker struct {
	store   Store
	scanner *Scanner
}

// NewTracker creates a tracker for the given source tree, keeping its state
// in stateDir.
func NewTracker(stateDir string, scan ScanConfig) *Tracker {
	return &Tracker{
		store:   NewJSONStore(stateDir),
		scanner: NewScanner(scan),
	}
}

// NewTrackerFromConfig creates a tracker from the layered configuration.
func NewTrackerFromConfig(cfg *config.Config) *Tracker {
	return NewTracker(cfg.State.Dir, ScanConfig{
		Root:      cfg.Manifest.SourceDir,
		Extension: cfg.Manifest.Extension,
		Exclude:   cfg.Manifest.Exclude,
	})
}

// Status checks for changes without modifying state.
func (t *Tracker) Status(ctx context.Context) (*ChangeSet, error) {
	oldIdx, err := t.store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	fastIdx, err := t.scanner.ScanFast(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan source dir: %w", err)
	}

	return t.computeChangesWithLazyHash(oldIdx, fastIdx), nil
}

// computeChangesWithLazyHash hashes only files whose mtime or size moved.
func (t *Tracker) computeChangesWithLazyHash(oldIdx, fastIdx *Index) *ChangeSet {
	return diff(oldIdx.Entries, fastIdx.Entries, func(oldEntry, _ *Entry) bool {
		hash, err := HashFile(filepath.Join(t.scanner.Root(), filepath.FromSlash(oldEntry.Path)))
		if err != nil {
			// Can't hash, assume modified
			return true
		}
		return oldEntry.Hash != hash
	})
}

// Refresh replaces the stored index with the current disk state.
func (t *Tracker) Refresh(ctx context.Context) error {
	idx, err := t.scanner.Scan(ctx)
	if err != nil {
		return fmt.Errorf("failed to scan source dir: %w", err)
	}

	if err := t.store.Save(idx); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// HasState returns true if a previous state exists.
func (t *Tracker) HasState() bool {
	return t.store.Exists()
}

// Clear forgets the stored state.
func (t *Tracker) Clear() error {
	return t.store.Clear()
}

// TrackedFileCount returns the number of files in the stored index, or 0
// when there is none.
func (t *Tracker) TrackedFileCount() int {
	idx, err := t.store.Load()
	if err != nil {
		return 0
	}
	return idx.Len()
}
