package incremental

import (
	"time"
)

// IndexVersion is the current version of the state file format.
const IndexVersion = 1

// Index is a snapshot of the tracked audio files.
type Index struct {
	Version   int               `json:"version"`
	UpdatedAt time.Time         `json:"updated_at"`
	Entries   map[string]*Entry `json:"entries"`
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		Version:   IndexVersion,
		UpdatedAt: time.Now(),
		Entries:   make(map[string]*Entry),
	}
}

// Add adds or replaces an entry.
func (idx *Index) Add(e *Entry) {
	if idx == nil || e == nil {
		return
	}
	if idx.Entries == nil {
		idx.Entries = make(map[string]*Entry)
	}
	idx.Entries[e.Path] = e
}

// Get retrieves an entry by path.
func (idx *Index) Get(path string) (*Entry, bool) {
	if idx == nil || idx.Entries == nil {
		return nil, false
	}
	e, ok := idx.Entries[path]
	return e, ok
}

// Len returns the number of entries.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.Entries)
}

// Diff compares idx (old) against other (new). Both must carry hashes.
func (idx *Index) Diff(other *Index) *ChangeSet {
	var oldEntries, newEntries map[string]*Entry
	if idx != nil {
		oldEntries = idx.Entries
	}
	if other != nil {
		newEntries = other.Entries
	}

	return diff(oldEntries, newEntries, func(oldEntry, newEntry *Entry) bool {
		return oldEntry.Hash != newEntry.Hash
	})
}

// diff walks both entry sets. changed is only consulted for paths whose
// mtime or size moved.
func diff(oldEntries, newEntries map[string]*Entry, changed func(oldEntry, newEntry *Entry) bool) *ChangeSet {
	cs := NewChangeSet()

	for path, newEntry := range newEntries {
		oldEntry, exists := oldEntries[path]
		if !exists {
			cs.Added = append(cs.Added, path)
			continue
		}

		// Fast path: if mtime and size unchanged, skip hash comparison
		if oldEntry.ModTime == newEntry.ModTime && oldEntry.Size == newEntry.Size {
			continue
		}

		if changed(oldEntry, newEntry) {
			cs.Modified = append(cs.Modified, path)
		}
	}

	for path := range oldEntries {
		if _, exists := newEntries[path]; !exists {
			cs.Deleted = append(cs.Deleted, path)
		}
	}

	cs.sort()
	return cs
}
