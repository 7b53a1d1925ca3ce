package incremental

import (
	"path"
	"slices"
	"strings"

	"github.com/Marcus8009/languageapp/pkg/util"
)

// ChangeSet lists audio files that differ between two indexes.
type ChangeSet struct {
	Added    []string `json:"added"`
	Modified []string `json:"modified"`
	Deleted  []string `json:"deleted"`
}

// NewChangeSet creates an empty ChangeSet.
func NewChangeSet() *ChangeSet {
	return &ChangeSet{
		Added:    []string{},
		Modified: []string{},
		Deleted:  []string{},
	}
}

// IsEmpty returns true if there are no changes.
func (cs *ChangeSet) IsEmpty() bool {
	if cs == nil {
		return true
	}
	return len(cs.Added) == 0 && len(cs.Modified) == 0 && len(cs.Deleted) == 0
}

// TotalChanges returns the total number of changed files.
func (cs *ChangeSet) TotalChanges() int {
	if cs == nil {
		return 0
	}
	return len(cs.Added) + len(cs.Modified) + len(cs.Deleted)
}

// AffectedDirs returns sorted unique directories containing changes.
func (cs *ChangeSet) AffectedDirs() []string {
	if cs == nil {
		return nil
	}

	dirs := make(map[string]struct{})
	for _, p := range cs.all() {
		dirs[path.Dir(p)] = struct{}{}
	}

	return util.SortedKeys(dirs)
}

// AffectedKeys returns the sorted manifest keys touched by the changes.
// Modified files keep their key, so only added and deleted files can change
// the rendered manifest's key set.
func (cs *ChangeSet) AffectedKeys(ext string) []string {
	if cs == nil {
		return nil
	}

	keys := make(map[string]struct{})
	for _, p := range cs.all() {
		keys[strings.TrimSuffix(path.Base(p), ext)] = struct{}{}
	}

	return util.SortedKeys(keys)
}

func (cs *ChangeSet) all() []string {
	all := make([]string, 0, cs.TotalChanges())
	all = append(all, cs.Added...)
	all = append(all, cs.Modified...)
	return append(all, cs.Deleted...)
}

// sort sorts all slices for deterministic output.
func (cs *ChangeSet) sort() {
	if cs == nil {
		return
	}
	slices.Sort(cs.Added)
	slices.Sort(cs.Modified)
	slices.Sort(cs.Deleted)
}
