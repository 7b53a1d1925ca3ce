package manifest

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

// ErrDuplicateKey is returned under DuplicatesError when two files share a key.
var ErrDuplicateKey = errors.New("duplicate manifest key")

// Sort orders entries by key (code-point order), then by the reference
// expression. The prefix is shared by every entry, so comparing the quoted
// path with its closing "')" ranks entries exactly as their full
// require('<prefix>/<path>') strings would.
func Sort(entries []Entry) {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		if c := cmp.Compare(a.Key, b.Key); c != 0 {
			return c
		}
		return cmp.Compare(referenceTail(a.Path), referenceTail(b.Path))
	})
}

func referenceTail(path string) string {
	return QuoteJS(path) + "')"
}

// Resolve sorts entries and collapses duplicate keys so that each key
// appears once. Under DuplicatesLast the last entry in sort order wins and
// every overwritten entry is reported as a Collision. Under DuplicatesError
// the first collision fails with ErrDuplicateKey.
func Resolve(entries []Entry, policy DuplicatePolicy) ([]Entry, []Collision, error) {
	sorted := slices.Clone(entries)
	Sort(sorted)

	out := make([]Entry, 0, len(sorted))
	var collisions []Collision

	for _, e := range sorted {
		if n := len(out); n > 0 && out[n-1].Key == e.Key {
			prev := out[n-1]
			if policy == DuplicatesError {
				return nil, nil, fmt.Errorf("%w %q: %s and %s",
					ErrDuplicateKey, e.Key, prev.Source, e.Source)
			}
			collisions = append(collisions, Collision{
				Key:     e.Key,
				Kept:    e.Path,
				Dropped: prev.Path,
			})
			out[n-1] = e
			continue
		}
		out = append(out, e)
	}

	return out, collisions, nil
}
