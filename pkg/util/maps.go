// Package util holds small generic helpers shared across packages.
package util

import (
	"cmp"
	"maps"
	"slices"
)

// SortedKeys returns the keys of m in ascending order. Generated output and
// reports iterate maps through it so runs stay byte-for-byte reproducible.
func SortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	return slices.Sorted(maps.Keys(m))
}
