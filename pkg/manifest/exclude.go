package manifest

import (
	"github.com/bmatcuk/doublestar/v4"
)

// Excluded reports whether a forward-slash path relative to the source root
// matches any of the doublestar patterns. Invalid patterns never match;
// Config.Validate rejects them up front.
func Excluded(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}
