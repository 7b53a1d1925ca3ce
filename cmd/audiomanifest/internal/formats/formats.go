// Package formats knows which file extensions are audio and detects the
// formats present in a source tree.
//
// Detection ignores case. The manifest generator matches its extension
// exactly, and generate uses Unmatched to report the audio files it left
// out (".MP3" next to ".mp3", or ".m4a" in an mp3 project).
package formats

import (
	"errors"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Marcus8009/languageapp/pkg/util"
)

// Extensions maps format names to their lower-case file extensions.
var Extensions = map[string][]string{
	"mp3":  {".mp3"},
	"m4a":  {".m4a"},
	"aac":  {".aac"},
	"wav":  {".wav"},
	"ogg":  {".ogg", ".oga"},
	"flac": {".flac"},
	"opus": {".opus"},
}

// Names returns all known format names, sorted.
func Names() []string {
	return util.SortedKeys(Extensions)
}

// ForExtension returns the format an extension belongs to, ignoring case.
func ForExtension(ext string) (string, bool) {
	ext = strings.ToLower(ext)
	for name, exts := range Extensions {
		if slices.Contains(exts, ext) {
			return name, true
		}
	}
	return "", false
}

// Detect walks root and returns the sorted names of the audio formats found.
// A missing root yields no formats.
func Detect(root string) ([]string, error) {
	counts, err := Count(root)
	if err != nil {
		return nil, err
	}

	return util.SortedKeys(counts), nil
}

// Count walks root and returns how many files of each format it holds.
func Count(root string) (map[string]int, error) {
	counts := make(map[string]int)
	err := walkFiles(root, func(name string) {
		if format, ok := ForExtension(filepath.Ext(name)); ok {
			counts[format]++
		}
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// Unmatched counts audio files under root that an exact-case match on ext
// would miss. The result is keyed by the file's actual extension, e.g.
// ".MP3" or ".wav".
func Unmatched(root, ext string) (map[string]int, error) {
	missed := make(map[string]int)
	err := walkFiles(root, func(name string) {
		if strings.HasSuffix(name, ext) {
			return
		}
		fileExt := filepath.Ext(name)
		if _, ok := ForExtension(fileExt); ok {
			missed[fileExt]++
		}
	})
	if err != nil {
		return nil, err
	}
	return missed, nil
}

// walkFiles calls fn with the base name of every regular entry under root.
// A missing root is empty; unreadable subdirectories are skipped.
func walkFiles(root string, fn func(name string)) error {
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		if isNotExist(err) {
			return nil
		}
		return err
	}

	return filepath.WalkDir(resolved, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == resolved {
				return err
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			fn(d.Name())
		}
		return nil
	})
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
