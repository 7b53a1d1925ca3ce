package incremental

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/Marcus8009/languageapp/internal/log"
	"github.com/Marcus8009/languageapp/pkg/manifest"
)

// ScanConfig configures the scanner.
type ScanConfig struct {
	Root      string   // audio source directory
	Extension string   // exact-case suffix, e.g. ".mp3"
	Exclude   []string // doublestar patterns relative to Root
}

// Scanner builds an Index by walking the source directory. It selects the
// same files the manifest generator does.
type Scanner struct {
	root      string
	extension string
	exclude   []string
}

// NewScanner creates a scanner with the given config.
func NewScanner(cfg ScanConfig) *Scanner {
	ext := cfg.Extension
	if ext == "" {
		ext = manifest.DefaultExtension
	}
	return &Scanner{
		root:      cfg.Root,
		extension: ext,
		exclude:   cfg.Exclude,
	}
}

// Root returns the directory being scanned.
func (s *Scanner) Root() string { return s.root }

// Matches reports whether a path relative to the root is tracked.
func (s *Scanner) Matches(rel string) bool {
	rel = filepath.ToSlash(rel)
	if !strings.HasSuffix(rel, s.extension) {
		return false
	}
	return !manifest.Excluded(s.exclude, rel)
}

// Scan walks the source directory and hashes every tracked file.
func (s *Scanner) Scan(ctx context.Context) (*Index, error) {
	return s.walk(ctx, true)
}

// ScanFast only records mtime and size. Tracker.Status hashes lazily on top
// of it.
func (s *Scanner) ScanFast(ctx context.Context) (*Index, error) {
	return s.walk(ctx, false)
}

func (s *Scanner) walk(ctx context.Context, hash bool) (*Index, error) {
	idx := NewIndex()

	root, err := filepath.EvalSymlinks(s.root)
	if errors.Is(err, fs.ErrNotExist) {
		return idx, nil
	}
	if err != nil {
		return nil, err
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			if path == root {
				return err
			}
			log.Debug("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !s.Matches(rel) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		entry := &Entry{
			Path:    rel,
			ModTime: info.ModTime().UnixNano(),
			Size:    info.Size(),
		}
		if hash {
			if entry.Hash, err = HashFile(path); err != nil {
				return err
			}
		}

		idx.Add(entry)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return idx, nil
}
