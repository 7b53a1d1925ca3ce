package manifest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/Marcus8009/languageapp/internal/log"
)

// Collection is the unsorted result of walking the source tree.
type Collection struct {
	// Entries in traversal order.
	Entries []Entry

	// CaseMismatched lists files whose extension matches only when case is
	// ignored (e.g. .MP3 for .mp3). They are never part of the manifest.
	CaseMismatched []string

	// Excluded lists files dropped by Config.Exclude.
	Excluded []string
}

// Collect walks cfg.SourceDir and returns one Entry per matching file.
//
// A missing source directory is not an error: it yields an empty
// collection. Unreadable subdirectories are skipped with a warning.
func Collect(ctx context.Context, cfg Config) (*Collection, error) {
	cfg = cfg.withDefaults()
	logger := log.Component("manifest")

	col := &Collection{}

	root, err := filepath.EvalSymlinks(cfg.SourceDir)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("source directory does not exist, manifest will be empty",
			"source", cfg.SourceDir)
		return col, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source directory: %w", err)
	}

	outDir, err := filepath.Abs(filepath.Dir(cfg.OutputFile))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory: %w", err)
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			// Unreadable entries degrade to a smaller manifest.
			logger.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		name := d.Name()
		if !strings.HasSuffix(name, cfg.Extension) {
			if hasSuffixFold(name, cfg.Extension) {
				col.CaseMismatched = append(col.CaseMismatched, path)
				logger.Debug("skipping file with mismatched extension case",
					"path", path, "extension", cfg.Extension)
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if Excluded(cfg.Exclude, rel) {
			col.Excluded = append(col.Excluded, rel)
			logger.Debug("excluded by pattern", "path", rel)
			return nil
		}

		key := strings.TrimSuffix(name, cfg.Extension)
		if key == "" {
			logger.Warn("skipping file with empty key", "path", path)
			return nil
		}

		// Report paths under SourceDir as configured, not the resolved root.
		source := filepath.Join(cfg.SourceDir, filepath.FromSlash(rel))

		entryPath, err := trimPath(cfg, rel, source, outDir)
		if err != nil {
			return err
		}

		e := Entry{Key: key, Path: entryPath, Source: source}
		log.Trace("collected entry", "key", e.Key, "path", e.Path)
		col.Entries = append(col.Entries, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", cfg.SourceDir, err)
	}

	return col, nil
}

// trimPath derives the forward-slash path used in the reference expression.
func trimPath(cfg Config, rel, source, outDir string) (string, error) {
	if cfg.TrimMode != TrimAnchor {
		return rel, nil
	}

	abs, err := filepath.Abs(source)
	if err != nil {
		return "", err
	}
	fromOut, err := filepath.Rel(outDir, abs)
	if err != nil {
		return "", err
	}
	return anchorTrim(filepath.ToSlash(fromOut), cfg.Anchor), nil
}

// anchorTrim keeps what follows the first occurrence of anchor in p.
// When the anchor is absent p is returned unchanged.
func anchorTrim(p, anchor string) string {
	if anchor == "" {
		return p
	}
	i := strings.Index(p, anchor)
	if i < 0 {
		log.Debug("anchor not found, keeping full relative path", "path", p, "anchor", anchor)
		return p
	}
	return strings.TrimPrefix(p[i+len(anchor):], "/")
}

// hasSuffixFold is strings.HasSuffix ignoring case.
func hasSuffixFold(s, suffix string) bool {
	return len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix)
}
