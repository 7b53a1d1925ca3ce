package manifest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/Marcus8009/languageapp/internal/log"
)

// Manifest is a rendered manifest ready to be written.
type Manifest struct {
	OutputFile string
	Entries    []Entry
	Collisions []Collision
	Collection *Collection
	Content    []byte
}

// Build collects, resolves and renders the manifest without touching the
// output file.
func Build(ctx context.Context, cfg Config) (*Manifest, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	col, err := Collect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	entries, collisions, err := Resolve(col.Entries, cfg.Duplicates)
	if err != nil {
		return nil, err
	}

	logger := log.Component("manifest")
	for _, c := range collisions {
		logger.Warn("duplicate key, later entry wins",
			"key", c.Key, "kept", c.Kept, "dropped", c.Dropped)
	}

	content, err := RenderBytes(cfg.ExportName, cfg.Prefix, entries)
	if err != nil {
		return nil, err
	}

	logger.Info("manifest built",
		"entries", len(entries),
		"collisions", len(collisions),
		"case_mismatched", len(col.CaseMismatched))

	return &Manifest{
		OutputFile: cfg.OutputFile,
		Entries:    entries,
		Collisions: collisions,
		Collection: col,
		Content:    content,
	}, nil
}

// Write stores the manifest at its output path. The content goes to a
// temporary sibling first and is renamed into place.
func (m *Manifest) Write() error {
	return WriteFileAtomic(m.OutputFile, m.Content)
}

// Generate builds the manifest and writes it to cfg.OutputFile.
func Generate(ctx context.Context, cfg Config) (*Manifest, error) {
	m, err := Build(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := m.Write(); err != nil {
		return nil, err
	}
	return m, nil
}

// WriteFileAtomic writes data to path via a temp file and rename. An
// existing file keeps its permission bits; a new file is created 0666
// subject to the process umask.
func WriteFileAtomic(path string, data []byte) error {
	perm := fs.FileMode(0o666)
	info, statErr := os.Stat(path)
	if statErr == nil {
		perm = info.Mode().Perm()
	}

	tmp, err := createTemp(filepath.Dir(path), filepath.Base(path), perm)
	if err != nil {
		return fmt.Errorf("failed to open output for writing: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write output: %w", err)
	}
	// The umask may have stripped bits the existing file had.
	if statErr == nil {
		if err := os.Chmod(tmpPath, perm); err != nil {
			_ = os.Remove(tmpPath)
			return fmt.Errorf("failed to set output permissions: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// createTemp is os.CreateTemp with a caller-chosen mode.
func createTemp(dir, base string, perm fs.FileMode) (*os.File, error) {
	for range 100 {
		name := filepath.Join(dir, fmt.Sprintf(".%s.%d.tmp", base, rand.Uint32()))
		f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, perm)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		return f, err
	}
	return nil, fmt.Errorf("no unused temp name for %s in %s", base, dir)
}
