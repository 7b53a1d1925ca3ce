// Package loader generates a lazily-loading batch audio module.
//
// The audio tree is expected to be laid out as <level>/<batch>/<file>, for
// example HSK1/batch01/L1-0001eng.mp3. Each batch becomes an async loader
// function whose entries resolve their require() only when accessed, and a
// createBatchAudioManifest(level, batchNum) dispatcher selects the loader.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Marcus8009/languageapp/internal/log"
	"github.com/Marcus8009/languageapp/pkg/manifest"
)

// Defaults matching the HSK level/batch layout.
const (
	DefaultOutputFile  = "./batchAudioLoader.js"
	DefaultLevelPrefix = "HSK"
	DefaultBatchPrefix = "batch"
)

// Config configures the loader generator.
type Config struct {
	SourceDir   string
	OutputFile  string
	Prefix      string
	Extension   string
	LevelPrefix string
	BatchPrefix string
}

// Batch is one <level>/<batch> directory.
type Batch struct {
	Level   string // e.g. HSK1
	Dir     string // e.g. batch01
	Num     string // e.g. 01
	Entries []manifest.Entry
}

// FuncName is the generated loader function name, e.g. loadHSK1Batch01.
func (b Batch) FuncName() string {
	return "load" + b.Level + "Batch" + b.Num
}

// CaseLabel is the switch label matched by createBatchAudioManifest. Numeric
// batch numbers are zero-padded to two digits, mirroring the dispatcher's
// padStart(2, '0'), so batch1 and batch01 both answer to batchNum 1.
func (b Batch) CaseLabel() string {
	prefix := strings.TrimSuffix(b.Dir, b.Num)
	return b.Level + "-" + prefix + padBatchNum(b.Num)
}

// padBatchNum left-pads an all-digit batch number to two characters.
func padBatchNum(num string) string {
	if len(num) >= 2 || strings.ContainsFunc(num, func(r rune) bool { return r < '0' || r > '9' }) {
		return num
	}
	return strings.Repeat("0", 2-len(num)) + num
}

func (c Config) withDefaults() Config {
	if c.OutputFile == "" {
		c.OutputFile = DefaultOutputFile
	}
	if c.Extension == "" {
		c.Extension = manifest.DefaultExtension
	}
	if c.LevelPrefix == "" {
		c.LevelPrefix = DefaultLevelPrefix
	}
	if c.BatchPrefix == "" {
		c.BatchPrefix = DefaultBatchPrefix
	}
	return c
}

// Scan reads the level/batch layout under cfg.SourceDir. Levels and batches
// are returned in name order, files within a batch in name order. A missing
// source directory yields no batches.
func Scan(ctx context.Context, cfg Config) ([]Batch, error) {
	cfg = cfg.withDefaults()
	logger := log.Component("loader")

	levels, err := os.ReadDir(cfg.SourceDir)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("source directory does not exist", "source", cfg.SourceDir)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read source directory: %w", err)
	}

	var batches []Batch
	for _, level := range levels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !level.IsDir() || !isLevelDir(level.Name(), cfg.LevelPrefix) {
			continue
		}

		levelPath := filepath.Join(cfg.SourceDir, level.Name())
		dirs, err := os.ReadDir(levelPath)
		if err != nil {
			logger.Warn("skipping unreadable level", "path", levelPath, "error", err)
			continue
		}

		for _, dir := range dirs {
			if !dir.IsDir() {
				continue
			}
			num, ok := batchNum(dir.Name(), cfg.BatchPrefix)
			if !ok {
				logger.Debug("skipping non-batch directory", "path", filepath.Join(levelPath, dir.Name()))
				continue
			}

			b, err := scanBatch(cfg, level.Name(), dir.Name(), num)
			if err != nil {
				logger.Warn("skipping unreadable batch", "level", level.Name(), "batch", dir.Name(), "error", err)
				continue
			}
			batches = append(batches, b)
		}
	}

	logger.Info("loader scan complete", "batches", len(batches))
	return batches, nil
}

func scanBatch(cfg Config, level, dir, num string) (Batch, error) {
	files, err := os.ReadDir(filepath.Join(cfg.SourceDir, level, dir))
	if err != nil {
		return Batch{}, err
	}

	b := Batch{Level: level, Dir: dir, Num: num}
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || !strings.HasSuffix(name, cfg.Extension) {
			continue
		}
		key := strings.TrimSuffix(name, cfg.Extension)
		if key == "" {
			continue
		}
		b.Entries = append(b.Entries, manifest.Entry{
			Key:    key,
			Path:   level + "/" + dir + "/" + name,
			Source: filepath.Join(cfg.SourceDir, level, dir, name),
		})
	}
	// os.ReadDir already sorts by file name; keep key order explicit.
	manifest.Sort(b.Entries)
	return b, nil
}

// isLevelDir reports whether name is the level prefix followed by an
// identifier-safe suffix.
func isLevelDir(name, prefix string) bool {
	rest, ok := strings.CutPrefix(name, prefix)
	return ok && rest != "" && isAlnum(rest)
}

// batchNum extracts the suffix after the batch prefix.
func batchNum(name, prefix string) (string, bool) {
	rest, ok := strings.CutPrefix(name, prefix)
	if !ok || rest == "" || !isAlnum(rest) {
		return "", false
	}
	return rest, true
}

func isAlnum(s string) bool {
	return !strings.ContainsFunc(s, func(r rune) bool {
		return !(r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
	})
}

// Sorted returns batches ordered by level then batch directory.
func Sorted(batches []Batch) []Batch {
	out := slices.Clone(batches)
	slices.SortFunc(out, func(a, b Batch) int {
		if c := strings.Compare(a.Level, b.Level); c != 0 {
			return c
		}
		return strings.Compare(a.Dir, b.Dir)
	})
	return out
}
