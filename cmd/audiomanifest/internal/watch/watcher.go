package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Marcus8009/languageapp/cmd/audiomanifest/internal/incremental"
	"github.com/Marcus8009/languageapp/internal/log"
	"github.com/Marcus8009/languageapp/pkg/manifest"
)

// DefaultDebounce is used when Config.Debounce is not positive.
const DefaultDebounce = 500 * time.Millisecond

// ErrWatchLimitReached is returned when the OS watch limit is exceeded.
var ErrWatchLimitReached = errors.New("filesystem watch limit reached")

// Output describes one file written by a regeneration.
type Output struct {
	Path  string
	Count int
	Unit  string // "entries" or "batches"
}

// RegenerateFunc rewrites the generated modules and reports what it wrote.
type RegenerateFunc func(ctx context.Context) ([]Output, error)

// Config configures the watcher.
type Config struct {
	Root       string   // audio source directory
	Extension  string   // exact-case suffix of tracked files
	Exclude    []string // doublestar patterns relative to Root
	Debounce   int      // debounce window in milliseconds
	Regenerate RegenerateFunc
	Tracker    *incremental.Tracker // optional; refreshed after each run

	Writer  io.Writer
	Verbose bool
	NoColor bool
	JSON    bool
}

// Watcher watches the source directory and regenerates on change.
type Watcher struct {
	config    Config
	root      string // Root with symlinks resolved
	fsWatcher *fsnotify.Watcher
	scanner   *incremental.Scanner
	debouncer *Debouncer
	logger    *Logger

	dirsMu sync.Mutex
	dirs   map[string]struct{} // watched directories

	// regenMu keeps regenerations from overlapping.
	regenMu sync.Mutex
}

// New creates a watcher. Run starts it.
func New(cfg Config) (*Watcher, error) {
	if cfg.Regenerate == nil {
		return nil, errors.New("watch: Regenerate is required")
	}
	if cfg.Extension == "" {
		cfg.Extension = manifest.DefaultExtension
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		config:    cfg,
		fsWatcher: fsWatcher,
		scanner: incremental.NewScanner(incremental.ScanConfig{
			Root:      cfg.Root,
			Extension: cfg.Extension,
			Exclude:   cfg.Exclude,
		}),
		logger: NewLogger(LoggerConfig{
			Writer:  cfg.Writer,
			Verbose: cfg.Verbose,
			NoColor: cfg.NoColor,
			JSON:    cfg.JSON,
		}),
		dirs: make(map[string]struct{}),
	}, nil
}

// Logger returns the watcher's event logger.
func (w *Watcher) Logger() *Logger { return w.logger }

// Run watches until ctx is cancelled. Changes still pending at shutdown are
// flushed before it returns.
func (w *Watcher) Run(ctx context.Context) error {
	window := time.Duration(w.config.Debounce) * time.Millisecond
	if window <= 0 {
		window = DefaultDebounce
	}
	w.debouncer = NewDebouncer(window, func(dirs []string) {
		w.handleChangedDirs(context.WithoutCancel(ctx), dirs)
	})
	defer w.debouncer.Stop()

	root, err := filepath.EvalSymlinks(w.config.Root)
	if err != nil {
		return fmt.Errorf("cannot watch source dir: %w", err)
	}
	w.root = root
	if err := w.addRecursive(w.root); err != nil {
		return fmt.Errorf("failed to watch source dir: %w", err)
	}

	fileCount := 0
	if idx, err := w.scanner.ScanFast(ctx); err == nil {
		fileCount = idx.Len()
	}
	w.logger.Ready(fileCount, w.config.Extension, w.config.Root)

	for {
		select {
		case <-ctx.Done():
			w.debouncer.FlushNow()
			w.logger.Shutdown()
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error(err)
		}
	}
}

// addRecursive watches dir and every directory below it.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsPermission(err) {
				log.Debug("skipping unreadable directory", "path", path)
				return nil
			}
			w.logger.Error(fmt.Errorf("walk error at %s: %w", path, err))
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		if err := w.fsWatcher.Add(path); err != nil {
			if isWatchLimitError(err) {
				return fmt.Errorf("%w for %s: %v\n"+
					"Increase limit with: sudo sysctl fs.inotify.max_user_watches=524288",
					ErrWatchLimitReached, path, err)
			}
			log.Debug("failed to watch directory", "path", path, "error", err)
			return nil
		}

		w.dirsMu.Lock()
		w.dirs[path] = struct{}{}
		w.dirsMu.Unlock()
		return nil
	})
}

// isWatchLimitError reports whether err comes from inotify watch limits.
func isWatchLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "no space left on device") ||
		strings.Contains(msg, "too many open files")
}

// forgetDir drops path from the watched set and reports whether it was a
// watched directory.
func (w *Watcher) forgetDir(path string) bool {
	w.dirsMu.Lock()
	defer w.dirsMu.Unlock()

	if _, ok := w.dirs[path]; !ok {
		return false
	}
	prefix := path + string(filepath.Separator)
	for dir := range w.dirs {
		if dir == path || strings.HasPrefix(dir, prefix) {
			delete(w.dirs, dir)
		}
	}
	return true
}

// handleEvent turns one fsnotify event into a pending directory.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			// A directory moved in may already hold audio files.
			if err := w.addRecursive(path); err != nil {
				w.logger.Error(fmt.Errorf("failed to watch new directory %s: %w", path, err))
			}
			w.debouncer.Add(filepath.ToSlash(rel))
			return
		}
	}

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		if w.forgetDir(path) {
			w.logger.FileChanged(path, ChangeDeleted)
			w.debouncer.Add(filepath.ToSlash(filepath.Dir(rel)))
			return
		}
	}

	if !w.scanner.Matches(rel) {
		return
	}

	var change ChangeType
	switch {
	case event.Has(fsnotify.Create):
		change = ChangeAdded
	case event.Has(fsnotify.Write):
		change = ChangeModified
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		change = ChangeDeleted
	default:
		return // chmod
	}

	w.logger.FileChanged(path, change)
	w.debouncer.Add(filepath.ToSlash(filepath.Dir(rel)))
}

// handleChangedDirs runs on each debouncer flush.
func (w *Watcher) handleChangedDirs(ctx context.Context, dirs []string) {
	if len(dirs) == 0 {
		return
	}

	w.regenMu.Lock()
	defer w.regenMu.Unlock()

	slices.Sort(dirs)
	w.logger.Regenerating(dirs)

	outputs, err := w.config.Regenerate(ctx)
	if err != nil {
		w.logger.Error(err)
		return
	}
	for _, out := range outputs {
		w.logger.Updated(out.Path, out.Count, out.Unit)
	}
	w.logger.Done()

	if w.config.Tracker != nil {
		if err := w.config.Tracker.Refresh(ctx); err != nil {
			w.logger.Error(fmt.Errorf("failed to update state: %w", err))
		}
	}
}

// Close releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	if w.fsWatcher != nil {
		return w.fsWatcher.Close()
	}
	return nil
}
