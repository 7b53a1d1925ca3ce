package watch

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/term"
)

// ChangeType is the kind of change seen for an audio file.
type ChangeType string

const (
	ChangeAdded    ChangeType = "+"
	ChangeModified ChangeType = "~"
	ChangeDeleted  ChangeType = "-"
)

// Logger prints watch events for humans or, with JSON set, one JSON object
// per line.
type Logger struct {
	writer  io.Writer
	isTTY   bool
	verbose bool
	noColor bool
	jsonOut bool

	mu    sync.Mutex
	stats Stats
}

// Stats summarizes a watch session.
type Stats struct {
	Regenerations int
	Errors        int
	StartTime     time.Time
}

// LoggerConfig configures the logger.
type LoggerConfig struct {
	Writer  io.Writer // defaults to os.Stdout
	Verbose bool      // print every file event
	NoColor bool
	JSON    bool
}

// NewLogger creates a new logger with the given configuration.
func NewLogger(cfg LoggerConfig) *Logger {
	writer := cfg.Writer
	if writer == nil {
		writer = os.Stdout
	}

	isTTY := false
	if f, ok := writer.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}

	return &Logger{
		writer:  writer,
		isTTY:   isTTY,
		verbose: cfg.Verbose,
		noColor: cfg.NoColor,
		jsonOut: cfg.JSON,
		stats:   Stats{StartTime: time.Now()},
	}
}

// Ready announces that the watch loop is running.
func (l *Logger) Ready(fileCount int, extension, path string) {
	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event":     "ready",
			"files":     fileCount,
			"extension": extension,
			"path":      path,
		})
		return
	}

	l.printf("audiomanifest: watching %d %s files in %s\n", fileCount, extension, path)
	l.println("audiomanifest: ready")
	l.println()
}

// FileChanged reports one audio file event. Text output only shows it in
// verbose mode.
func (l *Logger) FileChanged(path string, change ChangeType) {
	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event":  "file_changed",
			"path":   path,
			"change": string(change),
			"time":   now(),
		})
		return
	}

	if l.verbose {
		l.printf("[%s] %s %s\n", l.timestamp(), l.colorize(string(change), change), path)
	}
}

// Regenerating reports the directories that triggered a run.
func (l *Logger) Regenerating(dirs []string) {
	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event": "regenerating",
			"dirs":  dirs,
			"time":  now(),
		})
		return
	}

	if len(dirs) == 1 {
		l.printf("[%s] regenerating (changes in %s)...\n", l.timestamp(), dirs[0])
	} else {
		l.printf("[%s] regenerating (changes in %d directories)...\n", l.timestamp(), len(dirs))
	}
}

// Updated reports a rewritten output file. count is the number of manifest
// entries or loader batches it holds, and unit names them.
func (l *Logger) Updated(file string, count int, unit string) {
	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event": "updated",
			"file":  file,
			unit:    count,
			"time":  now(),
		})
		return
	}

	checkmark := l.colorize("✓", ChangeAdded)
	l.printf("[%s] %s %s updated (%d %s)\n", l.timestamp(), checkmark, filepath.Base(file), count, unit)
}

// Done counts a finished regeneration.
func (l *Logger) Done() {
	l.mu.Lock()
	l.stats.Regenerations++
	l.mu.Unlock()
}

// Error reports a failure without stopping the watch loop.
func (l *Logger) Error(err error) {
	l.mu.Lock()
	l.stats.Errors++
	l.mu.Unlock()

	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event": "error",
			"error": err.Error(),
			"time":  now(),
		})
		return
	}

	xmark := l.colorize("✗", ChangeDeleted)
	l.printf("[%s] %s error: %v\n", l.timestamp(), xmark, err)
}

// Shutdown prints the session summary.
func (l *Logger) Shutdown() {
	stats := l.Stats()

	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event":         "shutdown",
			"regenerations": stats.Regenerations,
			"errors":        stats.Errors,
			"duration":      time.Since(stats.StartTime).Round(time.Millisecond).String(),
		})
		return
	}

	l.println()
	l.printf("audiomanifest: shutting down (%d regenerations, %d errors)\n",
		stats.Regenerations, stats.Errors)
}

// Stats returns the current session statistics.
func (l *Logger) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

func now() string {
	return time.Now().Format(time.RFC3339)
}

func (l *Logger) timestamp() string {
	return time.Now().Format("15:04:05")
}

// colorize wraps s in the ANSI color for change when writing to a terminal.
func (l *Logger) colorize(s string, change ChangeType) string {
	if l.noColor || !l.isTTY {
		return s
	}

	var color string
	switch change {
	case ChangeAdded:
		color = "\033[32m" // green
	case ChangeModified:
		color = "\033[33m" // yellow
	case ChangeDeleted:
		color = "\033[31m" // red
	default:
		return s
	}
	return color + s + "\033[0m"
}

func (l *Logger) writeJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		l.println(`{"event":"internal_error","error":"json marshal failed"}`)
		return
	}
	l.println(string(data))
}

// Output errors are ignored; watch output is informational.
func (l *Logger) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(l.writer, format, args...)
}

func (l *Logger) println(args ...any) {
	_, _ = fmt.Fprintln(l.writer, args...)
}
