package watch

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLogger_Ready(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Writer: &buf})

	logger.Ready(120, ".mp3", "/app/assets/audio")

	output := buf.String()
	for _, want := range []string{"120 .mp3 files", "/app/assets/audio", "ready"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output: %s", want, output)
		}
	}
}

func TestLogger_FileChanged(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Writer: &buf, Verbose: true, NoColor: true})

	logger.FileChanged("HSK1/batch01/L1-0001eng.mp3", ChangeAdded)

	output := buf.String()
	if !strings.Contains(output, "+ HSK1/batch01/L1-0001eng.mp3") {
		t.Errorf("expected change line: %s", output)
	}

	buf.Reset()
	quiet := NewLogger(LoggerConfig{Writer: &buf})
	quiet.FileChanged("a.mp3", ChangeModified)
	if buf.Len() != 0 {
		t.Errorf("non-verbose logger should not print file events: %s", buf.String())
	}
}

func TestLogger_Regenerating(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Writer: &buf})

	logger.Regenerating([]string{"HSK1/batch01"})
	if !strings.Contains(buf.String(), "changes in HSK1/batch01") {
		t.Errorf("single dir output: %s", buf.String())
	}

	buf.Reset()
	logger.Regenerating([]string{"a", "b", "c"})
	if !strings.Contains(buf.String(), "3 directories") {
		t.Errorf("multi dir output: %s", buf.String())
	}
}

func TestLogger_Updated(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Writer: &buf, NoColor: true})

	logger.Updated("/app/audioManifest.js", 1532, "entries")

	output := buf.String()
	if !strings.Contains(output, "✓ audioManifest.js updated (1532 entries)") {
		t.Errorf("unexpected output: %s", output)
	}
}

func TestLogger_ErrorAndShutdownStats(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Writer: &buf, NoColor: true})

	logger.Done()
	logger.Done()
	logger.Error(errors.New("failed to replace audioManifest.js"))

	stats := logger.Stats()
	if stats.Regenerations != 2 || stats.Errors != 1 {
		t.Errorf("Stats() = %+v, want 2 regenerations and 1 error", stats)
	}

	logger.Shutdown()
	output := buf.String()
	if !strings.Contains(output, "✗ error: failed to replace audioManifest.js") {
		t.Errorf("expected error line: %s", output)
	}
	if !strings.Contains(output, "shutting down (2 regenerations, 1 errors)") {
		t.Errorf("expected shutdown summary: %s", output)
	}
}

func TestLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Writer: &buf, JSON: true})

	logger.Ready(3, ".mp3", "/audio")
	logger.FileChanged("/audio/a.mp3", ChangeDeleted)
	logger.Updated("/app/audioManifest.js", 2, "entries")
	logger.Shutdown()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 JSON lines, got %d: %s", len(lines), buf.String())
	}

	wantEvents := []string{"ready", "file_changed", "updated", "shutdown"}
	for i, line := range lines {
		var ev map[string]any
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			t.Fatalf("line %d is not JSON: %v: %s", i, err, line)
		}
		if ev["event"] != wantEvents[i] {
			t.Errorf("line %d event = %v, want %s", i, ev["event"], wantEvents[i])
		}
	}

	var updated map[string]any
	_ = json.Unmarshal([]byte(lines[2]), &updated)
	if updated["entries"] != float64(2) {
		t.Errorf("updated event entries = %v, want 2", updated["entries"])
	}
}

func TestLogger_NoColorOffTTY(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Writer: &buf})

	if got := logger.colorize("+", ChangeAdded); got != "+" {
		t.Errorf("colorize() on a buffer = %q, want plain text", got)
	}

	logger.isTTY = true
	if got := logger.colorize("+", ChangeAdded); got != "\033[32m+\033[0m" {
		t.Errorf("colorize() on a TTY = %q", got)
	}
}
