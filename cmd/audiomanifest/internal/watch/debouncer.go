// Package watch regenerates the audio manifest whenever files under the
// source directory change.
package watch

import (
	"sync"
	"time"
)

// MaxPendingDirs bounds the pending set. Reaching it flushes immediately,
// which keeps a bulk copy of thousands of clips from growing it forever.
const MaxPendingDirs = 1000

// Debouncer collects directories with changes and hands them to onFlush
// once no new change arrived for a full window.
type Debouncer struct {
	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	window  time.Duration
	onFlush func(dirs []string)
	stopped bool
}

// NewDebouncer creates a debouncer with the given window.
func NewDebouncer(window time.Duration, onFlush func(dirs []string)) *Debouncer {
	return &Debouncer{
		pending: make(map[string]struct{}),
		window:  window,
		onFlush: onFlush,
	}
}

// Add records a change in dir and restarts the window.
func (d *Debouncer) Add(dir string) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}

	d.pending[dir] = struct{}{}

	if len(d.pending) >= MaxPendingDirs {
		d.stopTimerLocked()
		dirs := d.takeLocked()
		d.mu.Unlock()
		d.deliver(dirs)
		return
	}

	// A timer that already fired may still run flush; an empty take makes
	// that a no-op.
	d.stopTimerLocked()
	d.timer = time.AfterFunc(d.window, d.flush)
	d.mu.Unlock()
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	var dirs []string
	if !d.stopped {
		dirs = d.takeLocked()
	}
	d.mu.Unlock()
	d.deliver(dirs)
}

// FlushNow delivers pending directories without waiting for the timer.
func (d *Debouncer) FlushNow() {
	d.mu.Lock()
	d.stopTimerLocked()
	var dirs []string
	if !d.stopped {
		dirs = d.takeLocked()
	}
	d.mu.Unlock()
	d.deliver(dirs)
}

// Stop stops the debouncer after delivering whatever is still pending.
// Later calls to Add are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.stopTimerLocked()
	dirs := d.takeLocked()
	d.mu.Unlock()
	d.deliver(dirs)
}

// PendingCount returns the number of directories waiting to be flushed.
func (d *Debouncer) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// takeLocked empties the pending set. Caller must hold d.mu.
func (d *Debouncer) takeLocked() []string {
	if len(d.pending) == 0 {
		return nil
	}
	dirs := make([]string, 0, len(d.pending))
	for dir := range d.pending {
		dirs = append(dirs, dir)
	}
	d.pending = make(map[string]struct{})
	return dirs
}

func (d *Debouncer) stopTimerLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// deliver runs the handler outside the lock so it may call Add.
func (d *Debouncer) deliver(dirs []string) {
	if len(dirs) > 0 && d.onFlush != nil {
		d.onFlush(dirs)
	}
}
