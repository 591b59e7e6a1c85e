// Package watch re-verifies component artifacts when they change on disk.
package watch

import (
	"context"
	"crypto/sha256"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	lru "github.com/hashicorp/golang-lru/v2"

	"componentforge/internal/diag"
	"componentforge/internal/logging"
)

// ArtifactSuffix marks the files the watcher verifies.
const ArtifactSuffix = "_component.go"

// Verifier is the part of verify.Verifier the watcher needs.
type Verifier interface {
	Verify(ctx context.Context, path string) *diag.Report
}

// Stats counts watcher activity.
type Stats struct {
	Events        int
	Verifications int
	Unchanged     int
	Failures      int
	Errors        int
	LastPath      string
	LastEventTime time.Time
}

// Watcher watches an artifact base directory and its component
// subdirectories.
type Watcher struct {
	mu          sync.Mutex
	fsw         *fsnotify.Watcher
	baseDir     string
	verifier    Verifier
	onReport    func(*diag.Report)
	pending     map[string]time.Time
	seen        *lru.Cache[string, [sha256.Size]byte] // path -> last verified content
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	closed      bool
	stats       Stats
}

// New creates a watcher for baseDir. onReport receives one report per
// settled change and is called from the watcher goroutine.
func New(baseDir string, v Verifier, onReport func(*diag.Report)) (*Watcher, error) {
	seen, err := lru.New[string, [sha256.Size]byte](512)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		seen:        seen,
		fsw:         fsw,
		baseDir:     baseDir,
		verifier:    v,
		onReport:    onReport,
		pending:     make(map[string]time.Time),
		debounceDur: 500 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// SetDebounce changes how long a file must stay quiet before it is
// verified. Call before Start.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	w.debounceDur = d
	w.mu.Unlock()
}

// Start begins watching. It does not block. A failed Start releases the
// underlying watcher; the Watcher cannot be started again.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}
	if w.closed {
		return errors.New("watcher already stopped")
	}

	if err := w.watchBase(); err != nil {
		w.closed = true
		_ = w.fsw.Close()
		return err
	}
	logging.Watch("Watching %s", w.baseDir)

	w.running = true
	go w.run(ctx)
	return nil
}

func (w *Watcher) watchBase() error {
	if err := os.MkdirAll(w.baseDir, 0755); err != nil {
		return err
	}
	if err := w.fsw.Add(w.baseDir); err != nil {
		return err
	}
	entries, err := os.ReadDir(w.baseDir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			w.addDir(filepath.Join(w.baseDir, e.Name()), false)
		}
	}
	return nil
}

// Stop ends the watch, waits for the event loop to exit and releases the
// underlying watcher. It is safe to call without a successful Start.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	wasRunning := w.running
	w.running = false
	w.closed = true
	w.mu.Unlock()

	if wasRunning {
		close(w.stopCh)
		<-w.doneCh
	}

	if err := w.fsw.Close(); err != nil {
		logging.Get(logging.CategoryWatch).Error("Error closing watcher: %v", err)
	}
	logging.Watch("Stopped watching %s", w.baseDir)
}

// Stats returns a snapshot of the counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryWatch).Error("Watcher error: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		case <-tick.C:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			// Files may land in the new directory before it is watched.
			w.addDir(ev.Name, true)
			return
		}
	}
	if !strings.HasSuffix(ev.Name, ArtifactSuffix) {
		return
	}
	if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	logging.WatchDebug("%s %s", ev.Op, ev.Name)
	w.enqueue(ev.Name)
}

func (w *Watcher) addDir(dir string, scan bool) {
	if err := w.fsw.Add(dir); err != nil {
		logging.Get(logging.CategoryWatch).Warn("Cannot watch %s: %v", dir, err)
		return
	}
	if !scan {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ArtifactSuffix) {
			w.enqueue(filepath.Join(dir, e.Name()))
		}
	}
}

func (w *Watcher) enqueue(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := time.Now()
	w.pending[path] = now
	w.stats.Events++
	w.stats.LastPath = path
	w.stats.LastEventTime = now
}

// flush verifies every path that has been quiet for the debounce window.
func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	var ready []string
	for path, at := range w.pending {
		if now.Sub(at) >= w.debounceDur {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range ready {
		content, err := os.ReadFile(path)
		if err != nil {
			logging.WatchDebug("Skipping vanished %s", path)
			continue
		}
		sum := sha256.Sum256(content)
		if prev, ok := w.seen.Get(path); ok && prev == sum {
			w.mu.Lock()
			w.stats.Unchanged++
			w.mu.Unlock()
			continue
		}
		w.seen.Add(path, sum)

		report := w.verifier.Verify(ctx, path)

		w.mu.Lock()
		w.stats.Verifications++
		if !report.Success {
			w.stats.Failures++
		}
		w.mu.Unlock()

		logging.Watch("Re-verified %s: success=%v", path, report.Success)
		if w.onReport != nil {
			w.onReport(report)
		}
	}
}
