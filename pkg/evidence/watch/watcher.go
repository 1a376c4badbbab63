package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/servais1983/autoforensic-collector/pkg/config"
	"github.com/servais1983/autoforensic-collector/pkg/evidence"
	"github.com/servais1983/autoforensic-collector/pkg/evidence/custody"
	"github.com/servais1983/autoforensic-collector/pkg/evidence/store"
	"github.com/servais1983/autoforensic-collector/pkg/telemetry/metrics"
)

// Event describes one out-of-band modification inside the case directory.
type Event struct {
	// Path is the affected file or directory.
	Path string

	// Op is the filesystem operation: "create", "write", "remove" or
	// "rename".
	Op string
}

// Options configures the vault watcher.
type Options struct {
	// Dir is the case directory to monitor. Required.
	Dir string

	// Debounce is the quiet period before an event is surfaced.
	// Default: config.DefaultWatchDebounce
	Debounce time.Duration

	// Logger receives watcher logs. Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics counts events and alerts. May be nil.
	Metrics *metrics.Collector
}

// Watcher monitors the case directory for modifications that did not come
// from this process. It is advisory: it detects tampering with stored
// evidence or the ledger files, it cannot prevent it.
type Watcher struct {
	watcher  *fsnotify.Watcher
	dir      string
	interval time.Duration
	debounce *debouncer
	logger   *slog.Logger
	metrics  *metrics.Collector

	mu         sync.Mutex
	running    bool
	pauseDepth int
	graceUntil time.Time
	stopCh     chan struct{}
	doneCh     chan struct{}
}

// New creates a watcher over the case directory.
func New(opts Options) (*Watcher, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("case directory is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = config.DefaultWatchDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "evidence.watch")

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		watcher:  fsw,
		dir:      opts.Dir,
		interval: opts.Debounce,
		debounce: newDebouncer(opts.Debounce),
		logger:   logger,
		metrics:  opts.Metrics,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Watch blocks processing filesystem events until the context is cancelled
// or Stop is called. Each surfaced event is logged, counted as a tamper
// alert, and passed to onTamper when non-nil.
func (w *Watcher) Watch(ctx context.Context, onTamper func(Event)) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(w.doneCh)
	}()

	if err := w.addPaths(); err != nil {
		return err
	}

	w.logger.Info("vault watcher started",
		"dir", w.dir,
		"debounce_ms", w.interval.Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("vault watcher stopped", "reason", "context cancelled")
			return nil

		case <-w.stopCh:
			w.logger.Info("vault watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			w.handleEvent(event, onTamper)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			// Keep watching; a lost event is better than a dead watcher
			w.logger.Error("vault watcher error", "error", err)
		}
	}
}

// Stop unblocks Watch and releases the filesystem watches. Safe to call
// when the watcher never ran.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return w.watcher.Close()
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.debounce.stop()
	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

// Pause suppresses event surfacing while this process performs its own
// writes. Calls nest; each Pause needs a matching Resume.
func (w *Watcher) Pause() {
	w.mu.Lock()
	w.pauseDepth++
	w.mu.Unlock()
}

// Resume re-arms the watcher. A grace period of one debounce interval
// absorbs events the kernel delivers late for writes made while paused.
func (w *Watcher) Resume() {
	w.mu.Lock()
	if w.pauseDepth > 0 {
		w.pauseDepth--
	}
	if w.pauseDepth == 0 {
		w.graceUntil = time.Now().Add(w.interval)
	}
	w.mu.Unlock()
}

func (w *Watcher) suppressed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pauseDepth > 0 || time.Now().Before(w.graceUntil)
}

// addPaths watches the case directory and every kind subdirectory that
// exists. fsnotify watches are not recursive.
func (w *Watcher) addPaths() error {
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch case directory %q: %w", w.dir, err)
	}
	for _, kind := range evidence.Kinds() {
		dir := filepath.Join(w.dir, string(kind))
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %q: %w", dir, err)
		}
	}
	return nil
}

func (w *Watcher) handleEvent(event fsnotify.Event, onTamper func(Event)) {
	if !w.relevant(event) {
		return
	}

	op := opString(event.Op)
	w.metrics.RecordFsEvent(op)

	if w.suppressed() {
		w.logger.Debug("event during own persist cycle", "path", event.Name, "op", op)
		return
	}

	// A recreated kind directory needs a fresh watch; fsnotify drops
	// watches on removed directories
	if event.Op&fsnotify.Create != 0 && filepath.Dir(event.Name) == w.dir {
		if evidence.Kind(filepath.Base(event.Name)).Valid() {
			_ = w.watcher.Add(event.Name)
		}
	}

	surfaced := Event{Path: event.Name, Op: op}
	w.debounce.trigger(event.Name, func() {
		w.logger.Warn("out-of-band modification detected",
			"path", surfaced.Path,
			"op", surfaced.Op,
		)
		w.metrics.RecordTamperAlert()
		if onTamper != nil {
			onTamper(surfaced)
		}
	})
}

// relevant filters the raw event stream down to modifications of ledger
// files, stored evidence, or the kind directories themselves.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}

	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || strings.Contains(base, ".tmp") {
		return false
	}

	parent := filepath.Dir(event.Name)
	if parent == w.dir {
		if base == store.IndexFileName || base == custody.FileName {
			return true
		}
		// A kind directory appearing, vanishing or being renamed is
		// itself suspect
		return evidence.Kind(base).Valid()
	}

	// Stored copies live one level down, in kind directories
	return evidence.Kind(filepath.Base(parent)).Valid() && filepath.Dir(parent) == w.dir
}

func opString(op fsnotify.Op) string {
	switch {
	case op&fsnotify.Create != 0:
		return "create"
	case op&fsnotify.Write != 0:
		return "write"
	case op&fsnotify.Remove != 0:
		return "remove"
	case op&fsnotify.Rename != 0:
		return "rename"
	default:
		return strings.ToLower(op.String())
	}
}
