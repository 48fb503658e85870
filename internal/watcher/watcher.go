// Package watcher reports changes to a fixed set of files, such as the
// source image and the config file, with debouncing.
package watcher

import (
	"cmp"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sydlexius/iconsmith/internal/event"
	"github.com/sydlexius/iconsmith/internal/filesystem"
)

// Target is one watched file.
type Target struct {
	// Name labels the target for callers, e.g. "source" or "config".
	Name string
	Path string
	// Event is published on the bus when the file changes. Empty publishes
	// nothing.
	Event event.Type
}

// ChangeFunc handles one debounced batch of changed targets.
type ChangeFunc func(ctx context.Context, changed []Target) error

// fileState is what polling compares between ticks.
type fileState struct {
	modTime time.Time
	size    int64
	exists  bool
}

// Service watches the parent directories of its targets so replacements
// by rename, the way most editors save, are still seen.
type Service struct {
	onChange     ChangeFunc
	eventBus     *event.Bus
	logger       *slog.Logger
	debounce     time.Duration
	pollInterval time.Duration
	forcePoll    bool

	mu      sync.Mutex
	targets map[string]Target // cleaned absolute path -> target
	pending map[string]Target
	states  map[string]fileState
}

// NewService creates a watcher for targets. bus may be nil.
func NewService(targets []Target, onChange ChangeFunc, bus *event.Bus, logger *slog.Logger) *Service {
	s := &Service{
		onChange:     onChange,
		eventBus:     bus,
		logger:       logger.With("component", "fs-watcher"),
		debounce:     500 * time.Millisecond,
		pollInterval: 2 * time.Second,
		targets:      make(map[string]Target),
		pending:      make(map[string]Target),
		states:       make(map[string]fileState),
	}
	for _, t := range targets {
		if t.Path == "" {
			continue
		}
		abs, err := filepath.Abs(t.Path)
		if err != nil {
			abs = t.Path
		}
		t.Path = filepath.Clean(abs)
		s.targets[t.Path] = t
	}
	return s
}

// SetDebounce overrides the quiet period before a change is reported.
func (s *Service) SetDebounce(d time.Duration) {
	s.debounce = d
}

// SetPolling forces stat polling at interval instead of fsnotify, for
// filesystems that do not deliver notifications (network mounts).
func (s *Service) SetPolling(interval time.Duration) {
	s.forcePoll = true
	if interval > 0 {
		s.pollInterval = interval
	}
}

// Start blocks until ctx is canceled. When fsnotify is unavailable it
// falls back to polling.
func (s *Service) Start(ctx context.Context) {
	var eventCh <-chan fsnotify.Event
	var errCh <-chan error

	if !s.forcePoll {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			s.logger.Warn("fsnotify unavailable, polling instead", "error", err)
			s.forcePoll = true
		} else {
			defer w.Close() //nolint:errcheck
			for _, dir := range s.dirs() {
				if err := w.Add(dir); err != nil {
					s.logger.Error("failed to watch directory", "path", dir, "error", err)
					continue
				}
				s.logger.Info("watching directory", "path", dir)
			}
			eventCh, errCh = w.Events, w.Errors
		}
	}

	var pollCh <-chan time.Time
	if s.forcePoll {
		s.snapshot()
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()
		pollCh = ticker.C
	}

	// Starts stopped; reset on each relevant change.
	debounceTimer := time.NewTimer(0)
	if !debounceTimer.Stop() {
		<-debounceTimer.C
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("filesystem watcher stopping")
			return

		case ev, ok := <-eventCh:
			if !ok {
				return
			}
			if s.handleFSEvent(ev) {
				resetTimer(debounceTimer, s.debounce)
			}

		case err, ok := <-errCh:
			if !ok {
				return
			}
			s.logger.Error("fsnotify error", "error", err)

		case <-pollCh:
			if s.poll() {
				resetTimer(debounceTimer, s.debounce)
			}

		case <-debounceTimer.C:
			s.flush(ctx)
		}
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

// handleFSEvent marks a target pending and reports whether it did.
func (s *Service) handleFSEvent(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod || filesystem.IsTempFile(ev.Name) {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.targets[filepath.Clean(ev.Name)]
	if !ok {
		return false
	}
	s.logger.Debug("watched file changed", "name", t.Name, "path", t.Path, "op", ev.Op.String())
	s.pending[t.Path] = t
	return true
}

// flush reports every pending target once the debounce period is over.
func (s *Service) flush(ctx context.Context) {
	s.mu.Lock()
	changed := make([]Target, 0, len(s.pending))
	for _, t := range s.pending {
		changed = append(changed, t)
	}
	clear(s.pending)
	s.mu.Unlock()

	if len(changed) == 0 {
		return
	}
	slices.SortFunc(changed, func(a, b Target) int {
		return cmp.Compare(a.Name, b.Name)
	})

	for _, t := range changed {
		s.logger.Info("change detected", "name", t.Name, "path", t.Path)
		if s.eventBus != nil && t.Event != "" {
			s.eventBus.Publish(event.Event{
				Type: t.Event,
				Data: map[string]any{"name": t.Name, "path": t.Path},
			})
		}
	}
	if s.onChange != nil {
		if err := s.onChange(ctx, changed); err != nil {
			s.logger.Error("change handler failed", "error", err)
		}
	}
}

func (s *Service) dirs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var dirs []string
	for path := range s.targets {
		dir := filepath.Dir(path)
		if !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	slices.Sort(dirs)
	return dirs
}

// snapshot records the initial state so the first poll only reports real
// changes.
func (s *Service) snapshot() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for path := range s.targets {
		s.states[path] = stat(path)
	}
}

// poll compares every target with its last state and reports whether any
// changed.
func (s *Service) poll() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := false
	for path, t := range s.targets {
		now := stat(path)
		if now != s.states[path] {
			s.states[path] = now
			s.pending[path] = t
			changed = true
		}
	}
	return changed
}

func stat(path string) fileState {
	info, err := os.Stat(path)
	if err != nil {
		return fileState{}
	}
	return fileState{modTime: info.ModTime(), size: info.Size(), exists: true}
}
