package render

import (
	"sync"
	"time"

	"github.com/sydlexius/iconsmith/internal/icon"
)

// Workspace holds the most recent successful result. A failed run leaves
// it untouched.
type Workspace struct {
	mu      sync.RWMutex
	icons   icon.Set
	runID   string
	updated time.Time
}

// NewWorkspace returns an empty workspace.
func NewWorkspace() *Workspace {
	return &Workspace{}
}

// Current returns the retained icons and the run that produced them. The
// last result is false when nothing is retained.
func (w *Workspace) Current() (icon.Set, string, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.icons == nil {
		return nil, "", false
	}
	return w.icons, w.runID, true
}

// UpdatedAt returns when the current result was stored.
func (w *Workspace) UpdatedAt() time.Time {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.updated
}

// Clear discards the current result.
func (w *Workspace) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.icons, w.runID, w.updated = nil, "", time.Time{}
}

func (w *Workspace) set(runID string, icons icon.Set) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.icons, w.runID, w.updated = icons, runID, time.Now()
}
