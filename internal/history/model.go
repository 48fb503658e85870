// Package history records every batch run and the files it produced in
// the local SQLite store.
package history

import "time"

// Status values for a run.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run is one recorded batch render.
type Run struct {
	ID         string
	Source     string
	Sizes      string
	Shape      string
	Effect     string
	Status     string
	Error      string
	FailedSize int
	Icons      int
	DurationMS int64
	CreatedAt  time.Time
	Outputs    []Output
}

// Output is a file written from a run's icons.
type Output struct {
	ID        string
	RunID     string
	Path      string
	Format    string
	CreatedAt time.Time
}
