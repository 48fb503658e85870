package render

import (
	"time"

	"github.com/sydlexius/iconsmith/internal/icon"
)

// Event is one message on a run's progress stream: Progress, Completed or
// Failed.
type Event interface {
	isEvent()
}

// Progress reports that the icon for Size is finished. Done counts from 1.
type Progress struct {
	Done  int
	Total int
	Size  int
}

// Completed is the terminal event of a successful run.
type Completed struct {
	Icons   icon.Set
	Elapsed time.Duration
}

// Failed is the terminal event of a failed run. Err is a *ProcessingError.
type Failed struct {
	Err     error
	Elapsed time.Duration
}

func (Progress) isEvent()  {}
func (Completed) isEvent() {}
func (Failed) isEvent()    {}

// Run is a handle on one batch render in flight.
type Run struct {
	ID  string
	Job Job

	events chan Event
	done   chan struct{}
	icons  icon.Set
	err    error
}

func newRun(job Job) *Run {
	return &Run{
		ID:  job.ID,
		Job: job,
		// Room for every progress message plus the terminal event, so the
		// worker never waits on a slow or absent consumer.
		events: make(chan Event, len(job.Sizes)+1),
		done:   make(chan struct{}),
	}
}

// Events returns the progress stream. Progress messages arrive in
// ascending size order, followed by exactly one Completed or Failed, after
// which the channel is closed.
func (r *Run) Events() <-chan Event {
	return r.events
}

// Done is closed once the run has finished.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the run finishes and returns its icons or error. It
// does not consume the event stream.
func (r *Run) Wait() (icon.Set, error) {
	<-r.done
	return r.icons, r.err
}

func (r *Run) finish(icons icon.Set, err error, elapsed time.Duration) {
	r.icons, r.err = icons, err
	if err != nil {
		r.events <- Failed{Err: err, Elapsed: elapsed}
	} else {
		r.events <- Completed{Icons: icons, Elapsed: elapsed}
	}
	close(r.events)
	close(r.done)
}
