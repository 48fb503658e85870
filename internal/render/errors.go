package render

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	ErrNoSizes  = errors.New("no valid icon sizes")
	ErrNoSource = errors.New("no source image")
	ErrBusy     = errors.New("a render is already running")
)

// ValidationError is returned synchronously, before any work starts, when
// a job cannot be rendered as given.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return "invalid render job: " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ProcessingError is the terminal error of a failed run. Size is the icon
// size being produced when the failure happened.
type ProcessingError struct {
	Size int
	Err  error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("rendering %dx%d: %v", e.Size, e.Size, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }
