package render

import (
	"fmt"
	"image"
	"maps"
	"slices"

	"github.com/sydlexius/iconsmith/internal/adjust"
	"github.com/sydlexius/iconsmith/internal/effect"
	"github.com/sydlexius/iconsmith/internal/icon"
	"github.com/sydlexius/iconsmith/internal/shape"
)

// Job is the complete, immutable input of one batch run. The renderer
// takes a private copy at Start, so callers may reuse or mutate a Job
// afterwards without affecting a run in flight.
type Job struct {
	// ID identifies the run. Start assigns a UUID when empty.
	ID string
	// SourceName labels the source in logs and history, usually its path.
	SourceName string
	Source     image.Image
	Sizes      []int
	Global     adjust.Set
	// Overrides replace Global for the sizes they name.
	Overrides map[int]adjust.Set
	Shape     shape.Shape
	Effect    effect.Kind
}

// NewJob builds a job from caller-owned values. Sizes are sorted and
// deduplicated; sizes and overrides are copied.
func NewJob(sourceName string, src image.Image, sizes []int, global adjust.Set, overrides map[int]adjust.Set, sh shape.Shape, eff effect.Kind) Job {
	return Job{
		SourceName: sourceName,
		Source:     src,
		Sizes:      sizes,
		Global:     global,
		Overrides:  overrides,
		Shape:      sh,
		Effect:     eff,
	}.snapshot()
}

// Validate checks the job without touching pixels.
func (j Job) Validate() error {
	if j.Source == nil {
		return &ValidationError{Err: ErrNoSource}
	}
	if b := j.Source.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return &ValidationError{Err: fmt.Errorf("%w: empty bounds %v", ErrNoSource, b)}
	}
	if len(j.Sizes) == 0 {
		return &ValidationError{Err: ErrNoSizes}
	}
	for _, s := range j.Sizes {
		if !icon.ValidSize(s) {
			return &ValidationError{Err: fmt.Errorf("size %d outside [%d, %d]", s, icon.MinSize, icon.MaxSize)}
		}
	}
	if err := j.Global.Validate(); err != nil {
		return &ValidationError{Err: err}
	}
	for size, set := range j.Overrides {
		if err := set.Validate(); err != nil {
			return &ValidationError{Err: fmt.Errorf("override for %d: %w", size, err)}
		}
	}
	return nil
}

// Adjustments returns the effective set for size.
func (j Job) Adjustments(size int) adjust.Set {
	if set, ok := j.Overrides[size]; ok {
		return set
	}
	return j.Global
}

// snapshot copies the mutable parts of the job and orders its sizes.
func (j Job) snapshot() Job {
	j.Sizes = slices.Clone(j.Sizes)
	slices.Sort(j.Sizes)
	j.Sizes = slices.Compact(j.Sizes)
	j.Overrides = maps.Clone(j.Overrides)
	return j
}
