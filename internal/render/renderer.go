// Package render turns one source image into a set of shaped, adjusted
// icons, one per requested size, on a background goroutine that reports
// progress over a channel.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/sydlexius/iconsmith/internal/adjust"
	"github.com/sydlexius/iconsmith/internal/effect"
	"github.com/sydlexius/iconsmith/internal/event"
	"github.com/sydlexius/iconsmith/internal/icon"
	"github.com/sydlexius/iconsmith/internal/shape"
)

// Renderer runs batch jobs one at a time.
type Renderer struct {
	logger    *slog.Logger
	bus       *event.Bus
	workspace *Workspace
	busy      atomic.Bool

	// beforeSize runs ahead of each size; tests use it to inject failures.
	beforeSize func(size int) error
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithBus publishes render lifecycle events to bus.
func WithBus(bus *event.Bus) Option {
	return func(r *Renderer) { r.bus = bus }
}

// WithWorkspace stores every successful result in ws.
func WithWorkspace(ws *Workspace) Option {
	return func(r *Renderer) { r.workspace = ws }
}

// New creates a Renderer.
func New(logger *slog.Logger, opts ...Option) *Renderer {
	r := &Renderer{logger: logger.With("component", "renderer")}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Busy reports whether a run is in progress.
func (r *Renderer) Busy() bool {
	return r.busy.Load()
}

// Start validates job and begins rendering it in the background. Invalid
// jobs are rejected before any goroutine starts. ErrBusy is returned while
// another run is active.
func (r *Renderer) Start(ctx context.Context, job Job) (*Run, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}
	if !r.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}

	job = job.snapshot()
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	run := newRun(job)

	r.logger.Info("render started",
		"run_id", job.ID,
		"source", job.SourceName,
		"sizes", icon.FormatSizes(job.Sizes),
		"shape", job.Shape.String(),
		"effect", job.Effect.String(),
	)
	r.publish(event.RenderStarted, map[string]any{
		"run_id": job.ID,
		"source": job.SourceName,
		"sizes":  icon.FormatSizes(job.Sizes),
		"shape":  job.Shape.String(),
		"effect": job.Effect.String(),
	})

	go r.execute(ctx, run)
	return run, nil
}

// Render runs job and waits for the result.
func (r *Renderer) Render(ctx context.Context, job Job) (icon.Set, error) {
	run, err := r.Start(ctx, job)
	if err != nil {
		return nil, err
	}
	return run.Wait()
}

func (r *Renderer) execute(ctx context.Context, run *Run) {
	start := time.Now()
	icons, err := r.process(ctx, run)
	elapsed := time.Since(start)

	if err != nil {
		r.logger.Error("render failed", "run_id", run.ID, "error", err, "elapsed", elapsed)
		data := map[string]any{
			"run_id":      run.ID,
			"source":      run.Job.SourceName,
			"sizes":       icon.FormatSizes(run.Job.Sizes),
			"shape":       run.Job.Shape.String(),
			"effect":      run.Job.Effect.String(),
			"error":       err.Error(),
			"duration_ms": elapsed.Milliseconds(),
		}
		var pe *ProcessingError
		if errors.As(err, &pe) {
			data["size"] = pe.Size
		}
		r.publish(event.RenderFailed, data)
	} else {
		if r.workspace != nil {
			r.workspace.set(run.ID, icons)
		}
		r.logger.Info("render completed", "run_id", run.ID, "icons", len(icons), "elapsed", elapsed)
		r.publish(event.RenderCompleted, map[string]any{
			"run_id":      run.ID,
			"source":      run.Job.SourceName,
			"sizes":       icon.FormatSizes(run.Job.Sizes),
			"shape":       run.Job.Shape.String(),
			"effect":      run.Job.Effect.String(),
			"icons":       len(icons),
			"duration_ms": elapsed.Milliseconds(),
		})
	}

	// Released before the terminal event so a consumer reacting to it can
	// start the next run immediately.
	r.busy.Store(false)
	run.finish(icons, err, elapsed)
}

func (r *Renderer) process(ctx context.Context, run *Run) (icon.Set, error) {
	job := run.Job
	total := len(job.Sizes)

	var base *image.NRGBA
	if err := guard(func() error {
		base = imaging.Clone(job.Source)
		return nil
	}); err != nil {
		return nil, &ProcessingError{Size: job.Sizes[0], Err: err}
	}

	// Sizes sharing an adjustment set share one prepared copy of the base.
	prepared := make(map[adjust.Set]*image.NRGBA)
	icons := make(icon.Set, 0, total)

	for i, size := range job.Sizes {
		if err := ctx.Err(); err != nil {
			return nil, &ProcessingError{Size: size, Err: err}
		}

		var img *image.NRGBA
		err := guard(func() error {
			if r.beforeSize != nil {
				if err := r.beforeSize(size); err != nil {
					return err
				}
			}
			set := job.Adjustments(size)
			src, ok := prepared[set]
			if !ok {
				var err error
				if src, err = prepare(base, set, job.Effect); err != nil {
					return err
				}
				prepared[set] = src
			}
			img = shape.Apply(imaging.Resize(src, size, size, imaging.Lanczos), job.Shape)
			return nil
		})
		if err != nil {
			return nil, &ProcessingError{Size: size, Err: err}
		}

		icons = append(icons, icon.Icon{Size: size, Image: img})
		r.logger.Debug("icon rendered", "run_id", run.ID, "size", size, "done", i+1, "total", total)
		run.events <- Progress{Done: i + 1, Total: total, Size: size}
	}
	return icons, nil
}

// prepare runs the color adjustments of set, then the effect, then the
// alpha step.
func prepare(base *image.NRGBA, set adjust.Set, eff effect.Kind) (*image.NRGBA, error) {
	img := set.ApplyColor(base)
	if eff != effect.None {
		if err := guard(func() error {
			img = effect.Apply(img, eff)
			return nil
		}); err != nil {
			return nil, fmt.Errorf("applying effect %s: %w", eff, err)
		}
	}
	return set.ApplyAlpha(img), nil
}

// guard runs fn and converts a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn()
}

func (r *Renderer) publish(t event.Type, data map[string]any) {
	if r.bus == nil {
		return
	}
	r.bus.Publish(event.Event{Type: t, Data: data})
}
