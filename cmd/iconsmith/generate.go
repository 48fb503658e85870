package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/sydlexius/iconsmith/internal/event"
	imgpkg "github.com/sydlexius/iconsmith/internal/image"
	"github.com/sydlexius/iconsmith/internal/render"
)

var errNoSource = errors.New("no source image: set -source or source in the config")

func runGenerate(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, o := newFlagSet("generate", stderr)
	if err := o.parse(fs, args); err != nil {
		return err
	}
	cfg, err := o.load()
	if err != nil {
		return err
	}
	if cfg.Source == "" {
		return errNoSource
	}

	a, err := newApp(ctx, cfg, stdout)
	if err != nil {
		return err
	}
	defer a.close()

	paths, err := a.generate(ctx)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintln(stdout, p)
	}
	return nil
}

// generate decodes the source, renders every size and saves the result.
func (a *app) generate(ctx context.Context) ([]string, error) {
	cfg := a.cfg
	src, format, err := imgpkg.Open(cfg.Source)
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	a.logger.Debug("source decoded", "path", cfg.Source, "format", format, "width", b.Dx(), "height", b.Dy())
	if b.Dx() != b.Dy() {
		a.logger.Warn("source is not square and will be stretched", "width", b.Dx(), "height", b.Dy())
	}

	run, err := a.renderer.Start(ctx, a.job(src))
	if err != nil {
		return nil, err
	}
	icons, err := newProgress(a.stdout, a.logger).follow(run)
	if err != nil {
		return nil, err
	}

	paths, err := imgpkg.Save(icons, imgpkg.SaveOptions{
		Path:               cfg.Output.Path,
		Format:             cfg.Output.Format,
		Quality:            cfg.Output.Quality,
		Split:              cfg.Output.Split,
		Pattern:            cfg.Output.Pattern,
		ReplaceConflicting: cfg.Output.ReplaceConflicting,
	}, a.logger)
	if err != nil {
		a.bus.Publish(event.Event{Type: event.SaveFailed, Data: map[string]any{
			"run_id": run.ID,
			"path":   cfg.Output.Path,
			"error":  err.Error(),
		}})
		return nil, err
	}

	a.bus.Publish(event.Event{Type: event.IconsSaved, Data: map[string]any{
		"run_id": run.ID,
		"format": cfg.Output.Format,
		"paths":  paths,
	}})
	a.logger.Info("icons saved", "run_id", run.ID, "files", len(paths), "format", cfg.Output.Format)
	return paths, nil
}

func (a *app) job(src image.Image) render.Job {
	cfg := a.cfg
	sh, ok := cfg.MaskShape()
	if !ok {
		a.logger.Warn("unknown shape, using square", "shape", cfg.Shape.Kind)
	}
	eff, ok := cfg.EffectKind()
	if !ok {
		a.logger.Warn("unknown effect, using none", "effect", cfg.Effect)
	}
	return render.NewJob(cfg.Source, src, cfg.SizeList(), cfg.AdjustSet(), cfg.OverrideSets(), sh, eff)
}
