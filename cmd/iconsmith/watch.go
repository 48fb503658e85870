package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/sydlexius/iconsmith/internal/event"
	"github.com/sydlexius/iconsmith/internal/watcher"
)

func runWatch(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, o := newFlagSet("watch", stderr)
	poll := fs.Duration("poll", 0, "poll at this interval instead of using filesystem notifications")
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

	if a.maint != nil && cfg.Database.MaintenanceInterval > 0 {
		go a.maint.StartScheduler(ctx, cfg.Database.MaintenanceInterval, cfg.Database.Retention)
	}

	if err := a.regenerate(ctx); err != nil {
		a.logger.Error("initial render failed", "error", err)
	}

	targets := []watcher.Target{{Name: "source", Path: cfg.Source, Event: event.SourceChanged}}
	if o.configPath != "" {
		targets = append(targets, watcher.Target{Name: "config", Path: o.configPath})
	}
	w := watcher.NewService(targets, a.onChange(o), a.bus, a.logger)
	w.SetDebounce(cfg.Watch.Debounce)
	if *poll > 0 {
		w.SetPolling(*poll)
	}

	a.logger.Info("watching for changes", "source", cfg.Source, "config", o.configPath)
	w.Start(ctx)
	return nil
}

// onChange reloads the config when it changed and renders again.
func (a *app) onChange(o *options) watcher.ChangeFunc {
	return func(ctx context.Context, changed []watcher.Target) error {
		for _, t := range changed {
			if t.Name != "config" {
				continue
			}
			cfg, err := o.load()
			if err != nil {
				return fmt.Errorf("reloading config: %w", err)
			}
			if abs(cfg.Source) != abs(a.cfg.Source) {
				a.logger.Warn("source path changed in config; restart watch to follow the new file",
					"old", a.cfg.Source, "new", cfg.Source)
				cfg.Source = a.cfg.Source
			}
			a.cfg = cfg
			a.logManager.Reconfigure(cfg.Logging)
			a.bus.Publish(event.Event{Type: event.ConfigReloaded, Data: map[string]any{"path": t.Path}})
			a.logger.Info("config reloaded", "path", t.Path, "logging", cfg.Logging.String())
		}
		return a.regenerate(ctx)
	}
}

// regenerate renders and saves, keeping the previous icons on failure.
func (a *app) regenerate(ctx context.Context) error {
	paths, err := a.generate(ctx)
	if err != nil {
		if _, runID, ok := a.workspace.Current(); ok {
			a.logger.Warn("keeping icons from the previous run",
				"run_id", runID, "rendered_at", a.workspace.UpdatedAt().Format(time.TimeOnly))
		}
		return err
	}
	for _, p := range paths {
		fmt.Fprintln(a.stdout, p)
	}
	return nil
}

func abs(path string) string {
	p, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return p
}
