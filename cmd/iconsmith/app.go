package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"github.com/sydlexius/iconsmith/internal/config"
	"github.com/sydlexius/iconsmith/internal/database"
	"github.com/sydlexius/iconsmith/internal/event"
	"github.com/sydlexius/iconsmith/internal/history"
	"github.com/sydlexius/iconsmith/internal/logging"
	"github.com/sydlexius/iconsmith/internal/maintenance"
	"github.com/sydlexius/iconsmith/internal/render"
)

// app wires the long-lived services shared by generate and watch.
type app struct {
	cfg        *config.Config
	logManager *logging.Manager
	logger     *slog.Logger
	bus        *event.Bus
	db         *sql.DB
	maint      *maintenance.Service
	renderer   *render.Renderer
	workspace  *render.Workspace
	stdout     io.Writer
}

func newApp(ctx context.Context, cfg *config.Config, stdout io.Writer) (*app, error) {
	logManager, logger := logging.NewManager(cfg.Logging)
	slog.SetDefault(logger)

	a := &app{
		cfg:        cfg,
		logManager: logManager,
		logger:     logger,
		bus:        event.NewBus(logger, 64),
		workspace:  render.NewWorkspace(),
		stdout:     stdout,
	}
	go a.bus.Start()

	if cfg.Database.Enabled {
		db, err := database.OpenAndMigrate(ctx, cfg.Database.Path)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("opening history: %w", err)
		}
		a.db = db
		hist := history.NewService(db)
		history.NewRecorder(hist, a.bus, logger)
		a.maint = maintenance.NewService(db, cfg.Database.Path, hist, logger)
		logger.Debug("history ready", "path", cfg.Database.Path)
	}

	a.renderer = render.New(logger, render.WithBus(a.bus), render.WithWorkspace(a.workspace))
	return a, nil
}

// close drains the bus before closing the database its handlers write to.
func (a *app) close() {
	a.bus.Close()
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("closing database", "error", err)
		}
	}
	a.logManager.Close() //nolint:errcheck
}
