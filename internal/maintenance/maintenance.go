// Package maintenance keeps the run history store small: pruning old runs,
// optimizing and vacuuming the SQLite file.
package maintenance

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// Pruner deletes runs older than a cutoff.
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// Status holds database size information.
type Status struct {
	DBFileSize  int64
	WALFileSize int64
	PageCount   int64
	PageSize    int64
	Runs        int64
	Outputs     int64
}

// Service provides database maintenance operations.
type Service struct {
	db     *sql.DB
	dbPath string
	pruner Pruner
	logger *slog.Logger
}

// NewService creates a maintenance service.
func NewService(db *sql.DB, dbPath string, pruner Pruner, logger *slog.Logger) *Service {
	return &Service{
		db:     db,
		dbPath: dbPath,
		pruner: pruner,
		logger: logger.With(slog.String("component", "maintenance")),
	}
}

// Status returns current database size and row counts.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	st := &Status{}

	if info, err := os.Stat(s.dbPath); err == nil {
		st.DBFileSize = info.Size()
	}
	if info, err := os.Stat(s.dbPath + "-wal"); err == nil {
		st.WALFileSize = info.Size()
	}

	for _, q := range []struct {
		query string
		dst   *int64
	}{
		{"PRAGMA page_count", &st.PageCount},
		{"PRAGMA page_size", &st.PageSize},
		{"SELECT COUNT(*) FROM runs", &st.Runs},
		{"SELECT COUNT(*) FROM outputs", &st.Outputs},
	} {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dst); err != nil {
			return nil, fmt.Errorf("%s: %w", q.query, err)
		}
	}
	return st, nil
}

// Prune removes runs older than retention. A zero retention keeps
// everything.
func (s *Service) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	n, err := s.pruner.Prune(ctx, time.Now().Add(-retention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("pruned old runs", "count", n, "retention", retention)
	}
	return n, nil
}

// Optimize runs PRAGMA optimize followed by a WAL checkpoint.
func (s *Service) Optimize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA optimize"); err != nil {
		return fmt.Errorf("PRAGMA optimize: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("WAL checkpoint: %w", err)
	}
	s.logger.Debug("optimize complete")
	return nil
}

// Vacuum runs VACUUM to rebuild the database file.
func (s *Service) Vacuum(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("VACUUM: %w", err)
	}
	s.logger.Info("vacuum complete")
	return nil
}

// RunOnce prunes and then optimizes.
func (s *Service) RunOnce(ctx context.Context, retention time.Duration) error {
	if _, err := s.Prune(ctx, retention); err != nil {
		return err
	}
	return s.Optimize(ctx)
}

// StartScheduler runs RunOnce immediately and then every interval until
// ctx is canceled.
func (s *Service) StartScheduler(ctx context.Context, interval, retention time.Duration) {
	s.logger.Info("maintenance scheduler started",
		slog.String("interval", interval.String()),
		slog.String("retention", retention.String()))

	if err := s.RunOnce(ctx, retention); err != nil {
		s.logger.Error("maintenance failed", slog.Any("error", err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("maintenance scheduler stopped")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx, retention); err != nil {
				s.logger.Error("scheduled maintenance failed", slog.Any("error", err))
			}
		}
	}
}
