package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// DefaultLimit caps List when no limit is given.
const DefaultLimit = 20

// timeLayout is fixed-width so text comparison in SQL orders by time.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Service provides run history operations.
type Service struct {
	db *sql.DB
}

// NewService creates a history service.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Record inserts a run. An empty ID is replaced by a new UUID and a zero
// CreatedAt by the current time.
func (s *Service) Record(ctx context.Context, r *Run) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.Status != StatusCompleted && r.Status != StatusFailed {
		return fmt.Errorf("recording run %s: invalid status %q", r.ID, r.Status)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, source, sizes, shape, effect, status, error, failed_size, icons, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID, r.Source, r.Sizes, r.Shape, r.Effect, r.Status, r.Error,
		r.FailedSize, r.Icons, r.DurationMS, r.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", r.ID, err)
	}
	return nil
}

// AddOutputs attaches written file paths to a recorded run.
func (s *Service) AddOutputs(ctx context.Context, runID, format string, paths []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC().Format(timeLayout)
	for _, p := range paths {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO outputs (id, run_id, path, format, created_at) VALUES (?, ?, ?, ?, ?)
		`, uuid.New().String(), runID, p, format, now); err != nil {
			return fmt.Errorf("recording output %s for run %s: %w", p, runID, err)
		}
	}
	return tx.Commit()
}

// Get returns a run with its outputs.
func (s *Service) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source, sizes, shape, effect, status, error, failed_size, icons, duration_ms, created_at
		FROM runs WHERE id = ?
	`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting run: %w", err)
	}
	if r.Outputs, err = s.outputs(ctx, id); err != nil {
		return nil, err
	}
	return r, nil
}

// List returns the most recent runs, newest first, without outputs.
func (s *Service) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, sizes, shape, effect, status, error, failed_size, icons, duration_ms, created_at
		FROM runs ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// Prune deletes runs older than cutoff and returns how many were removed.
func (s *Service) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE created_at < ?`, cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("pruning runs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *Service) outputs(ctx context.Context, runID string) ([]Output, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, path, format, created_at FROM outputs WHERE run_id = ? ORDER BY path
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("listing outputs: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []Output
	for rows.Next() {
		var o Output
		var createdAt string
		if err := rows.Scan(&o.ID, &o.RunID, &o.Path, &o.Format, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning output: %w", err)
		}
		o.CreatedAt = parseTime(createdAt)
		out = append(out, o)
	}
	return out, rows.Err()
}

func scanRun(row interface{ Scan(...any) error }) (*Run, error) {
	var r Run
	var createdAt string
	err := row.Scan(
		&r.ID, &r.Source, &r.Sizes, &r.Shape, &r.Effect, &r.Status, &r.Error,
		&r.FailedSize, &r.Icons, &r.DurationMS, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	r.CreatedAt = parseTime(createdAt)
	return &r, nil
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
