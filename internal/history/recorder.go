package history

import (
	"context"
	"log/slog"
	"time"

	"github.com/sydlexius/iconsmith/internal/event"
)

const recordTimeout = 5 * time.Second

// Recorder writes render and save events from the bus into history.
type Recorder struct {
	svc    *Service
	logger *slog.Logger
}

// NewRecorder creates a recorder and subscribes it to bus.
func NewRecorder(svc *Service, bus *event.Bus, logger *slog.Logger) *Recorder {
	rec := &Recorder{svc: svc, logger: logger.With("component", "history")}
	bus.Subscribe(event.RenderCompleted, rec.onRender)
	bus.Subscribe(event.RenderFailed, rec.onRender)
	bus.Subscribe(event.IconsSaved, rec.onSaved)
	return rec
}

func (rec *Recorder) onRender(e event.Event) {
	r := &Run{
		ID:         e.String("run_id"),
		Source:     e.String("source"),
		Sizes:      e.String("sizes"),
		Shape:      e.String("shape"),
		Effect:     e.String("effect"),
		Status:     StatusCompleted,
		Icons:      intField(e, "icons"),
		DurationMS: int64(intField(e, "duration_ms")),
		CreatedAt:  e.Timestamp,
	}
	if e.Type == event.RenderFailed {
		r.Status = StatusFailed
		r.Error = e.String("error")
		r.FailedSize = intField(e, "size")
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := rec.svc.Record(ctx, r); err != nil {
		rec.logger.Warn("recording run", "run_id", r.ID, "error", err)
	}
}

func (rec *Recorder) onSaved(e event.Event) {
	paths, _ := e.Data["paths"].([]string)
	if len(paths) == 0 {
		return
	}
	runID := e.String("run_id")

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := rec.svc.AddOutputs(ctx, runID, e.String("format"), paths); err != nil {
		rec.logger.Warn("recording outputs", "run_id", runID, "error", err)
	}
}

func intField(e event.Event, key string) int {
	switch v := e.Data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
