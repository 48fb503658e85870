package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/sydlexius/iconsmith/internal/icon"
	"github.com/sydlexius/iconsmith/internal/render"
)

const maxBarWidth = 30

// progress renders a run's progress stream: a single updating line on a
// terminal, one log line per size otherwise.
type progress struct {
	w      io.Writer
	fd     int
	tty    bool
	logger *slog.Logger
}

func newProgress(w io.Writer, logger *slog.Logger) *progress {
	p := &progress{w: w, logger: logger}
	if f, ok := w.(*os.File); ok {
		p.fd = int(f.Fd()) //nolint:gosec // G115: file descriptors fit in int
		p.tty = term.IsTerminal(p.fd)
	}
	return p
}

// follow consumes every event of run and returns its result.
func (p *progress) follow(run *render.Run) (icon.Set, error) {
	for ev := range run.Events() {
		switch e := ev.(type) {
		case render.Progress:
			p.update(e)
		case render.Completed:
			p.finish()
			p.logger.Info("icons rendered", "count", len(e.Icons), "elapsed", e.Elapsed)
		case render.Failed:
			p.finish()
		}
	}
	return run.Wait()
}

func (p *progress) update(e render.Progress) {
	if !p.tty {
		p.logger.Info("rendered size", "size", e.Size, "done", e.Done, "total", e.Total)
		return
	}
	width := maxBarWidth
	if cols, _, err := term.GetSize(p.fd); err == nil && cols-40 < width {
		width = max(cols-40, 10)
	}
	filled := width * e.Done / e.Total
	fmt.Fprintf(p.w, "\r[%s%s] %3d%% %d/%d %dx%d ",
		strings.Repeat("#", filled), strings.Repeat(" ", width-filled),
		100*e.Done/e.Total, e.Done, e.Total, e.Size, e.Size)
}

func (p *progress) finish() {
	if p.tty {
		fmt.Fprintln(p.w)
	}
}
