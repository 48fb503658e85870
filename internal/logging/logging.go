// Package logging builds the process logger and lets it be reconfigured
// while running, e.g. when the watched config file changes.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config describes the desired logging configuration.
type Config struct {
	Level          string `yaml:"level"`
	Format         string `yaml:"format"`
	FilePath       string `yaml:"file"`
	FileMaxSizeMB  int    `yaml:"file_max_size_mb"`
	FileMaxFiles   int    `yaml:"file_max_files"`
	FileMaxAgeDays int    `yaml:"file_max_age_days"`
	// FileOnly suppresses console output when FilePath is set.
	FileOnly bool `yaml:"file_only"`
}

// DefaultConfig returns text logs at info level on the console.
func DefaultConfig() Config {
	return Config{
		Level:          "info",
		Format:         "text",
		FileMaxSizeMB:  10,
		FileMaxFiles:   3,
		FileMaxAgeDays: 30,
	}
}

// Validate reports an unknown level or format.
func (c Config) Validate() error {
	var errs []error
	if !ValidLevel(c.Level) {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Level))
	}
	if !ValidFormat(c.Format) {
		errs = append(errs, fmt.Errorf("invalid log format %q", c.Format))
	}
	if c.FileOnly && c.FilePath == "" {
		errs = append(errs, errors.New("file_only requires a log file"))
	}
	return errors.Join(errs...)
}

func (c Config) String() string {
	s := fmt.Sprintf("level=%s format=%s", c.Level, c.Format)
	if c.FilePath != "" {
		s += fmt.Sprintf(" file=%s max_size=%dMB max_files=%d max_age=%dd",
			c.FilePath, c.FileMaxSizeMB, c.FileMaxFiles, c.FileMaxAgeDays)
	}
	return s
}

// step is one WithAttrs or WithGroup call recorded by a derived handler.
type step struct {
	attrs []slog.Attr
	group string
}

func (s step) apply(h slog.Handler) slog.Handler {
	if s.group != "" {
		return h.WithGroup(s.group)
	}
	return h.WithAttrs(s.attrs)
}

// derived caches the handler built from one root and a step chain.
type derived struct {
	root *slog.Handler
	h    slog.Handler
}

// SwappableHandler is a slog.Handler whose output handler can be replaced
// at runtime. Handlers derived through WithAttrs and WithGroup follow every
// later swap.
type SwappableHandler struct {
	root  *atomic.Pointer[slog.Handler]
	steps []step
	cache atomic.Pointer[derived]
}

// NewSwappableHandler creates a SwappableHandler wrapping h.
func NewSwappableHandler(h slog.Handler) *SwappableHandler {
	s := &SwappableHandler{root: &atomic.Pointer[slog.Handler]{}}
	s.root.Store(&h)
	return s
}

// Swap replaces the output handler for s and everything derived from it.
func (s *SwappableHandler) Swap(h slog.Handler) {
	s.root.Store(&h)
}

func (s *SwappableHandler) current() slog.Handler {
	root := s.root.Load()
	if len(s.steps) == 0 {
		return *root
	}
	if c := s.cache.Load(); c != nil && c.root == root {
		return c.h
	}
	h := *root
	for _, st := range s.steps {
		h = st.apply(h)
	}
	s.cache.Store(&derived{root: root, h: h})
	return h
}

// Enabled delegates to the current handler.
func (s *SwappableHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return s.current().Enabled(ctx, level)
}

// Handle delegates to the current handler.
func (s *SwappableHandler) Handle(ctx context.Context, r slog.Record) error {
	return s.current().Handle(ctx, r)
}

// WithAttrs returns a handler sharing s's output with attrs added.
func (s *SwappableHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return s.derive(step{attrs: attrs})
}

// WithGroup returns a handler sharing s's output inside group name.
func (s *SwappableHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return s
	}
	return s.derive(step{group: name})
}

func (s *SwappableHandler) derive(st step) *SwappableHandler {
	steps := make([]step, len(s.steps), len(s.steps)+1)
	copy(steps, s.steps)
	return &SwappableHandler{root: s.root, steps: append(steps, st)}
}

// Manager owns the logger lifecycle and supports runtime reconfiguration.
type Manager struct {
	levelVar *slog.LevelVar
	handler  *SwappableHandler
	console  io.Writer
	config   Config
	mu       sync.Mutex
	closer   io.Closer
}

// NewManager creates a Manager writing console output to os.Stderr and
// returns it with a ready-to-use logger.
func NewManager(cfg Config) (*Manager, *slog.Logger) {
	return newManager(cfg, os.Stderr)
}

func newManager(cfg Config, console io.Writer) (*Manager, *slog.Logger) {
	lvl := &slog.LevelVar{}
	lvl.Set(parseLevel(cfg.Level))

	m := &Manager{levelVar: lvl, console: console, config: cfg}
	writer, closer := m.buildWriter(cfg)
	m.handler = NewSwappableHandler(buildHandler(writer, lvl, cfg.Format))
	m.closer = closer
	return m, slog.New(m.handler)
}

// Reconfigure applies cfg. Level changes take effect through the shared
// LevelVar; output changes rebuild the handler.
func (m *Manager) Reconfigure(cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.levelVar.Set(parseLevel(cfg.Level))

	needSwap := cfg.Format != m.config.Format ||
		cfg.FilePath != m.config.FilePath ||
		cfg.FileOnly != m.config.FileOnly ||
		cfg.FileMaxSizeMB != m.config.FileMaxSizeMB ||
		cfg.FileMaxFiles != m.config.FileMaxFiles ||
		cfg.FileMaxAgeDays != m.config.FileMaxAgeDays

	if needSwap {
		if m.closer != nil {
			m.closer.Close() //nolint:errcheck
			m.closer = nil
		}
		writer, closer := m.buildWriter(cfg)
		m.handler.Swap(buildHandler(writer, m.levelVar, cfg.Format))
		m.closer = closer
	}
	m.config = cfg
}

// Config returns the current configuration snapshot.
func (m *Manager) Config() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// Close releases the log file writer, if any.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closer != nil {
		err := m.closer.Close()
		m.closer = nil
		return err
	}
	return nil
}

// buildWriter returns the console, a rotating file, or both.
func (m *Manager) buildWriter(cfg Config) (io.Writer, io.Closer) {
	if cfg.FilePath == "" {
		return m.console, nil
	}

	lj := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    positive(cfg.FileMaxSizeMB, 10),
		MaxBackups: positive(cfg.FileMaxFiles, 3),
		MaxAge:     positive(cfg.FileMaxAgeDays, 30),
	}
	if cfg.FileOnly {
		return lj, lj
	}
	return io.MultiWriter(m.console, lj), lj
}

func positive(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func buildHandler(w io.Writer, leveler slog.Leveler, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: leveler}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ValidLevel reports whether s is a recognized log level.
func ValidLevel(s string) bool {
	switch s {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

// ValidFormat reports whether s is a recognized log format.
func ValidFormat(s string) bool {
	return s == "text" || s == "json"
}
