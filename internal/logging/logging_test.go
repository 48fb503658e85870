package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewManager_DefaultConfig(t *testing.T) {
	var buf bytes.Buffer
	mgr, logger := newManager(DefaultConfig(), &buf)
	defer mgr.Close() //nolint:errcheck

	logger.Info("hello", "size", 16)
	if !strings.Contains(buf.String(), "msg=hello size=16") {
		t.Errorf("expected text output, got %q", buf.String())
	}
	if mgr.Config().Level != "info" {
		t.Errorf("expected level info, got %s", mgr.Config().Level)
	}
}

func TestManager_LevelSwap(t *testing.T) {
	mgr, logger := newManager(Config{Level: "info", Format: "json"}, &bytes.Buffer{})
	defer mgr.Close() //nolint:errcheck
	ctx := context.Background()

	if !logger.Enabled(ctx, slog.LevelInfo) {
		t.Error("expected info to be enabled")
	}
	if logger.Enabled(ctx, slog.LevelDebug) {
		t.Error("expected debug to be disabled")
	}

	mgr.Reconfigure(Config{Level: "debug", Format: "json"})
	if !logger.Enabled(ctx, slog.LevelDebug) {
		t.Error("expected debug to be enabled after reconfigure")
	}

	mgr.Reconfigure(Config{Level: "error", Format: "json"})
	if logger.Enabled(ctx, slog.LevelInfo) {
		t.Error("expected info to be disabled when level is error")
	}
}

func TestManager_DerivedLoggerFollowsSwap(t *testing.T) {
	var buf bytes.Buffer
	mgr, logger := newManager(Config{Level: "info", Format: "text"}, &buf)
	defer mgr.Close() //nolint:errcheck

	component := logger.With("component", "renderer").WithGroup("run")
	component.Info("before", "id", "a")
	if !strings.Contains(buf.String(), "component=renderer run.id=a") {
		t.Fatalf("text output = %q", buf.String())
	}

	buf.Reset()
	mgr.Reconfigure(Config{Level: "info", Format: "json"})
	component.Info("after", "id", "b")
	out := buf.String()
	if !strings.Contains(out, `"component":"renderer"`) || !strings.Contains(out, `"run":{"id":"b"}`) {
		t.Errorf("derived logger did not switch to json: %q", out)
	}
}

func TestManager_FileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "iconsmith.log")
	var console bytes.Buffer

	mgr, logger := newManager(Config{
		Level:          "info",
		Format:         "json",
		FilePath:       logFile,
		FileMaxSizeMB:  1,
		FileMaxFiles:   1,
		FileMaxAgeDays: 1,
		FileOnly:       true,
	}, &console)

	logger.Info("hello from test")
	if err := mgr.Close(); err != nil {
		t.Fatalf("closing manager: %v", err)
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !bytes.Contains(data, []byte("hello from test")) {
		t.Errorf("log file = %q", data)
	}
	if console.Len() != 0 {
		t.Errorf("file_only should keep the console quiet, got %q", console.String())
	}
}

func TestManager_CloseIdempotent(t *testing.T) {
	mgr, _ := newManager(DefaultConfig(), &bytes.Buffer{})
	if err := mgr.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := mgr.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default", DefaultConfig(), false},
		{"bad level", Config{Level: "trace", Format: "text"}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
		{"file only without file", Config{Level: "info", Format: "text", FileOnly: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in  string
		out slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"unknown", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.out {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.out)
		}
	}
}

func TestConfig_String(t *testing.T) {
	cfg := Config{Level: "info", Format: "json"}
	if s := cfg.String(); s != "level=info format=json" {
		t.Errorf("unexpected string: %s", s)
	}

	cfg.FilePath = "/var/log/iconsmith.log"
	cfg.FileMaxSizeMB = 50
	cfg.FileMaxFiles = 5
	cfg.FileMaxAgeDays = 7
	want := "level=info format=json file=/var/log/iconsmith.log max_size=50MB max_files=5 max_age=7d"
	if s := cfg.String(); s != want {
		t.Errorf("got %q, want %q", s, want)
	}
}
