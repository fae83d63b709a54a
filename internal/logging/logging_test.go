package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/forgo/hangman/api/internal/config"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" DEBUG ", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_JSONToStdout(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer

	logger, closer, err := New(config.LogConfig{Level: "info", Format: FormatJSON}, &buf)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer closer.Close()

	logger.Debug("hidden")
	logger.Info("game finished", slog.String("game_id", "g1"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("expected JSON line: %v", err)
	}
	if entry["msg"] != "game finished" || entry["game_id"] != "g1" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestNew_TextFormat(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer

	logger, _, err := New(config.LogConfig{Level: "debug", Format: FormatText}, &buf)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	logger.Debug("session created", slog.String("session_id", "s1"))

	out := buf.String()
	if !strings.Contains(out, "session created") || !strings.Contains(out, "s1") {
		t.Errorf("unexpected output: %q", out)
	}
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("expected text output, got JSON: %q", out)
	}
}

func TestNew_FileSink(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "logs")
	var buf bytes.Buffer

	logger, closer, err := New(config.LogConfig{
		Level:      "info",
		Format:     FormatJSON,
		Dir:        dir,
		MaxSizeMB:  1,
		MaxBackups: 1,
		MaxAgeDays: 1,
	}, &buf)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	logger.Info("written twice")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, logFileName))
	if err != nil {
		t.Fatalf("expected log file: %v", err)
	}
	if !strings.Contains(string(data), "written twice") {
		t.Errorf("log file missing entry: %q", data)
	}
	if !strings.Contains(buf.String(), "written twice") {
		t.Errorf("stdout missing entry: %q", buf.String())
	}
}

func TestNew_FileSinkRequiresRotation(t *testing.T) {
	t.Parallel()

	_, _, err := New(config.LogConfig{Dir: t.TempDir()}, &bytes.Buffer{})
	if err == nil {
		t.Error("expected error for zero rotation settings")
	}
}
