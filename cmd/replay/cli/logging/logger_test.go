package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{" error ", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.input); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestIsValidLogLevel(t *testing.T) {
	for _, valid := range []string{"debug", "INFO", "warn", "warning", "error", ""} {
		if !isValidLogLevel(valid) {
			t.Errorf("isValidLogLevel(%q) = false, want true", valid)
		}
	}
	if isValidLogLevel("verbose") {
		t.Error(`isValidLogLevel("verbose") = true, want false`)
	}
}

func TestLogIncludesContextAttrs(t *testing.T) {
	defer resetLogger()

	var buf bytes.Buffer
	mu.Lock()
	logger = createLogger(&buf, slog.LevelDebug)
	mu.Unlock()

	ctx := WithSession(context.Background(), "2026-01-02-abc")
	ctx = WithOperation(ctx, "undo")
	ctx = WithComponent(ctx, "engine")
	ctx = WithTurn(ctx, 2)
	Info(ctx, "plan confirmed", slog.Int("actions", 3))

	out := buf.String()
	for _, want := range []string{
		`"session_id":"2026-01-02-abc"`,
		`"operation":"undo"`,
		`"component":"engine"`,
		`"turn":2`,
		`"actions":3`,
		`"msg":"plan confirmed"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s: %s", want, out)
		}
	}
}

func TestGetLoggerDefaultsWhenUninitialized(t *testing.T) {
	resetLogger()
	if getLogger() == nil {
		t.Fatal("getLogger returned nil")
	}
}
