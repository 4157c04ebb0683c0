package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewWithWriterFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn")

	log.Info("dropped")
	log.Warn("kept", "key", "value")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("info record not filtered at warn level:\n%s", out)
	}
	if !strings.Contains(out, "kept") || !strings.Contains(out, "key=value") {
		t.Fatalf("warn record missing:\n%s", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"nonsense", slog.LevelInfo},
	}
	for _, tc := range cases {
		if got := parseLevel(tc.input); got != tc.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}
