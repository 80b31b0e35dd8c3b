package plog

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"notice", LevelNotice},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := LevelFromString(tt.in); got != tt.want {
			t.Errorf("LevelFromString(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNoticeBelowInfo(t *testing.T) {
	if LevelNotice >= slog.LevelInfo {
		t.Fatalf("notice level %v must sort below info", LevelNotice)
	}
	if LevelNotice <= slog.LevelDebug {
		t.Fatalf("notice level %v must sort above debug", LevelNotice)
	}
}

func TestSetOutputCapturesAllLevels(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(&bytes.Buffer{})

	Debug("debug line")
	Notice("notice line")
	Info("info line")
	Warn("warn line")
	Error("error line")

	out := buf.String()
	for _, want := range []string{"debug line", "notice line", "info line", "warn line", "error line"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
