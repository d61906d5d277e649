package logger

import (
	"context"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tc := range cases {
		if got := ParseLevel(tc.in); got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestInitSetsDefault(t *testing.T) {
	lg := Init("test-svc", slog.LevelWarn)
	if lg == nil {
		t.Fatal("Init returned nil logger")
	}
	if slog.Default() != lg {
		t.Error("Init did not install the logger as slog default")
	}
	ctx := context.Background()
	if lg.Enabled(ctx, slog.LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
	if !lg.Enabled(ctx, slog.LevelError) {
		t.Error("error should be enabled at warn level")
	}
}
