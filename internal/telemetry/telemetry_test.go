package telemetry

import (
	"context"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLoggerLevels(t *testing.T) {
	cases := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"", zapcore.InfoLevel},
		{"loud", zapcore.InfoLevel},
	}
	for _, tc := range cases {
		for _, format := range []string{"json", "console"} {
			log, err := NewLogger(tc.level, format)
			if err != nil {
				t.Fatalf("NewLogger(%q, %q): %v", tc.level, format, err)
			}
			if !log.Core().Enabled(tc.want) {
				t.Errorf("level %q/%s: %v should be enabled", tc.level, format, tc.want)
			}
			if tc.want > zapcore.DebugLevel && log.Core().Enabled(tc.want-1) {
				t.Errorf("level %q/%s: %v should be disabled", tc.level, format, tc.want-1)
			}
		}
	}
}

func TestTracingIsOptIn(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), "coop-dungeons", "")
	if err != nil {
		t.Fatalf("SetupTracing: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("noop shutdown: %v", err)
	}
}
