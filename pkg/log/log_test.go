package log

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want slog.Level
	}{
		{name: "debug", want: slog.LevelDebug},
		{name: "info", want: slog.LevelInfo},
		{name: "warning", want: slog.LevelWarn},
		{name: "WARN", want: slog.LevelWarn},
		{name: "error", want: slog.LevelError},
		{name: "critical", want: LevelCritical},
		{name: "verbose", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.name))
		})
	}
}

func TestLevelName(t *testing.T) {
	for _, name := range []string{"debug", "info", "warning", "error", "critical"} {
		assert.Equal(t, name, LevelName(ParseLevel(name)))
	}
}

func TestNewHandler_CriticalLabel(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(NewHandler(&buf, slog.LevelInfo))
	logger.Log(context.Background(), LevelCritical, "brakes failing")

	assert.Contains(t, buf.String(), "level=CRITICAL")
	assert.Contains(t, buf.String(), `msg="brakes failing"`)
}
