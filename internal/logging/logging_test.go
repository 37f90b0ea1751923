package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"info", slog.LevelInfo},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestSetup_ConsoleOnly(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := Setup(Options{Level: "warn", Output: &buf})
	require.NoError(t, err)
	defer cleanup()

	logger.Info("hidden")
	logger.Warn("table lock not acquired", "table_id", "t1")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "table lock not acquired")
	assert.Contains(t, out, "table_id=t1")
}

func TestSetup_BadLevel(t *testing.T) {
	_, _, err := Setup(Options{Level: "chatty"})
	assert.Error(t, err)
}

// recordingHandler keeps the messages it handles.
type recordingHandler struct {
	level slog.Level
	msgs  *[]string
}

func (h recordingHandler) Enabled(_ context.Context, l slog.Level) bool { return l >= h.level }
func (h recordingHandler) Handle(_ context.Context, r slog.Record) error {
	*h.msgs = append(*h.msgs, r.Message)
	return nil
}
func (h recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h recordingHandler) WithGroup(string) slog.Handler      { return h }

func TestMultiHandler_RespectsEachLevel(t *testing.T) {
	var debug, errs []string
	m := &multiHandler{handlers: []slog.Handler{
		recordingHandler{level: slog.LevelDebug, msgs: &debug},
		recordingHandler{level: slog.LevelError, msgs: &errs},
	}}
	logger := slog.New(m).With("component", "test")

	logger.Debug("detail")
	logger.Error("failure")

	assert.Equal(t, []string{"detail", "failure"}, debug)
	assert.Equal(t, []string{"failure"}, errs)
}
