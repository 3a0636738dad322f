package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New("info", FormatJSON, &buf)

	log.Debug("hidden")
	log.Info("shown", slog.String("room_code", "ABC123"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "ABC123", entry["room_code"])
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	New("debug", "TEXT", &buf).Debug("hello", slog.Int("n", 1))
	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "n=1")
}
