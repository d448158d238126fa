package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONCarriesService(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "debug", Format: "json", Output: &buf, Service: "generactl"})
	require.NoError(t, err)

	logger.Debug("transition", "k", 3)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "transition", record["msg"])
	assert.Equal(t, "generactl", record["service"])
	assert.Equal(t, 3.0, record["k"])
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "warn", Output: &buf})
	require.NoError(t, err)

	logger.Info("hidden")
	assert.Empty(t, buf.String())
	logger.Warn("shown")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{"": slog.LevelInfo, "DEBUG": slog.LevelDebug, "warning": slog.LevelWarn, "error": slog.LevelError} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("verbose")
	require.Error(t, err)

	_, err = New(Config{Format: "xml"})
	require.Error(t, err)
}
