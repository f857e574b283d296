package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestJSONLoggerCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	root := New(Config{Level: "info", Format: "json", Output: &buf})

	root.WithComponent("session").WithSession("s-1").Info("Session loaded", "rows", 3)

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "session", rec["component"])
	assert.Equal(t, "s-1", rec["session_id"])
	assert.Equal(t, float64(3), rec["rows"])
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Output: &buf})

	logger.Info("hidden")
	assert.Zero(t, buf.Len())

	logger.ErrorErr(context.Background(), "load failed", errors.New("boom"))
	assert.Contains(t, buf.String(), "error=boom")
}
