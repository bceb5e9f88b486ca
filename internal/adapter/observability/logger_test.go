package observability

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	backendhttp "github.com/smartreview/detection/internal/adapter/backend/http"
)

func TestHumanFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, backendhttp.LogLevelInfo, backendhttp.LogFormatHuman)

	logger.Info("detection started", "files", 3, "model", "amazon.nova-lite-v1:0")

	out := buf.String()
	assert.Contains(t, out, "[INFO] detection started")
	assert.Contains(t, out, "files=3")
	assert.Contains(t, out, "model=amazon.nova-lite-v1:0")
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, backendhttp.LogLevelInfo, backendhttp.LogFormatJSON)

	logger.Warn("file analysis timed out", "file", "a.go", "elapsed", 2*time.Second, "error", fmt.Errorf("boom"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "file analysis timed out", entry["msg"])
	assert.Equal(t, "a.go", entry["file"])
	assert.Equal(t, "2s", entry["elapsed"])
	assert.Equal(t, "boom", entry["error"])
	assert.NotEmpty(t, entry["timestamp"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, backendhttp.LogLevelError, backendhttp.LogFormatHuman)

	logger.Debug("hidden")
	logger.Info("hidden too")
	assert.Empty(t, buf.String())

	// Warnings always pass through.
	logger.Warn("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestParseLevelAndFormat(t *testing.T) {
	assert.Equal(t, backendhttp.LogLevelDebug, ParseLevel("debug"))
	assert.Equal(t, backendhttp.LogLevelError, ParseLevel("error"))
	assert.Equal(t, backendhttp.LogLevelInfo, ParseLevel("info"))
	assert.Equal(t, backendhttp.LogLevelInfo, ParseLevel("whatever"))

	assert.Equal(t, backendhttp.LogFormatJSON, ParseFormat("json"))
	assert.Equal(t, backendhttp.LogFormatHuman, ParseFormat("human"))
	assert.Equal(t, backendhttp.LogFormatHuman, ParseFormat(""))
}
