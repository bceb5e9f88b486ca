package json

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartreview/detection/internal/domain"
	"github.com/smartreview/detection/internal/usecase/detect"
)

func fixedClock() string { return "20260831T120000" }

func TestWriteRoundTrips(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(fixedClock)

	resp := detect.Response{
		RequestID: "req-7",
		Status:    detect.StatusSuccess,
		Issues: []domain.Issue{
			{ID: "id-1", Type: "X", Category: domain.CategoryQuality, Severity: "low", File: "a.go", Line: 3},
		},
		Summary: detect.Summary{TotalFiles: 1, FilesAnalyzed: 1, TotalIssues: 1},
	}

	path, err := w.Write(context.Background(), dir, resp)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "detection-req-7-20260831T120000.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded detect.Response
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "req-7", decoded.RequestID)
	require.Len(t, decoded.Issues, 1)
	assert.Equal(t, "a.go", decoded.Issues[0].File)
}

func TestWriteToStream(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(fixedClock)

	err := w.WriteTo(&buf, detect.Response{Status: detect.StatusSuccess})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"status": "success"`)
}

func TestWriteSanitisesRequestID(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(fixedClock)

	resp := detect.Response{RequestID: "Req 7/../escape", Status: detect.StatusSuccess}
	path, err := w.Write(context.Background(), dir, resp)
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	assert.NotContains(t, filepath.Base(path), " ")
	assert.Contains(t, filepath.Base(path), "req-7")
}

func TestWriteUnnamedRequest(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(fixedClock)

	path, err := w.Write(context.Background(), dir, detect.Response{Status: detect.StatusSuccess})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "detection-20260831T120000.json"), path)
}
