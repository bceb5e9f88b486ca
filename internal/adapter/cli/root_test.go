package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartreview/detection/internal/adapter/store/sqlite"
	"github.com/smartreview/detection/internal/domain"
	"github.com/smartreview/detection/internal/usecase/detect"
)

type stubDetector struct {
	resp    detect.Response
	lastReq detect.Request
	hadCtx  bool
}

func (s *stubDetector) Detect(ctx context.Context, req detect.Request) detect.Response {
	s.lastReq = req
	_, s.hadCtx = ctx.Deadline()
	resp := s.resp
	resp.RequestID = req.RequestID
	return resp
}

type stubWriter struct {
	written []detect.Response
}

func (s *stubWriter) Write(_ context.Context, outputDir string, resp detect.Response) (string, error) {
	s.written = append(s.written, resp)
	return filepath.Join(outputDir, "report.json"), nil
}

func writeRequestFile(t *testing.T, req detect.Request) string {
	t.Helper()
	data, err := json.Marshal(req)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "request.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func sampleRequest() detect.Request {
	return detect.Request{
		SessionID:  "sess-1",
		AnalysisID: "an-1",
		RequestID:  "req-1",
		Files:      []detect.FileContent{{Path: "a.go", Content: "package main", Language: "go"}},
	}
}

func completedResponse() detect.Response {
	return detect.Response{
		Status: detect.StatusSuccess,
		Summary: detect.Summary{
			TotalFiles:    1,
			FilesAnalyzed: 1,
			TotalIssues:   1,
			TopIssues:     []string{"HIGH: something (a.go:1)"},
		},
		Issues: []domain.Issue{{Type: "X"}},
	}
}

func execute(t *testing.T, deps Dependencies, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	deps.Args = Arguments{OutWriter: &out, ErrWriter: &out}
	root := NewRootCommand(deps)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRunCommand(t *testing.T) {
	detector := &stubDetector{resp: completedResponse()}
	writer := &stubWriter{}
	path := writeRequestFile(t, sampleRequest())

	out, err := execute(t, Dependencies{
		Detector:      detector,
		Writers:       []ResponseWriter{writer},
		DefaultOutput: "out",
	}, "run", "--input", path)
	require.NoError(t, err)

	assert.Equal(t, "req-1", detector.lastReq.RequestID)
	require.Len(t, writer.written, 1)
	assert.Contains(t, out, "report written to")
	assert.Contains(t, out, "status: success")
	assert.Contains(t, out, "files analyzed: 1/1")
	assert.Contains(t, out, "HIGH: something")
}

func TestRunCommandFlagOverrides(t *testing.T) {
	detector := &stubDetector{resp: completedResponse()}
	path := writeRequestFile(t, sampleRequest())

	_, err := execute(t, Dependencies{Detector: detector},
		"run", "--input", path,
		"--request-id", "override",
		"--categories", "security,quality",
		"--severity-threshold", "high",
		"--max-issues-per-file", "3",
		"--deadline", "5m")
	require.NoError(t, err)

	assert.Equal(t, "override", detector.lastReq.RequestID)
	assert.Equal(t, []string{"security", "quality"}, detector.lastReq.Options.Categories)
	assert.Equal(t, "high", detector.lastReq.Options.SeverityThreshold)
	assert.Equal(t, 3, detector.lastReq.Options.MaxIssuesPerFile)
	assert.True(t, detector.hadCtx, "deadline flag should set a context deadline")
}

func TestRunCommandFailedDetection(t *testing.T) {
	detector := &stubDetector{resp: detect.Response{
		Status: detect.StatusError,
		Errors: []string{"invalid request: request contains no files"},
	}}
	path := writeRequestFile(t, sampleRequest())

	_, err := execute(t, Dependencies{Detector: detector}, "run", "--input", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "detection failed")
}

func TestRunCommandMissingInput(t *testing.T) {
	_, err := execute(t, Dependencies{Detector: &stubDetector{}}, "run")
	require.Error(t, err)
}

func TestRunCommandBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, err := execute(t, Dependencies{Detector: &stubDetector{}}, "run", "--input", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse request")
}

func TestVersionFlag(t *testing.T) {
	out, err := execute(t, Dependencies{Version: "v1.2.3"}, "--version")
	require.ErrorIs(t, err, ErrVersionRequested)
	assert.Contains(t, out, "v1.2.3")
}

type stubHistory struct {
	runs []sqlite.RunRecord
	err  error
}

func (s *stubHistory) RecentRuns(context.Context, int) ([]sqlite.RunRecord, error) {
	return s.runs, s.err
}

func TestHistoryCommand(t *testing.T) {
	history := &stubHistory{runs: []sqlite.RunRecord{
		{
			RunID:         "r1",
			RequestID:     "req-9",
			Status:        detect.StatusSuccess,
			TotalFiles:    4,
			FilesAnalyzed: 4,
			TotalIssues:   2,
			TotalTokens:   800,
			StartedAt:     time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
		},
	}}

	out, err := execute(t, Dependencies{History: history}, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "req-9")
	assert.Contains(t, out, "files=4/4")
	assert.Contains(t, out, "issues=2")
}

func TestHistoryCommandEmpty(t *testing.T) {
	out, err := execute(t, Dependencies{History: &stubHistory{}}, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "no runs recorded")
}

func TestHistoryCommandNoStore(t *testing.T) {
	_, err := execute(t, Dependencies{}, "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not enabled")
}

func TestHistoryCommandError(t *testing.T) {
	_, err := execute(t, Dependencies{History: &stubHistory{err: fmt.Errorf("db locked")}}, "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db locked")
}
