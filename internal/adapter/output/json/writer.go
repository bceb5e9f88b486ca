// Package json writes detection responses as JSON artifacts.
package json

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/smartreview/detection/internal/usecase/detect"
)

// Writer persists detection responses to disk as JSON files.
type Writer struct {
	now func() string
}

// NewWriter creates a new JSON writer with a timestamp supplier.
func NewWriter(now func() string) *Writer {
	return &Writer{now: now}
}

// Write persists a response under outputDir and returns the file path.
func (w *Writer) Write(ctx context.Context, outputDir string, resp detect.Response) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	name := fmt.Sprintf("detection-%s.json", w.now())
	if resp.RequestID != "" {
		name = fmt.Sprintf("detection-%s-%s.json", sanitise(resp.RequestID), w.now())
	}
	filePath := filepath.Join(outputDir, name)

	file, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create json file: %w", err)
	}
	defer file.Close()

	if err := encode(file, resp); err != nil {
		return "", err
	}
	return filePath, nil
}

// WriteTo streams a response to an arbitrary writer, e.g. stdout.
func (w *Writer) WriteTo(out io.Writer, resp detect.Response) error {
	return encode(out, resp)
}

// sanitise makes a request ID safe for use in a filename.
func sanitise(value string) string {
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, string(filepath.Separator), "-")
	value = strings.ReplaceAll(value, " ", "-")
	return value
}

func encode(out io.Writer, resp detect.Response) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(resp); err != nil {
		return fmt.Errorf("failed to encode response to json: %w", err)
	}
	return nil
}
