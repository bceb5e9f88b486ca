// Package markdown renders detection responses into Markdown reports.
package markdown

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/smartreview/detection/internal/domain"
	"github.com/smartreview/detection/internal/usecase/detect"
)

type clock func() string

// Writer renders detection responses into Markdown files.
type Writer struct {
	now clock
}

// NewWriter constructs a Markdown writer with a timestamp supplier.
func NewWriter(now clock) *Writer {
	return &Writer{now: now}
}

// Write persists a Markdown report to disk and returns the file path.
func (w *Writer) Write(ctx context.Context, outputDir string, resp detect.Response) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	filename := fmt.Sprintf("detection_%s.md", w.now())
	if resp.RequestID != "" {
		filename = fmt.Sprintf("detection_%s_%s.md", sanitise(resp.RequestID), w.now())
	}
	path := filepath.Join(outputDir, filename)

	if err := os.WriteFile(path, []byte(buildContent(resp)), 0o644); err != nil {
		return "", fmt.Errorf("write markdown: %w", err)
	}

	return path, nil
}

func buildContent(resp detect.Response) string {
	var builder strings.Builder
	caser := cases.Title(language.English)

	builder.WriteString("# Issue Detection Report\n\n")
	builder.WriteString(fmt.Sprintf("- Status: %s\n", caser.String(resp.Status)))
	builder.WriteString(fmt.Sprintf("- Files analyzed: %d/%d\n", resp.Summary.FilesAnalyzed, resp.Summary.TotalFiles))
	builder.WriteString(fmt.Sprintf("- Issues found: %d\n", resp.Summary.TotalIssues))
	builder.WriteString(fmt.Sprintf("- Tokens used: %d\n", resp.Summary.TotalTokens))
	builder.WriteString(fmt.Sprintf("- Estimated cost: $%.6f\n\n", resp.Summary.EstimatedCost))

	if len(resp.Errors) > 0 {
		builder.WriteString("## Errors\n\n")
		for _, e := range resp.Errors {
			builder.WriteString(fmt.Sprintf("- %s\n", e))
		}
		builder.WriteString("\n")
		if resp.Status == detect.StatusError {
			return builder.String()
		}
	}

	if len(resp.Summary.TopIssues) > 0 {
		builder.WriteString("## Top Issues\n\n")
		for _, line := range resp.Summary.TopIssues {
			builder.WriteString(fmt.Sprintf("- %s\n", line))
		}
		builder.WriteString("\n")
	}

	if len(resp.Issues) == 0 {
		builder.WriteString("No issues detected.\n")
		return builder.String()
	}

	builder.WriteString("## Issues\n\n")
	for _, issue := range resp.Issues {
		writeIssue(&builder, caser, issue)
	}

	return builder.String()
}

func writeIssue(builder *strings.Builder, caser cases.Caser, issue domain.Issue) {
	builder.WriteString(fmt.Sprintf("### %s (%s)\n", issue.Type, caser.String(issue.Severity)))
	builder.WriteString(fmt.Sprintf("- File: %s:%d\n", issue.File, issue.Line))
	builder.WriteString(fmt.Sprintf("- Category: %s\n", issue.Category))
	builder.WriteString(fmt.Sprintf("- Confidence: %.2f\n", issue.Confidence))
	if issue.Description != "" {
		builder.WriteString(fmt.Sprintf("- Description: %s\n", issue.Description))
	}
	if issue.CodeSnippet != "" {
		builder.WriteString("\n```")
		builder.WriteString(issue.Language)
		builder.WriteString("\n")
		builder.WriteString(issue.CodeSnippet)
		builder.WriteString("\n```\n")
	}
	builder.WriteString("\n")
}

func sanitise(value string) string {
	if value == "" {
		return "unknown"
	}
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, string(filepath.Separator), "-")
	value = strings.ReplaceAll(value, " ", "-")
	return value
}
