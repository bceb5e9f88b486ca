package detect

import (
	"strconv"
	"strings"

	"github.com/smartreview/detection/internal/domain"
)

const (
	issueStartMarker = "ISSUE_START"
	issueEndMarker   = "ISSUE_END"

	baseConfidence = 0.8
	lineBonus      = 0.05
)

var severityBonus = map[string]float64{
	domain.SeverityCritical: 0.15,
	domain.SeverityHigh:     0.10,
	domain.SeverityMedium:   0.05,
}

// ParseIssues extracts issues from a model response. The response is split on
// ISSUE_START markers; each block must reach an ISSUE_END marker and carry at
// least a type, a severity, and a usable line number, or it is discarded.
// Every structurally valid issue is emitted with its computed confidence;
// confidence filtering is the caller's decision.
func ParseIssues(response string, file FileContent, category string) []domain.Issue {
	var issues []domain.Issue

	for _, block := range strings.Split(response, issueStartMarker) {
		if !strings.Contains(block, issueEndMarker) {
			continue
		}
		if issue, ok := parseIssueBlock(block, file, category); ok {
			issues = append(issues, issue)
		}
	}

	return issues
}

// parseIssueBlock reads the key/value lines of one issue block. Values may
// themselves contain colons; only the first colon on a line separates the key.
func parseIssueBlock(block string, file FileContent, category string) (domain.Issue, bool) {
	fields := make(map[string]string)
	for _, line := range strings.Split(block, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		fields[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	if fields["type"] == "" || fields["severity"] == "" {
		return domain.Issue{}, false
	}

	lineNumber := parseLineNumber(fields["line"])
	if lineNumber <= 0 {
		return domain.Issue{}, false
	}

	return domain.NewIssue(domain.IssueInput{
		Type:        fields["type"],
		Category:    category,
		Severity:    fields["severity"],
		Confidence:  calculateConfidence(fields),
		File:        file.Path,
		Line:        lineNumber,
		Description: fields["description"],
		CodeSnippet: fields["code"],
		Language:    file.Language,
	}), true
}

// calculateConfidence scores an issue from a base of 0.8 with a severity bonus
// and a small bonus for citing a concrete line, clamped to 1.0.
func calculateConfidence(fields map[string]string) float64 {
	confidence := baseConfidence
	confidence += severityBonus[fields["severity"]]
	if line, ok := fields["line"]; ok && line != "0" {
		confidence += lineBonus
	}
	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}

// parseLineNumber accepts plain numbers and ranges like "12-20", resolving a
// range to its first line. Missing, zero, or unparseable values map to -1.
func parseLineNumber(raw string) int {
	if raw == "" || raw == "0" {
		return -1
	}
	if start, _, found := strings.Cut(raw, "-"); found {
		raw = start
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return n
}
