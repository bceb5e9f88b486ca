package domain

import "github.com/google/uuid"

// Analysis categories applied to each file.
const (
	CategorySecurity      = "security"
	CategoryPerformance   = "performance"
	CategoryQuality       = "quality"
	CategoryBestPractices = "best-practices"
)

// Categories lists every analysis category in canonical order.
func Categories() []string {
	return []string{CategorySecurity, CategoryPerformance, CategoryQuality, CategoryBestPractices}
}

// ValidCategory reports whether name is a known analysis category.
func ValidCategory(name string) bool {
	for _, c := range Categories() {
		if c == name {
			return true
		}
	}
	return false
}

// Issue represents a single defect detected in a source file.
// Issues are immutable once created.
type Issue struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Category    string  `json:"category"`
	Severity    string  `json:"severity"`
	Confidence  float64 `json:"confidence"`
	File        string  `json:"file"`
	Line        int     `json:"line"`
	Description string  `json:"description"`
	CodeSnippet string  `json:"codeSnippet"`
	Language    string  `json:"language"`
}

// IssueInput captures the information required to create an Issue.
type IssueInput struct {
	Type        string
	Category    string
	Severity    string
	Confidence  float64
	File        string
	Line        int
	Description string
	CodeSnippet string
	Language    string
}

// NewIssue constructs an Issue with a generated unique ID.
func NewIssue(input IssueInput) Issue {
	return Issue{
		ID:          uuid.NewString(),
		Type:        input.Type,
		Category:    input.Category,
		Severity:    input.Severity,
		Confidence:  input.Confidence,
		File:        input.File,
		Line:        input.Line,
		Description: input.Description,
		CodeSnippet: input.CodeSnippet,
		Language:    input.Language,
	}
}

// DedupeKey identifies duplicate detections of the same defect across
// categories. At most one issue per key survives consolidation.
type DedupeKey struct {
	File string
	Line int
	Type string
}

// Key returns the deduplication key for the issue.
func (i Issue) Key() DedupeKey {
	return DedupeKey{File: i.File, Line: i.Line, Type: i.Type}
}
