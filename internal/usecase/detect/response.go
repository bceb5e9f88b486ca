package detect

import (
	"fmt"
	"strings"
	"time"

	"github.com/smartreview/detection/internal/domain"
)

// Summary aggregates run-level statistics for a completed analysis.
type Summary struct {
	TotalFiles       int            `json:"totalFiles"`
	FilesAnalyzed    int            `json:"filesAnalyzed"`
	FilesSkipped     int            `json:"filesSkipped"`
	TotalIssues      int            `json:"totalIssues"`
	IssuesBySeverity map[string]int `json:"issuesBySeverity"`
	IssuesByCategory map[string]int `json:"issuesByCategory"`
	TopIssues        []string       `json:"topIssues"`
	TotalTokens      int            `json:"totalTokens"`
	EstimatedCost    float64        `json:"estimatedCost"`
}

// Response is the result of a batch analysis run. A run that produced any
// result reports success; files that were skipped show up in the summary
// counts and as entries in Errors.
type Response struct {
	SessionID      string                   `json:"sessionId,omitempty"`
	AnalysisID     string                   `json:"analysisId,omitempty"`
	RequestID      string                   `json:"requestId,omitempty"`
	Status         string                   `json:"status"`
	Issues         []domain.Issue           `json:"issues"`
	Summary        Summary                  `json:"summary"`
	ProcessingTime map[string]time.Duration `json:"processingTime,omitempty"`
	StartedAt      time.Time                `json:"startedAt"`
	CompletedAt    time.Time                `json:"completedAt"`
	Errors         []string                 `json:"errors,omitempty"`
}

// Run status values. StatusError is reserved for runs with no usable result
// at all, such as a rejected request.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// errorResponse builds an error response carrying only the error message.
func errorResponse(req Request, start time.Time, err error) Response {
	return Response{
		SessionID:   req.SessionID,
		AnalysisID:  req.AnalysisID,
		RequestID:   req.RequestID,
		Status:      StatusError,
		Issues:      []domain.Issue{},
		StartedAt:   start,
		CompletedAt: time.Now(),
		Errors:      []string{err.Error()},
	}
}

// buildSummary computes aggregate statistics over consolidated issues.
func buildSummary(issues []domain.Issue, totalFiles, filesAnalyzed, totalTokens int, cost float64) Summary {
	bySeverity := make(map[string]int)
	byCategory := make(map[string]int)
	for _, issue := range issues {
		bySeverity[issue.Severity]++
		byCategory[issue.Category]++
	}
	return Summary{
		TotalFiles:       totalFiles,
		FilesAnalyzed:    filesAnalyzed,
		FilesSkipped:     totalFiles - filesAnalyzed,
		TotalIssues:      len(issues),
		IssuesBySeverity: bySeverity,
		IssuesByCategory: byCategory,
		TopIssues:        TopIssues(issues, topIssueCount),
		TotalTokens:      totalTokens,
		EstimatedCost:    cost,
	}
}

const topIssueCount = 5

// TopIssues renders one-line previews of the first n issues in consolidated
// order, formatted "SEVERITY: description (file:line)".
func TopIssues(issues []domain.Issue, n int) []string {
	if n > len(issues) {
		n = len(issues)
	}
	top := make([]string, 0, n)
	for _, issue := range issues[:n] {
		top = append(top, fmt.Sprintf("%s: %s (%s:%d)",
			strings.ToUpper(issue.Severity), issue.Description, issue.File, issue.Line))
	}
	return top
}
