package detect

import (
	"fmt"

	"github.com/smartreview/detection/internal/domain"
)

// FileContent is one source file submitted for analysis. When the caller has
// already optimized the content upstream it arrives in OptimizedContent and is
// used as-is; otherwise Content is optimized locally.
type FileContent struct {
	Path             string `json:"path"`
	Content          string `json:"content"`
	OptimizedContent string `json:"optimizedContent,omitempty"`
	Language         string `json:"language,omitempty"`
}

// Options carries per-request overrides for the analysis run.
type Options struct {
	// Categories restricts the run to a subset of issue categories. Empty
	// means all categories.
	Categories []string `json:"categories,omitempty"`

	// SeverityThreshold drops issues below the named severity. Empty means
	// no severity filtering.
	SeverityThreshold string `json:"severityThreshold,omitempty"`

	// MaxIssuesPerFile caps reported issues per file, keeping the highest
	// confidence ones. Zero means unlimited.
	MaxIssuesPerFile int `json:"maxIssuesPerFile,omitempty"`

	// ConfidenceThreshold overrides the configured minimum confidence when
	// positive.
	ConfidenceThreshold float64 `json:"confidenceThreshold,omitempty"`
}

// Request is a batch analysis request. SessionID ties the batch to the
// submitting session and AnalysisID to the analysis job; both are mandatory.
type Request struct {
	SessionID  string        `json:"sessionId"`
	AnalysisID string        `json:"analysisId"`
	RequestID  string        `json:"requestId,omitempty"`
	Repository string        `json:"repository,omitempty"`
	CommitSHA  string        `json:"commitSha,omitempty"`
	Files      []FileContent `json:"files"`
	Options    Options       `json:"options,omitempty"`
}

// Validate checks request integrity before any analysis work starts.
func (r *Request) Validate() error {
	if r.SessionID == "" || r.AnalysisID == "" {
		return fmt.Errorf("missing identifiers: sessionId and analysisId are required")
	}
	if len(r.Files) == 0 {
		return fmt.Errorf("request contains no files")
	}
	seen := make(map[string]struct{}, len(r.Files))
	for i, f := range r.Files {
		if f.Path == "" {
			return fmt.Errorf("file %d has an empty path", i)
		}
		if _, dup := seen[f.Path]; dup {
			return fmt.Errorf("duplicate file path %q", f.Path)
		}
		seen[f.Path] = struct{}{}
	}
	for _, c := range r.Options.Categories {
		if !domain.ValidCategory(c) {
			return fmt.Errorf("unknown category %q", c)
		}
	}
	if t := r.Options.SeverityThreshold; t != "" && domain.SeverityRank(t) == 0 {
		return fmt.Errorf("unknown severity threshold %q", t)
	}
	if r.Options.ConfidenceThreshold < 0 || r.Options.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence threshold %v out of range [0,1]", r.Options.ConfidenceThreshold)
	}
	return nil
}
