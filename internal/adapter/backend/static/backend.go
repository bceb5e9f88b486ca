// Package static provides a canned backend for offline runs and demos. It
// returns fixed issue blocks without contacting any model service.
package static

import (
	"context"
	"fmt"
	"strings"

	"github.com/smartreview/detection/internal/usecase/invoke"
)

// Backend generates a deterministic response built from the request prompt.
type Backend struct {
	// Response overrides the generated text when set.
	Response string
}

// NewBackend creates a static backend.
func NewBackend() *Backend {
	return &Backend{}
}

// Generate returns a canned issue block. Token counts are rough estimates so
// cost accounting still exercises the same code paths as a live backend.
func (b *Backend) Generate(_ context.Context, req invoke.GenerationRequest) (invoke.Generation, error) {
	text := b.Response
	if text == "" {
		text = cannedResponse(req.Prompt)
	}

	inputTokens := len(req.Prompt) / 4
	outputTokens := len(text) / 4
	return invoke.Generation{
		Text:         text,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		TotalTokens:  inputTokens + outputTokens,
		ModelID:      req.ModelID,
	}, nil
}

// cannedResponse tailors the fixed block to the analysis the prompt asks for,
// so sample output varies across categories.
func cannedResponse(prompt string) string {
	issueType, severity := "MISSING_ERROR_HANDLING", "medium"
	description := "Function ignores a returned error value. Failures will pass silently and surface later as corrupted state."
	switch {
	case strings.Contains(prompt, "security vulnerabilities"):
		issueType, severity = "HARDCODED_SECRET", "critical"
		description = "Hardcoded credential found in source. Anyone with repository access can read it, and rotation requires a code change."
	case strings.Contains(prompt, "performance issues"):
		issueType, severity = "INEFFICIENT_LOOP", "high"
		description = "Nested iteration over the same collection gives quadratic time. Large inputs will degrade sharply."
	case strings.Contains(prompt, "best practices"):
		issueType, severity = "RESOURCE_LEAK", "medium"
		description = "Opened resource is never closed on the error path. Handles will accumulate under repeated failures."
	}

	return fmt.Sprintf(`ISSUE_START
type: %s
severity: %s
line: 1
description: %s
code: (sample)
ISSUE_END
`, issueType, severity, description)
}
