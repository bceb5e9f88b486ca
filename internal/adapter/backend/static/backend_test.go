package static

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartreview/detection/internal/usecase/detect"
	"github.com/smartreview/detection/internal/usecase/invoke"
)

func TestGenerateProducesParseableIssues(t *testing.T) {
	b := NewBackend()

	prompts := map[string]string{
		"security":       "Analyze this go code for security vulnerabilities. Focus on: ...",
		"performance":    "Analyze this go code for performance issues. Focus on: ...",
		"quality":        "Analyze this go code for quality issues. Focus on: ...",
		"best-practices": "Analyze this go code for violations of language-specific best practices. Focus on: ...",
	}

	for category, prompt := range prompts {
		t.Run(category, func(t *testing.T) {
			gen, err := b.Generate(context.Background(), invoke.GenerationRequest{
				ModelID: "amazon.nova-lite-v1:0",
				Prompt:  prompt,
			})
			require.NoError(t, err)
			assert.Positive(t, gen.TotalTokens)

			issues := detect.ParseIssues(gen.Text, detect.FileContent{Path: "a.go", Language: "go"}, category)
			require.Len(t, issues, 1)
			assert.Equal(t, category, issues[0].Category)
		})
	}
}

func TestGenerateOverrideResponse(t *testing.T) {
	b := &Backend{Response: "custom text"}

	gen, err := b.Generate(context.Background(), invoke.GenerationRequest{Prompt: "anything"})
	require.NoError(t, err)
	assert.Equal(t, "custom text", gen.Text)
}
