package http_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	backendhttp "github.com/smartreview/detection/internal/adapter/backend/http"
)

func TestErrorMessage(t *testing.T) {
	err := backendhttp.NewRateLimitError("bedrock", "too many requests")

	assert.Contains(t, err.Error(), "bedrock")
	assert.Contains(t, err.Error(), "too many requests")
	assert.Contains(t, err.Error(), "rate limit exceeded")
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       *backendhttp.Error
		wantType  backendhttp.ErrorType
		retryable bool
	}{
		{"access denied", backendhttp.NewAccessDeniedError("bedrock", "x"), backendhttp.ErrTypeAccessDenied, false},
		{"rate limit", backendhttp.NewRateLimitError("bedrock", "x"), backendhttp.ErrTypeRateLimit, true},
		{"service unavailable", backendhttp.NewServiceUnavailableError("bedrock", "x"), backendhttp.ErrTypeServiceUnavailable, true},
		{"invalid request", backendhttp.NewInvalidRequestError("bedrock", "x"), backendhttp.ErrTypeInvalidRequest, false},
		{"timeout", backendhttp.NewTimeoutError("bedrock", "x"), backendhttp.ErrTypeTimeout, true},
		{"model not found", backendhttp.NewModelNotFoundError("bedrock", "x"), backendhttp.ErrTypeModelNotFound, false},
		{"client", backendhttp.NewClientError("bedrock", "x"), backendhttp.ErrTypeClient, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.retryable, tt.err.IsRetryable())
			assert.Equal(t, "bedrock", tt.err.Backend)
		})
	}
}

func TestErrorsAsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("invocation failed: %w", backendhttp.NewTimeoutError("bedrock", "deadline"))

	var backendErr *backendhttp.Error
	require.True(t, errors.As(wrapped, &backendErr))
	assert.Equal(t, backendhttp.ErrTypeTimeout, backendErr.Type)
}

func TestErrorIsMatchesSameType(t *testing.T) {
	a := backendhttp.NewRateLimitError("bedrock", "first")
	b := backendhttp.NewRateLimitError("bedrock", "second")

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, backendhttp.NewTimeoutError("bedrock", "x")))
}

func TestErrorTypeString(t *testing.T) {
	assert.Equal(t, "rate limit exceeded", backendhttp.ErrTypeRateLimit.String())
	assert.Equal(t, "unknown error", backendhttp.ErrTypeUnknown.String())
}
