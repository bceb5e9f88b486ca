package http_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	backendhttp "github.com/smartreview/detection/internal/adapter/backend/http"
)

func TestDefaultRetryConfig(t *testing.T) {
	config := backendhttp.DefaultRetryConfig()

	assert.Equal(t, 2, config.MaxRetries)
	assert.Equal(t, 1*time.Second, config.InitialBackoff)
	assert.Equal(t, 8*time.Second, config.MaxBackoff)
	assert.Equal(t, 2.0, config.Multiplier)
}

func TestBackoff(t *testing.T) {
	config := backendhttp.RetryConfig{
		MaxRetries:     2,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     8 * time.Second,
		Multiplier:     2.0,
	}

	tests := []struct {
		name    string
		attempt int
		minWait time.Duration
		maxWait time.Duration
	}{
		{"attempt 0", 0, 750 * time.Millisecond, 1250 * time.Millisecond}, // 1s ± 25%
		{"attempt 1", 1, 1500 * time.Millisecond, 2500 * time.Millisecond},
		{"attempt 2", 2, 3 * time.Second, 5 * time.Second},
		{"attempt 3", 3, 6 * time.Second, 8 * time.Second}, // capped
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Run multiple times to verify jitter stays in range
			for i := 0; i < 10; i++ {
				backoff := backendhttp.Backoff(tt.attempt, config)
				assert.GreaterOrEqual(t, backoff, tt.minWait, "backoff too short")
				assert.LessOrEqual(t, backoff, tt.maxWait, "backoff too long")
			}
		})
	}
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limit should retry", backendhttp.NewRateLimitError("bedrock", "throttled"), true},
		{"service unavailable should retry", backendhttp.NewServiceUnavailableError("bedrock", "overloaded"), true},
		{"timeout should retry", backendhttp.NewTimeoutError("bedrock", "timed out"), true},
		{"access denied should not retry", backendhttp.NewAccessDeniedError("bedrock", "forbidden"), false},
		{"invalid request should not retry", backendhttp.NewInvalidRequestError("bedrock", "bad request"), false},
		{"model not found should not retry", backendhttp.NewModelNotFoundError("bedrock", "no such model"), false},
		{"client error should not retry", backendhttp.NewClientError("bedrock", "marshal failed"), false},
		{"unclassified error should not retry", errors.New("generic error"), false},
		{"nil should not retry", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, backendhttp.ShouldRetry(tt.err))
		})
	}
}

func fastRetryConfig(maxRetries int) backendhttp.RetryConfig {
	return backendhttp.RetryConfig{
		MaxRetries:     maxRetries,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     4 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestRetryWithBackoffSucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := backendhttp.RetryWithBackoff(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return backendhttp.NewRateLimitError("bedrock", "throttled")
		}
		return nil
	}, fastRetryConfig(3))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoffStopsOnFatalError(t *testing.T) {
	calls := 0
	err := backendhttp.RetryWithBackoff(context.Background(), func(context.Context) error {
		calls++
		return backendhttp.NewAccessDeniedError("bedrock", "forbidden")
	}, fastRetryConfig(3))

	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var backendErr *backendhttp.Error
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, backendhttp.ErrTypeAccessDenied, backendErr.Type)
}

func TestRetryWithBackoffExhaustsRetries(t *testing.T) {
	calls := 0
	err := backendhttp.RetryWithBackoff(context.Background(), func(context.Context) error {
		calls++
		return backendhttp.NewServiceUnavailableError("bedrock", "down")
	}, fastRetryConfig(2))

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, backendhttp.ShouldRetry(err), "last error should keep its classification")
}

func TestRetryWithBackoffRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := backendhttp.RetryWithBackoff(ctx, func(context.Context) error {
		calls++
		cancel()
		return backendhttp.NewRateLimitError("bedrock", "throttled")
	}, fastRetryConfig(5))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetryWithBackoffCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := backendhttp.RetryWithBackoff(ctx, func(context.Context) error {
		calls++
		return nil
	}, fastRetryConfig(2))

	require.Error(t, err)
	assert.Zero(t, calls)
}
