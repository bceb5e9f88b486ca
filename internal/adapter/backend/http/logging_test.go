package http_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	backendhttp "github.com/smartreview/detection/internal/adapter/backend/http"
)

func TestTruncateForLogging(t *testing.T) {
	short := "ISSUE_START\ntype: X\nISSUE_END"
	assert.Equal(t, short, backendhttp.TruncateForLogging(short))

	long := strings.Repeat("a", 500)
	truncated := backendhttp.TruncateForLogging(long)
	assert.Contains(t, truncated, "truncated")
	assert.Contains(t, truncated, "500 bytes")
	assert.Less(t, len(truncated), len(long))
}

func TestRedactURLSecrets(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "key parameter",
			in:   "request to https://api.example.com/v1?key=sk-secret123 failed",
			want: "request to https://api.example.com/v1?key=[REDACTED] failed",
		},
		{
			name: "access token",
			in:   "url: https://svc/path?access_token=abc123&x=1",
			want: "url: https://svc/path?access_token=[REDACTED]&x=1",
		},
		{
			name: "no secrets",
			in:   "plain error message",
			want: "plain error message",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, backendhttp.RedactURLSecrets(tt.in))
		})
	}
}

func TestRedactAPIKey(t *testing.T) {
	logger := backendhttp.NewDefaultLogger(backendhttp.LogLevelInfo, backendhttp.LogFormatHuman, true)

	assert.Equal(t, "[REDACTED-5678]", logger.RedactAPIKey("sk-12345678"))
	assert.Equal(t, "[REDACTED]", logger.RedactAPIKey("abc"))

	passthrough := backendhttp.NewDefaultLogger(backendhttp.LogLevelInfo, backendhttp.LogFormatHuman, false)
	assert.Equal(t, "sk-12345678", passthrough.RedactAPIKey("sk-12345678"))
}
