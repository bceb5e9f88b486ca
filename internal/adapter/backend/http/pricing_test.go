package http_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	backendhttp "github.com/smartreview/detection/internal/adapter/backend/http"
)

func TestGetCost(t *testing.T) {
	pricing := backendhttp.NewDefaultPricing()

	tests := []struct {
		name    string
		modelID string
		tokens  int
		want    float64
	}{
		{"nova micro", "amazon.nova-micro-v1:0", 1_000_000, 0.0075},
		{"nova lite", "amazon.nova-lite-v1:0", 1_000_000, 0.015},
		{"nova pro", "amazon.nova-pro-v1:0", 1_000_000, 0.80},
		{"nova lite partial", "amazon.nova-lite-v1:0", 4000, 0.015 * 4000 / 1_000_000},
		{"zero tokens", "amazon.nova-lite-v1:0", 0, 0},
		{"unknown model", "some.other-model", 1_000_000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, pricing.GetCost(tt.modelID, tt.tokens), 1e-12)
		})
	}
}
