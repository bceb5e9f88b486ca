package http

// Pricing calculates API costs based on token usage.
type Pricing interface {
	// GetCost calculates cost in USD for a given model and total token usage
	GetCost(modelID string, totalTokens int) float64
}

// DefaultPricing provides cost calculation from a static price-per-million
// table keyed by model identifier. Unknown models cost zero.
type DefaultPricing struct {
	perMillion map[string]float64
}

// NewDefaultPricing creates a pricing calculator with current rates.
func NewDefaultPricing() *DefaultPricing {
	return &DefaultPricing{
		perMillion: buildPricingTable(),
	}
}

// GetCost calculates the cost for a given invocation.
func (p *DefaultPricing) GetCost(modelID string, totalTokens int) float64 {
	rate, ok := p.perMillion[modelID]
	if !ok {
		return 0.0
	}
	return float64(totalTokens) / 1_000_000.0 * rate
}

// buildPricingTable returns price-per-million-tokens for the supported models.
// Source: https://aws.amazon.com/bedrock/pricing/
func buildPricingTable() map[string]float64 {
	return map[string]float64{
		"amazon.nova-micro-v1:0": 0.0075,
		"amazon.nova-lite-v1:0":  0.015,
		"amazon.nova-pro-v1:0":   0.80,
	}
}
