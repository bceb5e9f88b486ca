package domain

// Severity tiers, highest first.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

var severityRank = map[string]int{
	SeverityCritical: 4,
	SeverityHigh:     3,
	SeverityMedium:   2,
	SeverityLow:      1,
}

// SeverityRank returns the ordering weight for a severity tier.
// Unknown severities rank below low.
func SeverityRank(severity string) int {
	return severityRank[severity]
}

// CompareSeverity orders two severity tiers. The result is positive when a
// outranks b, negative when b outranks a, and zero when they tie.
func CompareSeverity(a, b string) int {
	return SeverityRank(a) - SeverityRank(b)
}
