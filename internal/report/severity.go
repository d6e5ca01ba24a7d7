package report

import "strings"

// Tier is the three-level display classification of a free-form severity.
type Tier string

// Display tiers.
const (
	TierA Tier = Tier("A")
	TierB Tier = Tier("B")
	TierC Tier = Tier("C")
)

var tierAMarkers = []string{"critical", "high"}

const tierBMarker = "medium"

// ClassifySeverity maps a severity string to a tier by case-insensitive substring match.
// Every input maps to a tier; unmatched values fall into TierC.
func ClassifySeverity(rawSeverity string) Tier {
	normalizedSeverity := strings.ToLower(rawSeverity)
	for _, marker := range tierAMarkers {
		if strings.Contains(normalizedSeverity, marker) {
			return TierA
		}
	}
	if strings.Contains(normalizedSeverity, tierBMarker) {
		return TierB
	}
	return TierC
}

// CountByTier tallies findings per tier.
func CountByTier(findings []VulnerabilityFinding) map[Tier]int {
	counts := map[Tier]int{TierA: 0, TierB: 0, TierC: 0}
	for _, finding := range findings {
		counts[finding.Tier()]++
	}
	return counts
}
