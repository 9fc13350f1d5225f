package discovery

import (
	"fmt"
	"math"

	"github.com/lyrebird-health/flarelog-backend/internal/types"
)

// Classify maps the current evidence onto a lifecycle status. There are no
// stored transition edges: the status is a pure function of the fresh
// (confidence, appearances, p-value) triple, checked in this order.
func (c Config) Classify(confidence float64, appearances int, pValue float64) string {
	switch {
	case confidence >= c.StrongConfidence && appearances >= c.StrongOccurrences && pValue < c.StrongPValue:
		return types.DiscoveryStatusStrong
	case confidence >= c.ConfirmedConfidence && appearances >= c.ConfirmedOccurrences && pValue < c.ConfirmedPValue:
		return types.DiscoveryStatusConfirmed
	case confidence >= c.InvestigatingConfidence && appearances >= c.InvestigatingOccurrence:
		return types.DiscoveryStatusInvestigating
	case confidence < c.DisprovenConfidence && appearances >= c.DisprovenOccurrences:
		return types.DiscoveryStatusDisproven
	case confidence < c.DecliningConfidence && appearances >= c.DecliningOccurrences:
		return types.DiscoveryStatusDeclining
	default:
		return types.DiscoveryStatusEmerging
	}
}

// Relationship derives the direction of the association. Medications with
// clearly sub-baseline lift read as protective.
func Relationship(category string, lift float64) string {
	if category == types.CategoryMedication && lift < 0.8 {
		return types.RelationshipDecreasesRisk
	}
	if lift > 1.2 {
		return types.RelationshipIncreasesRisk
	}
	return types.RelationshipCorrelatesWith
}

// DiscoveryTypeFor picks the record type shown to the user.
func DiscoveryTypeFor(category, relationship string) string {
	switch {
	case category == types.CategoryPattern:
		return types.DiscoveryTypePattern
	case relationship == types.RelationshipDecreasesRisk:
		return types.DiscoveryTypeProtectiveFactor
	case relationship == types.RelationshipIncreasesRisk:
		return types.DiscoveryTypeTrigger
	default:
		return types.DiscoveryTypeCorrelation
	}
}

// EvidenceSummary renders the deterministic human-readable explanation of
// one factor's evidence.
func EvidenceSummary(fs *FactorStats, s Scores) string {
	pct := 0
	if fs.TotalAppearances > 0 {
		pct = int(math.Round(100 * float64(fs.OutcomeCount) / float64(fs.TotalAppearances)))
	}
	summary := fmt.Sprintf("%d out of %d times (%d%%) this occurred, a flare followed.",
		fs.OutcomeCount, fs.TotalAppearances, pct)

	if avg := fs.AvgDelayHours(); avg != nil && *avg > 0.5 {
		summary += " Typically " + formatDelay(*avg) + " later."
	}
	if s.Lift > 1.5 {
		summary += fmt.Sprintf(" That is %.1fx the baseline rate.", s.Lift)
	}
	if s.PValue < 0.05 {
		summary += fmt.Sprintf(" Statistically significant (p=%.3f).", s.PValue)
	}
	return summary
}

func formatDelay(hours float64) string {
	if hours < 1 {
		return fmt.Sprintf("%d minutes", int(math.Round(hours*60)))
	}
	return fmt.Sprintf("%.1f hours", hours)
}
