package discovery

import (
	"github.com/google/uuid"

	"github.com/lyrebird-health/flarelog-backend/internal/types"
)

// FactorStats is the per-factor fold of the observation stream for one run.
// Invariant: OutcomeCount <= TotalAppearances.
type FactorStats struct {
	Category string
	FactorA  string
	FactorB  string

	TotalAppearances      int
	OutcomeCount          int
	SevereOrModerateCount int
	OutcomeEventIDs       []uuid.UUID
	DelaySamples          []float64
}

// Aggregate folds observations into one FactorStats per factor key. The fold
// is associative and commutative: observation order never changes the result
// apart from which outcome ids survive the cap, and those are taken earliest
// first from the chronologically ordered stream.
func Aggregate(observations []Observation, maxSupportingEvents int) map[string]*FactorStats {
	stats := make(map[string]*FactorStats)
	for _, ob := range observations {
		fs, ok := stats[ob.FactorKey]
		if !ok {
			fs = &FactorStats{
				Category: ob.Category,
				FactorA:  ob.FactorA,
				FactorB:  ob.FactorB,
			}
			stats[ob.FactorKey] = fs
		}

		fs.TotalAppearances++
		if ob.HadOutcome {
			fs.OutcomeCount++
			if ob.OutcomeEventID != uuid.Nil && len(fs.OutcomeEventIDs) < maxSupportingEvents {
				fs.OutcomeEventIDs = append(fs.OutcomeEventIDs, ob.OutcomeEventID)
			}
			if ob.DelayHours > 0 {
				fs.DelaySamples = append(fs.DelaySamples, ob.DelayHours)
			}
		}
		if ob.Severity == types.SeverityModerate || ob.Severity == types.SeveritySevere {
			fs.SevereOrModerateCount++
		}
	}
	return stats
}

// AvgDelayHours is the mean of the recorded delays, nil when none exist.
func (fs *FactorStats) AvgDelayHours() *float64 {
	if len(fs.DelaySamples) == 0 {
		return nil
	}
	var sum float64
	for _, d := range fs.DelaySamples {
		sum += d
	}
	avg := sum / float64(len(fs.DelaySamples))
	return &avg
}
