package discovery

import (
	"math"
)

// Baselines are the run-global numbers every factor is scored against.
type Baselines struct {
	TotalEvents     int
	FlareCount      int
	BaseOutcomeRate float64
}

func ComputeBaselines(totalEvents, flareCount int) Baselines {
	b := Baselines{TotalEvents: totalEvents, FlareCount: flareCount}
	if totalEvents > 0 {
		b.BaseOutcomeRate = float64(flareCount) / float64(totalEvents)
	}
	return b
}

// Scores is the confidence/lift/significance triple for one factor.
type Scores struct {
	Confidence float64
	Lift       float64
	PValue     float64
}

// Score computes the triple for one factor's statistics.
//
// Confidence is a Beta(1,1) posterior mean scaled by how far the factor's
// hit rate exceeds the background flare rate, so factors that merely match
// the baseline are suppressed. Lift is standard association-rule lift.
// The p-value is a cheap one-sided z-approximation of a binomial test, not
// an exact test. All division-by-zero cases return neutral values rather
// than erroring.
func Score(fs *FactorStats, base Baselines) Scores {
	return Scores{
		Confidence: confidence(fs, base),
		Lift:       lift(fs, base),
		PValue:     pValue(fs, base),
	}
}

func confidence(fs *FactorStats, base Baselines) float64 {
	alpha := 1.0 + float64(fs.OutcomeCount)
	beta := 1.0 + float64(fs.TotalAppearances-fs.OutcomeCount)
	posterior := alpha / (alpha + beta)

	if base.BaseOutcomeRate <= 0 {
		return math.Min(0.99, posterior)
	}
	liftOverBase := posterior / base.BaseOutcomeRate
	return math.Min(0.99, posterior*math.Min(liftOverBase, 3)/3)
}

func lift(fs *FactorStats, base Baselines) float64 {
	n := float64(base.TotalEvents)
	if n == 0 || fs.TotalAppearances == 0 || base.FlareCount == 0 {
		return 1
	}
	coOccurrence := float64(fs.OutcomeCount) / n
	expected := (float64(fs.TotalAppearances) / n) * (float64(base.FlareCount) / n)
	if expected == 0 {
		return 1
	}
	return coOccurrence / expected
}

func pValue(fs *FactorStats, base Baselines) float64 {
	expected := float64(fs.TotalAppearances) * base.BaseOutcomeRate
	variance := float64(fs.TotalAppearances) * base.BaseOutcomeRate * (1 - base.BaseOutcomeRate)
	if variance <= 0 {
		return 1
	}
	z := (float64(fs.OutcomeCount) - expected) / math.Sqrt(variance)
	p := 0.5 * math.Exp(-0.5*z*z)
	if p < 0.001 {
		return 0.001
	}
	if p > 1 {
		return 1
	}
	return p
}

// Interesting reports whether a factor clears the minimum evidence bar to
// become a new discovery.
func (c Config) Interesting(fs *FactorStats, s Scores) bool {
	if fs.TotalAppearances < c.MinOccurrences {
		return false
	}
	return s.Lift >= c.MinLift || s.Confidence >= c.MinConfidence
}
