package discovery

import (
	"math"
	"sort"
	"time"

	"github.com/lyrebird-health/flarelog-backend/internal/logger"
	"github.com/lyrebird-health/flarelog-backend/internal/types"
)

// Engine runs one deep analysis over a user's event history: extract →
// aggregate → score → classify → rank. It is pure computation; persistence
// happens in the service layer afterwards, so cancelling a run mid-flight
// leaves no partial state.
type Engine struct {
	cfg       Config
	log       *logger.Logger
	extractor *Extractor
}

func NewEngine(cfg Config, baseLog *logger.Logger, foods FoodExtractor) *Engine {
	return &Engine{
		cfg:       cfg,
		log:       baseLog.With("component", "DiscoveryEngine"),
		extractor: NewExtractor(cfg, foods),
	}
}

func (e *Engine) Config() Config {
	return e.cfg
}

// RunResult is the outcome of one analysis run before persistence.
type RunResult struct {
	TotalAnalyzed    int
	Candidates       []*types.Discovery
	InsufficientData bool
	Message          string
}

// Analyze computes the run's discovery candidates. tracked holds the
// identity keys of discoveries already persisted for this user: those are
// always re-scored even when they no longer clear the interestingness bar,
// so decayed factors get reclassified (declining, disproven) instead of
// freezing at their old status.
func (e *Engine) Analyze(events []*types.Event, loc *time.Location, tracked map[string]bool) *RunResult {
	if len(events) < e.cfg.MinEventsForAnalysis {
		return &RunResult{
			TotalAnalyzed:    len(events),
			InsufficientData: true,
			Message:          "Not enough events to analyze yet. Keep logging and check back soon.",
		}
	}

	flareCount := 0
	for _, ev := range events {
		if ev != nil && ev.IsFlare() {
			flareCount++
		}
	}
	base := ComputeBaselines(len(events), flareCount)

	observations := e.extractor.Extract(events, loc)
	stats := Aggregate(observations, e.cfg.MaxSupportingEvents)

	now := time.Now().UTC()
	var candidates []*types.Discovery
	for _, fs := range stats {
		scores := Score(fs, base)

		d := &types.Discovery{
			Category: fs.Category,
			FactorA:  fs.FactorA,
			FactorB:  fs.FactorB,
		}
		if !e.cfg.Interesting(fs, scores) && !tracked[d.IdentityKey()] {
			continue
		}

		status := e.cfg.Classify(scores.Confidence, fs.TotalAppearances, scores.PValue)
		relationship := Relationship(fs.Category, scores.Lift)

		d.DiscoveryType = DiscoveryTypeFor(fs.Category, relationship)
		d.Relationship = relationship
		d.OccurrenceCount = fs.OutcomeCount
		d.TotalExposures = fs.TotalAppearances
		d.Confidence = scores.Confidence
		d.Lift = scores.Lift
		d.AvgDelayHours = fs.AvgDelayHours()
		d.PValue = scores.PValue
		d.SupportingEventIDs = fs.OutcomeEventIDs
		d.EvidenceSummary = EvidenceSummary(fs, scores)
		d.Status = status
		d.LastEvidenceAt = now
		candidates = append(candidates, d)
	}

	// Rank by confidence weighted by positive lift; the identity tiebreak
	// keeps re-runs on identical data deterministic.
	sort.Slice(candidates, func(i, j int) bool {
		si := candidates[i].Confidence * math.Max(candidates[i].Lift, 1)
		sj := candidates[j].Confidence * math.Max(candidates[j].Lift, 1)
		if si != sj {
			return si > sj
		}
		return candidates[i].IdentityKey() < candidates[j].IdentityKey()
	})
	if len(candidates) > e.cfg.MaxPersistedPerRun {
		candidates = candidates[:e.cfg.MaxPersistedPerRun]
	}

	e.log.Debug("analysis computed",
		"events", len(events),
		"flares", flareCount,
		"factors", len(stats),
		"candidates", len(candidates))

	return &RunResult{
		TotalAnalyzed: len(events),
		Candidates:    candidates,
	}
}
