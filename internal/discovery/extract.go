package discovery

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lyrebird-health/flarelog-backend/internal/types"
)

// Observation is one sighting of a factor on one event, tagged with whether
// a flare followed inside the lookahead window. Duplicates across events are
// expected; the aggregator folds them.
type Observation struct {
	FactorKey      string
	Category       string
	FactorA        string
	FactorB        string
	HadOutcome     bool
	Severity       string
	DelayHours     float64
	OutcomeEventID uuid.UUID
}

// Extractor converts a user's event history into factor observations.
type Extractor struct {
	cfg   Config
	foods FoodExtractor
}

func NewExtractor(cfg Config, foods FoodExtractor) *Extractor {
	if foods == nil {
		foods = NewPhraseFoodExtractor()
	}
	return &Extractor{cfg: cfg, foods: foods}
}

// Extract walks the events in chronological order and emits every factor
// observation. Events missing a signal simply contribute nothing for it;
// one malformed event never aborts the run.
func (x *Extractor) Extract(events []*types.Event, loc *time.Location) []Observation {
	if loc == nil {
		loc = time.UTC
	}
	sorted := make([]*types.Event, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].OccurredAt.Before(sorted[j].OccurredAt)
	})

	var out []Observation
	for i, ev := range sorted {
		if ev == nil {
			continue
		}
		out = append(out, x.extractOne(ev, sorted[i+1:], loc)...)
	}
	return out
}

// outcome describes the flare (if any) that an event is associated with.
type outcome struct {
	happened   bool
	severity   string
	delayHours float64
	eventID    uuid.UUID
}

func (x *Extractor) extractOne(ev *types.Event, following []*types.Event, loc *time.Location) []Observation {
	oc := x.findOutcome(ev, following)

	var obs []Observation
	emit := func(category, factorA, factorB string) {
		key := factorKey(category, factorA, factorB)
		obs = append(obs, Observation{
			FactorKey:      key,
			Category:       category,
			FactorA:        factorA,
			FactorB:        factorB,
			HadOutcome:     oc.happened,
			Severity:       oc.severity,
			DelayHours:     oc.delayHours,
			OutcomeEventID: oc.eventID,
		})
	}

	for _, food := range x.foods.Extract(ev.Note) {
		emit(types.CategoryFood, food, "")
	}

	env := ev.Environment.Data()
	if env.TemperatureF != nil {
		emit(types.CategoryWeather, "temperature:"+bucketTemperature(*env.TemperatureF), "")
	}
	if env.HumidityPct != nil {
		emit(types.CategoryWeather, "humidity:"+bucketHumidity(*env.HumidityPct), "")
	}
	if env.PressureMb != nil {
		emit(types.CategoryWeather, "pressure:"+bucketPressure(*env.PressureMb), "")
	}
	if cond := strings.ToLower(strings.TrimSpace(env.Condition)); cond != "" {
		emit(types.CategoryWeather, "condition:"+cond, "")
	}

	phys := ev.Physiology.Data()
	if phys.HeartRate != nil {
		emit(types.CategoryPhysiological, "heart_rate:"+bucketHeartRate(*phys.HeartRate), "")
	}
	if phys.HRV != nil {
		emit(types.CategoryPhysiological, "hrv:"+bucketHRV(*phys.HRV), "")
	}
	if phys.SleepHours != nil {
		emit(types.CategoryPhysiological, "sleep:"+bucketSleep(*phys.SleepHours), "")
	}
	if phys.Steps != nil {
		emit(types.CategoryPhysiological, "steps:"+bucketSteps(*phys.Steps), "")
	}
	if phys.SpO2 != nil {
		emit(types.CategoryPhysiological, "spo2:"+bucketSpO2(*phys.SpO2), "")
	}

	if ev.IsFlare() {
		local := ev.OccurredAt.In(loc)
		emit(types.CategoryTime, "tod:"+timeOfDay(local.Hour()), "")
		emit(types.CategoryTime, "dow:"+strings.ToLower(local.Weekday().String()), "")

		if city := strings.ToLower(strings.TrimSpace(ev.City)); city != "" {
			emit(types.CategoryLocation, city, "")
		}
	}

	for _, tag := range ev.Triggers {
		if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
			emit(types.CategoryLifestyle, tag, "")
		}
	}
	for _, med := range ev.Medications {
		if med = strings.ToLower(strings.TrimSpace(med)); med != "" {
			emit(types.CategoryMedication, med, "")
		}
	}

	if !ev.IsFlare() && ev.Kind != "" {
		emit(types.CategoryActivity, ev.Kind, "")
	}

	// Symptom pairs co-occur with the flare by definition: always an
	// outcome, never a delay.
	if ev.IsFlare() && len(ev.Symptoms) >= 2 {
		pairOutcome := outcome{happened: true, severity: ev.Severity, eventID: ev.ID}
		for _, pair := range symptomPairs(ev.Symptoms) {
			obs = append(obs, Observation{
				FactorKey:      factorKey(types.CategoryPattern, pair[0], pair[1]),
				Category:       types.CategoryPattern,
				FactorA:        pair[0],
				FactorB:        pair[1],
				HadOutcome:     pairOutcome.happened,
				Severity:       pairOutcome.severity,
				OutcomeEventID: pairOutcome.eventID,
			})
		}
	}

	return obs
}

// findOutcome resolves whether a flare follows ev inside the lookahead
// window. The event itself counts with zero delay; otherwise the earliest
// qualifying flare wins.
func (x *Extractor) findOutcome(ev *types.Event, following []*types.Event) outcome {
	if ev.IsFlare() {
		return outcome{happened: true, severity: ev.Severity, eventID: ev.ID}
	}
	deadline := ev.OccurredAt.Add(time.Duration(x.cfg.LookaheadWindowHours * float64(time.Hour)))
	for _, f := range following {
		if f == nil || !f.OccurredAt.After(ev.OccurredAt) {
			continue
		}
		if !f.OccurredAt.Before(deadline) {
			break
		}
		if f.IsFlare() {
			return outcome{
				happened:   true,
				severity:   f.Severity,
				delayHours: f.OccurredAt.Sub(ev.OccurredAt).Hours(),
				eventID:    f.ID,
			}
		}
	}
	return outcome{}
}

func factorKey(category, factorA, factorB string) string {
	prefix := category
	switch category {
	case types.CategoryPhysiological:
		prefix = "physio"
	case types.CategoryLifestyle:
		prefix = "trigger"
	case types.CategoryPattern:
		prefix = "symptom_pair"
	}
	if factorB != "" {
		return fmt.Sprintf("%s:%s + %s", prefix, factorA, factorB)
	}
	return prefix + ":" + factorA
}

// symptomPairs returns every unordered pair, each sorted alphabetically so
// reordered symptom lists land on the same factor.
func symptomPairs(symptoms []string) [][2]string {
	uniq := map[string]bool{}
	var names []string
	for _, s := range symptoms {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || uniq[s] {
			continue
		}
		uniq[s] = true
		names = append(names, s)
	}
	sort.Strings(names)

	var pairs [][2]string
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			pairs = append(pairs, [2]string{names[i], names[j]})
		}
	}
	return pairs
}

func bucketTemperature(f float64) string {
	switch {
	case f < 32:
		return "freezing"
	case f < 50:
		return "cold"
	case f < 68:
		return "cool"
	case f < 85:
		return "warm"
	default:
		return "hot"
	}
}

func bucketHumidity(pct float64) string {
	switch {
	case pct < 30:
		return "low"
	case pct < 60:
		return "moderate"
	default:
		return "high"
	}
}

func bucketPressure(mb float64) string {
	switch {
	case mb < 1005:
		return "low"
	case mb < 1020:
		return "normal"
	default:
		return "high"
	}
}

func bucketHeartRate(bpm float64) string {
	switch {
	case bpm < 60:
		return "low"
	case bpm < 80:
		return "normal"
	case bpm < 100:
		return "elevated"
	default:
		return "high"
	}
}

func bucketHRV(ms float64) string {
	switch {
	case ms < 20:
		return "very_low"
	case ms < 40:
		return "low"
	case ms < 60:
		return "moderate"
	default:
		return "high"
	}
}

func bucketSleep(hours float64) string {
	switch {
	case hours < 5:
		return "very_poor"
	case hours < 6:
		return "poor"
	case hours < 7:
		return "fair"
	case hours < 9:
		return "good"
	default:
		return "oversleep"
	}
}

func bucketSteps(steps int) string {
	switch {
	case steps < 3000:
		return "sedentary"
	case steps < 7000:
		return "light"
	case steps < 10000:
		return "moderate"
	default:
		return "high"
	}
}

func bucketSpO2(pct float64) string {
	if pct < 94 {
		return "low"
	}
	return "normal"
}

func timeOfDay(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 17:
		return "afternoon"
	case hour >= 17 && hour < 21:
		return "evening"
	default:
		return "night"
	}
}
