package discovery

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/lyrebird-health/flarelog-backend/internal/types"
)

func noteEvent(note string, at time.Time) *types.Event {
	return &types.Event{ID: uuid.New(), UserID: uuid.New(), Kind: types.EventKindNote, Note: note, OccurredAt: at}
}

func flareEvent(severity string, at time.Time) *types.Event {
	return &types.Event{ID: uuid.New(), UserID: uuid.New(), Kind: types.EventKindFlare, Severity: severity, OccurredAt: at}
}

func findObservation(obs []Observation, key string) *Observation {
	for i := range obs {
		if obs[i].FactorKey == key {
			return &obs[i]
		}
	}
	return nil
}

func TestExtractOutcomeWindow(t *testing.T) {
	x := NewExtractor(DefaultConfig(), nil)
	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	flare := flareEvent(types.SeverityModerate, base.Add(6*time.Hour))
	events := []*types.Event{
		noteEvent("ate dairy", base),
		flare,
		noteEvent("ate gluten", base.Add(100*time.Hour)),
	}

	obs := x.Extract(events, time.UTC)

	dairy := findObservation(obs, "food:dairy")
	if dairy == nil {
		t.Fatalf("expected a dairy observation, got %v", obs)
	}
	if !dairy.HadOutcome {
		t.Fatalf("flare 6h later must count as outcome")
	}
	if dairy.DelayHours != 6 {
		t.Fatalf("expected 6h delay, got %v", dairy.DelayHours)
	}
	if dairy.OutcomeEventID != flare.ID {
		t.Fatalf("outcome id mismatch")
	}
	if dairy.Severity != types.SeverityModerate {
		t.Fatalf("expected outcome severity, got %q", dairy.Severity)
	}

	// No flare follows the gluten note inside the window.
	gluten := findObservation(obs, "food:gluten")
	if gluten == nil {
		t.Fatalf("expected a gluten observation")
	}
	if gluten.HadOutcome {
		t.Fatalf("no flare inside the window, outcome must be false")
	}
}

func TestExtractOutcomeOutsideWindow(t *testing.T) {
	x := NewExtractor(DefaultConfig(), nil)
	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	events := []*types.Event{
		noteEvent("ate dairy", base),
		flareEvent(types.SeverityMild, base.Add(49*time.Hour)),
	}
	obs := x.Extract(events, time.UTC)

	dairy := findObservation(obs, "food:dairy")
	if dairy == nil {
		t.Fatalf("expected a dairy observation")
	}
	if dairy.HadOutcome {
		t.Fatalf("flare past the lookahead window must not count")
	}
}

func TestExtractFlareSelfOutcome(t *testing.T) {
	x := NewExtractor(DefaultConfig(), nil)
	at := time.Date(2026, 2, 3, 9, 30, 0, 0, time.UTC)

	flare := flareEvent(types.SeveritySevere, at)
	flare.City = " Boston "
	obs := x.Extract([]*types.Event{flare}, time.UTC)

	tod := findObservation(obs, "time:tod:morning")
	if tod == nil {
		t.Fatalf("flare must emit a time-of-day factor, got %v", obs)
	}
	if !tod.HadOutcome || tod.DelayHours != 0 {
		t.Fatalf("a flare is its own outcome with zero delay: %+v", tod)
	}

	dow := findObservation(obs, "time:dow:tuesday")
	if dow == nil {
		t.Fatalf("flare must emit a day-of-week factor")
	}
	city := findObservation(obs, "location:boston")
	if city == nil {
		t.Fatalf("flare with city must emit a location factor")
	}
}

func TestExtractTimezoneAffectsTimeFactors(t *testing.T) {
	x := NewExtractor(DefaultConfig(), nil)
	// 02:00 UTC is evening of the previous day in Los Angeles.
	at := time.Date(2026, 2, 3, 2, 0, 0, 0, time.UTC)
	la, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	obs := x.Extract([]*types.Event{flareEvent(types.SeverityMild, at)}, la)
	if findObservation(obs, "time:tod:evening") == nil {
		t.Fatalf("expected evening in user timezone, got %v", obs)
	}
	if findObservation(obs, "time:dow:monday") == nil {
		t.Fatalf("expected monday in user timezone, got %v", obs)
	}
}

func TestExtractSymptomPairsOrderIndependent(t *testing.T) {
	x := NewExtractor(DefaultConfig(), nil)
	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	a := flareEvent(types.SeverityMild, base)
	a.Symptoms = datatypes.NewJSONSlice([]string{"Headache", "nausea"})
	b := flareEvent(types.SeverityMild, base.Add(72*time.Hour))
	b.Symptoms = datatypes.NewJSONSlice([]string{" NAUSEA", "headache "})

	obs := x.Extract([]*types.Event{a, b}, time.UTC)
	stats := Aggregate(obs, 20)

	fs, ok := stats["symptom_pair:headache + nausea"]
	if !ok {
		t.Fatalf("expected one canonical symptom pair, got keys %v", keys(stats))
	}
	if fs.TotalAppearances != 2 || fs.OutcomeCount != 2 {
		t.Fatalf("pair must fold across both flares: %+v", fs)
	}
	if fs.FactorA != "headache" || fs.FactorB != "nausea" {
		t.Fatalf("pair factors must be sorted: %+v", fs)
	}
}

func TestExtractSignalBuckets(t *testing.T) {
	x := NewExtractor(DefaultConfig(), nil)
	at := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	temp := 90.0
	humidity := 75.0
	pressure := 1000.0
	hr := 105.0
	sleep := 4.5
	ev := &types.Event{
		ID:          uuid.New(),
		Kind:        types.EventKindWellness,
		Environment: datatypes.NewJSONType(types.Environment{TemperatureF: &temp, HumidityPct: &humidity, PressureMb: &pressure, Condition: "Rain"}),
		Physiology:  datatypes.NewJSONType(types.Physiology{HeartRate: &hr, SleepHours: &sleep}),
		Triggers:    datatypes.NewJSONSlice([]string{"Stress", ""}),
		Medications: datatypes.NewJSONSlice([]string{"Ibuprofen"}),
		OccurredAt:  at,
	}

	obs := x.Extract([]*types.Event{ev}, time.UTC)
	for _, key := range []string{
		"weather:temperature:hot",
		"weather:humidity:high",
		"weather:pressure:low",
		"weather:condition:rain",
		"physio:heart_rate:high",
		"physio:sleep:very_poor",
		"trigger:stress",
		"medication:ibuprofen",
		"activity:wellness",
	} {
		if findObservation(obs, key) == nil {
			t.Fatalf("missing observation %q in %v", key, obs)
		}
	}
	// Non-flare events never emit time or location factors.
	for _, ob := range obs {
		if ob.Category == types.CategoryTime || ob.Category == types.CategoryLocation {
			t.Fatalf("non-flare event emitted %+v", ob)
		}
	}
}

func keys(m map[string]*FactorStats) []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	return out
}
