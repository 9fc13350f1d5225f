package discovery

import (
	"testing"

	"github.com/google/uuid"

	"github.com/lyrebird-health/flarelog-backend/internal/types"
)

func TestAggregateFolds(t *testing.T) {
	flareA := uuid.New()
	flareB := uuid.New()
	obs := []Observation{
		{FactorKey: "food:dairy", Category: types.CategoryFood, FactorA: "dairy", HadOutcome: true, Severity: types.SeveritySevere, DelayHours: 4, OutcomeEventID: flareA},
		{FactorKey: "food:dairy", Category: types.CategoryFood, FactorA: "dairy"},
		{FactorKey: "food:dairy", Category: types.CategoryFood, FactorA: "dairy", HadOutcome: true, Severity: types.SeverityMild, DelayHours: 8, OutcomeEventID: flareB},
	}

	stats := Aggregate(obs, 20)
	fs, ok := stats["food:dairy"]
	if !ok {
		t.Fatalf("missing factor stats")
	}
	if fs.TotalAppearances != 3 || fs.OutcomeCount != 2 {
		t.Fatalf("unexpected fold: %+v", fs)
	}
	if fs.SevereOrModerateCount != 1 {
		t.Fatalf("expected 1 severe/moderate, got %d", fs.SevereOrModerateCount)
	}
	if len(fs.OutcomeEventIDs) != 2 {
		t.Fatalf("expected 2 supporting ids, got %d", len(fs.OutcomeEventIDs))
	}
	avg := fs.AvgDelayHours()
	if avg == nil || *avg != 6 {
		t.Fatalf("expected avg delay 6h, got %v", avg)
	}
}

func TestAggregateCapsSupportingEvents(t *testing.T) {
	var obs []Observation
	first := uuid.New()
	for i := 0; i < 10; i++ {
		id := uuid.New()
		if i == 0 {
			id = first
		}
		obs = append(obs, Observation{
			FactorKey:      "trigger:stress",
			Category:       types.CategoryLifestyle,
			FactorA:        "stress",
			HadOutcome:     true,
			OutcomeEventID: id,
		})
	}

	stats := Aggregate(obs, 3)
	fs := stats["trigger:stress"]
	if len(fs.OutcomeEventIDs) != 3 {
		t.Fatalf("cap not applied: %d ids", len(fs.OutcomeEventIDs))
	}
	if fs.OutcomeEventIDs[0] != first {
		t.Fatalf("cap must keep earliest ids first")
	}
	if fs.OutcomeCount != 10 {
		t.Fatalf("outcome count must be uncapped, got %d", fs.OutcomeCount)
	}
	if len(fs.DelaySamples) != 0 {
		t.Fatalf("zero delays must not be sampled, got %v", fs.DelaySamples)
	}
	if fs.AvgDelayHours() != nil {
		t.Fatalf("no delay samples means nil average")
	}
}
