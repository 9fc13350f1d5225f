package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lyrebird-health/flarelog-backend/internal/repos/testutil"
	"github.com/lyrebird-health/flarelog-backend/internal/types"
)

func computedDiscovery(category, factorA, factorB string, confidence float64) *types.Discovery {
	return &types.Discovery{
		Category:        category,
		FactorA:         factorA,
		FactorB:         factorB,
		DiscoveryType:   types.DiscoveryTypeTrigger,
		Relationship:    types.RelationshipIncreasesRisk,
		OccurrenceCount: 4,
		TotalExposures:  5,
		Confidence:      confidence,
		Lift:            2.0,
		PValue:          0.03,
		Status:          types.DiscoveryStatusInvestigating,
		EvidenceSummary: "4 out of 5 times (80%) this occurred, a flare followed.",
		LastEvidenceAt:  time.Now().UTC(),
	}
}

func TestDiscoveryRepoMergeRun(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewDiscoveryRepo(db, testutil.Logger(t))
	ctx := context.Background()
	user := testutil.SeedUser(t, ctx, tx, "mergerun@example.com")

	created, updated, err := repo.MergeRun(ctx, tx, user.ID, []*types.Discovery{
		computedDiscovery(types.CategoryFood, "dairy", "", 0.6),
		computedDiscovery(types.CategoryWeather, "high_humidity", "", 0.4),
	})
	if err != nil {
		t.Fatalf("MergeRun: %v", err)
	}
	if created != 2 || updated != 0 {
		t.Fatalf("MergeRun: expected 2 created 0 updated, got %d/%d", created, updated)
	}

	rows, err := repo.GetByUserID(ctx, tx, user.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("GetByUserID: expected 2 rows, got %d", len(rows))
	}
	var dairyID uuid.UUID
	for _, row := range rows {
		if row.SurfacedAt != nil || row.AcknowledgedAt != nil {
			t.Fatalf("new discovery should be unsurfaced and unacknowledged: %+v", row)
		}
		if row.FactorA == "dairy" {
			dairyID = row.ID
		}
	}

	// Second run with the same identity must update in place, not duplicate.
	next := computedDiscovery(types.CategoryFood, "dairy", "", 0.75)
	next.Status = types.DiscoveryStatusConfirmed
	created, updated, err = repo.MergeRun(ctx, tx, user.ID, []*types.Discovery{next})
	if err != nil {
		t.Fatalf("MergeRun (second): %v", err)
	}
	if created != 0 || updated != 1 {
		t.Fatalf("MergeRun (second): expected 0 created 1 updated, got %d/%d", created, updated)
	}

	rows, err = repo.GetByUserID(ctx, tx, user.ID)
	if err != nil {
		t.Fatalf("GetByUserID (second): %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected identity merge to keep 2 rows, got %d", len(rows))
	}
	for _, row := range rows {
		if row.FactorA != "dairy" {
			continue
		}
		if row.ID != dairyID {
			t.Fatalf("merge must preserve row id: got %s want %s", row.ID, dairyID)
		}
		if row.Confidence != 0.75 || row.Status != types.DiscoveryStatusConfirmed {
			t.Fatalf("merge did not overwrite evidence fields: %+v", row)
		}
	}
}

func TestDiscoveryRepoMergeRunKeepsSurfacing(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewDiscoveryRepo(db, testutil.Logger(t))
	ctx := context.Background()
	user := testutil.SeedUser(t, ctx, tx, "mergesurfaced@example.com")

	if _, _, err := repo.MergeRun(ctx, tx, user.ID, []*types.Discovery{
		computedDiscovery(types.CategoryFood, "dairy", "", 0.6),
	}); err != nil {
		t.Fatalf("MergeRun: %v", err)
	}
	rows, err := repo.GetByUserID(ctx, tx, user.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("GetByUserID: expected 1 row, got %d", len(rows))
	}
	id := rows[0].ID

	if err := repo.MarkSurfaced(ctx, tx, user.ID, []uuid.UUID{id}); err != nil {
		t.Fatalf("MarkSurfaced: %v", err)
	}
	if err := repo.Acknowledge(ctx, tx, user.ID, id); err != nil {
		t.Fatalf("Acknowledge: %v", err)
	}

	// Re-merging the same identity rewrites evidence columns only; the row
	// must keep its id and both timestamps.
	next := computedDiscovery(types.CategoryFood, "dairy", "", 0.8)
	next.Status = types.DiscoveryStatusConfirmed
	if _, _, err := repo.MergeRun(ctx, tx, user.ID, []*types.Discovery{next}); err != nil {
		t.Fatalf("MergeRun (second): %v", err)
	}

	var row types.Discovery
	if err := tx.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if row.SurfacedAt == nil || row.AcknowledgedAt == nil {
		t.Fatalf("merge must not clear surfaced_at or acknowledged_at: %+v", row)
	}
	if row.Confidence != 0.8 || row.Status != types.DiscoveryStatusConfirmed {
		t.Fatalf("merge did not overwrite evidence fields: %+v", row)
	}
}

func TestDiscoveryRepoMergeRunConcurrentInsert(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewDiscoveryRepo(db, testutil.Logger(t))
	ctx := context.Background()
	user := testutil.SeedUser(t, ctx, tx, "mergerace@example.com")

	// The same identity twice in one run: the second insert lands after the
	// pre-read, like a racing first run, and must upsert instead of failing
	// the unique index.
	first := computedDiscovery(types.CategoryFood, "dairy", "", 0.5)
	second := computedDiscovery(types.CategoryFood, "dairy", "", 0.7)
	if _, _, err := repo.MergeRun(ctx, tx, user.ID, []*types.Discovery{first, second}); err != nil {
		t.Fatalf("MergeRun: %v", err)
	}

	rows, err := repo.GetByUserID(ctx, tx, user.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected a single row for the identity, got %d", len(rows))
	}
	if rows[0].Confidence != 0.7 {
		t.Fatalf("expected last write to win, got confidence %v", rows[0].Confidence)
	}
}

func TestDiscoveryRepoSurfacing(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewDiscoveryRepo(db, testutil.Logger(t))
	ctx := context.Background()
	user := testutil.SeedUser(t, ctx, tx, "surfacing@example.com")

	strong := computedDiscovery(types.CategoryFood, "gluten", "", 0.8)
	weak := computedDiscovery(types.CategoryWeather, "low_pressure", "", 0.1)
	dead := computedDiscovery(types.CategoryMedication, "ibuprofen", "", 0.7)
	dead.Status = types.DiscoveryStatusDisproven

	if _, _, err := repo.MergeRun(ctx, tx, user.ID, []*types.Discovery{strong, weak, dead}); err != nil {
		t.Fatalf("MergeRun: %v", err)
	}

	unsurfaced, err := repo.ListUnsurfaced(ctx, tx, user.ID, DefaultUnsurfacedLimit)
	if err != nil {
		t.Fatalf("ListUnsurfaced: %v", err)
	}
	if len(unsurfaced) != 1 || unsurfaced[0].FactorA != "gluten" {
		t.Fatalf("ListUnsurfaced: expected only the strong row, got %+v", unsurfaced)
	}

	if err := repo.MarkSurfaced(ctx, tx, user.ID, []uuid.UUID{unsurfaced[0].ID}); err != nil {
		t.Fatalf("MarkSurfaced: %v", err)
	}
	var surfaced types.Discovery
	if err := tx.WithContext(ctx).First(&surfaced, "id = ?", unsurfaced[0].ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if surfaced.SurfacedAt == nil {
		t.Fatalf("MarkSurfaced: surfaced_at not set")
	}
	firstSurfaced := *surfaced.SurfacedAt

	// Marking again must not move the original timestamp.
	if err := repo.MarkSurfaced(ctx, tx, user.ID, []uuid.UUID{surfaced.ID}); err != nil {
		t.Fatalf("MarkSurfaced (again): %v", err)
	}
	if err := tx.WithContext(ctx).First(&surfaced, "id = ?", surfaced.ID).Error; err != nil {
		t.Fatalf("reload (again): %v", err)
	}
	if !surfaced.SurfacedAt.Equal(firstSurfaced) {
		t.Fatalf("MarkSurfaced must be idempotent: %v != %v", surfaced.SurfacedAt, firstSurfaced)
	}

	unsurfaced, err = repo.ListUnsurfaced(ctx, tx, user.ID, DefaultUnsurfacedLimit)
	if err != nil {
		t.Fatalf("ListUnsurfaced (after): %v", err)
	}
	if len(unsurfaced) != 0 {
		t.Fatalf("ListUnsurfaced (after): expected none, got %d", len(unsurfaced))
	}

	if err := repo.Acknowledge(ctx, tx, user.ID, surfaced.ID); err != nil {
		t.Fatalf("Acknowledge: %v", err)
	}
	if err := tx.WithContext(ctx).First(&surfaced, "id = ?", surfaced.ID).Error; err != nil {
		t.Fatalf("reload (ack): %v", err)
	}
	if surfaced.AcknowledgedAt == nil {
		t.Fatalf("Acknowledge: acknowledged_at not set")
	}
}

func TestDiscoveryRepoList(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewDiscoveryRepo(db, testutil.Logger(t))
	ctx := context.Background()
	user := testutil.SeedUser(t, ctx, tx, "list@example.com")

	a := computedDiscovery(types.CategoryFood, "dairy", "", 0.9)
	b := computedDiscovery(types.CategoryFood, "gluten", "", 0.5)
	dead := computedDiscovery(types.CategoryFood, "soy", "", 0.95)
	dead.Status = types.DiscoveryStatusDisproven
	if _, _, err := repo.MergeRun(ctx, tx, user.ID, []*types.Discovery{a, b, dead}); err != nil {
		t.Fatalf("MergeRun: %v", err)
	}

	rows, err := repo.List(ctx, tx, user.ID, 0, "", 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("List: disproven must be excluded by default, got %d rows", len(rows))
	}
	if rows[0].Confidence < rows[1].Confidence {
		t.Fatalf("List: expected confidence descending, got %v then %v", rows[0].Confidence, rows[1].Confidence)
	}

	rows, err = repo.List(ctx, tx, user.ID, 0.6, "", 10)
	if err != nil {
		t.Fatalf("List (min confidence): %v", err)
	}
	if len(rows) != 1 || rows[0].FactorA != "dairy" {
		t.Fatalf("List (min confidence): unexpected rows %+v", rows)
	}

	rows, err = repo.List(ctx, tx, user.ID, 0, types.DiscoveryStatusDisproven, 10)
	if err != nil {
		t.Fatalf("List (status): %v", err)
	}
	if len(rows) != 1 || rows[0].FactorA != "soy" {
		t.Fatalf("List (status): expected the disproven row, got %+v", rows)
	}
}
