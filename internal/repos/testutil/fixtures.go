package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lyrebird-health/flarelog-backend/internal/types"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
		Timezone:  "UTC",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedEvent(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, kind string, occurredAt time.Time) *types.Event {
	tb.Helper()
	e := &types.Event{
		ID:         uuid.New(),
		UserID:     userID,
		Kind:       kind,
		OccurredAt: occurredAt,
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed event: %v", err)
	}
	return e
}

func SeedDiscovery(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, category, factorA string, confidence float64) *types.Discovery {
	tb.Helper()
	d := &types.Discovery{
		ID:             uuid.New(),
		UserID:         userID,
		Category:       category,
		FactorA:        factorA,
		FactorB:        "",
		Status:         types.DiscoveryStatusInvestigating,
		DiscoveryType:  types.DiscoveryTypeCorrelation,
		Relationship:   types.RelationshipCorrelatesWith,
		Confidence:     confidence,
		LastEvidenceAt: time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed discovery: %v", err)
	}
	return d
}
