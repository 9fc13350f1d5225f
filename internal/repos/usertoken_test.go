package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lyrebird-health/flarelog-backend/internal/repos/testutil"
	"github.com/lyrebird-health/flarelog-backend/internal/types"
)

func TestUserTokenRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewUserTokenRepo(db, testutil.Logger(t))
	ctx := context.Background()
	user := testutil.SeedUser(t, ctx, tx, "usertokenrepo@example.com")

	created, err := repo.Create(ctx, tx, &types.UserToken{
		ID:           uuid.New(),
		UserID:       user.ID,
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().UTC().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByAccessToken(ctx, tx, "access-1")
	if err != nil {
		t.Fatalf("GetByAccessToken: %v", err)
	}
	if got == nil || got.ID != created.ID {
		t.Fatalf("GetByAccessToken: unexpected result: %+v", got)
	}

	got, err = repo.GetByRefreshToken(ctx, tx, "refresh-1")
	if err != nil {
		t.Fatalf("GetByRefreshToken: %v", err)
	}
	if got == nil || got.ID != created.ID {
		t.Fatalf("GetByRefreshToken: unexpected result: %+v", got)
	}

	created.AccessToken = "access-2"
	if err := repo.Update(ctx, tx, created); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err = repo.GetByAccessToken(ctx, tx, "access-2")
	if err != nil {
		t.Fatalf("GetByAccessToken (after update): %v", err)
	}
	if got == nil {
		t.Fatalf("GetByAccessToken (after update): expected row")
	}

	if err := repo.DeleteByUserID(ctx, tx, user.ID); err != nil {
		t.Fatalf("DeleteByUserID: %v", err)
	}
	got, err = repo.GetByAccessToken(ctx, tx, "access-2")
	if err != nil {
		t.Fatalf("GetByAccessToken (after delete): %v", err)
	}
	if got != nil {
		t.Fatalf("GetByAccessToken (after delete): expected nil, got %+v", got)
	}
}
