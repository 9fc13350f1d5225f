package repos

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/lyrebird-health/flarelog-backend/internal/repos/testutil"
	"github.com/lyrebird-health/flarelog-backend/internal/types"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewUserRepo(db, testutil.Logger(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, tx, &types.User{
		ID:        uuid.New(),
		Email:     "userrepo@example.com",
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
		Timezone:  "America/New_York",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(ctx, tx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.ID != created.ID {
		t.Fatalf("GetByID: unexpected result: %+v", got)
	}

	got, err = repo.GetByEmail(ctx, tx, created.Email)
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got == nil || got.Email != created.Email {
		t.Fatalf("GetByEmail: unexpected result: %+v", got)
	}

	missing, err := repo.GetByEmail(ctx, tx, "does-not-exist@example.com")
	if err != nil {
		t.Fatalf("GetByEmail (missing): %v", err)
	}
	if missing != nil {
		t.Fatalf("GetByEmail (missing): expected nil, got %+v", missing)
	}

	exists, err := repo.EmailExists(ctx, tx, created.Email)
	if err != nil {
		t.Fatalf("EmailExists: %v", err)
	}
	if !exists {
		t.Fatalf("EmailExists: expected true")
	}

	created.Timezone = "Europe/London"
	if err := repo.Update(ctx, tx, created); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err = repo.GetByID(ctx, tx, created.ID)
	if err != nil {
		t.Fatalf("GetByID (after update): %v", err)
	}
	if got.Timezone != "Europe/London" {
		t.Fatalf("Update: timezone not persisted, got %q", got.Timezone)
	}
}
