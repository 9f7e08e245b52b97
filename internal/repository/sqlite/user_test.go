package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/linkpage/internal/apperror"
	"github.com/sakif/linkpage/internal/model"
)

// =========================================================================
// UPSERT (GitHub) TESTS
// =========================================================================

func TestUpsert_NewUser(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{
		GitHubID:  1234567,
		Username:  "sakif",
		Email:     "sakif@example.com",
		AvatarURL: "https://avatars.example/1",
	}

	if err := db.Upsert(context.Background(), user); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if user.ID == "" {
		t.Error("Upsert() did not assign an internal ID")
	}
	if user.CreatedAt.IsZero() {
		t.Error("Upsert() did not set CreatedAt")
	}
}

func TestUpsert_ExistingUserKeepsID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first := &model.User{GitHubID: 42, Username: "old-name", Email: "old@example.com"}
	if err := db.Upsert(ctx, first); err != nil {
		t.Fatalf("first Upsert: %v", err)
	}

	// Same GitHub account logs in again with a changed profile.
	second := &model.User{GitHubID: 42, Username: "new-name", Email: "new@example.com"}
	if err := db.Upsert(ctx, second); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	// Links reference the internal ID, so it must survive profile changes.
	if second.ID != first.ID {
		t.Errorf("internal ID changed on re-login: %s → %s", first.ID, second.ID)
	}

	found, err := db.GetUserByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if found.Username != "new-name" || found.Email != "new@example.com" {
		t.Errorf("profile not refreshed: %+v", found)
	}
}

// =========================================================================
// PASSWORD REGISTRATION TESTS
// =========================================================================

func TestCreateWithPassword(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{Username: "alex", Email: "alex@example.com", PasswordHash: "$2a$04$fakehash"}
	if err := db.CreateWithPassword(context.Background(), user); err != nil {
		t.Fatalf("CreateWithPassword() error = %v", err)
	}
	if user.ID == "" {
		t.Error("CreateWithPassword() did not assign an ID")
	}

	found, err := db.GetUserByUsername(context.Background(), "alex")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if found.PasswordHash != "$2a$04$fakehash" {
		t.Errorf("PasswordHash = %q, want stored hash", found.PasswordHash)
	}
	if found.GitHubID != 0 {
		t.Errorf("GitHubID = %d, want 0 for password account", found.GitHubID)
	}
}

func TestCreateWithPassword_DuplicateUsernameConflicts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first := &model.User{Username: "taken", PasswordHash: "hash1"}
	if err := db.CreateWithPassword(ctx, first); err != nil {
		t.Fatalf("first CreateWithPassword: %v", err)
	}

	second := &model.User{Username: "taken", PasswordHash: "hash2"}
	err := db.CreateWithPassword(ctx, second)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("duplicate username: error = %v, want ErrConflict", err)
	}
}

func TestCreateWithPassword_MultiplePasswordAccounts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// github_id is NULL for all password accounts — the UNIQUE constraint
	// must not collapse them into one.
	for _, name := range []string{"ana", "ben", "cam"} {
		u := &model.User{Username: name, PasswordHash: "hash"}
		if err := db.CreateWithPassword(ctx, u); err != nil {
			t.Fatalf("CreateWithPassword(%s): %v", name, err)
		}
	}
}

// =========================================================================
// LOOKUP TESTS
// =========================================================================

func TestGetUserByUsername_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByUsername(context.Background(), "ghost")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByUsername() error = %v, want ErrNotFound", err)
	}
}

func TestGetUserByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByID(context.Background(), "nope")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID() error = %v, want ErrNotFound", err)
	}
}
