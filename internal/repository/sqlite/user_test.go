package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/docportal/internal/apperror"
	"github.com/sakif/docportal/internal/model"
)

func TestUserUpsertInsertsNewUser(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{
		GitHubID:  12345,
		Login:     "octocat",
		Email:     "octocat@example.com",
		AvatarURL: "https://example.com/avatar.png",
	}

	if err := db.Upsert(context.Background(), user); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	// Upsert fills in the generated fields on the passed struct
	if user.ID == "" {
		t.Error("Upsert() did not set user.ID")
	}
	if user.CreatedAt.IsZero() {
		t.Error("Upsert() did not set user.CreatedAt")
	}

	got, err := db.GetUserByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.Login != "octocat" || got.GitHubID != 12345 {
		t.Errorf("GetUserByID() = %+v, want the inserted user", got)
	}
}

func TestUserUpsertKeepsInternalIDAcrossLogins(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first := &model.User{GitHubID: 12345, Login: "octocat"}
	if err := db.Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	// Same GitHub account logs in again with a changed profile.
	second := &model.User{GitHubID: 12345, Login: "octocat-renamed", Email: "new@example.com"}
	if err := db.Upsert(ctx, second); err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("internal ID changed across logins: %q → %q", first.ID, second.ID)
	}

	got, err := db.GetUserByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.Login != "octocat-renamed" || got.Email != "new@example.com" {
		t.Errorf("profile not refreshed, got %+v", got)
	}
}

func TestGetUserByIDNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByID(context.Background(), "nonexistent")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID() error = %v, want ErrNotFound", err)
	}
}
