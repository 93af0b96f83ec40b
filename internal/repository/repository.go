// Package repository declares the storage interfaces the rest of the app is
// written against. The sqlite subpackage provides the concrete
// implementations; tests substitute in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/docportal/internal/model"
)

// UserRepository stores host accounts (GitHub-authenticated users).
type UserRepository interface {
	// Upsert inserts or updates a user keyed by GitHub ID, filling in the
	// internal ID and timestamps on the passed struct.
	Upsert(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// GuestRepository stores guest accounts and their admin-assigned project sets.
type GuestRepository interface {
	Create(ctx context.Context, guest *model.Guest) error
	// FindByEmail returns (nil, nil) when no guest exists for the email —
	// absence is a normal outcome for callers deciding whether someone IS a
	// guest, not an error.
	FindByEmail(ctx context.Context, email string) (*model.Guest, error)
	FindByID(ctx context.Context, id string) (*model.Guest, error)
	// GetProjectsForEmail returns the repository names the guest may access.
	// Errors (not-found) if the guest does not exist.
	GetProjectsForEmail(ctx context.Context, email string) ([]string, error)
}

// AccountRepository stores the provider-owned account rows written during
// the OAuth callback: which external identity a user logged in with, and the
// OAuth token the provider handed us at that moment.
//
// This table belongs to the identity flow, not to the credential pipeline —
// the pipeline only ever reads it (see auth.AccountOAuthTokenRepository).
type AccountRepository interface {
	// UpsertToken records the provider token captured at login.
	UpsertToken(ctx context.Context, userID string, token model.OAuthToken) error
	// GetTokenByUserID returns the stored provider token, or a not-found
	// error if the user has no account row.
	GetTokenByUserID(ctx context.Context, userID string) (model.OAuthToken, error)
}
