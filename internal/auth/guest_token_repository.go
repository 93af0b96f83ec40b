package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/docportal/internal/apperror"
	"github.com/sakif/docportal/internal/kv"
)

// GuestAccessTokenTTL is how long a stored guest access token lives.
//
// Guests hold installation tokens that GitHub itself expires after an hour;
// the 7-day TTL here bounds the life of the STORE ENTRY, so a guest whose
// invite lapses stops leaving stale credentials around even if no logout
// ever runs. The TTL is enforced at write time by this repository, not by
// its callers — callers shouldn't need to know the retention policy.
const GuestAccessTokenTTL = 7 * 24 * time.Hour

// AccessTokenRepository stores bare access-token strings per user — the
// no-refresh-half counterpart of OAuthTokenRepository.
type AccessTokenRepository interface {
	Get(ctx context.Context, userID string) (string, error)
	Set(ctx context.Context, userID, accessToken string) error
	Delete(ctx context.Context, userID string) error
}

// GuestAccessTokenRepository stores a bare access-token string per guest
// user, keyed directly by user ID in the given store (hand it a prefixed
// store to namespace it).
type GuestAccessTokenRepository struct {
	store kv.Store
}

var _ AccessTokenRepository = (*GuestAccessTokenRepository)(nil)

// NewGuestAccessTokenRepository creates a repository over the given store.
func NewGuestAccessTokenRepository(store kv.Store) *GuestAccessTokenRepository {
	return &GuestAccessTokenRepository{store: store}
}

// Get returns the stored access token, or unauthorized if absent (including
// after TTL expiry — an expired entry and a never-written one look the same).
func (r *GuestAccessTokenRepository) Get(ctx context.Context, userID string) (string, error) {
	token, ok, err := r.store.Get(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("auth: reading guest access token for user %s: %w", userID, err)
	}
	if !ok {
		return "", apperror.Unauthorized("no stored guest access token")
	}
	return token, nil
}

// Set stores the access token with the 7-day TTL.
func (r *GuestAccessTokenRepository) Set(ctx context.Context, userID, accessToken string) error {
	if err := r.store.SetExpiring(ctx, userID, accessToken, GuestAccessTokenTTL); err != nil {
		return fmt.Errorf("auth: storing guest access token for user %s: %w", userID, err)
	}
	return nil
}

// Delete removes the stored token.
func (r *GuestAccessTokenRepository) Delete(ctx context.Context, userID string) error {
	if err := r.store.Delete(ctx, userID); err != nil {
		return fmt.Errorf("auth: deleting guest access token for user %s: %w", userID, err)
	}
	return nil
}
