package auth

import (
	"context"

	"github.com/sakif/docportal/internal/model"
)

// FallbackOAuthTokenRepository reads from a primary repository and, when
// that fails for any reason, falls back to a secondary — healing the primary
// with whatever the secondary recovered.
//
// TYPICAL WIRING: primary = the fast KV store, secondary = the
// identity-system-owned accounts table. A user whose KV entry was lost
// (cache flush, new Redis) silently gets it rebuilt from the account row on
// the next read instead of being bounced to login.
//
// Set and Delete apply to the PRIMARY only. The secondary is usually
// read-only (provider-owned), and even when it isn't, it is not this
// wrapper's to write.
type FallbackOAuthTokenRepository struct {
	primary   OAuthTokenRepository
	secondary OAuthTokenRepository
}

var _ OAuthTokenRepository = (*FallbackOAuthTokenRepository)(nil)

// NewFallbackOAuthTokenRepository wraps a primary and secondary repository.
func NewFallbackOAuthTokenRepository(primary, secondary OAuthTokenRepository) *FallbackOAuthTokenRepository {
	return &FallbackOAuthTokenRepository{primary: primary, secondary: secondary}
}

// Get tries the primary, then the secondary. A token recovered from the
// secondary is written back into the primary before returning (self-healing
// cache); a failure of that write-back is deliberately not fatal — the
// caller asked for a token and we have one.
func (r *FallbackOAuthTokenRepository) Get(ctx context.Context, userID string) (model.OAuthToken, error) {
	token, primaryErr := r.primary.Get(ctx, userID)
	if primaryErr == nil {
		return token, nil
	}

	token, err := r.secondary.Get(ctx, userID)
	if err != nil {
		// Surface the secondary's error: it is the authoritative "you are
		// not authenticated" answer once both stores came up empty.
		return model.OAuthToken{}, err
	}

	// Heal the primary. Best effort — ignore the error.
	_ = r.primary.Set(ctx, userID, token)

	return token, nil
}

// Set writes to the primary only.
func (r *FallbackOAuthTokenRepository) Set(ctx context.Context, userID string, token model.OAuthToken) error {
	return r.primary.Set(ctx, userID, token)
}

// Delete removes from the primary only.
func (r *FallbackOAuthTokenRepository) Delete(ctx context.Context, userID string) error {
	return r.primary.Delete(ctx, userID)
}
