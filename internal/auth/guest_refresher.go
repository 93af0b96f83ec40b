package auth

import (
	"context"
	"fmt"

	"github.com/sakif/docportal/internal/model"
)

// GuestOAuthTokenRefresher "refreshes" a guest token by minting a fresh
// installation token — guests have no refresh-token flow at all.
type GuestOAuthTokenRefresher struct {
	source OAuthTokenDataSource // the guest data source
}

var _ OAuthTokenRefresher = (*GuestOAuthTokenRefresher)(nil)

// NewGuestOAuthTokenRefresher creates a guest refresher backed by the guest
// token data source.
func NewGuestOAuthTokenRefresher(source OAuthTokenDataSource) *GuestOAuthTokenRefresher {
	return &GuestOAuthTokenRefresher{source: source}
}

// RefreshOAuthToken re-derives the guest's token from scratch.
//
// FAIL FAST ON AN UNEXPECTED REFRESH TOKEN:
// A guest token never carries a refresh token. If the old token has one,
// something routed a host token into the guest flow — applying GitHub-style
// refresh semantics to it would at best fail confusingly and at worst mint
// a guest-scoped token for a host. Refuse loudly instead.
func (r *GuestOAuthTokenRefresher) RefreshOAuthToken(ctx context.Context, old model.OAuthToken) (model.OAuthToken, error) {
	if old.RefreshToken != "" {
		return model.OAuthToken{}, fmt.Errorf("auth: guest refresher received a token with a refresh token")
	}

	token, err := r.source.GetOAuthToken(ctx)
	if err != nil {
		return model.OAuthToken{}, fmt.Errorf("auth: re-minting guest token: %w", err)
	}
	return token, nil
}
