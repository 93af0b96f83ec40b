package auth

import (
	"context"
	"fmt"

	"github.com/sakif/docportal/internal/model"
	"github.com/sakif/docportal/internal/mutex"
	"github.com/sakif/docportal/internal/session"
)

// OAuthTokenRefresher exchanges a stale token for a fresh one. Upstream
// rejections propagate as-is — deciding whether that means "log the user
// out" is the caller's business, not the refresher's.
type OAuthTokenRefresher interface {
	RefreshOAuthToken(ctx context.Context, old model.OAuthToken) (model.OAuthToken, error)
}

// ProviderRoutedOAuthTokenRefresher dispatches to the refresher matching the
// session's account provider.
//
// The strategy map must be total over the provider enum. A session whose
// provider has no entry indicates a wiring bug, and the error says so —
// this is never a recoverable runtime case.
type ProviderRoutedOAuthTokenRefresher struct {
	strategies map[model.AccountProviderType]OAuthTokenRefresher
}

var _ OAuthTokenRefresher = (*ProviderRoutedOAuthTokenRefresher)(nil)

// NewProviderRoutedOAuthTokenRefresher builds the routed refresher from the
// github and email strategies.
func NewProviderRoutedOAuthTokenRefresher(github, email OAuthTokenRefresher) *ProviderRoutedOAuthTokenRefresher {
	return &ProviderRoutedOAuthTokenRefresher{
		strategies: map[model.AccountProviderType]OAuthTokenRefresher{
			model.AccountProviderGitHub: github,
			model.AccountProviderEmail:  email,
		},
	}
}

// RefreshOAuthToken routes to exactly one strategy per call.
func (r *ProviderRoutedOAuthTokenRefresher) RefreshOAuthToken(ctx context.Context, old model.OAuthToken) (model.OAuthToken, error) {
	provider, err := session.FromContext(ctx).AccountProvider()
	if err != nil {
		return model.OAuthToken{}, err
	}

	strategy, ok := r.strategies[provider]
	if !ok || strategy == nil {
		return model.OAuthToken{}, fmt.Errorf("auth: no refresh strategy for provider %q", provider)
	}
	return strategy.RefreshOAuthToken(ctx, old)
}

// LockingOAuthTokenRefresher holds the session user's mutex for the full
// duration of the wrapped refresh, guaranteeing at most one in-flight
// refresh per user. Concurrent requests that all noticed a stale token at
// the same moment serialize here instead of each burning a refresh grant
// (some providers invalidate the old refresh token on use, so duplicate
// refreshes aren't just wasteful — they can log the user out).
type LockingOAuthTokenRefresher struct {
	inner   OAuthTokenRefresher
	mutexes mutex.Factory
}

var _ OAuthTokenRefresher = (*LockingOAuthTokenRefresher)(nil)

// NewLockingOAuthTokenRefresher wraps inner with per-user locking.
func NewLockingOAuthTokenRefresher(inner OAuthTokenRefresher, mutexes mutex.Factory) *LockingOAuthTokenRefresher {
	return &LockingOAuthTokenRefresher{inner: inner, mutexes: mutexes}
}

// RefreshOAuthToken acquires the user's mutex, refreshes, and releases on
// every exit path (the deferred release runs whether the inner refresher
// succeeds or fails).
func (r *LockingOAuthTokenRefresher) RefreshOAuthToken(ctx context.Context, old model.OAuthToken) (model.OAuthToken, error) {
	userID, err := session.FromContext(ctx).UserID()
	if err != nil {
		return model.OAuthToken{}, err
	}

	m := r.mutexes.ForKey(userID)
	if err := m.Acquire(ctx); err != nil {
		return model.OAuthToken{}, fmt.Errorf("auth: acquiring refresh mutex for user %s: %w", userID, err)
	}
	defer m.Release()

	return r.inner.RefreshOAuthToken(ctx, old)
}
