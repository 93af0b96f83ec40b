package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/docportal/internal/kv"
	"github.com/sakif/docportal/internal/model"
	"github.com/sakif/docportal/internal/repository"
)

// UserIdentityProviderReader resolves how a user authenticated. This is the
// authoritative, store-derived answer (as opposed to the session's own
// provider claim) and it drives the guest/host routing everywhere.
type UserIdentityProviderReader interface {
	GetUserIdentityProvider(ctx context.Context, userID string) (model.UserIdentityProvider, error)
}

// StoreUserIdentityProviderReader answers from the account stores: a user ID
// found in the guests table authenticated with username/password; otherwise
// it must be a host in the users table.
type StoreUserIdentityProviderReader struct {
	users  repository.UserRepository
	guests repository.GuestRepository
}

var _ UserIdentityProviderReader = (*StoreUserIdentityProviderReader)(nil)

// NewStoreUserIdentityProviderReader creates the store-backed reader.
func NewStoreUserIdentityProviderReader(
	users repository.UserRepository,
	guests repository.GuestRepository,
) *StoreUserIdentityProviderReader {
	return &StoreUserIdentityProviderReader{users: users, guests: guests}
}

// GetUserIdentityProvider checks the guests table first (the smaller one),
// then the users table. A user ID in neither is an error — sessions only
// ever carry IDs these stores issued.
func (r *StoreUserIdentityProviderReader) GetUserIdentityProvider(ctx context.Context, userID string) (model.UserIdentityProvider, error) {
	guest, err := r.guests.FindByID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("auth: looking up guest %s: %w", userID, err)
	}
	if guest != nil {
		return model.IdentityProviderUsernamePassword, nil
	}

	if _, err := r.users.GetUserByID(ctx, userID); err != nil {
		return 0, fmt.Errorf("auth: resolving identity provider for user %s: %w", userID, err)
	}
	return model.IdentityProviderGitHub, nil
}

// CachedUserIdentityProviderReader adds a cache-aside layer over a reader.
//
// An account's identity provider essentially never changes, so the cache has
// no TTL — it is invalidated only by the explicit delete the logout cleanup
// performs. The write-back after a miss is awaited, not fire-and-forget:
// callers may rely on "one underlying lookup, then hits" deterministically.
type CachedUserIdentityProviderReader struct {
	inner  UserIdentityProviderReader
	cache  *kv.UserDataRepository
	logger *slog.Logger
}

var _ UserIdentityProviderReader = (*CachedUserIdentityProviderReader)(nil)

// NewCachedUserIdentityProviderReader wraps inner with the given cache.
func NewCachedUserIdentityProviderReader(
	inner UserIdentityProviderReader,
	cache *kv.UserDataRepository,
	logger *slog.Logger,
) *CachedUserIdentityProviderReader {
	return &CachedUserIdentityProviderReader{inner: inner, cache: cache, logger: logger}
}

// GetUserIdentityProvider returns the cached value when present — the
// underlying reader is NOT called on a hit. On a miss (including a cached
// value that fails to decode, which is logged and treated as a miss) it
// asks the inner reader and populates the cache before returning.
func (r *CachedUserIdentityProviderReader) GetUserIdentityProvider(ctx context.Context, userID string) (model.UserIdentityProvider, error) {
	cached, ok, err := r.cache.Get(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("auth: reading identity-provider cache for user %s: %w", userID, err)
	}
	if ok {
		provider, err := model.DecodeUserIdentityProvider(cached)
		if err == nil {
			return provider, nil
		}
		r.logger.Warn("identity-provider cache entry is corrupt, refreshing",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
	}

	provider, err := r.inner.GetUserIdentityProvider(ctx, userID)
	if err != nil {
		return 0, err
	}

	if err := r.cache.Set(ctx, userID, model.EncodeUserIdentityProvider(provider)); err != nil {
		return 0, fmt.Errorf("auth: caching identity provider for user %s: %w", userID, err)
	}

	return provider, nil
}

// GuestReader answers "is this user a guest?". Consumed by the routed
// validators and the transfer pipeline.
type GuestReader interface {
	GetIsUserGuest(ctx context.Context, userID string) (bool, error)
}

// IsUserGuestReader derives guest-ness from the identity provider: exactly
// the username/password provider means guest. Pure derivation — no I/O of
// its own beyond the (cached) provider lookup.
type IsUserGuestReader struct {
	providers UserIdentityProviderReader
}

var _ GuestReader = (*IsUserGuestReader)(nil)

// NewIsUserGuestReader creates the reader.
func NewIsUserGuestReader(providers UserIdentityProviderReader) *IsUserGuestReader {
	return &IsUserGuestReader{providers: providers}
}

// GetIsUserGuest reports whether the user authenticated with
// username/password.
func (r *IsUserGuestReader) GetIsUserGuest(ctx context.Context, userID string) (bool, error) {
	provider, err := r.providers.GetUserIdentityProvider(ctx, userID)
	if err != nil {
		return false, err
	}
	return provider == model.IdentityProviderUsernamePassword, nil
}
