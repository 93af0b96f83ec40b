package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/sakif/docportal/internal/apperror"
	"github.com/sakif/docportal/internal/model"
	"github.com/sakif/docportal/internal/mutex"
	"github.com/sakif/docportal/internal/session"
)

// OAuthTokenDataSource fetches the current session's OAuth token from
// wherever it originates — a repository, an identity provider, or an
// upstream minting call. Unlike a repository it is session-scoped: it works
// out WHOSE token from the context.
type OAuthTokenDataSource interface {
	GetOAuthToken(ctx context.Context) (model.OAuthToken, error)
}

// AccessTokenDataSource is the access-token-only variant, for callers that
// never need the refresh half (e.g. the docs viewer asking for a token to
// read a repository with).
type AccessTokenDataSource interface {
	GetAccessToken(ctx context.Context) (string, error)
}

// InstallationAccessTokenDataSource mints short-lived access tokens scoped
// to an exact repository set. Implemented by internal/github's App client;
// declared here because this package is its consumer.
type InstallationAccessTokenDataSource interface {
	GetAccessToken(ctx context.Context, repositoryNames []string) (string, error)
}

// SessionOAuthTokenDataSource resolves the session's user ID and reads that
// user's token from a repository.
type SessionOAuthTokenDataSource struct {
	tokens OAuthTokenRepository
}

var _ OAuthTokenDataSource = (*SessionOAuthTokenDataSource)(nil)

// NewSessionOAuthTokenDataSource creates a data source over the repository.
func NewSessionOAuthTokenDataSource(tokens OAuthTokenRepository) *SessionOAuthTokenDataSource {
	return &SessionOAuthTokenDataSource{tokens: tokens}
}

// GetOAuthToken reads the current user's stored token. An anonymous session
// fails with unauthorized before any store access.
func (d *SessionOAuthTokenDataSource) GetOAuthToken(ctx context.Context) (model.OAuthToken, error) {
	userID, err := session.FromContext(ctx).UserID()
	if err != nil {
		return model.OAuthToken{}, err
	}
	return d.tokens.Get(ctx, userID)
}

// SessionAccessTokenDataSource resolves the session's user ID and reads
// that user's bare access token from an AccessTokenRepository.
type SessionAccessTokenDataSource struct {
	tokens AccessTokenRepository
}

var _ AccessTokenDataSource = (*SessionAccessTokenDataSource)(nil)

// NewSessionAccessTokenDataSource creates a data source over the repository.
func NewSessionAccessTokenDataSource(tokens AccessTokenRepository) *SessionAccessTokenDataSource {
	return &SessionAccessTokenDataSource{tokens: tokens}
}

// GetAccessToken reads the current user's stored access token. An anonymous
// session fails with unauthorized before any store access.
func (d *SessionAccessTokenDataSource) GetAccessToken(ctx context.Context) (string, error) {
	userID, err := session.FromContext(ctx).UserID()
	if err != nil {
		return "", err
	}
	return d.tokens.Get(ctx, userID)
}

// PersistingOAuthTokenDataSource wraps an inner data source and caches its
// result in a destination repository, making sure the inner fetch happens at
// most once per user even under concurrent requests.
//
// THE DOUBLE-CHECKED PATTERN:
//  1. Fast path: read the destination repository with no locking. Most
//     requests stop here.
//  2. Miss: acquire the per-user mutex and check AGAIN. Another request may
//     have fetched and persisted between our fast-path miss and our lock
//     acquisition — without the re-check, both would hit the upstream.
//  3. Still missing: fetch from the inner source, persist, release.
//
// The upstream mint is the expensive, sometimes rate-limited operation this
// protects; the extra repository read under the lock is noise by comparison.
type PersistingOAuthTokenDataSource struct {
	inner       OAuthTokenDataSource
	destination OAuthTokenRepository
	mutexes     mutex.Factory
}

var _ OAuthTokenDataSource = (*PersistingOAuthTokenDataSource)(nil)

// NewPersistingOAuthTokenDataSource wraps inner with persist-once behaviour.
func NewPersistingOAuthTokenDataSource(
	inner OAuthTokenDataSource,
	destination OAuthTokenRepository,
	mutexes mutex.Factory,
) *PersistingOAuthTokenDataSource {
	return &PersistingOAuthTokenDataSource{
		inner:       inner,
		destination: destination,
		mutexes:     mutexes,
	}
}

// GetOAuthToken returns the persisted token if present, fetching and
// persisting it under a per-user lock if not.
func (d *PersistingOAuthTokenDataSource) GetOAuthToken(ctx context.Context) (model.OAuthToken, error) {
	userID, err := session.FromContext(ctx).UserID()
	if err != nil {
		return model.OAuthToken{}, err
	}

	// Fast path: no lock. Unauthorized means "not there yet"; anything else
	// is a real store failure worth surfacing.
	token, err := d.destination.Get(ctx, userID)
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, apperror.ErrUnauthorized) {
		return model.OAuthToken{}, err
	}

	m := d.mutexes.ForKey(userID)
	if err := m.Acquire(ctx); err != nil {
		return model.OAuthToken{}, fmt.Errorf("auth: acquiring token mutex for user %s: %w", userID, err)
	}
	defer m.Release()

	// Re-check under the lock.
	token, err = d.destination.Get(ctx, userID)
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, apperror.ErrUnauthorized) {
		return model.OAuthToken{}, err
	}

	token, err = d.inner.GetOAuthToken(ctx)
	if err != nil {
		return model.OAuthToken{}, err
	}
	if err := d.destination.Set(ctx, userID, token); err != nil {
		return model.OAuthToken{}, fmt.Errorf("auth: persisting fetched token for user %s: %w", userID, err)
	}

	return token, nil
}
