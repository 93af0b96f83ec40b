package auth

import (
	"context"
	"fmt"

	"github.com/sakif/docportal/internal/apperror"
	"github.com/sakif/docportal/internal/kv"
	"github.com/sakif/docportal/internal/model"
)

// OAuthTokenRepository persists and retrieves the OAuth token for a user.
//
// CONTRACT:
//   - Get returns a well-formed token or fails with an error matching
//     apperror.ErrUnauthorized. It never returns a partial token — a stored
//     value that doesn't decode counts as absent.
//   - Set and Delete may be unsupported on repositories whose backing store
//     is owned by an external system (see AccountOAuthTokenRepository);
//     callers must not assume Set always persists.
type OAuthTokenRepository interface {
	Get(ctx context.Context, userID string) (model.OAuthToken, error)
	Set(ctx context.Context, userID string, token model.OAuthToken) error
	Delete(ctx context.Context, userID string) error
}

// KVOAuthTokenRepository stores tokens as JSON in a per-user key-value
// entry. This is the destination store the rest of the app reads from —
// credentials arrive here via the transferrers at login and are renewed in
// place by the refreshers.
type KVOAuthTokenRepository struct {
	entries *kv.UserDataRepository
}

var _ OAuthTokenRepository = (*KVOAuthTokenRepository)(nil)

// NewKVOAuthTokenRepository creates a repository over the given per-user
// entry namespace.
func NewKVOAuthTokenRepository(entries *kv.UserDataRepository) *KVOAuthTokenRepository {
	return &KVOAuthTokenRepository{entries: entries}
}

// Get retrieves and decodes the stored token.
//
// A malformed stored value is reported exactly like a missing one: as
// unauthorized. The caller's remedy is the same in both cases (send the user
// back through login, which overwrites the entry), and distinguishing them
// would only invite callers to handle a state they can't do anything with.
func (r *KVOAuthTokenRepository) Get(ctx context.Context, userID string) (model.OAuthToken, error) {
	value, ok, err := r.entries.Get(ctx, userID)
	if err != nil {
		return model.OAuthToken{}, fmt.Errorf("auth: reading stored token for user %s: %w", userID, err)
	}
	if !ok {
		return model.OAuthToken{}, apperror.Unauthorized("no stored OAuth token")
	}

	token, err := model.DecodeOAuthToken([]byte(value))
	if err != nil {
		return model.OAuthToken{}, apperror.Unauthorized("stored OAuth token is malformed")
	}
	return token, nil
}

// Set encodes and stores the token for a user.
func (r *KVOAuthTokenRepository) Set(ctx context.Context, userID string, token model.OAuthToken) error {
	encoded, err := model.EncodeOAuthToken(token)
	if err != nil {
		return fmt.Errorf("auth: encoding token for user %s: %w", userID, err)
	}
	if err := r.entries.Set(ctx, userID, encoded); err != nil {
		return fmt.Errorf("auth: storing token for user %s: %w", userID, err)
	}
	return nil
}

// Delete removes the stored token for a user.
func (r *KVOAuthTokenRepository) Delete(ctx context.Context, userID string) error {
	if err := r.entries.Delete(ctx, userID); err != nil {
		return fmt.Errorf("auth: deleting token for user %s: %w", userID, err)
	}
	return nil
}
