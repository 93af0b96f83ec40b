package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/sakif/docportal/internal/apperror"
	"github.com/sakif/docportal/internal/model"
	"github.com/sakif/docportal/internal/repository"
)

// AccountOAuthTokenRepository reads OAuth tokens from the accounts table —
// the rows the identity flow writes at OAuth-callback time.
//
// READ-ONLY BY DESIGN:
// The accounts table belongs to the identity system, not to the credential
// pipeline. Writing to it from here would put two owners on one table and
// let a refresh clobber what the next login is about to record. Set and
// Delete therefore fail with apperror.ErrReadOnly instead of quietly
// no-opping — a silent no-op would hide a genuine write loss from a caller
// that wired this repository somewhere it doesn't belong. Compositions that
// legitimately want a read-only member (the fallback secondary) simply never
// write to it.
type AccountOAuthTokenRepository struct {
	accounts repository.AccountRepository
}

var _ OAuthTokenRepository = (*AccountOAuthTokenRepository)(nil)

// NewAccountOAuthTokenRepository wraps the accounts table.
func NewAccountOAuthTokenRepository(accounts repository.AccountRepository) *AccountOAuthTokenRepository {
	return &AccountOAuthTokenRepository{accounts: accounts}
}

// Get returns the provider token recorded for the user at login.
func (r *AccountOAuthTokenRepository) Get(ctx context.Context, userID string) (model.OAuthToken, error) {
	token, err := r.accounts.GetTokenByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return model.OAuthToken{}, apperror.Unauthorized("no account token on record")
		}
		return model.OAuthToken{}, fmt.Errorf("auth: reading account token for user %s: %w", userID, err)
	}
	return token, nil
}

// Set is not supported; the accounts table is written by the OAuth callback.
func (r *AccountOAuthTokenRepository) Set(_ context.Context, userID string, _ model.OAuthToken) error {
	return fmt.Errorf("auth: account token repository for user %s: %w", userID, apperror.ErrReadOnly)
}

// Delete is not supported; account rows outlive sessions.
func (r *AccountOAuthTokenRepository) Delete(_ context.Context, userID string) error {
	return fmt.Errorf("auth: account token repository for user %s: %w", userID, apperror.ErrReadOnly)
}
