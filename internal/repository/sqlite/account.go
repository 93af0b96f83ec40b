package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/docportal/internal/apperror"
	"github.com/sakif/docportal/internal/model"
	"github.com/sakif/docportal/internal/repository"
)

// compile-time check that *DB implements repository.AccountRepository
var _ repository.AccountRepository = (*DB)(nil)

// UpsertToken records the provider token captured during the OAuth callback,
// one row per user. ON CONFLICT keeps created_at from the first login.
func (db *DB) UpsertToken(ctx context.Context, userID string, token model.OAuthToken) error {
	now := time.Now()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO accounts (user_id, provider, access_token, refresh_token, created_at, updated_at)
		 VALUES (?, 'github', ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			access_token  = excluded.access_token,
			refresh_token = excluded.refresh_token,
			updated_at    = excluded.updated_at`,
		userID,
		token.AccessToken,
		token.RefreshToken,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting account token for user %s: %w", userID, err)
	}
	return nil
}

// GetTokenByUserID returns the provider token recorded at login.
// Returns apperror.ErrNotFound if the user has no account row.
func (db *DB) GetTokenByUserID(ctx context.Context, userID string) (model.OAuthToken, error) {
	var token model.OAuthToken

	err := db.conn.QueryRowContext(ctx,
		`SELECT access_token, refresh_token FROM accounts WHERE user_id = ?`,
		userID,
	).Scan(&token.AccessToken, &token.RefreshToken)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.OAuthToken{}, apperror.NotFound("account", userID)
		}
		return model.OAuthToken{}, fmt.Errorf("sqlite: getting account token for user %s: %w", userID, err)
	}

	return token, nil
}
