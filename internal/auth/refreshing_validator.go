package auth

import (
	"context"
	"log/slog"

	"github.com/sakif/docportal/internal/model"
	"github.com/sakif/docportal/internal/session"
)

// RefreshingSessionValidator wraps a validator with a one-shot repair
// attempt: when the inner validator reports invalid, it refreshes the stored
// token and re-validates once.
//
// This is what turns "your access token expired an hour ago" from a forced
// re-login into a transparent refresh. The happy path (inner says valid)
// touches none of the refresh machinery.
//
// Per the SessionValidator contract nothing here ever errors: a failed
// refresh — no stored token, provider rejected the grant, store write
// failed — just leaves the verdict at invalid.
type RefreshingSessionValidator struct {
	inner     SessionValidator
	tokens    OAuthTokenRepository
	refresher OAuthTokenRefresher
	logger    *slog.Logger
}

var _ SessionValidator = (*RefreshingSessionValidator)(nil)

// NewRefreshingSessionValidator creates the validator. The refresher should
// be the locking, provider-routed stack so concurrent repair attempts for
// one user serialize.
func NewRefreshingSessionValidator(
	inner SessionValidator,
	tokens OAuthTokenRepository,
	refresher OAuthTokenRefresher,
	logger *slog.Logger,
) *RefreshingSessionValidator {
	return &RefreshingSessionValidator{
		inner:     inner,
		tokens:    tokens,
		refresher: refresher,
		logger:    logger,
	}
}

// ValidateSession validates, repairing by refresh at most once.
func (v *RefreshingSessionValidator) ValidateSession(ctx context.Context) model.SessionValidity {
	if validity := v.inner.ValidateSession(ctx); validity == model.SessionValid {
		return validity
	}

	userID, err := session.FromContext(ctx).UserID()
	if err != nil {
		return model.SessionInvalidAccessToken
	}

	old, err := v.tokens.Get(ctx, userID)
	if err != nil {
		v.logger.Debug("refresh skipped: no stored token",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return model.SessionInvalidAccessToken
	}

	fresh, err := v.refresher.RefreshOAuthToken(ctx, old)
	if err != nil {
		v.logger.Debug("token refresh failed",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return model.SessionInvalidAccessToken
	}

	if err := v.tokens.Set(ctx, userID, fresh); err != nil {
		v.logger.Warn("persisting refreshed token failed",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return model.SessionInvalidAccessToken
	}

	return v.inner.ValidateSession(ctx)
}
