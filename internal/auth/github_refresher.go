package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/sakif/docportal/internal/apperror"
	"github.com/sakif/docportal/internal/model"
)

// GitHubOAuthTokenRefresher renews a host's token through the standard
// OAuth refresh-token grant against GitHub's token endpoint.
//
// golang.org/x/oauth2 does the heavy lifting: handing Config.TokenSource a
// token with only a refresh token forces an immediate refresh on the first
// Token() call (there is no unexpired access token to reuse).
type GitHubOAuthTokenRefresher struct {
	config *oauth2.Config
}

var _ OAuthTokenRefresher = (*GitHubOAuthTokenRefresher)(nil)

// NewGitHubOAuthTokenRefresher creates a refresher using the given OAuth app
// configuration (the same one the login flow uses).
func NewGitHubOAuthTokenRefresher(config *oauth2.Config) *GitHubOAuthTokenRefresher {
	return &GitHubOAuthTokenRefresher{config: config}
}

// RefreshOAuthToken exchanges the old token's refresh token for a new pair.
//
// A host token without a refresh token cannot be refreshed — that's an
// unauthorized outcome (the user re-authenticates), not a bug: it happens
// legitimately when the OAuth app had refresh tokens disabled when the user
// last logged in.
func (r *GitHubOAuthTokenRefresher) RefreshOAuthToken(ctx context.Context, old model.OAuthToken) (model.OAuthToken, error) {
	if old.RefreshToken == "" {
		return model.OAuthToken{}, apperror.Unauthorized("stored token has no refresh token")
	}

	source := r.config.TokenSource(ctx, &oauth2.Token{RefreshToken: old.RefreshToken})
	fresh, err := source.Token()
	if err != nil {
		// Propagate as-is: the caller decides whether an upstream rejection
		// means invalid-session or something worth retrying.
		return model.OAuthToken{}, fmt.Errorf("auth: refreshing GitHub token: %w", err)
	}

	token := model.OAuthToken{
		AccessToken:  fresh.AccessToken,
		RefreshToken: fresh.RefreshToken,
	}
	// Some providers rotate the refresh token on every use, some don't
	// return it at all on refresh. Keep the old one if no new one came back.
	if token.RefreshToken == "" {
		token.RefreshToken = old.RefreshToken
	}

	return token, nil
}
