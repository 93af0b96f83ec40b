package auth

import (
	"context"
	"fmt"
)

// RepositoryRestrictingAccessTokenDataSource narrows raw installation
// tokens to the caller's authorized repository set.
//
// A raw installation token can read everything the GitHub App installation
// can. This wrapper first resolves which repositories the user may actually
// access (via the — usually cached — access reader), then asks the inner
// source for a token scoped to exactly that list, in that order. Nothing
// above this layer ever handles an unscoped token.
type RepositoryRestrictingAccessTokenDataSource struct {
	access RepositoryAccessReader
	inner  InstallationAccessTokenDataSource
}

// NewRepositoryRestrictingAccessTokenDataSource wraps the inner source with
// per-user repository scoping.
func NewRepositoryRestrictingAccessTokenDataSource(
	access RepositoryAccessReader,
	inner InstallationAccessTokenDataSource,
) *RepositoryRestrictingAccessTokenDataSource {
	return &RepositoryRestrictingAccessTokenDataSource{access: access, inner: inner}
}

// GetAccessToken mints a token scoped to the user's authorized repositories.
func (d *RepositoryRestrictingAccessTokenDataSource) GetAccessToken(ctx context.Context, userID string) (string, error) {
	repositoryNames, err := d.access.GetRepositoryNames(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("auth: resolving repository access for user %s: %w", userID, err)
	}

	token, err := d.inner.GetAccessToken(ctx, repositoryNames)
	if err != nil {
		return "", fmt.Errorf("auth: minting scoped access token for user %s: %w", userID, err)
	}
	return token, nil
}
