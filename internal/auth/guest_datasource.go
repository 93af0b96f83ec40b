package auth

import (
	"context"
	"fmt"

	"github.com/sakif/docportal/internal/model"
	"github.com/sakif/docportal/internal/repository"
	"github.com/sakif/docportal/internal/session"
)

// GuestOAuthTokenDataSource derives a guest's credential from scratch: look
// up the guest record by the session email, then mint an installation token
// scoped to exactly the guest's assigned projects.
//
// The returned token never carries a refresh token — installation tokens
// are renewed by minting again, not by a refresh grant.
type GuestOAuthTokenDataSource struct {
	guests       repository.GuestRepository
	installation InstallationAccessTokenDataSource
}

var _ OAuthTokenDataSource = (*GuestOAuthTokenDataSource)(nil)

// NewGuestOAuthTokenDataSource creates a guest data source.
func NewGuestOAuthTokenDataSource(
	guests repository.GuestRepository,
	installation InstallationAccessTokenDataSource,
) *GuestOAuthTokenDataSource {
	return &GuestOAuthTokenDataSource{guests: guests, installation: installation}
}

// GetOAuthToken mints a project-scoped token for the current guest session.
//
// NON-EMAIL SESSIONS ARE A FATAL MISUSE:
// This data source only makes sense behind provider routing that already
// decided the session is a guest. A GitHub session arriving here means the
// routing is miswired, so the error is deliberately a plain error (a
// configuration bug to fix), not an unauthorized (a user state to redirect).
func (d *GuestOAuthTokenDataSource) GetOAuthToken(ctx context.Context) (model.OAuthToken, error) {
	sess := session.FromContext(ctx)

	provider, err := sess.AccountProvider()
	if err != nil {
		return model.OAuthToken{}, err
	}
	if provider != model.AccountProviderEmail {
		return model.OAuthToken{}, fmt.Errorf("auth: guest data source invoked for provider %q", provider)
	}

	email, err := sess.Email()
	if err != nil {
		return model.OAuthToken{}, err
	}

	projects, err := d.guests.GetProjectsForEmail(ctx, email)
	if err != nil {
		return model.OAuthToken{}, fmt.Errorf("auth: resolving projects for guest %s: %w", email, err)
	}

	accessToken, err := d.installation.GetAccessToken(ctx, projects)
	if err != nil {
		return model.OAuthToken{}, fmt.Errorf("auth: minting guest access token: %w", err)
	}

	return model.OAuthToken{AccessToken: accessToken}, nil
}
