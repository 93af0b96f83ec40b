package auth

import (
	"context"
	"fmt"

	"github.com/sakif/docportal/internal/apperror"
	"github.com/sakif/docportal/internal/model"
	"github.com/sakif/docportal/internal/repository"
	"github.com/sakif/docportal/internal/session"
)

// CredentialTransferrer copies or derives a usable credential from the
// identity system into the app's own token store. Invoked once per login,
// via the composite login handler — a transfer failure fails the login,
// deliberately (see the login handler's doc).
type CredentialTransferrer interface {
	TransferCredentials(ctx context.Context, userID string) error
}

// GitHubCredentialTransferrer copies the OAuth token recorded by the
// callback (the accounts table) into the destination repository the rest of
// the pipeline reads from.
type GitHubCredentialTransferrer struct {
	source      OAuthTokenRepository // identity-system side (account-backed)
	destination OAuthTokenRepository
}

var _ CredentialTransferrer = (*GitHubCredentialTransferrer)(nil)

// NewGitHubCredentialTransferrer creates the host transferrer.
func NewGitHubCredentialTransferrer(source, destination OAuthTokenRepository) *GitHubCredentialTransferrer {
	return &GitHubCredentialTransferrer{source: source, destination: destination}
}

// TransferCredentials copies the user's token from source to destination.
func (t *GitHubCredentialTransferrer) TransferCredentials(ctx context.Context, userID string) error {
	token, err := t.source.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("auth: reading upstream token for user %s: %w", userID, err)
	}
	if err := t.destination.Set(ctx, userID, token); err != nil {
		return fmt.Errorf("auth: persisting transferred token for user %s: %w", userID, err)
	}
	return nil
}

// GuestCredentialTransferrer derives a guest's credential at login: look up
// the guest record, mint an installation token scoped to its projects, and
// persist it (with no refresh token — guests re-mint, they never refresh).
//
// NO AUTO-PROVISIONING:
// The guest must already exist; administrators create guests through the
// invite flow. A login for an email with no guest record fails with
// unauthorized — silently creating a guest here would turn "knows a
// password" into "has access", bypassing the invite entirely.
type GuestCredentialTransferrer struct {
	guests       repository.GuestRepository
	installation InstallationAccessTokenDataSource
	destination  OAuthTokenRepository
	accessTokens AccessTokenRepository
}

var _ CredentialTransferrer = (*GuestCredentialTransferrer)(nil)

// NewGuestCredentialTransferrer creates the guest transferrer. The bare
// access token is additionally recorded in accessTokens, whose TTL bounds
// how long the guest's credentials stay usable after this login.
func NewGuestCredentialTransferrer(
	guests repository.GuestRepository,
	installation InstallationAccessTokenDataSource,
	destination OAuthTokenRepository,
	accessTokens AccessTokenRepository,
) *GuestCredentialTransferrer {
	return &GuestCredentialTransferrer{
		guests:       guests,
		installation: installation,
		destination:  destination,
		accessTokens: accessTokens,
	}
}

// TransferCredentials mints and persists the guest's project-scoped token.
func (t *GuestCredentialTransferrer) TransferCredentials(ctx context.Context, userID string) error {
	email, err := session.FromContext(ctx).Email()
	if err != nil {
		return err
	}

	guest, err := t.guests.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("auth: looking up guest %s: %w", email, err)
	}
	if guest == nil {
		return apperror.Unauthorized("no guest account for this email")
	}

	accessToken, err := t.installation.GetAccessToken(ctx, guest.Projects)
	if err != nil {
		return fmt.Errorf("auth: minting access token for guest %s: %w", email, err)
	}

	token := model.OAuthToken{AccessToken: accessToken}
	if err := t.destination.Set(ctx, userID, token); err != nil {
		return fmt.Errorf("auth: persisting guest token for user %s: %w", userID, err)
	}
	if err := t.accessTokens.Set(ctx, userID, accessToken); err != nil {
		return fmt.Errorf("auth: recording guest access token for user %s: %w", userID, err)
	}
	return nil
}

// ProviderRoutedCredentialTransferrer dispatches on the session's account
// provider. The strategy map is total over the provider enum; an
// unrecognized provider is a fatal configuration error.
type ProviderRoutedCredentialTransferrer struct {
	strategies map[model.AccountProviderType]CredentialTransferrer
}

var _ CredentialTransferrer = (*ProviderRoutedCredentialTransferrer)(nil)

// NewProviderRoutedCredentialTransferrer builds the routed transferrer.
func NewProviderRoutedCredentialTransferrer(github, email CredentialTransferrer) *ProviderRoutedCredentialTransferrer {
	return &ProviderRoutedCredentialTransferrer{
		strategies: map[model.AccountProviderType]CredentialTransferrer{
			model.AccountProviderGitHub: github,
			model.AccountProviderEmail:  email,
		},
	}
}

// TransferCredentials routes to exactly one strategy.
func (t *ProviderRoutedCredentialTransferrer) TransferCredentials(ctx context.Context, userID string) error {
	provider, err := session.FromContext(ctx).AccountProvider()
	if err != nil {
		return err
	}

	strategy, ok := t.strategies[provider]
	if !ok || strategy == nil {
		return fmt.Errorf("auth: no credential-transfer strategy for provider %q", provider)
	}
	return strategy.TransferCredentials(ctx, userID)
}

// NullCredentialTransferrer does nothing. Used by deployment modes where
// credential transfer is intentionally disabled (e.g. a read-only demo
// portal serving public repositories) — wiring a no-op is clearer than
// making every caller nil-check.
type NullCredentialTransferrer struct{}

var _ CredentialTransferrer = NullCredentialTransferrer{}

// TransferCredentials is a no-op.
func (NullCredentialTransferrer) TransferCredentials(context.Context, string) error {
	return nil
}
