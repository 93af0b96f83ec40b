package auth

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/sakif/docportal/internal/apperror"
	"github.com/sakif/docportal/internal/kv"
	"github.com/sakif/docportal/internal/model"
)

func TestGitHubTransferrerCopiesSourceToDestination(t *testing.T) {
	source := newFakeTokenRepo()
	source.tokens["user-1"] = model.OAuthToken{AccessToken: "provider-token", RefreshToken: "r"}
	destination := newFakeTokenRepo()
	transferrer := NewGitHubCredentialTransferrer(source, destination)

	requireNoError(t, transferrer.TransferCredentials(hostContext("user-1"), "user-1"))

	got, err := destination.Get(context.Background(), "user-1")
	requireNoError(t, err)
	if got != source.tokens["user-1"] {
		t.Errorf("destination holds %+v, want the source token", got)
	}
}

func TestGitHubTransferrerMissingSourceToken(t *testing.T) {
	destination := newFakeTokenRepo()
	transferrer := NewGitHubCredentialTransferrer(newFakeTokenRepo(), destination)

	if err := transferrer.TransferCredentials(hostContext("user-1"), "user-1"); err == nil {
		t.Fatal("TransferCredentials() should fail when the source has no token")
	}
	if destination.setCalls != 0 {
		t.Errorf("destination written %d times despite source failure, want 0", destination.setCalls)
	}
}

func TestGuestTransferrerMintsAndPersists(t *testing.T) {
	guest := &model.Guest{ID: "guest-1", Email: "reviewer@example.com", Projects: []string{"docs-api"}}
	installation := &fakeInstallationSource{token: "minted"}
	destination := newFakeTokenRepo()
	accessTokens := NewGuestAccessTokenRepository(kv.NewMemoryStore())
	transferrer := NewGuestCredentialTransferrer(newFakeGuestRepo(guest), installation, destination, accessTokens)

	ctx := guestContext("guest-1", "reviewer@example.com")
	requireNoError(t, transferrer.TransferCredentials(ctx, "guest-1"))

	if len(installation.calls) != 1 || !reflect.DeepEqual(installation.calls[0], guest.Projects) {
		t.Errorf("minted for %v, want the guest's projects", installation.calls)
	}

	stored, err := destination.Get(context.Background(), "guest-1")
	requireNoError(t, err)
	if stored.AccessToken != "minted" {
		t.Errorf("stored access token = %q, want %q", stored.AccessToken, "minted")
	}
	if stored.RefreshToken != "" {
		t.Errorf("stored guest token carries refresh token %q, want none", stored.RefreshToken)
	}

	bare, err := accessTokens.Get(context.Background(), "guest-1")
	requireNoError(t, err)
	if bare != "minted" {
		t.Errorf("recorded bare access token = %q, want %q", bare, "minted")
	}
}

func TestGuestTransferrerUnknownEmailIsUnauthorized(t *testing.T) {
	installation := &fakeInstallationSource{token: "minted"}
	transferrer := NewGuestCredentialTransferrer(
		newFakeGuestRepo(), installation, newFakeTokenRepo(),
		NewGuestAccessTokenRepository(kv.NewMemoryStore()),
	)

	ctx := guestContext("guest-1", "stranger@example.com")
	err := transferrer.TransferCredentials(ctx, "guest-1")
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("TransferCredentials() error = %v, want ErrUnauthorized", err)
	}
	if len(installation.calls) != 0 {
		t.Errorf("installation consulted %d times with no guest record, want 0", len(installation.calls))
	}
}

// countingTransferrer records the user IDs it was invoked with.
type countingTransferrer struct {
	err   error
	users []string
}

func (c *countingTransferrer) TransferCredentials(_ context.Context, userID string) error {
	c.users = append(c.users, userID)
	return c.err
}

func TestRoutedTransferrerExactlyOneBranch(t *testing.T) {
	github := &countingTransferrer{}
	email := &countingTransferrer{}
	routed := NewProviderRoutedCredentialTransferrer(github, email)

	requireNoError(t, routed.TransferCredentials(hostContext("user-1"), "user-1"))
	if len(github.users) != 1 || len(email.users) != 0 {
		t.Errorf("branch calls github=%d email=%d for a host, want 1/0", len(github.users), len(email.users))
	}

	requireNoError(t, routed.TransferCredentials(guestContext("guest-1", "g@example.com"), "guest-1"))
	if len(github.users) != 1 || len(email.users) != 1 {
		t.Errorf("branch calls github=%d email=%d after a guest, want 1/1", len(github.users), len(email.users))
	}
}

func TestRoutedTransferrerAnonymousSession(t *testing.T) {
	routed := NewProviderRoutedCredentialTransferrer(&countingTransferrer{}, &countingTransferrer{})
	if err := routed.TransferCredentials(context.Background(), "user-1"); err == nil {
		t.Error("TransferCredentials() should fail for an anonymous session")
	}
}

func TestNullTransferrer(t *testing.T) {
	requireNoError(t, NullCredentialTransferrer{}.TransferCredentials(context.Background(), "user-1"))
}
