package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/docportal/internal/model"
)

// fakeRefresher returns a fixed token or error, counting calls.
type fakeRefresher struct {
	token model.OAuthToken
	err   error
	calls int
}

func (f *fakeRefresher) RefreshOAuthToken(_ context.Context, _ model.OAuthToken) (model.OAuthToken, error) {
	f.calls++
	if f.err != nil {
		return model.OAuthToken{}, f.err
	}
	return f.token, nil
}

func TestRoutedRefresherPicksGitHubForHostSessions(t *testing.T) {
	github := &fakeRefresher{token: model.OAuthToken{AccessToken: "from-github"}}
	email := &fakeRefresher{token: model.OAuthToken{AccessToken: "from-email"}}
	routed := NewProviderRoutedOAuthTokenRefresher(github, email)

	token, err := routed.RefreshOAuthToken(hostContext("user-1"), model.OAuthToken{AccessToken: "old"})
	requireNoError(t, err)
	if token.AccessToken != "from-github" {
		t.Errorf("AccessToken = %q, want the github strategy's result", token.AccessToken)
	}
	if github.calls != 1 || email.calls != 0 {
		t.Errorf("strategy calls github=%d email=%d, want exactly one branch taken", github.calls, email.calls)
	}
}

func TestRoutedRefresherPicksEmailForGuestSessions(t *testing.T) {
	github := &fakeRefresher{token: model.OAuthToken{AccessToken: "from-github"}}
	email := &fakeRefresher{token: model.OAuthToken{AccessToken: "from-email"}}
	routed := NewProviderRoutedOAuthTokenRefresher(github, email)

	token, err := routed.RefreshOAuthToken(guestContext("guest-1", "g@example.com"), model.OAuthToken{AccessToken: "old"})
	requireNoError(t, err)
	if token.AccessToken != "from-email" {
		t.Errorf("AccessToken = %q, want the email strategy's result", token.AccessToken)
	}
	if github.calls != 0 || email.calls != 1 {
		t.Errorf("strategy calls github=%d email=%d, want exactly one branch taken", github.calls, email.calls)
	}
}

func TestRoutedRefresherAnonymousSession(t *testing.T) {
	routed := NewProviderRoutedOAuthTokenRefresher(&fakeRefresher{}, &fakeRefresher{})

	if _, err := routed.RefreshOAuthToken(context.Background(), model.OAuthToken{}); err == nil {
		t.Fatal("RefreshOAuthToken() should fail for an anonymous session")
	}
}

// =========================================================================
// LOCKING REFRESHER
// =========================================================================

func TestLockingRefresherHoldsMutexAroundInner(t *testing.T) {
	inner := &fakeRefresher{token: model.OAuthToken{AccessToken: "fresh"}}
	mutexes := newRecordingMutexFactory()
	refresher := NewLockingOAuthTokenRefresher(inner, mutexes)

	token, err := refresher.RefreshOAuthToken(hostContext("user-1"), model.OAuthToken{AccessToken: "old"})
	requireNoError(t, err)
	if token.AccessToken != "fresh" {
		t.Errorf("AccessToken = %q, want %q", token.AccessToken, "fresh")
	}

	m := mutexes.mutexes["user-1"]
	if m == nil {
		t.Fatal("no mutex taken for the session's user ID")
	}
	if m.acquires != 1 || m.releases != 1 {
		t.Errorf("acquires/releases = %d/%d, want 1/1", m.acquires, m.releases)
	}
}

func TestLockingRefresherReleasesOnInnerFailure(t *testing.T) {
	inner := &fakeRefresher{err: errors.New("provider rejected the grant")}
	mutexes := newRecordingMutexFactory()
	refresher := NewLockingOAuthTokenRefresher(inner, mutexes)

	if _, err := refresher.RefreshOAuthToken(hostContext("user-1"), model.OAuthToken{}); err == nil {
		t.Fatal("RefreshOAuthToken() should propagate the inner failure")
	}

	m := mutexes.mutexes["user-1"]
	if m == nil || m.releases != 1 {
		t.Errorf("mutex must be released exactly once even on failure, got %+v", m)
	}
}

// =========================================================================
// GUEST REFRESHER
// =========================================================================

func TestGuestRefresherRemints(t *testing.T) {
	source := &fakeOAuthTokenDataSource{token: model.OAuthToken{AccessToken: "reminted"}}
	refresher := NewGuestOAuthTokenRefresher(source)

	token, err := refresher.RefreshOAuthToken(
		guestContext("guest-1", "g@example.com"),
		model.OAuthToken{AccessToken: "stale"},
	)
	requireNoError(t, err)
	if token.AccessToken != "reminted" {
		t.Errorf("AccessToken = %q, want %q", token.AccessToken, "reminted")
	}
}

func TestGuestRefresherRejectsRefreshTokens(t *testing.T) {
	source := &fakeOAuthTokenDataSource{token: model.OAuthToken{AccessToken: "reminted"}}
	refresher := NewGuestOAuthTokenRefresher(source)

	_, err := refresher.RefreshOAuthToken(
		guestContext("guest-1", "g@example.com"),
		model.OAuthToken{AccessToken: "stale", RefreshToken: "host-grant"},
	)
	if err == nil {
		t.Fatal("RefreshOAuthToken() should refuse a token carrying a refresh token")
	}
	if source.calls != 0 {
		t.Errorf("data source consulted %d times for a misrouted token, want 0", source.calls)
	}
}
