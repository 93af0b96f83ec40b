package auth

// Shared fakes and helpers for the tests in this package.
//
// Using hand-written fakes (not a mock framework) keeps tests dependency-free
// and easy to read — you can see exactly what each fake does, and the fakes
// double as documentation of the narrow interfaces they implement.

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/sakif/docportal/internal/apperror"
	"github.com/sakif/docportal/internal/model"
	"github.com/sakif/docportal/internal/mutex"
	"github.com/sakif/docportal/internal/session"
)

// discardLogger returns a logger that drops everything — the components
// under test log on their swallow-the-error paths, and we don't want that
// noise in test output.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// hostContext returns a context carrying an authenticated host session.
func hostContext(userID string) context.Context {
	return session.WithSession(context.Background(), &session.Claims{
		UserIDValue:   userID,
		EmailValue:    userID + "@example.com",
		ProviderValue: model.AccountProviderGitHub,
	})
}

// guestContext returns a context carrying an authenticated guest session.
func guestContext(userID, email string) context.Context {
	return session.WithSession(context.Background(), &session.Claims{
		UserIDValue:   userID,
		EmailValue:    email,
		ProviderValue: model.AccountProviderEmail,
	})
}

// fakeTokenRepo is an in-memory OAuthTokenRepository with error injection
// and call counting.
type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]model.OAuthToken

	getErr    error
	setErr    error
	deleteErr error

	getCalls    int
	setCalls    int
	deleteCalls int
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]model.OAuthToken)}
}

func (f *fakeTokenRepo) Get(_ context.Context, userID string) (model.OAuthToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return model.OAuthToken{}, f.getErr
	}
	token, ok := f.tokens[userID]
	if !ok {
		return model.OAuthToken{}, apperror.Unauthorized("no token for user " + userID)
	}
	return token, nil
}

func (f *fakeTokenRepo) Set(_ context.Context, userID string, token model.OAuthToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls++
	if f.setErr != nil {
		return f.setErr
	}
	f.tokens[userID] = token
	return nil
}

func (f *fakeTokenRepo) Delete(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.tokens, userID)
	return nil
}

// fakeOAuthTokenDataSource returns a fixed token or error, counting calls.
type fakeOAuthTokenDataSource struct {
	token model.OAuthToken
	err   error
	calls int
}

func (f *fakeOAuthTokenDataSource) GetOAuthToken(context.Context) (model.OAuthToken, error) {
	f.calls++
	if f.err != nil {
		return model.OAuthToken{}, f.err
	}
	return f.token, nil
}

// fakeAccessTokenDataSource returns a fixed access token or error.
type fakeAccessTokenDataSource struct {
	token string
	err   error
}

func (f *fakeAccessTokenDataSource) GetAccessToken(context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.token, nil
}

// fakeInstallationSource records the repository list each mint was scoped to.
type fakeInstallationSource struct {
	token string
	err   error
	calls [][]string
}

func (f *fakeInstallationSource) GetAccessToken(_ context.Context, repositoryNames []string) (string, error) {
	f.calls = append(f.calls, repositoryNames)
	if f.err != nil {
		return "", f.err
	}
	return f.token, nil
}

// recordingMutex tracks acquire/release ordering.
type recordingMutex struct {
	mu       sync.Mutex
	acquires int
	releases int
}

func (m *recordingMutex) Acquire(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acquires++
	return nil
}

func (m *recordingMutex) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releases++
}

// recordingMutexFactory hands out one recordingMutex per key.
type recordingMutexFactory struct {
	mu      sync.Mutex
	mutexes map[string]*recordingMutex
}

func newRecordingMutexFactory() *recordingMutexFactory {
	return &recordingMutexFactory{mutexes: make(map[string]*recordingMutex)}
}

func (f *recordingMutexFactory) ForKey(key string) mutex.Mutex {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.mutexes[key]
	if !ok {
		m = &recordingMutex{}
		f.mutexes[key] = m
	}
	return m
}

// totalAcquires sums acquires over all keys.
func (f *recordingMutexFactory) totalAcquires() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, m := range f.mutexes {
		total += m.acquires
	}
	return total
}

// fakeGuestReader answers guest-ness from a fixed map.
type fakeGuestReader struct {
	guests map[string]bool
	err    error
}

func (f *fakeGuestReader) GetIsUserGuest(_ context.Context, userID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.guests[userID], nil
}

// fakeGuestRepo is an in-memory repository.GuestRepository.
type fakeGuestRepo struct {
	byEmail map[string]*model.Guest
	byID    map[string]*model.Guest
}

func newFakeGuestRepo(guests ...*model.Guest) *fakeGuestRepo {
	f := &fakeGuestRepo{
		byEmail: make(map[string]*model.Guest),
		byID:    make(map[string]*model.Guest),
	}
	for _, g := range guests {
		f.byEmail[g.Email] = g
		f.byID[g.ID] = g
	}
	return f
}

func (f *fakeGuestRepo) Create(_ context.Context, guest *model.Guest) error {
	f.byEmail[guest.Email] = guest
	f.byID[guest.ID] = guest
	return nil
}

func (f *fakeGuestRepo) FindByEmail(_ context.Context, email string) (*model.Guest, error) {
	return f.byEmail[email], nil
}

func (f *fakeGuestRepo) FindByID(_ context.Context, id string) (*model.Guest, error) {
	return f.byID[id], nil
}

func (f *fakeGuestRepo) GetProjectsForEmail(_ context.Context, email string) ([]string, error) {
	guest := f.byEmail[email]
	if guest == nil {
		return nil, errors.New("guest not found")
	}
	return guest.Projects, nil
}

// requireNoError is a tiny assertion helper for the stdlib-style tests here.
func requireNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
