package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/docportal/internal/apperror"
	"github.com/sakif/docportal/internal/kv"
	"github.com/sakif/docportal/internal/model"
)

func TestKVRepositoryRoundTrip(t *testing.T) {
	repo := NewKVOAuthTokenRepository(kv.NewUserDataRepository(kv.NewMemoryStore(), "oauthToken"))
	ctx := context.Background()

	token := model.OAuthToken{AccessToken: "access", RefreshToken: "refresh"}
	requireNoError(t, repo.Set(ctx, "user-1", token))

	got, err := repo.Get(ctx, "user-1")
	requireNoError(t, err)
	if got != token {
		t.Errorf("Get() = %+v, want %+v", got, token)
	}
}

func TestKVRepositoryMissIsUnauthorized(t *testing.T) {
	repo := NewKVOAuthTokenRepository(kv.NewUserDataRepository(kv.NewMemoryStore(), "oauthToken"))

	_, err := repo.Get(context.Background(), "nobody")
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Get() error = %v, want ErrUnauthorized", err)
	}
}

func TestKVRepositoryMalformedEntryIsUnauthorized(t *testing.T) {
	store := kv.NewMemoryStore()
	entries := kv.NewUserDataRepository(store, "oauthToken")
	repo := NewKVOAuthTokenRepository(entries)
	ctx := context.Background()

	// A stored value that isn't a usable token must read exactly like an
	// absent one — never a partial token, never a decode error.
	for name, value := range map[string]string{
		"not JSON":             "}{garbage",
		"empty object":         "{}",
		"missing access token": `{"refreshToken":"r"}`,
		"JSON null":            "null",
	} {
		t.Run(name, func(t *testing.T) {
			requireNoError(t, entries.Set(ctx, "user-1", value))

			_, err := repo.Get(ctx, "user-1")
			if !errors.Is(err, apperror.ErrUnauthorized) {
				t.Errorf("Get() error = %v, want ErrUnauthorized", err)
			}
		})
	}
}

func TestKVRepositoryDelete(t *testing.T) {
	repo := NewKVOAuthTokenRepository(kv.NewUserDataRepository(kv.NewMemoryStore(), "oauthToken"))
	ctx := context.Background()

	requireNoError(t, repo.Set(ctx, "user-1", model.OAuthToken{AccessToken: "a"}))
	requireNoError(t, repo.Delete(ctx, "user-1"))

	if _, err := repo.Get(ctx, "user-1"); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Get() after Delete error = %v, want ErrUnauthorized", err)
	}
}

// =========================================================================
// FALLBACK REPOSITORY
// =========================================================================

func TestFallbackPrefersPrimary(t *testing.T) {
	primary := newFakeTokenRepo()
	secondary := newFakeTokenRepo()
	primary.tokens["user-1"] = model.OAuthToken{AccessToken: "from-primary"}
	secondary.tokens["user-1"] = model.OAuthToken{AccessToken: "from-secondary"}

	repo := NewFallbackOAuthTokenRepository(primary, secondary)

	token, err := repo.Get(context.Background(), "user-1")
	requireNoError(t, err)
	if token.AccessToken != "from-primary" {
		t.Errorf("AccessToken = %q, want %q", token.AccessToken, "from-primary")
	}
	if secondary.getCalls != 0 {
		t.Errorf("secondary.Get called %d times, want 0", secondary.getCalls)
	}
}

func TestFallbackHealsPrimaryFromSecondary(t *testing.T) {
	primary := newFakeTokenRepo()
	secondary := newFakeTokenRepo()
	secondary.tokens["user-1"] = model.OAuthToken{AccessToken: "recovered"}

	repo := NewFallbackOAuthTokenRepository(primary, secondary)

	token, err := repo.Get(context.Background(), "user-1")
	requireNoError(t, err)
	if token.AccessToken != "recovered" {
		t.Errorf("AccessToken = %q, want %q", token.AccessToken, "recovered")
	}

	// The recovered token must have been written back into the primary.
	healed, err := primary.Get(context.Background(), "user-1")
	requireNoError(t, err)
	if healed.AccessToken != "recovered" {
		t.Errorf("primary was not healed, got %+v", healed)
	}
}

func TestFallbackBothMissing(t *testing.T) {
	repo := NewFallbackOAuthTokenRepository(newFakeTokenRepo(), newFakeTokenRepo())

	if _, err := repo.Get(context.Background(), "user-1"); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Get() error = %v, want ErrUnauthorized", err)
	}
}

func TestFallbackWritesTouchPrimaryOnly(t *testing.T) {
	primary := newFakeTokenRepo()
	secondary := newFakeTokenRepo()
	repo := NewFallbackOAuthTokenRepository(primary, secondary)
	ctx := context.Background()

	requireNoError(t, repo.Set(ctx, "user-1", model.OAuthToken{AccessToken: "a"}))
	requireNoError(t, repo.Delete(ctx, "user-1"))

	if secondary.setCalls != 0 || secondary.deleteCalls != 0 {
		t.Errorf("secondary saw set=%d delete=%d, want 0/0", secondary.setCalls, secondary.deleteCalls)
	}
	if primary.setCalls != 1 || primary.deleteCalls != 1 {
		t.Errorf("primary saw set=%d delete=%d, want 1/1", primary.setCalls, primary.deleteCalls)
	}
}

// =========================================================================
// COMPOSITE REPOSITORY
// =========================================================================

func TestCompositeGetFirstSuccessInOrder(t *testing.T) {
	first := newFakeTokenRepo()
	second := newFakeTokenRepo()
	second.tokens["user-1"] = model.OAuthToken{AccessToken: "from-second"}
	third := newFakeTokenRepo()
	third.tokens["user-1"] = model.OAuthToken{AccessToken: "from-third"}

	repo := NewCompositeOAuthTokenRepository(first, second, third)

	token, err := repo.Get(context.Background(), "user-1")
	requireNoError(t, err)
	if token.AccessToken != "from-second" {
		t.Errorf("AccessToken = %q, want %q (declared order decides)", token.AccessToken, "from-second")
	}
	if third.getCalls != 0 {
		t.Errorf("third member consulted %d times after an earlier success, want 0", third.getCalls)
	}
}

func TestCompositeGetAllFail(t *testing.T) {
	repo := NewCompositeOAuthTokenRepository(newFakeTokenRepo(), newFakeTokenRepo())

	if _, err := repo.Get(context.Background(), "user-1"); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Get() error = %v, want ErrUnauthorized", err)
	}
}

func TestCompositeSetFansOutToAll(t *testing.T) {
	members := []*fakeTokenRepo{newFakeTokenRepo(), newFakeTokenRepo(), newFakeTokenRepo()}
	repo := NewCompositeOAuthTokenRepository(members[0], members[1], members[2])

	token := model.OAuthToken{AccessToken: "shared"}
	requireNoError(t, repo.Set(context.Background(), "user-1", token))

	for i, m := range members {
		got, err := m.Get(context.Background(), "user-1")
		requireNoError(t, err)
		if got != token {
			t.Errorf("member %d holds %+v, want %+v", i, got, token)
		}
	}
}

func TestCompositeSetPropagatesMemberFailure(t *testing.T) {
	healthy := newFakeTokenRepo()
	broken := newFakeTokenRepo()
	broken.setErr = errors.New("store is down")
	repo := NewCompositeOAuthTokenRepository(healthy, broken)

	err := repo.Set(context.Background(), "user-1", model.OAuthToken{AccessToken: "a"})
	if err == nil {
		t.Fatal("Set() should fail when any member fails")
	}
}

func TestCompositeDeleteFansOutToAll(t *testing.T) {
	members := []*fakeTokenRepo{newFakeTokenRepo(), newFakeTokenRepo()}
	for _, m := range members {
		m.tokens["user-1"] = model.OAuthToken{AccessToken: "a"}
	}
	repo := NewCompositeOAuthTokenRepository(members[0], members[1])

	requireNoError(t, repo.Delete(context.Background(), "user-1"))

	for i, m := range members {
		if len(m.tokens) != 0 {
			t.Errorf("member %d still holds tokens after composite delete", i)
		}
	}
}

// =========================================================================
// ACCOUNT-BACKED REPOSITORY (read-only)
// =========================================================================

type fakeAccountRepo struct {
	tokens map[string]model.OAuthToken
}

func (f *fakeAccountRepo) UpsertToken(_ context.Context, userID string, token model.OAuthToken) error {
	f.tokens[userID] = token
	return nil
}

func (f *fakeAccountRepo) GetTokenByUserID(_ context.Context, userID string) (model.OAuthToken, error) {
	token, ok := f.tokens[userID]
	if !ok {
		return model.OAuthToken{}, apperror.NotFound("account", userID)
	}
	return token, nil
}

func TestAccountRepositoryGet(t *testing.T) {
	accounts := &fakeAccountRepo{tokens: map[string]model.OAuthToken{
		"user-1": {AccessToken: "provider-token", RefreshToken: "r"},
	}}
	repo := NewAccountOAuthTokenRepository(accounts)

	token, err := repo.Get(context.Background(), "user-1")
	requireNoError(t, err)
	if token.AccessToken != "provider-token" {
		t.Errorf("AccessToken = %q, want %q", token.AccessToken, "provider-token")
	}

	// Absent account row reads as unauthorized, same as every repository.
	if _, err := repo.Get(context.Background(), "nobody"); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Get() error = %v, want ErrUnauthorized", err)
	}
}

func TestAccountRepositoryIsReadOnly(t *testing.T) {
	repo := NewAccountOAuthTokenRepository(&fakeAccountRepo{tokens: map[string]model.OAuthToken{}})
	ctx := context.Background()

	if err := repo.Set(ctx, "user-1", model.OAuthToken{AccessToken: "a"}); !errors.Is(err, apperror.ErrReadOnly) {
		t.Errorf("Set() error = %v, want ErrReadOnly", err)
	}
	if err := repo.Delete(ctx, "user-1"); !errors.Is(err, apperror.ErrReadOnly) {
		t.Errorf("Delete() error = %v, want ErrReadOnly", err)
	}
}

// =========================================================================
// GUEST ACCESS TOKEN REPOSITORY
// =========================================================================

// ttlRecordingStore captures the raw key/value/ttl of SetExpiring calls.
type ttlRecordingStore struct {
	*kv.MemoryStore
	key   string
	value string
	ttl   time.Duration
}

func (s *ttlRecordingStore) SetExpiring(ctx context.Context, key, value string, ttl time.Duration) error {
	s.key, s.value, s.ttl = key, value, ttl
	return s.MemoryStore.SetExpiring(ctx, key, value, ttl)
}

func TestGuestAccessTokenRepositorySetUsesSevenDayTTL(t *testing.T) {
	store := &ttlRecordingStore{MemoryStore: kv.NewMemoryStore()}
	repo := NewGuestAccessTokenRepository(store)

	requireNoError(t, repo.Set(context.Background(), "1234", "bar"))

	if store.key != "1234" {
		t.Errorf("store key = %q, want %q", store.key, "1234")
	}
	if store.value != "bar" {
		t.Errorf("store value = %q, want %q", store.value, "bar")
	}
	if store.ttl <= 0 {
		t.Errorf("ttl = %v, want > 0", store.ttl)
	}
	if want := 7 * 24 * 3600 * time.Second; store.ttl != want {
		t.Errorf("ttl = %v, want %v", store.ttl, want)
	}
}

func TestGuestAccessTokenRepositoryGetMissIsUnauthorized(t *testing.T) {
	repo := NewGuestAccessTokenRepository(kv.NewMemoryStore())

	if _, err := repo.Get(context.Background(), "nobody"); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Get() error = %v, want ErrUnauthorized", err)
	}
}
