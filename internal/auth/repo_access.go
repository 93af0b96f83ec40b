package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/docportal/internal/kv"
	"github.com/sakif/docportal/internal/repository"
)

// RepositoryAccessReader resolves which repositories a user may access. The
// list is ordered and exact — the restricting data source passes it verbatim
// to the installation-token mint, so whatever this returns IS the scope of
// the token the user ends up holding.
type RepositoryAccessReader interface {
	GetRepositoryNames(ctx context.Context, userID string) ([]string, error)
}

// RoutedRepositoryAccessReader answers per account kind: guests get their
// admin-assigned project list; hosts get the portal's configured
// documentation repositories (a host's GitHub identity already had to pass
// OAuth — the portal set is what this deployment serves, not a per-host
// permission model).
type RoutedRepositoryAccessReader struct {
	guests           GuestReader
	guestRecords     repository.GuestRepository
	hostRepositories []string
}

var _ RepositoryAccessReader = (*RoutedRepositoryAccessReader)(nil)

// NewRoutedRepositoryAccessReader creates the reader. hostRepositories is
// the deployment's configured documentation repository set.
func NewRoutedRepositoryAccessReader(
	guests GuestReader,
	guestRecords repository.GuestRepository,
	hostRepositories []string,
) *RoutedRepositoryAccessReader {
	return &RoutedRepositoryAccessReader{
		guests:           guests,
		guestRecords:     guestRecords,
		hostRepositories: hostRepositories,
	}
}

// GetRepositoryNames resolves the user's authorized repository list.
func (r *RoutedRepositoryAccessReader) GetRepositoryNames(ctx context.Context, userID string) ([]string, error) {
	isGuest, err := r.guests.GetIsUserGuest(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("auth: resolving account kind for user %s: %w", userID, err)
	}

	if !isGuest {
		// Copy so a caller can't mutate the configured set.
		names := make([]string, len(r.hostRepositories))
		copy(names, r.hostRepositories)
		return names, nil
	}

	guest, err := r.guestRecords.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("auth: loading guest record %s: %w", userID, err)
	}
	if guest == nil {
		return nil, fmt.Errorf("auth: user %s routed as guest but has no guest record", userID)
	}
	return guest.Projects, nil
}

// RepositoryAccessCacheTTL bounds how stale a cached access list may get. An
// admin revoking a guest's repository takes effect within this window at
// worst (sooner if the guest logs out, which deletes the entry).
const RepositoryAccessCacheTTL = 15 * time.Minute

// CachedRepositoryAccessReader is the cache-aside layer over an access
// reader. The cached payload is the JSON-encoded name list.
type CachedRepositoryAccessReader struct {
	inner  RepositoryAccessReader
	cache  *kv.UserDataRepository
	ttl    time.Duration
	logger *slog.Logger
}

var _ RepositoryAccessReader = (*CachedRepositoryAccessReader)(nil)

// NewCachedRepositoryAccessReader wraps inner with the given cache.
func NewCachedRepositoryAccessReader(
	inner RepositoryAccessReader,
	cache *kv.UserDataRepository,
	logger *slog.Logger,
) *CachedRepositoryAccessReader {
	return &CachedRepositoryAccessReader{
		inner:  inner,
		cache:  cache,
		ttl:    RepositoryAccessCacheTTL,
		logger: logger,
	}
}

// GetRepositoryNames returns the cached list or refreshes it from the inner
// reader.
//
// TOLERANT DECODE:
// A cached value that fails to parse is logged and handled as a miss — the
// refresh path below overwrites it, and the caller never sees the
// corruption. A decode failure would only be worth propagating if it came
// from FRESH data, and fresh data here is a Go value we encoded ourselves.
func (r *CachedRepositoryAccessReader) GetRepositoryNames(ctx context.Context, userID string) ([]string, error) {
	cached, ok, err := r.cache.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("auth: reading repository-access cache for user %s: %w", userID, err)
	}
	if ok {
		var names []string
		jsonErr := json.Unmarshal([]byte(cached), &names)
		if jsonErr == nil {
			return names, nil
		}
		r.logger.Warn("repository-access cache entry is corrupt, refreshing",
			slog.String("userID", userID),
			slog.String("error", jsonErr.Error()),
		)
	}

	names, err := r.inner.GetRepositoryNames(ctx, userID)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(names)
	if err != nil {
		// Encoding a []string cannot realistically fail; treat it as fatal.
		return nil, fmt.Errorf("auth: encoding repository-access list for user %s: %w", userID, err)
	}
	if err := r.cache.SetExpiring(ctx, userID, string(encoded), r.ttl); err != nil {
		return nil, fmt.Errorf("auth: caching repository-access list for user %s: %w", userID, err)
	}

	return names, nil
}
