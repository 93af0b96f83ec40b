// Package kv provides the key-value store abstraction used for cached auth
// data: persisted OAuth tokens, guest access tokens, the identity-provider
// cache, and the repository-access cache.
//
// WHY AN INTERFACE AND NOT JUST A REDIS CLIENT?
// Everything above this package is written against Store, so the same
// pipeline runs against Redis in production and against MemoryStore in tests
// (or in a single-node deployment with no Redis at all). The auth components
// never see keys directly either — they go through UserDataRepository, which
// owns the key namespacing.
package kv

import (
	"context"
	"time"
)

// Store is a flat string key space with optional per-key expiry.
//
// Get reports presence explicitly: (value, true, nil) on a hit and
// ("", false, nil) on a clean miss. A miss is NOT an error — callers that
// treat it as one (e.g. token repositories) translate it themselves.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	SetExpiring(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
