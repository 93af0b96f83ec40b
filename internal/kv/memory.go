package kv

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used in tests and in single-node
// deployments that don't run Redis.
//
// EXPIRY MODEL:
// Expiry is checked lazily on Get rather than by a background sweeper. For
// the volumes this app deals in (one entry per user per concern) a sweeper
// would be machinery with no payoff; an expired entry that's never read
// again just sits in the map until the process exits.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero = no expiry
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return "", false, nil
	}
	if entry.expired(time.Now()) {
		// Lazily drop the expired entry — but re-check under the write
		// lock first. A Set that landed between the RUnlock above and the
		// Lock here replaced the entry, and that fresh value must survive.
		s.mu.Lock()
		current, ok := s.entries[key]
		if ok && current.expired(time.Now()) {
			delete(s.entries, key)
			ok = false
		}
		s.mu.Unlock()

		if !ok {
			return "", false, nil
		}
		return current.value, true, nil
	}
	return entry.value, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{value: value}
	return nil
}

func (s *MemoryStore) SetExpiring(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{value: value, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
