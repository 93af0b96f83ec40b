// Package mutex abstracts the lock used to serialize token fetches and
// refreshes.
//
// WHY AN INJECTED FACTORY AND NOT sync.Mutex INLINE?
// The components that lock (the persisting data source, the locking
// refresher) must not care where the lock lives. In a single-process
// deployment a process-local keyed mutex is enough; a multi-process
// deployment would swap in a distributed lock (e.g. Redis-based) behind the
// same two-method interface. Keeping the factory external means the locking
// logic in the auth pipeline is identical either way.
package mutex

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Mutex is a lock with context-aware acquisition.
//
// CONTRACT:
//   - Acquire blocks until the lock is held or ctx is done.
//   - Release must be called exactly once per successful Acquire, on every
//     exit path — callers pair it with defer immediately after acquiring.
//   - Releasing without holding is a programming error and may panic.
type Mutex interface {
	Acquire(ctx context.Context) error
	Release()
}

// Factory hands out mutexes by key. Two calls with the same key return
// mutexes that contend with each other; different keys never contend.
// The auth pipeline keys its locks by user ID.
type Factory interface {
	ForKey(key string) Mutex
}

// KeyedFactory is a process-local Factory: one weighted semaphore of
// capacity 1 per key, created lazily and shared by every mutex handed out
// for that key.
//
// WHY semaphore.Weighted AND NOT sync.Mutex?
// sync.Mutex has no context-aware Acquire — a caller stuck behind a slow
// token refresh could not give up when its request deadline expires.
// x/sync's weighted semaphore with capacity 1 is exactly a mutex with
// context support.
type KeyedFactory struct {
	mu    sync.Mutex
	locks map[string]*semaphore.Weighted
}

var _ Factory = (*KeyedFactory)(nil)

// NewKeyedFactory creates an empty keyed mutex factory.
func NewKeyedFactory() *KeyedFactory {
	return &KeyedFactory{locks: make(map[string]*semaphore.Weighted)}
}

// ForKey returns the mutex for a key, creating it on first use.
//
// Entries are never evicted: the population is bounded by the number of
// distinct users seen by one process, and a semaphore is a few words.
func (f *KeyedFactory) ForKey(key string) Mutex {
	f.mu.Lock()
	defer f.mu.Unlock()

	sem, ok := f.locks[key]
	if !ok {
		sem = semaphore.NewWeighted(1)
		f.locks[key] = sem
	}
	return &semaphoreMutex{sem: sem}
}

// semaphoreMutex adapts a capacity-1 weighted semaphore to the Mutex interface.
type semaphoreMutex struct {
	sem *semaphore.Weighted
}

func (m *semaphoreMutex) Acquire(ctx context.Context) error {
	return m.sem.Acquire(ctx, 1)
}

func (m *semaphoreMutex) Release() {
	m.sem.Release(1)
}
