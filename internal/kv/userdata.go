package kv

import (
	"context"
	"fmt"
	"time"
)

// UserDataRepository is a per-user view onto a Store. Each instance owns one
// base key (say "oauthToken") and maps a user ID to the store key
// "oauthToken[<userID>]".
//
// WHY THE "<baseKey>[<userID>]" FORMAT?
// Square brackets never appear in our user IDs (xids are lowercase
// alphanumeric), so the format is unambiguous to parse by eye when you're
// staring at a production Redis with KEYS — and every per-user concern gets
// its own repository instance instead of building keys inline at every call
// site.
type UserDataRepository struct {
	store   Store
	baseKey string
}

// NewUserDataRepository creates a repository namespaced under baseKey.
func NewUserDataRepository(store Store, baseKey string) *UserDataRepository {
	return &UserDataRepository{store: store, baseKey: baseKey}
}

func (r *UserDataRepository) key(userID string) string {
	return fmt.Sprintf("%s[%s]", r.baseKey, userID)
}

// Get retrieves the entry for a user. A clean miss is (value="", ok=false, err=nil).
func (r *UserDataRepository) Get(ctx context.Context, userID string) (string, bool, error) {
	return r.store.Get(ctx, r.key(userID))
}

// Set stores the entry for a user with no expiry.
func (r *UserDataRepository) Set(ctx context.Context, userID, value string) error {
	return r.store.Set(ctx, r.key(userID), value)
}

// SetExpiring stores the entry for a user with a TTL.
func (r *UserDataRepository) SetExpiring(ctx context.Context, userID, value string, ttl time.Duration) error {
	return r.store.SetExpiring(ctx, r.key(userID), value, ttl)
}

// Delete removes the entry for a user.
func (r *UserDataRepository) Delete(ctx context.Context, userID string) error {
	return r.store.Delete(ctx, r.key(userID))
}
