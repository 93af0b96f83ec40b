package sqlite

import "testing"

// newTestDB returns a DB backed by an in-memory SQLite database, with
// migrations already run. Each call gets a fresh, isolated database.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})
	return db
}
