package testutil

import (
	"testing"

	"shelf-go/internal/database"
	"shelf-go/internal/shelf"
)

// NewTestDatabase creates an in-memory library with all migrations applied.
// It is closed when the test completes.
func NewTestDatabase(t *testing.T, clock shelf.Clock) *database.SQLiteDatabase {
	t.Helper()

	db, err := database.NewSQLiteDatabase(":memory:", clock)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		t.Fatalf("failed to migrate database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}
