package database_test

import (
	"context"
	"database/sql"
	"testing"

	"interval_reminder_bot/internal/infra/database"
)

// setupTestDB returns a migrated in-memory SQLite database closed at test end.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.NewSQLiteConnection(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}
