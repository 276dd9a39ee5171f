package database_test

import (
	"context"
	"errors"
	"testing"

	"interval_reminder_bot/internal/domain/session"
	"interval_reminder_bot/internal/infra/database"
)

func TestSQLStateRepository_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := database.NewSQLStateRepository(db, database.DialectSQLite)
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, err := repo.Get(ctx, session.AnchorKey)
		if !errors.Is(err, session.ErrStateNotFound) {
			t.Fatalf("Get missing: got %v, want ErrStateNotFound", err)
		}
	})

	t.Run("set then get", func(t *testing.T) {
		if err := repo.Set(ctx, session.AnchorKey, []byte(`{"phase":"work"}`)); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		got, err := repo.Get(ctx, session.AnchorKey)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(got) != `{"phase":"work"}` {
			t.Errorf("Get = %s", got)
		}
	})

	t.Run("set overwrites", func(t *testing.T) {
		if err := repo.Set(ctx, session.AnchorKey, []byte(`{"phase":"break"}`)); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		got, _ := repo.Get(ctx, session.AnchorKey)
		if string(got) != `{"phase":"break"}` {
			t.Errorf("Get after overwrite = %s", got)
		}
	})

	t.Run("clear", func(t *testing.T) {
		if err := repo.Clear(ctx, session.AnchorKey); err != nil {
			t.Fatalf("Clear failed: %v", err)
		}
		if _, err := repo.Get(ctx, session.AnchorKey); !errors.Is(err, session.ErrStateNotFound) {
			t.Errorf("Get after Clear: got %v, want ErrStateNotFound", err)
		}
		if err := repo.Clear(ctx, session.AnchorKey); err != nil {
			t.Errorf("second Clear should be a no-op, got %v", err)
		}
	})
}
