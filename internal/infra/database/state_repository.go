// internal/infra/database/state_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"interval_reminder_bot/internal/domain/session"
)

// SQLStateRepository implements session.StateStore on a single key/value table.
// Each Set is one upsert statement, so readers see either the old or the new value.
type SQLStateRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLStateRepository(db *sql.DB, dialect Dialect) *SQLStateRepository {
	return &SQLStateRepository{db: db, dialect: dialect}
}

func (r *SQLStateRepository) Get(ctx context.Context, key string) ([]byte, error) {
	query := r.dialect.Rebind(`SELECT value FROM state_entries WHERE key = ?`)
	var value string
	err := r.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, session.ErrStateNotFound
		}
		return nil, fmt.Errorf("error getting state %q: %w", key, err)
	}
	return []byte(value), nil
}

func (r *SQLStateRepository) Set(ctx context.Context, key string, value []byte) error {
	// value goes in as a string: lib/pq would send []byte as bytea.
	query := r.dialect.Rebind(`INSERT INTO state_entries (key, value, updated_at)
               VALUES (?, ?, ?)
               ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)
	if _, err := r.db.ExecContext(ctx, query, key, string(value), time.Now().UnixNano()); err != nil {
		return fmt.Errorf("error setting state %q: %w", key, err)
	}
	return nil
}

func (r *SQLStateRepository) Clear(ctx context.Context, key string) error {
	query := r.dialect.Rebind(`DELETE FROM state_entries WHERE key = ?`)
	if _, err := r.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("error clearing state %q: %w", key, err)
	}
	return nil
}
