// internal/infra/database/reminder_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"interval_reminder_bot/internal/domain/reminder"
)

// SQLReminderRepository is the durable reminder sink. Rows outlive the process,
// so reminders still fire when the dispatcher runs in a later process.
type SQLReminderRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLReminderRepository(db *sql.DB, dialect Dialect) *SQLReminderRepository {
	return &SQLReminderRepository{db: db, dialect: dialect}
}

// Schedule upserts by id; a replaced reminder becomes pending again.
func (r *SQLReminderRepository) Schedule(ctx context.Context, rem reminder.Reminder) error {
	query := r.dialect.Rebind(`INSERT INTO reminders (id, fire_at, kind, title, body, silent, delivered_at)
               VALUES (?, ?, ?, ?, ?, ?, NULL)
               ON CONFLICT (id) DO UPDATE SET
                   fire_at = excluded.fire_at,
                   kind = excluded.kind,
                   title = excluded.title,
                   body = excluded.body,
                   silent = excluded.silent,
                   delivered_at = NULL`)
	_, err := r.db.ExecContext(ctx, query, rem.ID, rem.FireAt.UnixNano(), string(rem.Kind), rem.Title, rem.Body, rem.Silent)
	if err != nil {
		return fmt.Errorf("error scheduling reminder %s: %w", rem.ID, err)
	}
	return nil
}

// Cancel removes one reminder. Cancelling an unknown id is not an error.
func (r *SQLReminderRepository) Cancel(ctx context.Context, id string) error {
	query := r.dialect.Rebind(`DELETE FROM reminders WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("error cancelling reminder %s: %w", id, err)
	}
	return nil
}

func (r *SQLReminderRepository) CancelAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM reminders`); err != nil {
		return fmt.Errorf("error cancelling all reminders: %w", err)
	}
	return nil
}

// Supersede drops delivered and future reminders and retires the due, undelivered
// ones so a new plan reusing their ids cannot overwrite them before they are sent.
func (r *SQLReminderRepository) Supersede(ctx context.Context, now time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting supersede transaction: %w", err)
	}
	defer tx.Rollback()

	deleteQuery := r.dialect.Rebind(`DELETE FROM reminders WHERE delivered_at IS NOT NULL OR fire_at > ?`)
	if _, err := tx.ExecContext(ctx, deleteQuery, now.UnixNano()); err != nil {
		return fmt.Errorf("error dropping superseded reminders: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `SELECT id, fire_at FROM reminders WHERE id NOT LIKE '%@%'`)
	if err != nil {
		return fmt.Errorf("error querying due reminders to retire: %w", err)
	}
	type dueRow struct {
		id     string
		fireAt int64
	}
	var due []dueRow
	for rows.Next() {
		var d dueRow
		if err := rows.Scan(&d.id, &d.fireAt); err != nil {
			rows.Close()
			return fmt.Errorf("error scanning due reminder: %w", err)
		}
		due = append(due, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating due reminders: %w", err)
	}

	retireQuery := r.dialect.Rebind(`UPDATE reminders SET id = ? WHERE id = ?`)
	for _, d := range due {
		retired := reminder.RetiredID(d.id, time.Unix(0, d.fireAt))
		if _, err := tx.ExecContext(ctx, retireQuery, retired, d.id); err != nil {
			return fmt.Errorf("error retiring reminder %s: %w", d.id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing supersede: %w", err)
	}
	return nil
}

const reminderColumns = `id, fire_at, kind, title, body, silent, delivered_at`

// ListDue returns pending reminders whose fire time is at or before now, oldest first.
func (r *SQLReminderRepository) ListDue(ctx context.Context, now time.Time) ([]*reminder.Stored, error) {
	query := r.dialect.Rebind(`SELECT ` + reminderColumns + ` FROM reminders
               WHERE delivered_at IS NULL AND fire_at <= ?
               ORDER BY fire_at ASC, id ASC`)
	rows, err := r.db.QueryContext(ctx, query, now.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("error querying due reminders: %w", err)
	}
	defer rows.Close()
	return scanReminders(rows)
}

func (r *SQLReminderRepository) ListAll(ctx context.Context) ([]*reminder.Stored, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+reminderColumns+` FROM reminders ORDER BY fire_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("error querying reminders: %w", err)
	}
	defer rows.Close()
	return scanReminders(rows)
}

func (r *SQLReminderRepository) MarkDelivered(ctx context.Context, id string, fireAt, at time.Time) error {
	query := r.dialect.Rebind(`UPDATE reminders SET delivered_at = ?
               WHERE (id = ? OR id = ?) AND fire_at = ? AND delivered_at IS NULL`)
	res, err := r.db.ExecContext(ctx, query, at.UnixNano(), id, reminder.RetiredID(id, fireAt), fireAt.UnixNano())
	if err != nil {
		return fmt.Errorf("error marking reminder %s delivered: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows for reminder %s: %w", id, err)
	}
	if n == 0 {
		return reminder.ErrReminderNotFound
	}
	return nil
}

// Helper to scan multiple rows
func scanReminders(rows *sql.Rows) ([]*reminder.Stored, error) {
	out := make([]*reminder.Stored, 0)
	for rows.Next() {
		var (
			st          reminder.Stored
			fireAt      int64
			kind        string
			deliveredAt sql.NullInt64
		)
		if err := rows.Scan(&st.ID, &fireAt, &kind, &st.Title, &st.Body, &st.Silent, &deliveredAt); err != nil {
			return nil, fmt.Errorf("error scanning reminder row: %w", err)
		}
		st.FireAt = time.Unix(0, fireAt)
		st.Kind = reminder.Kind(kind)
		if deliveredAt.Valid {
			t := time.Unix(0, deliveredAt.Int64)
			st.DeliveredAt = &t
		}
		out = append(out, &st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminder rows: %w", err)
	}
	return out, nil
}
