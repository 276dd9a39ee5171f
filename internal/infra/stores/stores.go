// Package stores opens the state and reminder stores selected by STORE_DRIVER.
package stores

import (
	"context"
	"database/sql"
	"fmt"

	"interval_reminder_bot/internal/domain/reminder"
	"interval_reminder_bot/internal/domain/session"
	"interval_reminder_bot/internal/infra/config"
	idb "interval_reminder_bot/internal/infra/database"
	"interval_reminder_bot/internal/infra/filestore"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const appName = "interval_reminder_bot"

// Stores bundles the durable collaborators of the cycle machine.
type Stores struct {
	DB        *sql.DB
	State     session.StateStore
	Reminders reminder.Repository
	// Description names the backing store for logs and CLI output.
	Description string
}

// Open connects to the configured database, migrates it and builds the stores.
// With the file driver the anchor lives in a YAML file and reminders in SQLite.
func Open(ctx context.Context, cfg *config.AppConfig, fs afero.Fs, logger *logrus.Entry) (*Stores, error) {
	var (
		db      *sql.DB
		dialect idb.Dialect
		err     error
	)
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		db, err = idb.NewPostgresConnection(cfg.DatabaseURL)
		dialect = idb.DialectPostgres
	case config.StoreDriverSQLite, config.StoreDriverFile:
		db, err = idb.NewSQLiteConnection(cfg.SQLitePath)
		dialect = idb.DialectSQLite
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	if err := idb.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not migrate database: %w", err)
	}

	s := &Stores{
		DB:          db,
		Reminders:   idb.NewSQLReminderRepository(db, dialect),
		Description: string(dialect),
	}

	if cfg.StoreDriver == config.StoreDriverFile {
		fileStore, err := filestore.NewYAMLStateStore(fs, appName, cfg.StateFile)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("could not open state file: %w", err)
		}
		s.State = fileStore
		s.Description = fmt.Sprintf("yaml:%s + %s", fileStore.Path(), dialect)
	} else {
		s.State = idb.NewSQLStateRepository(db, dialect)
	}

	logger.WithFields(logrus.Fields{
		"driver": cfg.StoreDriver,
		"store":  s.Description,
	}).Info("Stores initialized")
	return s, nil
}

func (s *Stores) Close() error {
	return s.DB.Close()
}
