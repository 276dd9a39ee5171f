// Package cli implements pomoctl, the operator tool for the persisted timer state.
package cli

import (
	"context"

	"interval_reminder_bot/internal/app"
	"interval_reminder_bot/internal/domain/reminder"
	"interval_reminder_bot/internal/domain/session"
	"interval_reminder_bot/internal/infra/clock"
	"interval_reminder_bot/internal/infra/config"
	"interval_reminder_bot/internal/infra/logger"
	"interval_reminder_bot/internal/infra/stores"

	"github.com/spf13/afero"
)

// Deps are the stores a command works on.
type Deps struct {
	State     session.StateStore
	Reminders reminder.Repository
	Clock     app.Clock
	Store     string // Human-readable store description
	Close     func() error
}

// Opener builds Deps for one command invocation.
type Opener func(ctx context.Context) (*Deps, error)

// OpenFromEnv reads the store settings from the environment, as the bot does.
func OpenFromEnv(ctx context.Context) (*Deps, error) {
	cfg, err := config.LoadStoreOnly()
	if err != nil {
		return nil, err
	}
	logger.Init(cfg)

	st, err := stores.Open(ctx, cfg, afero.NewOsFs(), logger.Component("pomoctl"))
	if err != nil {
		return nil, err
	}
	return &Deps{
		State:     st.State,
		Reminders: st.Reminders,
		Clock:     clock.System{},
		Store:     st.Description,
		Close:     st.Close,
	}, nil
}
