// internal/app/anchor.go
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"interval_reminder_bot/internal/domain/session"
)

// anchorPayload is the on-disk layout of the session record. The end instant is
// kept as unix nanoseconds so every store round-trips it exactly.
type anchorPayload struct {
	Phase              session.Phase  `json:"phase"`
	EndInstantUnixNano int64          `json:"end_instant_unix_nano"`
	Config             session.Config `json:"config"`
}

// PersistentAnchor maps the session record onto a StateStore key.
// It does no derivation; CycleMachine owns all of that.
type PersistentAnchor struct {
	store session.StateStore
	key   string
}

func NewPersistentAnchor(store session.StateStore) *PersistentAnchor {
	return &PersistentAnchor{store: store, key: session.AnchorKey}
}

// Write stores the whole record as a single value.
func (a *PersistentAnchor) Write(ctx context.Context, rec session.AnchorRecord) error {
	payload, err := json.Marshal(anchorPayload{
		Phase:              rec.Phase,
		EndInstantUnixNano: rec.EndInstant.UnixNano(),
		Config:             rec.Config,
	})
	if err != nil {
		return fmt.Errorf("%w: encode anchor: %v", session.ErrPersistenceUnavailable, err)
	}
	if err := a.store.Set(ctx, a.key, payload); err != nil {
		return fmt.Errorf("%w: %v", session.ErrPersistenceUnavailable, err)
	}
	return nil
}

// Read returns the stored record; ok is false when no session is persisted.
func (a *PersistentAnchor) Read(ctx context.Context) (rec session.AnchorRecord, ok bool, err error) {
	raw, err := a.store.Get(ctx, a.key)
	if err != nil {
		if errors.Is(err, session.ErrStateNotFound) {
			return session.AnchorRecord{}, false, nil
		}
		return session.AnchorRecord{}, false, fmt.Errorf("%w: %v", session.ErrPersistenceUnavailable, err)
	}

	var payload anchorPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return session.AnchorRecord{}, false, fmt.Errorf("%w: decode anchor: %v", session.ErrPersistenceUnavailable, err)
	}
	return session.AnchorRecord{
		Phase:      payload.Phase,
		EndInstant: time.Unix(0, payload.EndInstantUnixNano),
		Config:     payload.Config,
	}, true, nil
}

func (a *PersistentAnchor) Clear(ctx context.Context) error {
	if err := a.store.Clear(ctx, a.key); err != nil {
		return fmt.Errorf("%w: %v", session.ErrPersistenceUnavailable, err)
	}
	return nil
}
