// internal/domain/session/repository.go
package session

import (
	"context"
	"fmt"
	"time"
)

// AnchorKey is the fixed StateStore key holding the current session record.
const AnchorKey = "session"

// ErrPersistenceUnavailable wraps every failure of the durable anchor store.
var ErrPersistenceUnavailable = fmt.Errorf("session persistence unavailable")

// ErrStateNotFound is returned by StateStore.Get when the key is absent.
var ErrStateNotFound = fmt.Errorf("state key not found")

// StateStore is a durable key-value mapping. Set must replace the value atomically.
type StateStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Clear(ctx context.Context, key string) error
}

// AnchorRecord is what survives a process restart: the phase, its end instant and the config.
type AnchorRecord struct {
	Phase      Phase
	EndInstant time.Time
	Config     Config
}

// Validate rejects records that cannot seed a running cycle.
func (r AnchorRecord) Validate() error {
	if !r.Phase.Valid() {
		return fmt.Errorf("anchor phase %q is unknown", r.Phase)
	}
	if !r.Phase.Running() {
		return fmt.Errorf("anchor phase %q is not a running phase", r.Phase)
	}
	if r.EndInstant.IsZero() {
		return fmt.Errorf("anchor has no end instant")
	}
	return r.Config.Validate()
}

// State converts the record into the in-memory cycle state.
func (r AnchorRecord) State() State {
	end := r.EndInstant
	return State{Phase: r.Phase, EndInstant: &end, Config: r.Config}
}
