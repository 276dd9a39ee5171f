package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"interval_reminder_bot/internal/domain/session"
)

func TestPersistentAnchor(t *testing.T) {
	ctx := context.Background()

	t.Run("Write then Read returns the same record", func(t *testing.T) {
		anchor := NewPersistentAnchor(newMemoryStateStore())
		end := t0.Add(25*time.Minute + 123*time.Nanosecond)
		rec := session.AnchorRecord{Phase: session.PhaseWork, EndInstant: end, Config: session.Config{WorkMinutes: 25, BreakMinutes: 5}}

		if err := anchor.Write(ctx, rec); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		got, ok, err := anchor.Read(ctx)
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if !ok {
			t.Fatal("Read reported no record after Write")
		}
		if got.Phase != rec.Phase || got.Config != rec.Config {
			t.Errorf("Read got %+v, want %+v", got, rec)
		}
		if !got.EndInstant.Equal(end) {
			t.Errorf("EndInstant got %v, want %v", got.EndInstant, end)
		}
	})

	t.Run("Clear then Read reports not found", func(t *testing.T) {
		anchor := NewPersistentAnchor(newMemoryStateStore())
		rec := session.AnchorRecord{Phase: session.PhaseBreak, EndInstant: t0, Config: session.DefaultConfig()}
		if err := anchor.Write(ctx, rec); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if err := anchor.Clear(ctx); err != nil {
			t.Fatalf("Clear failed: %v", err)
		}
		_, ok, err := anchor.Read(ctx)
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if ok {
			t.Error("Read returned a record after Clear")
		}
	})

	t.Run("store failure wraps ErrPersistenceUnavailable", func(t *testing.T) {
		store := newMemoryStateStore()
		store.err = errors.New("disk gone")
		anchor := NewPersistentAnchor(store)

		if _, _, err := anchor.Read(ctx); !errors.Is(err, session.ErrPersistenceUnavailable) {
			t.Errorf("Read error got %v, want ErrPersistenceUnavailable", err)
		}
		if err := anchor.Write(ctx, session.AnchorRecord{Phase: session.PhaseWork, EndInstant: t0}); !errors.Is(err, session.ErrPersistenceUnavailable) {
			t.Errorf("Write error got %v, want ErrPersistenceUnavailable", err)
		}
		if err := anchor.Clear(ctx); !errors.Is(err, session.ErrPersistenceUnavailable) {
			t.Errorf("Clear error got %v, want ErrPersistenceUnavailable", err)
		}
	})

	t.Run("corrupt payload wraps ErrPersistenceUnavailable", func(t *testing.T) {
		store := newMemoryStateStore()
		store.entries[session.AnchorKey] = []byte("{not json")
		anchor := NewPersistentAnchor(store)

		_, ok, err := anchor.Read(ctx)
		if !errors.Is(err, session.ErrPersistenceUnavailable) {
			t.Errorf("Read error got %v, want ErrPersistenceUnavailable", err)
		}
		if ok {
			t.Error("Read reported a record for a corrupt payload")
		}
	})
}
