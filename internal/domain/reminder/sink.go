// internal/domain/reminder/sink.go
package reminder

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ErrSchedulingPartialFailure marks a plan where at least one entry was not accepted by the sink.
var ErrSchedulingPartialFailure = fmt.Errorf("reminder scheduling partially failed")

// ErrReminderNotFound is returned by stores when an id has no live reminder.
var ErrReminderNotFound = fmt.Errorf("reminder not found")

// PartialFailureError lists the reminders a sink rejected while the rest of the plan went through.
type PartialFailureError struct {
	FailedIDs []string
	Errs      []error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s: %d rejected (%s)", ErrSchedulingPartialFailure, len(e.FailedIDs), strings.Join(e.FailedIDs, ", "))
}

func (e *PartialFailureError) Unwrap() error {
	return ErrSchedulingPartialFailure
}

// Sink accepts reminders for later delivery. At most one reminder per id is live;
// scheduling an existing id replaces it.
type Sink interface {
	Schedule(ctx context.Context, r Reminder) error
	Cancel(ctx context.Context, id string) error
	// CancelAll drops both pending and already delivered reminders.
	CancelAll(ctx context.Context) error
	// Supersede clears the way for a new plan. Reminders that are due at now and
	// not yet delivered are kept under their RetiredID so they are still sent;
	// everything else is dropped.
	Supersede(ctx context.Context, now time.Time) error
}

// Stored is a reminder as kept by a durable sink, with its delivery bookkeeping.
type Stored struct {
	Reminder
	DeliveredAt *time.Time
}

// Repository is the durable side of a Sink used by the dispatcher and operator tooling.
type Repository interface {
	Sink
	ListDue(ctx context.Context, now time.Time) ([]*Stored, error)
	ListAll(ctx context.Context) ([]*Stored, error)
	// MarkDelivered only matches the reminder scheduled for fireAt, so a
	// reminder replaced after it was listed is not marked by mistake. A reminder
	// retired after it was listed is matched under its RetiredID.
	MarkDelivered(ctx context.Context, id string, fireAt, at time.Time) error
}
