// internal/app/ports.go
package app

import (
	"context"
	"time"
)

// Clock returns the current absolute instant. It must keep counting across
// device sleep, which rules out monotonic tick counters.
type Clock interface {
	Now() time.Time
}

// Cue is an audible completion signal.
type Cue string

const (
	WorkEndCue  Cue = "work_end"
	BreakEndCue Cue = "break_end"
)

// SoundPlayer plays a cue. Implementations log their own failures.
type SoundPlayer interface {
	Play(cue Cue)
}

// NotificationAuthorizer reports whether reminders can reach the user.
// The answer is advisory: scheduling goes ahead either way.
type NotificationAuthorizer interface {
	Check(ctx context.Context) bool
}

// Executor runs side effects. CycleMachine submits them while holding its lock
// so they run in the order the state changed.
type Executor interface {
	Execute(task func())
}
