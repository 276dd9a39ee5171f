// internal/app/events.go
package app

import (
	"time"

	"interval_reminder_bot/internal/domain/session"
)

// EventType names what happened to the cycle.
type EventType string

const (
	EventWorkStarted  EventType = "work_started"
	EventBreakStarted EventType = "break_started" // Presentation shows the break surface
	EventStopped      EventType = "stopped"
	EventRecovered    EventType = "recovered"
)

// Event is a cycle update for observers.
type Event struct {
	Type       EventType
	Phase      session.Phase
	EndInstant time.Time
	Remaining  time.Duration
	Config     session.Config
	At         time.Time
}
