// internal/domain/session/state.go
package session

import "time"

// State is the in-memory cycle state.
// EndInstant is nil iff Phase is PhaseIdle.
type State struct {
	Phase      Phase
	EndInstant *time.Time
	Config     Config
}

// IdleState returns the state a cycle starts in and returns to after a stop.
func IdleState(cfg Config) State {
	return State{Phase: PhaseIdle, Config: cfg}
}

// Remaining derives the time left in the current phase at now, never negative.
func (s State) Remaining(now time.Time) time.Duration {
	if s.Phase == PhaseIdle || s.EndInstant == nil {
		return 0
	}
	remaining := s.EndInstant.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Clone returns a copy that shares no pointers with s.
func (s State) Clone() State {
	out := s
	if s.EndInstant != nil {
		end := *s.EndInstant
		out.EndInstant = &end
	}
	return out
}

// View is the derived display state handed to presentation on every tick.
type View struct {
	Phase        Phase
	Remaining    time.Duration
	Transitioned bool  // True when this call performed an expire transition
	Ended        Phase // Phase that expired on this call, empty otherwise
}

// RemainingSeconds rounds the remaining time up to whole seconds, as a countdown shows it.
func (v View) RemainingSeconds() int64 {
	secs := int64(v.Remaining / time.Second)
	if v.Remaining%time.Second > 0 {
		secs++
	}
	return secs
}
