// internal/domain/session/phase.go
package session

// Phase is the current stage of the interval cycle.
type Phase string

const (
	PhaseIdle  Phase = "idle"  // Initial state and the state after an explicit stop
	PhaseWork  Phase = "work"  // Time-bounded work session
	PhaseBreak Phase = "break" // Time-bounded break following a work session
)

// Valid reports whether p is one of the known phases.
func (p Phase) Valid() bool {
	switch p {
	case PhaseIdle, PhaseWork, PhaseBreak:
		return true
	default:
		return false
	}
}

// Running reports whether the phase has an end instant.
func (p Phase) Running() bool {
	return p == PhaseWork || p == PhaseBreak
}
