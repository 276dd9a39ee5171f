// internal/domain/session/config.go
package session

import (
	"fmt"
	"time"
)

const (
	MinWorkMinutes  = 1
	MaxWorkMinutes  = 120
	MinBreakMinutes = 1
	MaxBreakMinutes = 60

	DefaultWorkMinutes  = 25
	DefaultBreakMinutes = 5
)

// ErrInvalidConfig is returned when a cycle is started with out-of-range durations.
var ErrInvalidConfig = fmt.Errorf("invalid session config")

// Config is the work/break pair chosen before a cycle starts.
// It is never mutated while a cycle is running.
type Config struct {
	WorkMinutes  int `json:"work_minutes" yaml:"work_minutes"`
	BreakMinutes int `json:"break_minutes" yaml:"break_minutes"`
}

// DefaultConfig returns the classic 25/5 pomodoro split.
func DefaultConfig() Config {
	return Config{WorkMinutes: DefaultWorkMinutes, BreakMinutes: DefaultBreakMinutes}
}

// Validate checks both durations against their allowed ranges.
func (c Config) Validate() error {
	if c.WorkMinutes < MinWorkMinutes || c.WorkMinutes > MaxWorkMinutes {
		return fmt.Errorf("%w: work minutes %d not in %d..%d", ErrInvalidConfig, c.WorkMinutes, MinWorkMinutes, MaxWorkMinutes)
	}
	if c.BreakMinutes < MinBreakMinutes || c.BreakMinutes > MaxBreakMinutes {
		return fmt.Errorf("%w: break minutes %d not in %d..%d", ErrInvalidConfig, c.BreakMinutes, MinBreakMinutes, MaxBreakMinutes)
	}
	return nil
}

func (c Config) WorkDuration() time.Duration {
	return time.Duration(c.WorkMinutes) * time.Minute
}

func (c Config) BreakDuration() time.Duration {
	return time.Duration(c.BreakMinutes) * time.Minute
}
