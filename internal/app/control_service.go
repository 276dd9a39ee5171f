// internal/app/control_service.go
package app

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"interval_reminder_bot/internal/domain/session"
)

// Application-level errors for the control surface.
var ErrNotOwner = fmt.Errorf("performing user is not the owner of this timer")
var ErrInvalidArguments = fmt.Errorf("invalid command arguments")

// StatusReport is what the bot shows after a control command.
type StatusReport struct {
	View                 session.View
	Config               session.Config
	EndInstant           *time.Time
	AlreadyRunning       bool // Start was a no-op
	NotificationsEnabled bool
}

type ControlService struct {
	machine    *CycleMachine
	authorizer NotificationAuthorizer
	clock      Clock
	ownerID    int64
	defaults   session.Config
}

func NewControlService(machine *CycleMachine, authorizer NotificationAuthorizer, clock Clock, ownerID int64, defaults session.Config) *ControlService {
	return &ControlService{
		machine:    machine,
		authorizer: authorizer,
		clock:      clock,
		ownerID:    ownerID,
		defaults:   defaults,
	}
}

// Defaults returns the config used when a start command carries no durations.
func (s *ControlService) Defaults() session.Config {
	return s.defaults
}

// StartCycle starts a cycle with durations parsed from args: [work] [break], in minutes.
func (s *ControlService) StartCycle(ctx context.Context, performingUserID int64, args []string) (*StatusReport, error) {
	if performingUserID != s.ownerID {
		return nil, ErrNotOwner
	}

	cfg, err := ParseConfigArgs(args, s.defaults)
	if err != nil {
		return nil, err
	}

	wasRunning := s.machine.Snapshot().Phase.Running()
	view, err := s.machine.Start(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to start cycle: %w", err)
	}
	return s.report(ctx, view, wasRunning), nil
}

// StopCycle returns the timer to Idle and cancels its reminders.
func (s *ControlService) StopCycle(ctx context.Context, performingUserID int64) (*StatusReport, error) {
	if performingUserID != s.ownerID {
		return nil, ErrNotOwner
	}
	view := s.machine.Stop()
	return s.report(ctx, view, false), nil
}

// Status resyncs the machine to the current instant and reports it, together
// with whether reminders can reach the owner.
func (s *ControlService) Status(ctx context.Context, performingUserID int64) (*StatusReport, error) {
	if performingUserID != s.ownerID {
		return nil, ErrNotOwner
	}
	view := s.machine.Resync(s.clock.Now())
	return s.report(ctx, view, false), nil
}

func (s *ControlService) report(ctx context.Context, view session.View, alreadyRunning bool) *StatusReport {
	state := s.machine.Snapshot()
	report := &StatusReport{
		View:                 view,
		Config:               state.Config,
		EndInstant:           state.EndInstant,
		AlreadyRunning:       alreadyRunning,
		NotificationsEnabled: true,
	}
	if s.authorizer != nil {
		report.NotificationsEnabled = s.authorizer.Check(ctx)
	}
	return report
}

// ParseConfigArgs reads "[work] [break]" minute values, falling back to defaults
// for the missing ones. Range checks are left to session.Config.Validate.
func ParseConfigArgs(args []string, defaults session.Config) (session.Config, error) {
	cfg := defaults
	if len(args) > 2 {
		return cfg, fmt.Errorf("%w: expected at most 2 values, got %d", ErrInvalidArguments, len(args))
	}
	if len(args) >= 1 {
		work, err := strconv.Atoi(args[0])
		if err != nil {
			return cfg, fmt.Errorf("%w: work minutes %q is not a number", ErrInvalidArguments, args[0])
		}
		cfg.WorkMinutes = work
	}
	if len(args) == 2 {
		brk, err := strconv.Atoi(args[1])
		if err != nil {
			return cfg, fmt.Errorf("%w: break minutes %q is not a number", ErrInvalidArguments, args[1])
		}
		cfg.BreakMinutes = brk
	}
	return cfg, nil
}
