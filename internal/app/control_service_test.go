package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"interval_reminder_bot/internal/domain/session"
)

const ownerID int64 = 777

func newTestControlService(f *machineFixture, authorized bool) *ControlService {
	return NewControlService(f.machine, staticAuthorizer(authorized), f.clock, ownerID, session.DefaultConfig())
}

func TestParseConfigArgs(t *testing.T) {
	defaults := session.DefaultConfig()
	tests := []struct {
		name    string
		args    []string
		want    session.Config
		wantErr bool
	}{
		{name: "no args uses defaults", args: nil, want: defaults},
		{name: "work only", args: []string{"50"}, want: session.Config{WorkMinutes: 50, BreakMinutes: 5}},
		{name: "work and break", args: []string{"90", "15"}, want: session.Config{WorkMinutes: 90, BreakMinutes: 15}},
		{name: "out of range passes through", args: []string{"500"}, want: session.Config{WorkMinutes: 500, BreakMinutes: 5}},
		{name: "non-numeric work", args: []string{"abc"}, wantErr: true},
		{name: "non-numeric break", args: []string{"25", "x"}, wantErr: true},
		{name: "too many", args: []string{"25", "5", "1"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConfigArgs(tt.args, defaults)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidArguments) {
					t.Errorf("ParseConfigArgs(%v) error got %v, want ErrInvalidArguments", tt.args, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseConfigArgs(%v) failed: %v", tt.args, err)
			}
			if got != tt.want {
				t.Errorf("ParseConfigArgs(%v) got %+v, want %+v", tt.args, got, tt.want)
			}
		})
	}
}

func TestControlService(t *testing.T) {
	ctx := context.Background()

	t.Run("non-owner is rejected", func(t *testing.T) {
		f := newMachineFixture()
		s := newTestControlService(f, true)

		if _, err := s.StartCycle(ctx, ownerID+1, nil); !errors.Is(err, ErrNotOwner) {
			t.Errorf("StartCycle error got %v, want ErrNotOwner", err)
		}
		if _, err := s.StopCycle(ctx, ownerID+1); !errors.Is(err, ErrNotOwner) {
			t.Errorf("StopCycle error got %v, want ErrNotOwner", err)
		}
		if _, err := s.Status(ctx, ownerID+1); !errors.Is(err, ErrNotOwner) {
			t.Errorf("Status error got %v, want ErrNotOwner", err)
		}
		if f.machine.Snapshot().Phase != session.PhaseIdle {
			t.Error("machine left idle by a rejected command")
		}
	})

	t.Run("start, status and stop", func(t *testing.T) {
		f := newMachineFixture()
		s := newTestControlService(f, true)

		report, err := s.StartCycle(ctx, ownerID, []string{"50", "10"})
		if err != nil {
			t.Fatalf("StartCycle failed: %v", err)
		}
		if report.View.Phase != session.PhaseWork || report.Config.WorkMinutes != 50 || report.AlreadyRunning {
			t.Errorf("StartCycle report got %+v", report)
		}

		f.at(20 * time.Minute)
		report, err = s.Status(ctx, ownerID)
		if err != nil {
			t.Fatalf("Status failed: %v", err)
		}
		if report.View.Remaining != 30*time.Minute || !report.NotificationsEnabled {
			t.Errorf("Status report got %+v, want 30m remaining with notifications", report)
		}

		report, err = s.StartCycle(ctx, ownerID, nil)
		if err != nil {
			t.Fatalf("second StartCycle failed: %v", err)
		}
		if !report.AlreadyRunning || report.Config.WorkMinutes != 50 {
			t.Errorf("second StartCycle report got %+v, want the running 50m cycle", report)
		}

		report, err = s.StopCycle(ctx, ownerID)
		if err != nil {
			t.Fatalf("StopCycle failed: %v", err)
		}
		if report.View.Phase != session.PhaseIdle || report.EndInstant != nil {
			t.Errorf("StopCycle report got %+v, want idle", report)
		}
	})

	t.Run("invalid durations", func(t *testing.T) {
		f := newMachineFixture()
		s := newTestControlService(f, true)

		if _, err := s.StartCycle(ctx, ownerID, []string{"0"}); !errors.Is(err, session.ErrInvalidConfig) {
			t.Errorf("StartCycle error got %v, want ErrInvalidConfig", err)
		}
	})

	t.Run("disabled notifications are reported but do not block", func(t *testing.T) {
		f := newMachineFixture()
		s := newTestControlService(f, false)

		report, err := s.StartCycle(ctx, ownerID, nil)
		if err != nil {
			t.Fatalf("StartCycle failed: %v", err)
		}
		if report.NotificationsEnabled {
			t.Error("NotificationsEnabled reported true for a denied authorizer")
		}
		if f.sink.liveCount() == 0 {
			t.Error("reminders not scheduled while notifications are disabled")
		}
	})
}
