// internal/app/reminder_scheduler.go
package app

import (
	"context"
	"time"

	"interval_reminder_bot/internal/domain/reminder"
	"interval_reminder_bot/internal/domain/session"

	"github.com/sirupsen/logrus"
)

const (
	// ReminderHorizon is the furthest a plan reaches past its anchor.
	ReminderHorizon = 24 * time.Hour
	// HeartbeatInterval spaces the silent reminders of long work sessions.
	HeartbeatInterval = time.Hour
)

// ReminderMessages holds the texts attached to each reminder kind.
type ReminderMessages struct {
	Title         string
	WorkEndBody   string
	BreakEndBody  string
	HeartbeatBody string
}

func DefaultReminderMessages(title string) ReminderMessages {
	if title == "" {
		title = "LightPomo"
	}
	return ReminderMessages{
		Title:         title,
		WorkEndBody:   "Time for a break!",
		BreakEndBody:  "Break is over, back to work!",
		HeartbeatBody: "Timer still running...",
	}
}

// ReminderScheduler turns a (config, anchor) pair into a reminder plan and submits it.
type ReminderScheduler struct {
	sink     reminder.Sink
	messages ReminderMessages
	logger   *logrus.Entry
}

func NewReminderScheduler(sink reminder.Sink, messages ReminderMessages, logger *logrus.Entry) *ReminderScheduler {
	return &ReminderScheduler{
		sink:     sink,
		messages: messages,
		logger:   logger,
	}
}

// Plan computes the reminders for the cycle whose work session began at anchor.
// Every fire time is anchor plus a fixed offset. Entries past anchor+ReminderHorizon
// are dropped, as are entries not after now (a boundary that has already passed).
func (s *ReminderScheduler) Plan(cfg session.Config, anchor, now time.Time) reminder.Plan {
	horizon := anchor.Add(ReminderHorizon)
	plan := make(reminder.Plan, 0, 4)
	add := func(r reminder.Reminder) {
		if r.FireAt.After(horizon) || !r.FireAt.After(now) {
			return
		}
		plan = append(plan, r)
	}

	workEnd := anchor.Add(cfg.WorkDuration())
	add(reminder.Reminder{
		ID:     reminder.IDWorkEnd,
		FireAt: workEnd,
		Kind:   reminder.KindWorkEnd,
		Title:  s.messages.Title,
		Body:   s.messages.WorkEndBody,
	})
	add(reminder.Reminder{
		ID:     reminder.IDBreakEnd,
		FireAt: workEnd.Add(cfg.BreakDuration()),
		Kind:   reminder.KindBreakEnd,
		Title:  s.messages.Title,
		Body:   s.messages.BreakEndBody,
	})

	if cfg.WorkDuration() > HeartbeatInterval {
		for n, offset := 0, HeartbeatInterval; offset < ReminderHorizon; n, offset = n+1, offset+HeartbeatInterval {
			add(reminder.Reminder{
				ID:     reminder.HeartbeatID(n),
				FireAt: anchor.Add(offset),
				Kind:   reminder.KindHeartbeat,
				Title:  s.messages.Title,
				Body:   s.messages.HeartbeatBody,
				Silent: true,
			})
		}
	}
	return plan
}

// ScheduleCycle supersedes the previous plan and submits a fresh one computed
// at now, the instant the caller observed. Reminders already due at now stay
// in the sink until delivered. A rejected entry is logged and skipped; the rest
// of the batch is still submitted and the result is a *reminder.PartialFailureError.
func (s *ReminderScheduler) ScheduleCycle(ctx context.Context, cfg session.Config, anchor, now time.Time) (reminder.Plan, error) {
	plan := s.Plan(cfg, anchor, now)
	logCtx := s.logger.WithFields(logrus.Fields{
		"anchor":        anchor.Format(time.RFC3339),
		"work_minutes":  cfg.WorkMinutes,
		"break_minutes": cfg.BreakMinutes,
		"reminder_ids":  plan.IDs(),
	})

	var failure reminder.PartialFailureError
	if err := s.sink.Supersede(ctx, now); err != nil {
		// Fixed ids still overwrite the previous plan; only stale heartbeats may linger.
		logCtx.WithError(err).Warn("Failed to supersede previous reminders")
		failure.FailedIDs = append(failure.FailedIDs, "supersede")
		failure.Errs = append(failure.Errs, err)
	}

	for _, r := range plan {
		if err := s.sink.Schedule(ctx, r); err != nil {
			logCtx.WithError(err).WithField("reminder_id", r.ID).Warn("Failed to submit reminder, continuing with the rest of the plan")
			failure.FailedIDs = append(failure.FailedIDs, r.ID)
			failure.Errs = append(failure.Errs, err)
		}
	}

	if len(failure.FailedIDs) > 0 {
		return plan, &failure
	}
	logCtx.Debug("Reminder plan submitted")
	return plan, nil
}
