// internal/app/reminder_dispatcher.go
package app

import (
	"context"
	"fmt"
	"time"

	"interval_reminder_bot/internal/domain/reminder"
	domainTelegram "interval_reminder_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// StaleHeartbeatAge is how late a heartbeat may be delivered. Older ones are
// marked delivered without a message.
const StaleHeartbeatAge = time.Hour

// Callback data attached to the inline buttons of audible reminders.
const (
	CallbackStop   = "cyc_stop"
	CallbackStatus = "cyc_status"
)

// ReminderDispatcher delivers reminders whose fire time has passed.
type ReminderDispatcher interface {
	ProcessDueReminders(ctx context.Context) error
}

// ReminderDispatcherImpl sends due reminders to the owner's chat through the Telegram client.
type ReminderDispatcherImpl struct {
	reminderRepo   reminder.Repository
	telegramClient domainTelegram.Client
	clock          Clock
	ownerChatID    int64
	logger         *logrus.Entry
}

func NewReminderDispatcherImpl(
	rr reminder.Repository,
	tc domainTelegram.Client,
	clock Clock,
	ownerChatID int64,
	logger *logrus.Entry,
) *ReminderDispatcherImpl {
	return &ReminderDispatcherImpl{
		reminderRepo:   rr,
		telegramClient: tc,
		clock:          clock,
		ownerChatID:    ownerChatID,
		logger:         logger,
	}
}

// ProcessDueReminders sends every undelivered reminder due at the current instant,
// oldest first. A failed send leaves the reminder pending for the next run.
func (s *ReminderDispatcherImpl) ProcessDueReminders(ctx context.Context) error {
	now := s.clock.Now()
	due, err := s.reminderRepo.ListDue(ctx, now)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list due reminders")
		return fmt.Errorf("failed to list due reminders: %w", err)
	}
	if len(due) == 0 {
		return nil
	}
	s.logger.WithField("count", len(due)).Debug("Dispatching due reminders")

	var failed int
	for _, r := range due {
		logCtx := s.logger.WithFields(logrus.Fields{
			"reminder_id": r.ID,
			"kind":        r.Kind,
			"fire_at":     r.FireAt.Format(time.RFC3339),
		})

		if r.Kind == reminder.KindHeartbeat && now.Sub(r.FireAt) > StaleHeartbeatAge {
			logCtx.Info("Skipping stale heartbeat")
		} else if err := s.telegramClient.SendMessage(s.ownerChatID, formatReminder(r.Reminder), sendOptionsFor(r.Reminder)); err != nil {
			logCtx.WithError(err).Error("Failed to deliver reminder")
			failed++
			continue
		} else {
			logCtx.Info("Reminder delivered")
		}

		if err := s.reminderRepo.MarkDelivered(ctx, r.ID, r.FireAt, now); err != nil {
			// Replaced by a newer plan since it was listed; nothing to mark.
			logCtx.WithError(err).Warn("Failed to mark reminder delivered")
		}
	}

	if failed > 0 {
		return fmt.Errorf("failed to deliver %d of %d reminders", failed, len(due))
	}
	return nil
}

func formatReminder(r reminder.Reminder) string {
	if r.Title == "" {
		return r.Body
	}
	return fmt.Sprintf("%s\n%s", r.Title, r.Body)
}

func sendOptionsFor(r reminder.Reminder) *telebot.SendOptions {
	opts := &telebot.SendOptions{DisableNotification: r.Silent}
	if r.Silent {
		return opts
	}
	replyMarkup := &telebot.ReplyMarkup{}
	btnStatus := replyMarkup.Data("Status", CallbackStatus)
	btnStop := replyMarkup.Data("Stop", CallbackStop)
	replyMarkup.Inline(replyMarkup.Row(btnStatus, btnStop))
	opts.ReplyMarkup = replyMarkup
	return opts
}
