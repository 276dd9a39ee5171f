package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"

	"interval_reminder_bot/internal/app"
	"interval_reminder_bot/internal/domain/session"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RegisterCycleHandlers registers the commands that control the timer.
// Only the owner may use them.
func RegisterCycleHandlers(ctx context.Context, b *telebot.Bot, controlService *app.ControlService, ownerID int64, baseLogger *logrus.Entry) {
	b.Handle("/work", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/work",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != ownerID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("Error: this timer belongs to someone else.")
		}

		args := c.Args() // Expected format: /work [work minutes] [break minutes]
		report, err := controlService.StartCycle(ctx, c.Sender().ID, args)
		if err != nil {
			logWithError := handlerLogger.WithError(err).WithField("args", args)
			switch {
			case errors.Is(err, app.ErrNotOwner):
				logWithError.Warn("Not the owner (service level)")
				return c.Send("Error: this timer belongs to someone else.")
			case errors.Is(err, app.ErrInvalidArguments), errors.Is(err, session.ErrInvalidConfig):
				logWithError.Warn("Invalid durations")
				return c.Send(fmt.Sprintf("Invalid durations. Use: /work [work %d-%d] [break %d-%d], in minutes.",
					session.MinWorkMinutes, session.MaxWorkMinutes, session.MinBreakMinutes, session.MaxBreakMinutes))
			default:
				logWithError.Error("Failed to start cycle")
				return c.Send(fmt.Sprintf("Could not start the timer: %s", err.Error()))
			}
		}

		handlerLogger.WithFields(logrus.Fields{
			"work_minutes":    report.Config.WorkMinutes,
			"break_minutes":   report.Config.BreakMinutes,
			"already_running": report.AlreadyRunning,
		}).Info("Cycle start handled")
		return c.Send(FormatStatusReport(report, time.Local), controlMarkup())
	})

	b.Handle("/stop", func(c telebot.Context) error {
		return handleStop(ctx, c, controlService, ownerID, baseLogger.WithField("handler", "/stop"))
	})

	b.Handle("/status", func(c telebot.Context) error {
		return handleStatus(ctx, c, controlService, ownerID, baseLogger.WithField("handler", "/status"))
	})
}

func handleStop(ctx context.Context, c telebot.Context, controlService *app.ControlService, ownerID int64, logger *logrus.Entry) error {
	handlerLogger := logger.WithField("sender_id", c.Sender().ID)
	handlerLogger.Info("Command received")

	if c.Sender().ID != ownerID {
		handlerLogger.Warn("Unauthorized access attempt")
		return c.Send("Error: this timer belongs to someone else.")
	}

	report, err := controlService.StopCycle(ctx, c.Sender().ID)
	if err != nil {
		handlerLogger.WithError(err).Error("Failed to stop cycle")
		return c.Send(fmt.Sprintf("Could not stop the timer: %s", err.Error()))
	}
	handlerLogger.Info("Cycle stopped by owner")
	return c.Send("Timer stopped. Pending reminders were cancelled.\n\n" + FormatStatusReport(report, time.Local))
}

func handleStatus(ctx context.Context, c telebot.Context, controlService *app.ControlService, ownerID int64, logger *logrus.Entry) error {
	handlerLogger := logger.WithField("sender_id", c.Sender().ID)
	handlerLogger.Debug("Command received")

	if c.Sender().ID != ownerID {
		handlerLogger.Warn("Unauthorized access attempt")
		return c.Send("Error: this timer belongs to someone else.")
	}

	report, err := controlService.Status(ctx, c.Sender().ID)
	if err != nil {
		handlerLogger.WithError(err).Error("Failed to read status")
		return c.Send(fmt.Sprintf("Could not read the timer: %s", err.Error()))
	}
	if report.View.Phase == session.PhaseIdle {
		return c.Send(FormatStatusReport(report, time.Local))
	}
	return c.Send(FormatStatusReport(report, time.Local), controlMarkup())
}

func controlMarkup() *telebot.ReplyMarkup {
	replyMarkup := &telebot.ReplyMarkup{}
	btnStatus := replyMarkup.Data("Status", app.CallbackStatus)
	btnStop := replyMarkup.Data("Stop", app.CallbackStop)
	replyMarkup.Inline(replyMarkup.Row(btnStatus, btnStop))
	return replyMarkup
}
