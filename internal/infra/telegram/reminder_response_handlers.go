// internal/infra/telegram/reminder_response_handlers.go
package telegram

import (
	"context"
	"fmt"

	"interval_reminder_bot/internal/app"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RegisterReminderResponseHandlers handles the inline buttons attached to reminders and status replies.
func RegisterReminderResponseHandlers(ctx context.Context, b *telebot.Bot, controlService *app.ControlService, ownerID int64, baseLogger *logrus.Entry) {
	b.Handle(&telebot.Btn{Unique: app.CallbackStop}, func(c telebot.Context) error {
		logger := baseLogger.WithField("handler", "callback:"+app.CallbackStop)
		if err := handleStop(ctx, c, controlService, ownerID, logger); err != nil {
			return err
		}
		return c.Respond(&telebot.CallbackResponse{Text: "Timer stopped."})
	})

	b.Handle(&telebot.Btn{Unique: app.CallbackStatus}, func(c telebot.Context) error {
		logger := baseLogger.WithField("handler", "callback:"+app.CallbackStatus)
		if err := handleStatus(ctx, c, controlService, ownerID, logger); err != nil {
			return err
		}
		return c.Respond()
	})

	// Fallback for buttons from older messages whose actions no longer exist.
	b.Handle(telebot.OnCallback, func(c telebot.Context) error {
		c.Bot().OnError(fmt.Errorf("unhandled callback data: %s", c.Callback().Data), c)
		return c.Respond(&telebot.CallbackResponse{Text: "Unknown action."})
	})
}
