// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"fmt"
	"strings"

	"interval_reminder_bot/internal/domain/session"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func RegisterBotCommands(
	b *telebot.Bot,
	ownerID int64,
	defaults session.Config,
	baseLogger *logrus.Entry, // For contextual logging
) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/start").WithField("sender_id", senderID)
		logCtx.Info("Processing /start command")

		if senderID == ownerID {
			logCtx.Info("User identified as Owner")
			return c.Send(fmt.Sprintf("Hi %s! I'm your interval timer. Send /work to start a %d/%d cycle or /help for all commands.",
				c.Sender().FirstName, defaults.WorkMinutes, defaults.BreakMinutes))
		}

		logCtx.Info("User is unknown")
		return c.Send("Hi! This is a private interval timer and it only answers its owner.")
	})

	b.Handle("/help", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/help").WithField("sender_id", senderID)
		logCtx.Info("Processing /help command")

		if senderID != ownerID {
			logCtx.Info("User is unknown, sending restricted help.")
			return c.Send("There are no commands available for you.")
		}

		var helpText strings.Builder
		helpText.WriteString("Available commands:\n\n")
		fmt.Fprintf(&helpText, "`/work [work] [break]`\n - Start a cycle. Minutes, work %d-%d and break %d-%d. Defaults to %d/%d.\n\n",
			session.MinWorkMinutes, session.MaxWorkMinutes, session.MinBreakMinutes, session.MaxBreakMinutes,
			defaults.WorkMinutes, defaults.BreakMinutes)
		helpText.WriteString("`/status`\n - Show the current phase and time left.\n\n")
		helpText.WriteString("`/stop`\n - Stop the timer and cancel pending reminders.\n\n")
		helpText.WriteString("`/help`\n - Show this message.")
		return c.Send(helpText.String(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})
}
