package telegram

import (
	"context"

	domainTelegram "interval_reminder_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
)

// ChatAuthorizer reports whether reminders can reach the owner's chat.
type ChatAuthorizer struct {
	client  domainTelegram.Client
	ownerID int64
	logger  *logrus.Entry
}

func NewChatAuthorizer(client domainTelegram.Client, ownerID int64, logger *logrus.Entry) *ChatAuthorizer {
	return &ChatAuthorizer{client: client, ownerID: ownerID, logger: logger}
}

// Check is advisory only; callers schedule reminders regardless of the answer.
func (a *ChatAuthorizer) Check(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	if err := a.client.Reachable(a.ownerID); err != nil {
		a.logger.WithError(err).WithField("owner_id", a.ownerID).Warn("Owner chat is not reachable, reminders will not be delivered")
		return false
	}
	return true
}
