package telegram

import "gopkg.in/telebot.v3"

// Client defines an interface for sending messages via a Telegram bot.
// Reminder delivery and the authorizer depend on it rather than on telebot directly.
type Client interface {
	SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error
	// Reachable reports an error when the bot cannot address the chat,
	// e.g. the owner never started a conversation or blocked the bot.
	Reachable(chatID int64) error
}
