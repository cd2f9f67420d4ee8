package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// BotSender abstracts the Telegram bot API for sending messages.
type BotSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram forwards run summaries and errors to a Telegram chat. Progress
// messages are not sent.
type Telegram struct {
	bot    BotSender
	chatID int64
}

// NewTelegram creates a Telegram notifier around an existing bot.
func NewTelegram(bot BotSender, chatID int64) *Telegram {
	return &Telegram{bot: bot, chatID: chatID}
}

// DialTelegram authorizes botToken against apiEndpoint (a tgbotapi endpoint
// format string; empty selects the public API) and returns a notifier.
func DialTelegram(botToken string, chatID int64, apiEndpoint string) (*Telegram, error) {
	if apiEndpoint == "" {
		apiEndpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(botToken, apiEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telegram bot: %w", err)
	}
	bot.Debug = false
	log.Debug().Str("username", bot.Self.UserName).Msg("authorized on account")
	return NewTelegram(bot, chatID), nil
}

// Notify implements Notifier.
func (t *Telegram) Notify(level Level, msg string) {
	if level != LevelSummary && level != LevelError {
		return
	}

	text := msg
	if level == LevelError {
		text = "⚠️ " + msg
	}
	if _, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, text)); err != nil {
		log.Warn().Err(err).Int64("chatID", t.chatID).Msg("failed to send telegram notification")
	}
}
