package notificator

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type TelegramInfra struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramInfra(bot *tgbotapi.BotAPI, chatID int64) *TelegramInfra {
	return &TelegramInfra{bot: bot, chatID: chatID}
}

func (i *TelegramInfra) Notify(ctx context.Context, err error, details string) error {
	text := fmt.Sprintf(
		"❗ voicechat run failed\n\nError: %v\n\nDetails: %s",
		err,
		details,
	)

	if _, sendErr := i.bot.Send(tgbotapi.NewMessage(i.chatID, text)); sendErr != nil {
		return fmt.Errorf("telegram send to %d: %w", i.chatID, sendErr)
	}
	return nil
}

// Noop is used when no admin chat is configured.
type Noop struct{}

func (Noop) Notify(context.Context, error, string) error { return nil }
