package notificator

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Vovarama1992/voicechat/internal/config"
)

// Service never lets a failed alert turn into a second failure: send errors are
// logged and swallowed.
type Service struct {
	infra Notificator
	log   *zap.Logger
}

func NewService(infra Notificator, log *zap.Logger) *Service {
	return &Service{infra: infra, log: log.Named("notificator")}
}

func (s *Service) Notify(ctx context.Context, err error, details string) error {
	if sendErr := s.infra.Notify(ctx, err, details); sendErr != nil {
		s.log.Warn("alert not delivered", zap.Error(sendErr))
	}
	return nil
}

// New builds the Telegram alert channel when cfg enables it, Noop otherwise.
// apiEndpoint overrides the Bot API URL format; empty means the public API.
func New(cfg config.NotifyConfig, apiEndpoint string, log *zap.Logger) (*Service, error) {
	if !cfg.Enabled() {
		return NewService(Noop{}, log), nil
	}

	if apiEndpoint == "" {
		apiEndpoint = tgbotapi.APIEndpoint
	}

	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(cfg.TelegramToken, apiEndpoint)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}

	log.Info("failure alerts enabled", zap.String("bot", bot.Self.UserName), zap.Int64("chat_id", cfg.ChatID))
	return NewService(NewTelegramInfra(bot, cfg.ChatID), log), nil
}
