package ai

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Vovarama1992/voicechat/internal/config"
)

// NewResponder resolves the responder variant once from cfg.
func NewResponder(cfg config.Config, log *zap.Logger) (Responder, error) {
	if cfg.Mock {
		log.Info("responder: mock")
		return MockResponder{}, nil
	}

	switch cfg.Responder {
	case config.ResponderGPT:
		if err := config.RequireKey("gpt", "openai.api_key", cfg.OpenAI.APIKey); err != nil {
			return nil, err
		}
		log.Info("responder: openai", zap.String("model", cfg.OpenAI.Model))
		return NewOpenAIResponder(cfg.OpenAI), nil

	case config.ResponderGemini:
		if err := config.RequireKey("gemini", "gemini.api_key", cfg.Gemini.APIKey); err != nil {
			return nil, err
		}
		log.Info("responder: gemini", zap.String("model", cfg.Gemini.Model))
		return NewGeminiResponder(cfg.Gemini), nil
	}

	return nil, fmt.Errorf("unknown responder %q", cfg.Responder)
}
