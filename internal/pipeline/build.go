package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Vovarama1992/voicechat/internal/ai"
	"github.com/Vovarama1992/voicechat/internal/archive"
	"github.com/Vovarama1992/voicechat/internal/config"
	"github.com/Vovarama1992/voicechat/internal/history"
	"github.com/Vovarama1992/voicechat/internal/notificator"
	"github.com/Vovarama1992/voicechat/internal/speech"
)

// Build wires a Pipeline from cfg. Providers are resolved first, so missing
// credentials fail before any store is opened or touched.
func Build(ctx context.Context, cfg config.Config, log *zap.Logger) (*Pipeline, error) {
	stt, err := speech.NewTranscriber(cfg, log)
	if err != nil {
		return nil, err
	}
	llm, err := ai.NewResponder(cfg, log)
	if err != nil {
		return nil, err
	}
	tts, err := speech.NewSynthesizer(cfg, log)
	if err != nil {
		return nil, err
	}

	notifier, err := notificator.New(cfg.Notify, "", log)
	if err != nil {
		return nil, err
	}

	var archiver Archiver
	if cfg.Archive.Enabled() {
		client, err := archive.NewS3Client(ctx, cfg.Archive)
		if err != nil {
			return nil, fmt.Errorf("archive: %w", err)
		}
		archiver = archive.NewService(client)
		log.Info("reply archive enabled", zap.String("bucket", cfg.Archive.Bucket))
	}

	store, err := history.NewStore(ctx, cfg.History, log)
	if err != nil {
		return nil, err
	}

	voice := speech.NewService(stt, tts)

	return New(Deps{
		Transcriber: voice,
		Responder:   llm,
		Synthesizer: voice,
		Store:       store,
		Archive:     archiver,
		Notifier:    notifier,
	}, OptionsFromConfig(cfg), log), nil
}
