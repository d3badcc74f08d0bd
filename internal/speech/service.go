package speech

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Vovarama1992/voicechat/internal/config"
)

// Service pairs the configured transcriber and synthesizer.
type Service struct {
	stt Transcriber
	tts Synthesizer
}

func NewService(stt Transcriber, tts Synthesizer) *Service {
	return &Service{
		stt: stt,
		tts: tts,
	}
}

func (s *Service) Transcribe(ctx context.Context, clip Clip) (string, error) {
	return s.stt.Transcribe(ctx, clip)
}

func (s *Service) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return s.tts.Synthesize(ctx, text)
}

// AudioExt is the file extension of what the configured synthesizer returns:
// the mock writes a WAV container, ElevenLabs answers with MP3.
func AudioExt(cfg config.Config) string {
	if cfg.Mock {
		return ".wav"
	}
	return ".mp3"
}

// NewTranscriber picks the variant once. A real provider without its key is an
// error; mock mode has to be asked for.
func NewTranscriber(cfg config.Config, log *zap.Logger) (Transcriber, error) {
	if cfg.Mock {
		log.Info("transcriber: mock")
		return MockTranscriber{}, nil
	}

	switch cfg.Transcriber {
	case config.TranscriberWhisper:
		if err := config.RequireKey("whisper", "openai.api_key", cfg.OpenAI.APIKey); err != nil {
			return nil, err
		}
		log.Info("transcriber: openai whisper", zap.String("model", cfg.OpenAI.TranscribeModel))
		return NewWhisperTranscriber(cfg.OpenAI), nil

	case config.TranscriberDeepgram:
		if err := config.RequireKey("deepgram", "deepgram.api_key", cfg.Deepgram.APIKey); err != nil {
			return nil, err
		}
		log.Info("transcriber: deepgram", zap.String("model", cfg.Deepgram.Model))
		return NewDeepgramTranscriber(cfg.Deepgram), nil
	}

	return nil, fmt.Errorf("unknown transcriber %q", cfg.Transcriber)
}

func NewSynthesizer(cfg config.Config, log *zap.Logger) (Synthesizer, error) {
	if cfg.Mock {
		log.Info("synthesizer: mock")
		return MockSynthesizer{}, nil
	}

	if err := config.RequireKey("elevenlabs", "elevenlabs.api_key", cfg.ElevenLabs.APIKey); err != nil {
		return nil, err
	}
	log.Info("synthesizer: elevenlabs", zap.String("voice", cfg.ElevenLabs.VoiceID))
	return NewElevenLabsClient(cfg.ElevenLabs), nil
}
