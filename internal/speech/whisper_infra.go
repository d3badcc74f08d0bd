package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Vovarama1992/voicechat/internal/config"
)

type WhisperTranscriber struct {
	client *openai.Client
	model  string
}

func NewWhisperTranscriber(cfg config.OpenAIConfig) *WhisperTranscriber {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.TranscribeModel
	if model == "" {
		model = openai.Whisper1
	}

	return &WhisperTranscriber{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}
}

func (c *WhisperTranscriber) Transcribe(ctx context.Context, clip Clip) (string, error) {
	if len(clip.Data) == 0 {
		return "", ErrEmptyAudio
	}

	name := clip.Name
	if name == "" {
		name = "audio.wav"
	}

	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.model,
		FilePath: name,
		Reader:   bytes.NewReader(clip.Data),
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("whisper: status %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, err)
		}
		return "", fmt.Errorf("whisper request: %w", err)
	}

	return resp.Text, nil
}
