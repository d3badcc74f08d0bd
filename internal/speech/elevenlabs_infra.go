package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"

	"github.com/Vovarama1992/voicechat/internal/config"
)

var ErrEmptyText = errors.New("nothing to synthesize")

type ElevenLabsClient struct {
	apiKey   string
	baseURL  string
	voiceID  string
	modelID  string
	settings voiceSettings
	httpCli  *http.Client
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type elevenLabsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id,omitempty"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

func NewElevenLabsClient(cfg config.ElevenLabsConfig) *ElevenLabsClient {
	base := cfg.BaseURL
	if base == "" {
		base = "https://api.elevenlabs.io/v1"
	}
	voiceID := cfg.VoiceID
	if voiceID == "" {
		voiceID = "21m00Tcm4TlvDq8ikWAM" // Rachel
	}

	return &ElevenLabsClient{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(base, "/"),
		voiceID: voiceID,
		modelID: cfg.ModelID,
		settings: voiceSettings{
			Stability:       cfg.Stability,
			SimilarityBoost: cfg.SimilarityBoost,
		},
		httpCli: http.DefaultClient,
	}
}

// TEXT → SPEECH
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	payload, err := json.Marshal(elevenLabsRequest{
		Text:          text,
		ModelID:       c.modelID,
		VoiceSettings: c.settings,
	})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/text-to-speech/%s", c.baseURL, url.PathEscape(c.voiceID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("elevenlabs error: status %d: %s", resp.StatusCode, bytes.TrimSpace(b))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs read: %w", err)
	}
	if len(audio) == 0 {
		return nil, errors.New("elevenlabs returned no audio")
	}
	return audio, nil
}
