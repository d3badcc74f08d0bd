package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/Vovarama1992/voicechat/internal/config"
)

var (
	ErrEmptyAudio      = errors.New("audio is empty")
	ErrEmptyTranscript = errors.New("empty transcript")
)

type DeepgramTranscriber struct {
	apiKey   string
	baseURL  string
	model    string
	language string
	client   *http.Client
}

func NewDeepgramTranscriber(cfg config.DeepgramConfig) *DeepgramTranscriber {
	base := cfg.BaseURL
	if base == "" {
		base = "https://api.deepgram.com/v1"
	}
	model := cfg.Model
	if model == "" {
		model = "nova-2"
	}

	return &DeepgramTranscriber{
		apiKey:   cfg.APIKey,
		baseURL:  strings.TrimRight(base, "/"),
		model:    model,
		language: cfg.Language,
		client:   &http.Client{},
	}
}

var audioContentTypes = map[string]string{
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".opus": "audio/ogg",
	".webm": "audio/webm",
	".m4a":  "audio/mp4",
	".mp4":  "audio/mp4",
	".flac": "audio/flac",
}

func contentTypeFor(name string) string {
	if ct, ok := audioContentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

func (c *DeepgramTranscriber) Transcribe(ctx context.Context, clip Clip) (string, error) {
	if len(clip.Data) == 0 {
		return "", ErrEmptyAudio
	}

	q := url.Values{}
	q.Set("model", c.model)
	q.Set("smart_format", "true")
	if c.language != "" {
		q.Set("language", c.language)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/listen?"+q.Encode(),
		bytes.NewReader(clip.Data),
	)
	if err != nil {
		return "", err
	}

	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Content-Type", contentTypeFor(clip.Name))

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("deepgram request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("deepgram read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("deepgram error: status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var parsed struct {
		Results struct {
			Channels []struct {
				Alternatives []struct {
					Transcript string `json:"transcript"`
				} `json:"alternatives"`
			} `json:"channels"`
		} `json:"results"`
	}

	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode deepgram: %w", err)
	}

	if len(parsed.Results.Channels) == 0 ||
		len(parsed.Results.Channels[0].Alternatives) == 0 {
		return "", ErrEmptyTranscript
	}

	return parsed.Results.Channels[0].Alternatives[0].Transcript, nil
}
