package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Vovarama1992/voicechat/internal/config"
	"github.com/Vovarama1992/voicechat/internal/history"
)

var ErrEmptyReply = errors.New("model returned an empty reply")

type OpenAIResponder struct {
	client      *openai.Client
	model       string
	temperature float32
}

func NewOpenAIResponder(cfg config.OpenAIConfig) *OpenAIResponder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	return &OpenAIResponder{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		temperature: cfg.Temperature,
	}
}

func chatMessages(p Prompt) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(p.History)+2)
	if p.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: p.System,
		})
	}

	for _, t := range p.History {
		role := openai.ChatMessageRoleUser
		if t.Role == history.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		txt := strings.TrimSpace(t.Text)
		if txt == "" {
			continue
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: txt,
		})
	}

	return append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: p.Text,
	})
}

func (c *OpenAIResponder) Respond(ctx context.Context, p Prompt) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    chatMessages(p),
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("gpt %s: %s: %w", c.model, analyzeOpenAIError(err), err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}

	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", ErrEmptyReply
	}
	return reply, nil
}

// analyzeOpenAIError turns an API failure into a short operator-facing hint.
func analyzeOpenAIError(err error) string {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return "request failed"
	}

	switch code := apiErr.HTTPStatusCode; {
	case code == 401:
		return "invalid OpenAI API key"
	case code == 404:
		return "model not found"
	case code == 429:
		return "OpenAI rate limit or quota exceeded"
	case code == 400 && strings.Contains(strings.ToLower(apiErr.Message), "model"):
		return "invalid model"
	case code == 400:
		return "malformed request"
	case code >= 500:
		return "OpenAI internal error"
	}
	return fmt.Sprintf("unexpected status %d", apiErr.HTTPStatusCode)
}
