package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Vovarama1992/voicechat/internal/config"
)

func TestNewResponder(t *testing.T) {
	log := zap.NewNop()

	tests := []struct {
		name    string
		cfg     config.Config
		want    Responder
		wantErr error
	}{
		{"mock", config.Config{Mock: true, Responder: config.ResponderGPT}, MockResponder{}, nil},
		{"gpt without key", config.Config{Responder: config.ResponderGPT}, nil, config.ErrMissingCredentials},
		{"gemini without key", config.Config{Responder: config.ResponderGemini, OpenAI: config.OpenAIConfig{APIKey: "sk"}}, nil, config.ErrMissingCredentials},
		{"gpt", config.Config{Responder: config.ResponderGPT, OpenAI: config.OpenAIConfig{APIKey: "sk"}}, &OpenAIResponder{}, nil},
		{"gemini", config.Config{Responder: config.ResponderGemini, Gemini: config.GeminiConfig{APIKey: "g"}}, &GeminiResponder{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewResponder(tt.cfg, log)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, r)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, r)
		})
	}
}

func TestMockResponderIsStable(t *testing.T) {
	a, err := MockResponder{}.Respond(context.Background(), Prompt{Text: "one"})
	require.NoError(t, err)
	b, err := MockResponder{}.Respond(context.Background(), Prompt{Text: "two", History: conversation(4)})
	require.NoError(t, err)

	assert.Equal(t, MockReply, a)
	assert.Equal(t, a, b)
}
