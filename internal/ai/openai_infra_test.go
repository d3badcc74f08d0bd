package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vovarama1992/voicechat/internal/config"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func chatServer(t *testing.T, handle func(req chatRequest) (int, any)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		status, body := handle(req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func completion(content string) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	}
}

func TestOpenAIRespond(t *testing.T) {
	var got chatRequest
	server := chatServer(t, func(req chatRequest) (int, any) {
		got = req
		return http.StatusOK, completion("  Doing well, thanks!  ")
	})

	r := NewOpenAIResponder(config.OpenAIConfig{
		APIKey:      "sk-test",
		Model:       "gpt-4o-mini",
		Temperature: 0.7,
		BaseURL:     server.URL + "/v1",
	})

	p := BuildPrompt("You are a helpful voice AI assistant.", conversation(2), "How are you?", 10, 0)
	reply, err := r.Respond(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "Doing well, thanks!", reply)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.InDelta(t, 0.7, got.Temperature, 0.001)
	require.Len(t, got.Messages, 4)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "turn-00000", got.Messages[1].Content)
	assert.Equal(t, "assistant", got.Messages[2].Role)
	assert.Equal(t, "user", got.Messages[3].Role)
	assert.Equal(t, "How are you?", got.Messages[3].Content)
}

func TestOpenAIRespondErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    any
		wantMsg string
		wantErr error
	}{
		{
			name:    "quota",
			status:  http.StatusTooManyRequests,
			body:    map[string]any{"error": map[string]any{"message": "You exceeded your current quota", "type": "insufficient_quota"}},
			wantMsg: "rate limit",
		},
		{
			name:    "bad key",
			status:  http.StatusUnauthorized,
			body:    map[string]any{"error": map[string]any{"message": "Incorrect API key provided", "type": "invalid_request_error"}},
			wantMsg: "invalid OpenAI API key",
		},
		{
			name:    "no choices",
			status:  http.StatusOK,
			body:    map[string]any{"id": "x", "object": "chat.completion", "choices": []any{}},
			wantErr: ErrEmptyReply,
		},
		{
			name:    "blank content",
			status:  http.StatusOK,
			body:    completion("   "),
			wantErr: ErrEmptyReply,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := chatServer(t, func(chatRequest) (int, any) { return tt.status, tt.body })
			r := NewOpenAIResponder(config.OpenAIConfig{APIKey: "sk-test", BaseURL: server.URL + "/v1"})

			_, err := r.Respond(context.Background(), Prompt{Text: "hi"})
			require.Error(t, err)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestChatMessagesSkipsBlankTurns(t *testing.T) {
	conv := conversation(2)
	conv[1].Text = "   "

	msgs := chatMessages(Prompt{History: conv, Text: "next"})
	require.Len(t, msgs, 2)
	assert.Equal(t, "turn-00000", msgs[0].Content)
	assert.Equal(t, "next", msgs[1].Content)
}
