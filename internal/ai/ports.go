package ai

import (
	"context"

	"github.com/Vovarama1992/voicechat/internal/history"
)

// Prompt is everything a responder sends for one reply: the system framing,
// the fitting slice of prior turns and the new user utterance.
type Prompt struct {
	System  string
	History history.Conversation
	Text    string
}

type Responder interface {
	Respond(ctx context.Context, p Prompt) (string, error)
}
