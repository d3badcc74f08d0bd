package ai

import "context"

const MockReply = "I'm great! How can I assist you today?"

// MockResponder answers every prompt with MockReply.
type MockResponder struct{}

func (MockResponder) Respond(context.Context, Prompt) (string, error) {
	return MockReply, nil
}
