package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// makeConversation builds n alternating turns numbered from 0.
func makeConversation(n int) Conversation {
	conv := make(Conversation, 0, n)
	for i := 0; i < n; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		conv = append(conv, Turn{
			Role:      role,
			Text:      fmt.Sprintf("turn %d", i),
			Timestamp: base.Add(time.Duration(i) * time.Second),
		})
	}
	return conv
}

func TestAppendLength(t *testing.T) {
	user := Turn{Role: RoleUser, Text: "new question", Timestamp: base}
	assistant := Turn{Role: RoleAssistant, Text: "new answer", Timestamp: base}

	for _, limit := range []int{2, 3, 4, 10, 20} {
		for prior := 0; prior <= limit; prior++ {
			out := Append(makeConversation(prior), user, assistant, limit)
			assert.Len(t, out, min(limit, prior+2), "limit=%d prior=%d", limit, prior)
			assert.Equal(t, assistant, out[len(out)-1])
			assert.Equal(t, user, out[len(out)-2])
		}
	}
}

func TestAppendDropsOldestFirst(t *testing.T) {
	conv := makeConversation(20)
	user := NewTurn(RoleUser, "hello")
	assistant := NewTurn(RoleAssistant, "hi")

	out := Append(conv, user, assistant, 20)

	require.Len(t, out, 20)
	assert.Equal(t, "turn 2", out[0].Text)
	assert.Equal(t, conv[2:], out[:18])
	assert.Equal(t, "hello", out[18].Text)
	assert.Equal(t, "hi", out[19].Text)
}

func TestAppendDoesNotModifyInput(t *testing.T) {
	conv := makeConversation(4)
	snapshot := append(Conversation(nil), conv...)

	_ = Append(conv, NewTurn(RoleUser, "a"), NewTurn(RoleAssistant, "b"), 4)

	assert.Equal(t, snapshot, conv)
}

func TestNewTurn(t *testing.T) {
	turn := NewTurn(RoleUser, "hello")

	assert.Equal(t, RoleUser, turn.Role)
	assert.Equal(t, "hello", turn.Text)
	assert.Equal(t, time.UTC, turn.Timestamp.Location())
	assert.Zero(t, turn.Timestamp.Nanosecond()%1000)
	assert.WithinDuration(t, time.Now(), turn.Timestamp, time.Minute)
}
