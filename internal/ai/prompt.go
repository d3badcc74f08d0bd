package ai

import (
	"strings"

	"github.com/Vovarama1992/voicechat/internal/history"
)

// BuildPrompt keeps the newest turns of conv that fit both limits. maxTurns == 0
// sends no history; maxChars == 0 means no character budget. A window that would
// open with an assistant turn is shifted so history always starts on a user turn.
func BuildPrompt(system string, conv history.Conversation, text string, maxTurns, maxChars int) Prompt {
	p := Prompt{
		System: strings.TrimSpace(system),
		Text:   text,
	}
	if maxTurns <= 0 || len(conv) == 0 {
		return p
	}

	start := len(conv)
	total := 0
	for i := len(conv) - 1; i >= 0 && len(conv)-i <= maxTurns; i-- {
		n := len([]rune(conv[i].Text))
		if maxChars > 0 && total+n > maxChars {
			break
		}
		total += n
		start = i
	}

	for start < len(conv) && conv[start].Role != history.RoleUser {
		start++
	}
	if start == len(conv) {
		return p
	}

	p.History = append(history.Conversation(nil), conv[start:]...)
	return p
}
