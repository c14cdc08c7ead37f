package ai

import (
	"fmt"
	"strings"
)

type ChatLine struct {
	PlayerName string
	Content    string
	IsAI       bool
}

// GameContext is what the AI player gets to see when it speaks.
type GameContext struct {
	Messages   []ChatLine
	HumanNames []string
	Phase      string
}

type PromptStyle int

const (
	// PromptFull carries roster, phase and the last 10 lines.
	PromptFull PromptStyle = iota
	// PromptBrief carries only the last 5 lines, for small completion models.
	PromptBrief
)

func recentLines(msgs []ChatLine, n int) string {
	if len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, m.PlayerName+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}

func BuildPrompt(style PromptStyle, gc GameContext) string {
	if style == PromptBrief {
		return recentLines(gc.Messages, 5)
	}
	return fmt.Sprintf(`Game context:
- You are one of the players in this chat
- Other human players: %s
- Current game phase: %s
- Recent conversation:
%s

Respond naturally to the conversation as your character would. Remember to blend in with the humans!`,
		strings.Join(gc.HumanNames, ", "), gc.Phase, recentLines(gc.Messages, 10))
}
