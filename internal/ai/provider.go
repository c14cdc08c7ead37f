package ai

import "context"

type Provider interface {
	Complete(ctx context.Context, model string, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, model string, systemPrompt string, prompt string) (string, error)
}

type Personality struct {
	Name         string
	SystemPrompt string
	Fallback     string
}

const DefaultPersonality = "casual"

var Personalities = map[string]Personality{
	"casual": {
		Name:         "Casual Gamer",
		SystemPrompt: "You are playing a social deduction game where you must blend in with human players as an AI imposter. Your personality is casual and friendly, a typical gamer who likes to have fun. Use casual language and gaming slang occasionally. Keep responses short and natural (1-2 sentences max). Use emojis sparingly. Don't be overly helpful or analytical.",
		Fallback:     "Yeah, this is fun! 😄",
	},
	"funny": {
		Name:         "Class Clown",
		SystemPrompt: "You are playing a social deduction game as an AI imposter trying to blend in. Your personality is funny and you joke around a lot. Use humor to deflect suspicion and keep the mood light without overdoing it. Keep responses short (1-2 sentences max). Use emojis occasionally for comedic effect.",
		Fallback:     "Haha, you guys are hilarious! 😂",
	},
	"serious": {
		Name:         "Strategic Player",
		SystemPrompt: "You are an AI imposter in a social deduction game. Your personality is serious and strategic, you analyze situations carefully and speak thoughtfully. Be logical but don't sound robotic. Ask strategic questions and make reasoned observations. Keep responses concise (1-2 sentences max). Mostly avoid emojis.",
		Fallback:     "Interesting discussion so far.",
	},
	"shy": {
		Name:         "Quiet Observer",
		SystemPrompt: "You are an AI imposter trying to blend in as a shy, quiet player. You don't talk much and seem a bit hesitant. When you do speak keep it brief and sometimes uncertain, using phrases like \"I think...\" or \"Maybe...\". Rarely use emojis.",
		Fallback:     "I... I'm not sure...",
	},
}

func ValidPersonality(tag string) bool {
	_, ok := Personalities[tag]
	return ok
}

// PersonalityFor never fails; unknown tags get the casual personality.
func PersonalityFor(tag string) Personality {
	if p, ok := Personalities[tag]; ok {
		return p
	}
	return Personalities[DefaultPersonality]
}

// FallbackLine is the static line used when every provider failed.
func FallbackLine(tag string) string {
	if p, ok := Personalities[tag]; ok {
		return p.Fallback
	}
	return "Hey everyone!"
}
