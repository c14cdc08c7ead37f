package ai

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Stage is one attempt in the fallback chain.
type Stage struct {
	Name     string
	Provider Provider
	Model    string
	Style    PromptStyle
}

// Responder produces chat lines for the AI player. Generate never fails: when
// every stage errors, times out or returns blank text the personality's canned
// line is used.
type Responder struct {
	stages  []Stage
	timeout time.Duration
}

func NewResponder(timeout time.Duration, stages ...Stage) *Responder {
	kept := make([]Stage, 0, len(stages))
	for _, s := range stages {
		if s.Provider != nil {
			kept = append(kept, s)
		}
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Responder{stages: kept, timeout: timeout}
}

func (r *Responder) Generate(ctx context.Context, personality string, gc GameContext) string {
	p := PersonalityFor(personality)
	for _, st := range r.stages {
		text, err := r.attempt(ctx, st, p, gc)
		if err != nil {
			log.Warn().Err(err).Str("provider", st.Name).Str("personality", personality).Msg("ai generation failed")
			continue
		}
		if text != "" {
			return text
		}
		log.Warn().Str("provider", st.Name).Msg("ai generation returned empty text")
	}
	return FallbackLine(personality)
}

func (r *Responder) attempt(ctx context.Context, st Stage, p Personality, gc GameContext) (text string, err error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Str("provider", st.Name).Msg("ai provider panicked")
			text, err = "", nil
		}
	}()
	text, err = st.Provider.CompleteWithSystem(ctx, st.Model, p.SystemPrompt, BuildPrompt(st.Style, gc))
	return strings.TrimSpace(text), err
}
