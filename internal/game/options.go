package game

import (
	"context"
	"math/rand"
	"time"

	"github.com/georgeca620-star/Ai-imposter/internal/ai"
)

// AINames is the pool the AI player's display name is drawn from.
var AINames = []string{"Mike_777", "Sarah_AI", "Alex_Bot", "Jamie_X", "Taylor_99"}

type Rules struct {
	MinPlayers     int
	MaxPlayers     int
	DiscussionTime time.Duration
	VotingTime     time.Duration
	ReplyDelayMin  time.Duration
	ReplyDelayMax  time.Duration
	// TickInterval drives deadline checks. Zero disables the per-room clock;
	// callers then advance time through Session.Tick.
	TickInterval time.Duration
}

func DefaultRules() Rules {
	return Rules{
		MinPlayers:     4,
		MaxPlayers:     8,
		DiscussionTime: 3 * time.Minute,
		VotingTime:     30 * time.Second,
		ReplyDelayMin:  2 * time.Second,
		ReplyDelayMax:  5 * time.Second,
		TickInterval:   time.Second,
	}
}

type Responder interface {
	Generate(ctx context.Context, personality string, gc ai.GameContext) string
}

// Rand is the subset of *rand.Rand sessions draw from.
type Rand interface {
	Intn(n int) int
	Int63n(n int64) int64
}

type Options struct {
	Rules     Rules
	Rand      Rand
	Now       func() time.Time
	AfterFunc func(d time.Duration, f func())
	Exporter  Exporter
}

func (o Options) withDefaults() Options {
	if o.Rules == (Rules{}) {
		o.Rules = DefaultRules()
	}
	if o.Rand == nil {
		o.Rand = &lockedRand{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
	}
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
	if o.AfterFunc == nil {
		o.AfterFunc = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	}
	return o
}
