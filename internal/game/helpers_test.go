package game

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/georgeca620-star/Ai-imposter/internal/ai"
	"github.com/georgeca620-star/Ai-imposter/internal/models"
	"github.com/georgeca620-star/Ai-imposter/internal/store"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Broadcast(roomID string, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) ofType(typ string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, ev := range r.events {
		if ev.EventType() == typ {
			out = append(out, ev)
		}
	}
	return out
}

type fakeResponder struct {
	text   string
	before func()
	mu     sync.Mutex
	seen   []ai.GameContext
}

func (f *fakeResponder) Generate(ctx context.Context, personality string, gc ai.GameContext) string {
	if f.before != nil {
		f.before()
	}
	f.mu.Lock()
	f.seen = append(f.seen, gc)
	f.mu.Unlock()
	return f.text
}

type timers struct {
	mu     sync.Mutex
	fns    []func()
	delays []time.Duration
}

func (t *timers) AfterFunc(d time.Duration, f func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fns = append(t.fns, f)
	t.delays = append(t.delays, d)
}

func (t *timers) fireAll() {
	t.mu.Lock()
	fns := t.fns
	t.fns = nil
	t.mu.Unlock()
	for _, f := range fns {
		f()
	}
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

type harness struct {
	reg       *Registry
	store     *store.Memory
	events    *recorder
	timers    *timers
	clock     *clock
	responder *fakeResponder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:     store.NewMemory(),
		events:    &recorder{},
		timers:    &timers{},
		clock:     &clock{now: time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)},
		responder: &fakeResponder{text: "lol who even is the bot"},
	}
	rules := DefaultRules()
	rules.TickInterval = 0
	h.reg = NewRegistry(h.store, h.events, h.responder, Options{
		Rules:     rules,
		Rand:      rand.New(rand.NewSource(7)),
		Now:       h.clock.Now,
		AfterFunc: h.timers.AfterFunc,
	})
	t.Cleanup(h.reg.Close)
	return h
}

var humanNames = []string{"Alice", "Bob", "Carol", "Dave", "Erin", "Frank", "Grace", "Heidi", "Ivan"}

// lobby creates a room owned by Alice with n humans joined, Alice first.
func (h *harness) lobby(t *testing.T, n int) (*Session, []models.Player) {
	t.Helper()
	room, err := h.reg.Create("game1", "Alice", "casual")
	if err != nil {
		t.Fatalf("should be able to create room: %v", err)
	}
	s, err := h.reg.Get(room.ID)
	if err != nil {
		t.Fatalf("should be able to get session: %v", err)
	}
	players := make([]models.Player, 0, n)
	for i := 0; i < n; i++ {
		_, p, err := s.Join(humanNames[i])
		if err != nil {
			t.Fatalf("join %d failed: %v", i, err)
		}
		players = append(players, p)
	}
	return s, players
}

// started returns a room in discussion with n humans and the AI player.
func (h *harness) started(t *testing.T, n int) (*Session, []models.Player, models.Player) {
	t.Helper()
	s, humans := h.lobby(t, n)
	room, players, err := s.Start(humans[0].ID)
	if err != nil {
		t.Fatalf("should be able to start: %v", err)
	}
	for _, p := range players {
		if p.ID == room.AIPlayerID {
			return s, humans, p
		}
	}
	t.Fatal("AI player missing from roster")
	return nil, nil, models.Player{}
}

// voting returns a room that has just entered the voting phase.
func (h *harness) voting(t *testing.T, n int) (*Session, []models.Player, models.Player) {
	t.Helper()
	s, humans, bot := h.started(t, n)
	if _, err := s.Advance(humans[0].ID); err != nil {
		t.Fatalf("should be able to open voting: %v", err)
	}
	return s, humans, bot
}
