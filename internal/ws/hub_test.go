package ws

import (
	"sync"
	"testing"
	"time"

	"github.com/georgeca620-star/Ai-imposter/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type memSink struct {
	mu     sync.Mutex
	events []game.Event
	closed bool
}

func (s *memSink) Write(ev game.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *memSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *memSink) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.EventType())
	}
	return out
}

// stuckSink never finishes a write until released.
type stuckSink struct {
	release chan struct{}
}

func (s *stuckSink) Write(game.Event) error {
	<-s.release
	return nil
}

func (s *stuckSink) Close() error { return nil }

func newTestClient(id string, sink Sink) *Client {
	return NewClient(id, sink, rate.Inf, 1)
}

func TestHubRegisterIsIdempotent(t *testing.T) {
	h := NewHub()
	sink := &memSink{}
	c := newTestClient("c1", sink)
	defer c.Close()

	h.Register(c, "room1", "p1")
	h.Register(c, "room1", "p1")
	assert.Equal(t, 1, h.Count("room1"))

	h.Broadcast("room1", game.NewErrorEvent("x", "y"))
	require.Eventually(t, func() bool { return len(sink.types()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, sink.types(), 1, "a client registered twice must receive each event once")
}

func TestHubRegisterMovesBetweenRooms(t *testing.T) {
	h := NewHub()
	c := newTestClient("c1", &memSink{})
	defer c.Close()

	h.Register(c, "room1", "p1")
	h.Register(c, "room2", "p9")
	assert.Equal(t, 0, h.Count("room1"))
	assert.Equal(t, 1, h.Count("room2"))
	room, player := c.membership()
	assert.Equal(t, "room2", room)
	assert.Equal(t, "p9", player)
}

func TestHubUnregisterCountsRemainingConnections(t *testing.T) {
	h := NewHub()
	a1 := newTestClient("a1", &memSink{})
	a2 := newTestClient("a2", &memSink{})
	b := newTestClient("b", &memSink{})
	for _, c := range []*Client{a1, a2, b} {
		defer c.Close()
	}
	h.Register(a1, "room1", "alice")
	h.Register(a2, "room1", "alice")
	h.Register(b, "room1", "bob")

	room, player, remaining := h.Unregister(a1)
	assert.Equal(t, "room1", room)
	assert.Equal(t, "alice", player)
	assert.Equal(t, 1, remaining)

	_, _, remaining = h.Unregister(a2)
	assert.Equal(t, 0, remaining)

	room, _, _ = h.Unregister(a2)
	assert.Empty(t, room, "second unregister is a no-op")
	assert.Equal(t, 1, h.Count("room1"))
}

func TestHubSlowClientDoesNotBlockBroadcast(t *testing.T) {
	h := NewHub()
	stuck := &stuckSink{release: make(chan struct{})}
	slow := newTestClient("slow", stuck)
	defer close(stuck.release)
	defer slow.Close()
	h.Register(slow, "room1", "p1")

	done := make(chan struct{})
	go func() {
		for i := 0; i < sendBuffer*2; i++ {
			h.Broadcast("room1", game.NewErrorEvent("x", "y"))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a stuck connection")
	}

	sink := &memSink{}
	fast := newTestClient("fast", sink)
	defer fast.Close()
	h.Register(fast, "room1", "p2")
	h.Broadcast("room1", game.NewErrorEvent("x", "y"))
	require.Eventually(t, func() bool { return len(sink.types()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestClientSendAfterClose(t *testing.T) {
	sink := &memSink{}
	c := newTestClient("c1", sink)
	c.Close()
	c.Close()
	assert.False(t, c.Send(game.NewErrorEvent("x", "y")))
	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return sink.closed
	}, time.Second, 5*time.Millisecond)
}
