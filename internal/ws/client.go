package ws

import (
	"sync"
	"time"

	"github.com/georgeca620-star/Ai-imposter/internal/game"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	sendBuffer = 256
)

// Sink is the transport behind a Client.
type Sink interface {
	Write(ev game.Event) error
	Close() error
}

// pinger is implemented by sinks that need keepalives from our side.
type pinger interface {
	Ping() error
}

// Client is one live connection. Outbound events go through a buffered queue
// drained by its own goroutine, so a slow peer never holds up a broadcast.
type Client struct {
	id      string
	sink    Sink
	send    chan game.Event
	limiter *rate.Limiter

	mu       sync.Mutex
	closed   bool
	roomID   string
	playerID string
}

func NewClient(id string, sink Sink, limit rate.Limit, burst int) *Client {
	c := &Client{
		id:      id,
		sink:    sink,
		send:    make(chan game.Event, sendBuffer),
		limiter: rate.NewLimiter(limit, burst),
	}
	go c.writePump()
	return c
}

func (c *Client) ID() string { return c.id }

func (c *Client) membership() (roomID, playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID, c.playerID
}

func (c *Client) setMembership(roomID, playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID, c.playerID = roomID, playerID
}

// Send queues ev without blocking. It reports false when the connection is
// closed or its queue is full, in which case the event is dropped.
func (c *Client) Send(ev game.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) writePump() {
	var ping <-chan time.Time
	p, canPing := c.sink.(pinger)
	if canPing {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		ping = ticker.C
	}
	defer c.sink.Close()

	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.sink.Write(ev); err != nil {
				log.Warn().Err(err).Str("sid", c.id).Str("event", ev.EventType()).Msg("failed to write event")
				c.Close()
				return
			}
		case <-ping:
			if err := p.Ping(); err != nil {
				log.Debug().Err(err).Str("sid", c.id).Msg("ping failed")
				c.Close()
				return
			}
		}
	}
}
