package ws

import (
	"sync"

	"github.com/georgeca620-star/Ai-imposter/internal/game"
	"github.com/rs/zerolog/log"
)

// Hub maps rooms to their live connections. It never touches game state; it
// only delivers events.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Client]struct{})}
}

// Register adds c to roomID, moving it out of any room it was in before.
// Registering the same pair twice is a no-op.
func (h *Hub) Register(c *Client, roomID, playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if prev, _ := c.membership(); prev != "" && prev != roomID {
		h.remove(c, prev)
	}
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]struct{})
	}
	h.rooms[roomID][c] = struct{}{}
	c.setMembership(roomID, playerID)
}

// Unregister removes c from its room and reports how many other connections
// the same player still has there.
func (h *Hub) Unregister(c *Client) (roomID, playerID string, remaining int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	roomID, playerID = c.membership()
	if roomID == "" {
		return "", "", 0
	}
	h.remove(c, roomID)
	c.setMembership("", "")
	for other := range h.rooms[roomID] {
		if _, pid := other.membership(); pid == playerID {
			remaining++
		}
	}
	return roomID, playerID, remaining
}

func (h *Hub) remove(c *Client, roomID string) {
	clients := h.rooms[roomID]
	if clients == nil {
		return
	}
	delete(clients, c)
	if len(clients) == 0 {
		delete(h.rooms, roomID)
	}
}

// Broadcast hands ev to every connection of the room. Delivery is best
// effort: closed or backed-up connections are skipped.
func (h *Hub) Broadcast(roomID string, ev game.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[roomID] {
		if !c.Send(ev) {
			log.Warn().Str("roomId", roomID).Str("sid", c.ID()).Str("event", ev.EventType()).Msg("dropped event for slow or closed connection")
		}
	}
}

func (h *Hub) Count(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
