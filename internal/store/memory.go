package store

import (
	"strings"
	"sync"
	"time"

	"github.com/georgeca620-star/Ai-imposter/internal/models"
	"github.com/google/uuid"
)

// bucket holds everything that belongs to one room. Writers to different
// rooms only contend on the short index lock in Memory.
type bucket struct {
	mu       sync.RWMutex
	room     models.Room
	players  []*models.Player
	messages []models.Message
	nextSeq  int64
}

type Memory struct {
	mu          sync.RWMutex
	rooms       map[string]*bucket // roomID -> bucket
	codes       map[string]string  // upper-cased code -> roomID
	playerRooms map[string]string  // playerID -> roomID

	now   func() time.Time
	newID func() string
}

func NewMemory() *Memory {
	return &Memory{
		rooms:       make(map[string]*bucket),
		codes:       make(map[string]string),
		playerRooms: make(map[string]string),
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (m *Memory) CreateRoom(room models.Room) (models.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	code := NormalizeCode(room.RoomCode)
	if prevID, ok := m.codes[code]; ok {
		prev := m.rooms[prevID]
		prev.mu.RLock()
		active := prev.room.Status != models.PhaseEnded
		prev.mu.RUnlock()
		if active {
			return models.Room{}, ErrDuplicateCode
		}
	}
	room.ID = m.newID()
	room.RoomCode = code
	room.CreatedAt = m.now()
	m.rooms[room.ID] = &bucket{room: room}
	m.codes[code] = room.ID
	return room, nil
}

func (m *Memory) bucket(roomID string) (*bucket, error) {
	m.mu.RLock()
	b := m.rooms[roomID]
	m.mu.RUnlock()
	if b == nil {
		return nil, ErrNotFound
	}
	return b, nil
}

func (m *Memory) Room(id string) (models.Room, error) {
	b, err := m.bucket(id)
	if err != nil {
		return models.Room{}, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.room, nil
}

func (m *Memory) RoomByCode(code string) (models.Room, error) {
	m.mu.RLock()
	id, ok := m.codes[NormalizeCode(code)]
	m.mu.RUnlock()
	if !ok {
		return models.Room{}, ErrNotFound
	}
	return m.Room(id)
}

func (m *Memory) UpdateRoom(id string, fn func(*models.Room)) (models.Room, error) {
	b, err := m.bucket(id)
	if err != nil {
		return models.Room{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(&b.room)
	b.room.ID = id
	return b.room, nil
}

func (m *Memory) CreatePlayer(player models.Player) (models.Player, error) {
	b, err := m.bucket(player.GameID)
	if err != nil {
		return models.Player{}, err
	}
	player.ID = m.newID()
	player.JoinedAt = m.now()

	b.mu.Lock()
	p := player
	b.players = append(b.players, &p)
	b.mu.Unlock()

	m.mu.Lock()
	m.playerRooms[player.ID] = player.GameID
	m.mu.Unlock()
	return player, nil
}

func (m *Memory) playerBucket(id string) (*bucket, error) {
	m.mu.RLock()
	roomID, ok := m.playerRooms[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return m.bucket(roomID)
}

func (m *Memory) Player(id string) (models.Player, error) {
	b, err := m.playerBucket(id)
	if err != nil {
		return models.Player{}, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, p := range b.players {
		if p.ID == id {
			return *p, nil
		}
	}
	return models.Player{}, ErrNotFound
}

// PlayersByRoom returns the roster in join order.
func (m *Memory) PlayersByRoom(roomID string) ([]models.Player, error) {
	b, err := m.bucket(roomID)
	if err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]models.Player, 0, len(b.players))
	for _, p := range b.players {
		out = append(out, *p)
	}
	return out, nil
}

func (m *Memory) UpdatePlayer(id string, fn func(*models.Player)) (models.Player, error) {
	b, err := m.playerBucket(id)
	if err != nil {
		return models.Player{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range b.players {
		if p.ID == id {
			gameID := p.GameID
			fn(p)
			p.ID, p.GameID = id, gameID
			return *p, nil
		}
	}
	return models.Player{}, ErrNotFound
}

// CreateMessage appends to the room log. Timestamps never go backwards within a
// room, so ordering by (Timestamp, Seq) always equals append order.
func (m *Memory) CreateMessage(msg models.Message) (models.Message, error) {
	b, err := m.bucket(msg.GameID)
	if err != nil {
		return models.Message{}, err
	}
	msg.ID = m.newID()
	ts := m.now()

	b.mu.Lock()
	defer b.mu.Unlock()
	if n := len(b.messages); n > 0 && ts.Before(b.messages[n-1].Timestamp) {
		ts = b.messages[n-1].Timestamp
	}
	b.nextSeq++
	msg.Timestamp = ts
	msg.Seq = b.nextSeq
	b.messages = append(b.messages, msg)
	return msg, nil
}

func (m *Memory) MessagesByRoom(roomID string) ([]models.Message, error) {
	b, err := m.bucket(roomID)
	if err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]models.Message, len(b.messages))
	copy(out, b.messages)
	return out, nil
}
