package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/georgeca620-star/Ai-imposter/internal/models"
	"github.com/georgeca620-star/Ai-imposter/internal/store"
	"github.com/rs/zerolog/log"
)

// Registry is the process-wide table of live sessions, indexed by room id
// and by join code. It is created once at startup; sessions are added when a
// room is created and evicted by Sweep some time after they end. Evicted rooms
// stay readable through the store.
type Registry struct {
	mu     sync.RWMutex
	byID   map[string]*Session
	byCode map[string]*Session

	store     store.Store
	events    Broadcaster
	responder Responder
	opts      Options
}

func NewRegistry(st store.Store, events Broadcaster, responder Responder, opts Options) *Registry {
	return &Registry{
		byID:      make(map[string]*Session),
		byCode:    make(map[string]*Session),
		store:     st,
		events:    events,
		responder: responder,
		opts:      opts.withDefaults(),
	}
}

func (r *Registry) Create(code, createdBy, personality string) (models.Room, error) {
	code, err := ValidateCode(code)
	if err != nil {
		return models.Room{}, err
	}
	createdBy, err = ValidateName(createdBy)
	if err != nil {
		return models.Room{}, err
	}
	personality, err = ValidatePersonality(personality)
	if err != nil {
		return models.Room{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	room, err := r.store.CreateRoom(models.Room{
		RoomCode:      code,
		Status:        models.PhaseLobby,
		CreatedBy:     createdBy,
		AIPersonality: personality,
	})
	if errors.Is(err, store.ErrDuplicateCode) {
		return models.Room{}, ErrCodeTaken
	}
	if err != nil {
		return models.Room{}, err
	}
	s := newSession(room, r.store, r.events, r.responder, r.opts)
	r.byID[room.ID] = s
	r.byCode[room.RoomCode] = s
	go s.run()

	log.Info().Str("roomId", room.ID).Str("code", room.RoomCode).Str("personality", personality).Msg("room created")
	return room, nil
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.byID[id]
	if s == nil {
		return nil, ErrRoomNotFound
	}
	return s, nil
}

func (r *Registry) GetByCode(code string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.byCode[store.NormalizeCode(code)]
	if s == nil {
		return nil, ErrRoomNotFound
	}
	return s, nil
}

func (r *Registry) JoinByCode(code, name string) (models.Room, models.Player, error) {
	s, err := r.GetByCode(code)
	if err != nil {
		return models.Room{}, models.Player{}, err
	}
	return s.Join(name)
}

// State returns the live snapshot, or the stored records for a room that has
// already been evicted.
func (r *Registry) State(id string) (State, error) {
	if s, err := r.Get(id); err == nil {
		return s.State()
	}
	room, err := r.store.Room(id)
	if errors.Is(err, store.ErrNotFound) {
		return State{}, ErrRoomNotFound
	}
	if err != nil {
		return State{}, err
	}
	players, err := r.store.PlayersByRoom(id)
	if err != nil {
		return State{}, err
	}
	msgs, err := r.store.MessagesByRoom(id)
	if err != nil {
		return State{}, err
	}
	return State{Game: room, Players: players, Messages: msgs}, nil
}

func (r *Registry) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Retention says how long sessions stay in the registry. Ended rooms are
// evicted Ended after they finish. Unfinished rooms nobody has acted in for
// Idle are expired and evicted; zero Idle keeps them.
type Retention struct {
	Ended time.Duration
	Idle  time.Duration
}

// Sweep evicts ended sessions past their retention and expires idle ones.
func (r *Registry) Sweep(now time.Time, ret Retention) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, s := range r.byID {
		if ended := s.EndedAt(); ended.IsZero() {
			if ret.Idle <= 0 || !s.expireIfIdle(now.Add(-ret.Idle)) {
				continue
			}
		} else if now.Sub(ended) < ret.Ended {
			continue
		}
		delete(r.byID, id)
		if r.byCode[s.Code] == s {
			delete(r.byCode, s.Code)
		}
		s.Close()
		evicted++
	}
	if evicted > 0 {
		log.Info().Int("evicted", evicted).Int("live", len(r.byID)).Msg("registry sweep")
	}
	return evicted
}

// Run sweeps periodically until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration, ret Retention) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(r.opts.Now(), ret)
		}
	}
}

// Close stops every session clock.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byID {
		s.Close()
	}
}
