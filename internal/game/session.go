package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/georgeca620-star/Ai-imposter/internal/ai"
	"github.com/georgeca620-star/Ai-imposter/internal/models"
	"github.com/georgeca620-star/Ai-imposter/internal/store"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Session is the authoritative state machine of one room. Every command takes
// mu for its whole duration, so commands, deadline ticks and AI replies for a
// room are applied one at a time in arrival order.
type Session struct {
	ID   string
	Code string

	mu        sync.Mutex
	store     store.Store
	events    Broadcaster
	responder Responder
	opts      Options
	log       zerolog.Logger

	lastActive time.Time
	endedAt    time.Time
	stop       chan struct{}
	once       sync.Once
}

func newSession(room models.Room, st store.Store, events Broadcaster, responder Responder, opts Options) *Session {
	return &Session{
		ID:         room.ID,
		Code:       room.RoomCode,
		store:      st,
		events:     events,
		responder:  responder,
		opts:       opts,
		log:        log.With().Str("roomId", room.ID).Str("code", room.RoomCode).Logger(),
		stop:       make(chan struct{}),
		lastActive: opts.Now(),
	}
}

// run drives deadline expiry until the room ends or the session is closed.
func (s *Session) run() {
	if s.opts.Rules.TickInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.opts.Rules.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if ph := s.Tick(s.opts.Now()); ph == models.PhaseEnded || ph == "" {
				return
			}
		}
	}
}

func (s *Session) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *Session) room() (models.Room, error) {
	room, err := s.store.Room(s.ID)
	if errors.Is(err, store.ErrNotFound) {
		return room, ErrRoomNotFound
	}
	return room, err
}

func (s *Session) player(id string) (models.Player, error) {
	p, err := s.store.Player(id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && p.GameID != s.ID) {
		return models.Player{}, ErrPlayerNotFound
	}
	return p, err
}

func (s *Session) snapshot() (State, error) {
	room, err := s.room()
	if err != nil {
		return State{}, err
	}
	players, err := s.store.PlayersByRoom(s.ID)
	if err != nil {
		return State{}, err
	}
	msgs, err := s.store.MessagesByRoom(s.ID)
	if err != nil {
		return State{}, err
	}
	return State{Game: room, Players: players, Messages: msgs}, nil
}

func (s *Session) State() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Player looks up a member of this room without changing anything.
func (s *Session) Player(id string) (models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player(id)
}

func (s *Session) phase() models.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, err := s.room()
	if err != nil {
		return ""
	}
	return room.Status
}

// Join admits a new human player while the room is still in the lobby.
func (s *Session) Join(name string) (models.Room, models.Player, error) {
	name, err := ValidateName(name)
	if err != nil {
		return models.Room{}, models.Player{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := s.room()
	if err != nil {
		return models.Room{}, models.Player{}, err
	}
	if room.Status != models.PhaseLobby {
		return models.Room{}, models.Player{}, ErrInvalidPhase
	}
	players, err := s.store.PlayersByRoom(s.ID)
	if err != nil {
		return models.Room{}, models.Player{}, err
	}
	if len(players) >= s.opts.Rules.MaxPlayers {
		return models.Room{}, models.Player{}, ErrRoomFull
	}
	p, err := s.store.CreatePlayer(models.Player{GameID: s.ID, Name: name, IsConnected: true})
	if err != nil {
		return models.Room{}, models.Player{}, err
	}
	s.touch()
	s.log.Info().Str("playerId", p.ID).Str("name", p.Name).Int("players", len(players)+1).Msg("player joined")
	s.events.Broadcast(s.ID, PlayerEvent{Type: EventPlayerJoined, Player: p})
	return room, p, nil
}

// authorize resolves the requesting player and checks it is the room creator.
// Identity is the self-declared display name; nothing stronger exists.
func (s *Session) authorize(room models.Room, playerID string) error {
	p, err := s.player(playerID)
	if err != nil {
		return err
	}
	if p.IsAI || p.Name != room.CreatedBy {
		return ErrNotCreator
	}
	return nil
}

// Start adds the AI player and opens the discussion.
func (s *Session) Start(playerID string) (models.Room, []models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := s.room()
	if err != nil {
		return models.Room{}, nil, err
	}
	if room.Status != models.PhaseLobby {
		return models.Room{}, nil, ErrInvalidPhase
	}
	if err := s.authorize(room, playerID); err != nil {
		return models.Room{}, nil, err
	}
	players, err := s.store.PlayersByRoom(s.ID)
	if err != nil {
		return models.Room{}, nil, err
	}
	if len(players) < s.opts.Rules.MinPlayers {
		return models.Room{}, nil, ErrNotEnoughPlayers
	}

	for _, p := range players {
		if _, err := s.store.UpdatePlayer(p.ID, func(p *models.Player) {
			p.Vote, p.HasVoted = "", false
		}); err != nil {
			return models.Room{}, nil, err
		}
	}
	name := AINames[s.opts.Rand.Intn(len(AINames))]
	bot, err := s.store.CreatePlayer(models.Player{GameID: s.ID, Name: name, IsAI: true, IsConnected: true})
	if err != nil {
		return models.Room{}, nil, err
	}
	s.touch()
	ends := s.opts.Now().Add(s.opts.Rules.DiscussionTime)
	room, err = s.store.UpdateRoom(s.ID, func(r *models.Room) {
		r.Status = models.PhaseDiscussion
		r.AIPlayerID = bot.ID
		r.DiscussionEndsAt = &ends
	})
	if err != nil {
		return models.Room{}, nil, err
	}
	players, err = s.store.PlayersByRoom(s.ID)
	if err != nil {
		return models.Room{}, nil, err
	}
	s.log.Info().Str("from", string(models.PhaseLobby)).Str("to", string(room.Status)).Str("aiPlayerId", bot.ID).Msg("phase transition")
	s.events.Broadcast(s.ID, PhaseChangedEvent{Type: EventPhaseChanged, Game: room, Players: players})
	return room, players, nil
}

// Advance lets the creator cut the current timed phase short.
func (s *Session) Advance(playerID string) (models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := s.room()
	if err != nil {
		return models.Room{}, err
	}
	if err := s.authorize(room, playerID); err != nil {
		return models.Room{}, err
	}
	switch room.Status {
	case models.PhaseDiscussion:
		return s.openVoting()
	case models.PhaseVoting:
		return s.end()
	}
	return models.Room{}, ErrInvalidPhase
}

// Tick applies any deadline that has passed at now and returns the phase the
// room is in afterwards.
func (s *Session) Tick(now time.Time) models.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := s.room()
	if err != nil {
		return ""
	}
	switch {
	case room.Status == models.PhaseDiscussion && room.DiscussionEndsAt != nil && !now.Before(*room.DiscussionEndsAt):
		room, err = s.openVoting()
	case room.Status == models.PhaseVoting && room.VotingEndsAt != nil && !now.Before(*room.VotingEndsAt):
		room, err = s.end()
	}
	if err != nil {
		s.log.Error().Err(err).Msg("deadline transition failed")
	}
	return room.Status
}

// openVoting moves discussion -> voting. Callers hold mu.
func (s *Session) openVoting() (models.Room, error) {
	s.touch()
	ends := s.opts.Now().Add(s.opts.Rules.VotingTime)
	room, err := s.store.UpdateRoom(s.ID, func(r *models.Room) {
		r.Status = models.PhaseVoting
		r.VotingEndsAt = &ends
	})
	if err != nil {
		return models.Room{}, err
	}
	players, err := s.store.PlayersByRoom(s.ID)
	if err != nil {
		return models.Room{}, err
	}
	s.log.Info().Str("from", string(models.PhaseDiscussion)).Str("to", string(room.Status)).Msg("phase transition")
	s.events.Broadcast(s.ID, PhaseChangedEvent{Type: EventPhaseChanged, Game: room, Players: players})
	return room, nil
}

// end moves voting -> ended and publishes the results. Callers hold mu.
func (s *Session) end() (models.Room, error) {
	room, err := s.store.UpdateRoom(s.ID, func(r *models.Room) {
		r.Status = models.PhaseEnded
	})
	if err != nil {
		return models.Room{}, err
	}
	players, err := s.store.PlayersByRoom(s.ID)
	if err != nil {
		return models.Room{}, err
	}
	res := Tally(players)
	s.endedAt = s.opts.Now()
	s.log.Info().Str("from", string(models.PhaseVoting)).Str("to", string(room.Status)).
		Bool("aiWins", res.AIWins).Int("aiVotes", res.AIVotes).Int("totalVotes", res.TotalVotes).Msg("game ended")
	s.events.Broadcast(s.ID, PhaseChangedEvent{Type: EventPhaseChanged, Game: room, Players: players})
	s.events.Broadcast(s.ID, GameEndedEvent{Type: EventGameEnded, Results: res})
	s.Close()

	if s.opts.Exporter != nil {
		msgs, err := s.store.MessagesByRoom(s.ID)
		if err != nil {
			s.log.Warn().Err(err).Msg("export skipped")
			return room, nil
		}
		st := State{Game: room, Players: players, Messages: msgs}
		go func() {
			if err := s.opts.Exporter.Export(st, res); err != nil {
				s.log.Error().Err(err).Msg("failed to export game results")
			}
		}()
	}
	return room, nil
}

// EndedAt reports when the room reached the ended phase, zero before that.
func (s *Session) EndedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endedAt
}

// touch records player activity. Callers hold mu.
func (s *Session) touch() {
	s.lastActive = s.opts.Now()
}

// expireIfIdle ends a room nobody has acted in since before cutoff. The room
// skips straight to ended without results, which frees its join code.
func (s *Session) expireIfIdle(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.endedAt.IsZero() || !s.lastActive.Before(cutoff) {
		return false
	}
	room, err := s.room()
	if err != nil {
		return false
	}
	from := room.Status
	room, err = s.store.UpdateRoom(s.ID, func(r *models.Room) { r.Status = models.PhaseEnded })
	if err != nil {
		s.log.Error().Err(err).Msg("failed to expire idle room")
		return false
	}
	players, err := s.store.PlayersByRoom(s.ID)
	if err != nil {
		players = nil
	}
	s.endedAt = s.opts.Now()
	s.log.Info().Str("from", string(from)).Str("to", string(room.Status)).Time("lastActive", s.lastActive).Msg("idle room expired")
	s.events.Broadcast(s.ID, PhaseChangedEvent{Type: EventPhaseChanged, Game: room, Players: players})
	s.Close()
	return true
}

// SendMessage appends a chat line and broadcasts it. Human lines during the
// discussion schedule one delayed AI reply.
func (s *Session) SendMessage(playerID, content string) (models.Message, error) {
	content, err := validateContent(content)
	if err != nil {
		return models.Message{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := s.room()
	if err != nil {
		return models.Message{}, err
	}
	if room.Status == models.PhaseEnded {
		return models.Message{}, ErrInvalidPhase
	}
	author, err := s.player(playerID)
	if err != nil {
		return models.Message{}, err
	}
	msg, err := s.appendMessage(author, content)
	if err != nil {
		return models.Message{}, err
	}
	if !author.IsAI && room.Status == models.PhaseDiscussion && room.AIPlayerID != "" {
		s.scheduleReply()
	}
	return msg, nil
}

// appendMessage writes to the log and broadcasts under mu, so every client
// sees messages in log order.
func (s *Session) appendMessage(author models.Player, content string) (models.Message, error) {
	msg, err := s.store.CreateMessage(models.Message{GameID: s.ID, PlayerID: author.ID, Content: content})
	if err != nil {
		return models.Message{}, err
	}
	s.touch()
	s.events.Broadcast(s.ID, MessageEvent{Type: EventMessage, Message: msg, Player: author})
	return msg, nil
}

func (s *Session) scheduleReply() {
	r := s.opts.Rules
	delay := r.ReplyDelayMin
	if span := r.ReplyDelayMax - r.ReplyDelayMin; span > 0 {
		delay += time.Duration(s.opts.Rand.Int63n(int64(span)))
	}
	s.opts.AfterFunc(delay, s.replyAsAI)
}

// replyAsAI runs off the command path. Generation happens without mu held; the
// phase is checked both when the timer fires and again before appending, so a
// reply that outlives the discussion is dropped.
func (s *Session) replyAsAI() {
	s.mu.Lock()
	room, err := s.room()
	if err != nil || room.Status != models.PhaseDiscussion || room.AIPlayerID == "" {
		s.mu.Unlock()
		return
	}
	gc, err := s.aiContext(room)
	s.mu.Unlock()
	if err != nil {
		s.log.Warn().Err(err).Msg("ai reply skipped")
		return
	}

	text := s.responder.Generate(context.Background(), room.AIPersonality, gc)

	s.mu.Lock()
	defer s.mu.Unlock()
	room, err = s.room()
	if err != nil || room.Status != models.PhaseDiscussion {
		s.log.Debug().Msg("discussion closed while ai was typing, reply dropped")
		return
	}
	bot, err := s.player(room.AIPlayerID)
	if err != nil {
		s.log.Warn().Err(err).Msg("ai player missing")
		return
	}
	if _, err := s.appendMessage(bot, text); err != nil {
		s.log.Warn().Err(err).Msg("failed to append ai reply")
	}
}

func (s *Session) aiContext(room models.Room) (ai.GameContext, error) {
	players, err := s.store.PlayersByRoom(s.ID)
	if err != nil {
		return ai.GameContext{}, err
	}
	msgs, err := s.store.MessagesByRoom(s.ID)
	if err != nil {
		return ai.GameContext{}, err
	}
	byID := make(map[string]models.Player, len(players))
	gc := ai.GameContext{Phase: string(room.Status)}
	for _, p := range players {
		byID[p.ID] = p
		if !p.IsAI {
			gc.HumanNames = append(gc.HumanNames, p.Name)
		}
	}
	for _, m := range msgs {
		author, ok := byID[m.PlayerID]
		name := author.Name
		if !ok {
			name = "Unknown"
		}
		gc.Messages = append(gc.Messages, ai.ChatLine{PlayerName: name, Content: m.Content, IsAI: author.IsAI})
	}
	return gc, nil
}

// Vote records one ballot per human player. An empty target abstains but
// still counts as having voted. The room ends as soon as every human has
// voted; the check runs under the same lock as the write.
func (s *Session) Vote(playerID, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := s.room()
	if err != nil {
		return err
	}
	if room.Status != models.PhaseVoting {
		return ErrInvalidPhase
	}
	voter, err := s.player(playerID)
	if err != nil {
		return err
	}
	if voter.IsAI {
		return ErrAINoVote
	}
	if voter.HasVoted {
		return ErrAlreadyVoted
	}
	if target != "" {
		if _, err := s.player(target); err != nil {
			return ErrInvalidTarget
		}
	}
	if _, err := s.store.UpdatePlayer(playerID, func(p *models.Player) {
		p.Vote, p.HasVoted = target, true
	}); err != nil {
		return err
	}
	s.touch()
	s.log.Info().Str("playerId", playerID).Bool("abstain", target == "").Msg("vote cast")

	players, err := s.store.PlayersByRoom(s.ID)
	if err != nil {
		return err
	}
	for _, p := range players {
		if !p.IsAI && !p.HasVoted {
			return nil
		}
	}
	_, err = s.end()
	return err
}

// Attach marks a player reachable again and returns the snapshot to send to
// the connection that just joined. onAttach runs under the session lock, so a
// connection registered there sees exactly the events that follow the snapshot.
func (s *Session) Attach(playerID string, onAttach func(State)) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.setConnected(playerID, true); err != nil {
		return State{}, err
	}
	s.touch()
	st, err := s.snapshot()
	if err != nil {
		return State{}, err
	}
	if onAttach != nil {
		onAttach(st)
	}
	return st, nil
}

// Detach marks a player unreachable once its last connection is gone.
func (s *Session) Detach(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setConnected(playerID, false)
}

func (s *Session) setConnected(playerID string, connected bool) error {
	p, err := s.player(playerID)
	if err != nil {
		return err
	}
	if p.IsConnected == connected {
		return nil
	}
	p, err = s.store.UpdatePlayer(playerID, func(p *models.Player) { p.IsConnected = connected })
	if err != nil {
		return err
	}
	s.log.Debug().Str("playerId", playerID).Bool("connected", connected).Msg("connectivity changed")
	s.events.Broadcast(s.ID, PlayerEvent{Type: EventPlayerUpdated, Player: p})
	return nil
}
