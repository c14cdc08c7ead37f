package game

import "github.com/georgeca620-star/Ai-imposter/internal/models"

const (
	EventGameState     = "gameState"
	EventMessage       = "message"
	EventPlayerJoined  = "playerJoined"
	EventPlayerUpdated = "playerUpdated"
	EventPhaseChanged  = "gamePhaseChanged"
	EventGameEnded     = "gameEnded"
	EventError         = "error"
)

// Event is anything the hub can deliver to a connection. Every event
// serializes to a flat JSON object carrying its own "type".
type Event interface {
	EventType() string
}

// Broadcaster fans events out to every connection of a room. Implementations
// must not block: sessions call it while holding their lock, which is what
// keeps delivery order equal to append order.
type Broadcaster interface {
	Broadcast(roomID string, ev Event)
}

// State is the full snapshot a client needs to render a room.
type State struct {
	Game     models.Room      `json:"game"`
	Players  []models.Player  `json:"players"`
	Messages []models.Message `json:"messages"`
}

type GameStateEvent struct {
	Type string `json:"type"`
	State
}

func (e GameStateEvent) EventType() string { return e.Type }

func NewGameStateEvent(st State) GameStateEvent {
	return GameStateEvent{Type: EventGameState, State: st}
}

type MessageEvent struct {
	Type    string         `json:"type"`
	Message models.Message `json:"message"`
	Player  models.Player  `json:"player"`
}

func (e MessageEvent) EventType() string { return e.Type }

type PlayerEvent struct {
	Type   string        `json:"type"`
	Player models.Player `json:"player"`
}

func (e PlayerEvent) EventType() string { return e.Type }

type PhaseChangedEvent struct {
	Type    string          `json:"type"`
	Game    models.Room     `json:"game"`
	Players []models.Player `json:"players"`
}

func (e PhaseChangedEvent) EventType() string { return e.Type }

type GameEndedEvent struct {
	Type    string  `json:"type"`
	Results Results `json:"results"`
}

func (e GameEndedEvent) EventType() string { return e.Type }

type ErrorEvent struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e ErrorEvent) EventType() string { return e.Type }

func NewErrorEvent(code, message string) ErrorEvent {
	return ErrorEvent{Type: EventError, Code: code, Message: message}
}
