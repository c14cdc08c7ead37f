package models

import "time"

type Phase string

const (
	PhaseLobby      Phase = "lobby"
	PhaseDiscussion Phase = "discussion"
	PhaseVoting     Phase = "voting"
	PhaseEnded      Phase = "ended"
)

// Room is the record of one game. JSON names follow the wire format the web
// client already speaks.
type Room struct {
	ID               string     `json:"id"`
	RoomCode         string     `json:"roomCode"`
	Status           Phase      `json:"status"`
	CreatedBy        string     `json:"createdBy"`
	AIPersonality    string     `json:"aiPersonality"`
	DiscussionEndsAt *time.Time `json:"discussionTimeLeft"`
	VotingEndsAt     *time.Time `json:"votingTimeLeft"`
	AIPlayerID       string     `json:"aiPlayerId,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

type Player struct {
	ID          string    `json:"id"`
	GameID      string    `json:"gameId"`
	Name        string    `json:"name"`
	IsAI        bool      `json:"isAI"`
	IsConnected bool      `json:"isConnected"`
	Vote        string    `json:"vote"`
	HasVoted    bool      `json:"hasVoted"`
	JoinedAt    time.Time `json:"joinedAt"`
}

type Message struct {
	ID        string    `json:"id"`
	GameID    string    `json:"gameId"`
	PlayerID  string    `json:"playerId"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Seq       int64     `json:"seq"`
}
