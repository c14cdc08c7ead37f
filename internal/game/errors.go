package game

import "errors"

var (
	ErrRoomNotFound       = errors.New("game room not found")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrRoomFull           = errors.New("game room is full")
	ErrNotEnoughPlayers   = errors.New("not enough players to start")
	ErrNotCreator         = errors.New("only the room creator can do that")
	ErrInvalidPhase       = errors.New("invalid phase for action")
	ErrAlreadyVoted       = errors.New("already voted")
	ErrAINoVote           = errors.New("the AI player does not vote")
	ErrInvalidTarget      = errors.New("vote target is not in this room")
	ErrCodeTaken          = errors.New("room code already in use")
	ErrInvalidName        = errors.New("invalid name")
	ErrInvalidCode        = errors.New("invalid room code")
	ErrInvalidPersonality = errors.New("unknown AI personality")
	ErrEmptyMessage       = errors.New("message is empty")
	ErrMessageTooLong     = errors.New("message is too long")
)
