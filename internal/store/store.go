package store

import (
	"errors"

	"github.com/georgeca620-star/Ai-imposter/internal/models"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicateCode = errors.New("room code already in use")
)

// Store is the persistence contract the game sessions write through. Records
// are returned by value; mutations go through the Update* callbacks so the
// implementation decides how to isolate concurrent writers.
type Store interface {
	CreateRoom(room models.Room) (models.Room, error)
	Room(id string) (models.Room, error)
	RoomByCode(code string) (models.Room, error)
	UpdateRoom(id string, fn func(*models.Room)) (models.Room, error)

	CreatePlayer(player models.Player) (models.Player, error)
	Player(id string) (models.Player, error)
	PlayersByRoom(roomID string) ([]models.Player, error)
	UpdatePlayer(id string, fn func(*models.Player)) (models.Player, error)

	CreateMessage(msg models.Message) (models.Message, error)
	MessagesByRoom(roomID string) ([]models.Message, error)
}
