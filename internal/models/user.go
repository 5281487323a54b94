package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a player registered in a trivia room.
type User struct {
	ID        uuid.UUID `json:"id"`
	Seq       int64     `json:"-"` // registration order, used as leaderboard tie-break
	RoomID    string    `json:"room_id"`
	Name      string    `json:"name"`
	Score     int       `json:"score"`
	IsHost    bool      `json:"is_host"`
	CreatedAt time.Time `json:"created_at"`
}
