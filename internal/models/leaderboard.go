package models

import (
	"time"

	"github.com/google/uuid"
)

// LeaderboardEntry is one ranked player in a finished game.
type LeaderboardEntry struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Score  int       `json:"score"`
	IsHost bool      `json:"is_host"`
}

// GameResult is the archived outcome of a finished game.
type GameResult struct {
	RoomID      string             `json:"room_id"`
	FinishedAt  time.Time          `json:"finished_at"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}
