package models

import (
	"time"

	"github.com/google/uuid"
)

// Answer is the append-only record of a user's answer to a room question.
type Answer struct {
	ID             uuid.UUID `json:"id"`
	RoomID         string    `json:"room_id"`
	UserID         uuid.UUID `json:"user_id"`
	QuestionID     uuid.UUID `json:"question_id"`
	SelectedOption string    `json:"selected_answer"` // "A", "B", "C", "D"
	IsCorrect      bool      `json:"is_correct"`
	AnsweredAt     time.Time `json:"answered_at"`
}
