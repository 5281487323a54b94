package game

import (
	"context"

	"github.com/google/uuid"

	"github.com/aura-trivia/backend/internal/models"
)

// Store is the persistence the game core consumes. Lookups of unknown ids
// return ErrNotFound; a second answer by the same user to the same question
// returns ErrDuplicateAnswer.
type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	// ListUsersByRoom returns the room's users in registration order.
	ListUsersByRoom(ctx context.Context, room string) ([]models.User, error)

	CreateQuestion(ctx context.Context, q *models.Question) error
	GetQuestion(ctx context.Context, id uuid.UUID) (*models.Question, error)
	ListTemplates(ctx context.Context) ([]models.Question, error)
	ListQuestionsByRoom(ctx context.Context, room string) ([]models.Question, error)
	// CloneTemplates copies every template into inactive questions bound to room,
	// unless the room already has questions. It returns the number of copies made.
	CloneTemplates(ctx context.Context, room string) (int, error)
	// ActivateQuestion marks a room question active and asked.
	ActivateQuestion(ctx context.Context, room string, id uuid.UUID) error
	DeactivateQuestions(ctx context.Context, room string) error

	// RecordAnswer appends a and, when it is correct, increments the user's
	// score in the same unit of work. It returns the user's resulting score.
	RecordAnswer(ctx context.Context, a *models.Answer) (int, error)
	ListAnswersByUser(ctx context.Context, userID uuid.UUID) ([]models.Answer, error)

	// ResetRoom deletes the room's answers, deactivates and un-retires its
	// questions and zeroes its users' scores, all or nothing.
	ResetRoom(ctx context.Context, room string) error
}
