package game

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/aura-trivia/backend/internal/models"
)

// Pool resolves the questions a room may still ask.
// Callers hold the room lock so seeding happens once per room.
type Pool struct {
	store Store
}

// NewPool creates a question pool resolver over store.
func NewPool(store Store) *Pool {
	return &Pool{store: store}
}

// Templates returns the global, room-less questions.
func (p *Pool) Templates(ctx context.Context) ([]models.Question, error) {
	return p.store.ListTemplates(ctx)
}

// Unused returns the room's questions that are neither active nor already asked
// in the current game. The first call for a room clones every template into it.
func (p *Pool) Unused(ctx context.Context, room string) ([]models.Question, error) {
	all, err := p.RoomQuestions(ctx, room)
	if err != nil {
		return nil, err
	}
	return lo.Filter(all, func(q models.Question, _ int) bool {
		return !q.IsActive && !q.Asked
	}), nil
}

// RoomQuestions returns every question bound to room, seeding the room from
// the templates when it has none yet.
func (p *Pool) RoomQuestions(ctx context.Context, room string) ([]models.Question, error) {
	qs, err := p.store.ListQuestionsByRoom(ctx, room)
	if err != nil {
		return nil, fmt.Errorf("list room questions: %w", err)
	}
	if len(qs) > 0 {
		return qs, nil
	}
	if _, err := p.store.CloneTemplates(ctx, room); err != nil {
		return nil, fmt.Errorf("clone templates: %w", err)
	}
	qs, err = p.store.ListQuestionsByRoom(ctx, room)
	if err != nil {
		return nil, fmt.Errorf("list room questions: %w", err)
	}
	return qs, nil
}
