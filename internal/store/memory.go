package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/aura-trivia/backend/internal/game"
	"github.com/aura-trivia/backend/internal/models"
)

var _ game.Store = (*Memory)(nil)

// Memory is an in-process store. Data is lost on restart.
type Memory struct {
	mu        sync.RWMutex
	users     map[uuid.UUID]*models.User
	questions []*models.Question // creation order
	answers   []models.Answer
	seq       int64
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{users: make(map[uuid.UUID]*models.User)}
}

// CreateUser inserts a user with score 0.
func (m *Memory) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	u.ID = uuid.New()
	u.Seq = m.seq
	u.Score = 0
	u.CreatedAt = time.Now().UTC()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

// GetUser returns a user by ID.
func (m *Memory) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, game.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// ListUsersByRoom returns the room's users in registration order.
func (m *Memory) ListUsersByRoom(_ context.Context, room string) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var list []models.User
	for _, u := range m.users {
		if u.RoomID == room {
			list = append(list, *u)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Seq < list[j].Seq })
	return list, nil
}

// CreateQuestion inserts a question (a template when RoomID is nil).
func (m *Memory) CreateQuestion(_ context.Context, q *models.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q.ID = uuid.New()
	q.CreatedAt = time.Now().UTC()
	cp := copyQuestion(q)
	m.questions = append(m.questions, &cp)
	return nil
}

// GetQuestion returns a question by ID.
func (m *Memory) GetQuestion(_ context.Context, id uuid.UUID) (*models.Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := lo.Find(m.questions, func(q *models.Question) bool { return q.ID == id })
	if !ok {
		return nil, game.ErrNotFound
	}
	cp := copyQuestion(q)
	return &cp, nil
}

// ListTemplates returns the global question pool.
func (m *Memory) ListTemplates(_ context.Context) ([]models.Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filter(func(q *models.Question) bool { return q.RoomID == nil }), nil
}

// ListQuestionsByRoom returns the questions bound to room.
func (m *Memory) ListQuestionsByRoom(_ context.Context, room string) ([]models.Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filter(inRoom(room)), nil
}

// CloneTemplates copies every template into room unless it already has questions.
func (m *Memory) CloneTemplates(_ context.Context, room string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if lo.ContainsBy(m.questions, inRoom(room)) {
		return 0, nil
	}
	templates := m.filter(func(q *models.Question) bool { return q.RoomID == nil })
	now := time.Now().UTC()
	for _, t := range templates {
		key := room
		m.questions = append(m.questions, &models.Question{
			ID:            uuid.New(),
			RoomID:        &key,
			Text:          t.Text,
			OptionA:       t.OptionA,
			OptionB:       t.OptionB,
			OptionC:       t.OptionC,
			OptionD:       t.OptionD,
			CorrectAnswer: t.CorrectAnswer,
			CreatedAt:     now,
		})
	}
	return len(templates), nil
}

// ActivateQuestion marks a room question active and asked.
func (m *Memory) ActivateQuestion(_ context.Context, room string, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := lo.Find(m.questions, func(q *models.Question) bool { return q.ID == id && inRoom(room)(q) })
	if !ok {
		return game.ErrNotFound
	}
	q.IsActive = true
	q.Asked = true
	return nil
}

// DeactivateQuestions clears the active flag of every question in room.
func (m *Memory) DeactivateQuestions(_ context.Context, room string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range m.questions {
		if inRoom(room)(q) {
			q.IsActive = false
		}
	}
	return nil
}

// RecordAnswer appends an answer and scores it.
func (m *Memory) RecordAnswer(_ context.Context, a *models.Answer) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[a.UserID]
	if !ok {
		return 0, game.ErrNotFound
	}
	if lo.ContainsBy(m.answers, func(x models.Answer) bool {
		return x.UserID == a.UserID && x.QuestionID == a.QuestionID
	}) {
		return 0, game.ErrDuplicateAnswer
	}
	a.ID = uuid.New()
	a.AnsweredAt = time.Now().UTC()
	m.answers = append(m.answers, *a)
	if a.IsCorrect {
		u.Score++
	}
	return u.Score, nil
}

// ListAnswersByUser returns a user's answers in submission order.
func (m *Memory) ListAnswersByUser(_ context.Context, userID uuid.UUID) ([]models.Answer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lo.Filter(m.answers, func(a models.Answer, _ int) bool { return a.UserID == userID }), nil
}

// ResetRoom clears the room's answers, question usage and scores.
func (m *Memory) ResetRoom(_ context.Context, room string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers = lo.Reject(m.answers, func(a models.Answer, _ int) bool { return a.RoomID == room })
	for _, q := range m.questions {
		if inRoom(room)(q) {
			q.IsActive = false
			q.Asked = false
		}
	}
	for _, u := range m.users {
		if u.RoomID == room {
			u.Score = 0
		}
	}
	return nil
}

func (m *Memory) filter(keep func(q *models.Question) bool) []models.Question {
	var list []models.Question
	for _, q := range m.questions {
		if keep(q) {
			list = append(list, copyQuestion(q))
		}
	}
	return list
}

func inRoom(room string) func(q *models.Question) bool {
	return func(q *models.Question) bool { return q.RoomID != nil && *q.RoomID == room }
}

func copyQuestion(q *models.Question) models.Question {
	cp := *q
	if q.RoomID != nil {
		key := *q.RoomID
		cp.RoomID = &key
	}
	return cp
}
