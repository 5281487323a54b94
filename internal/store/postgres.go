package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-trivia/backend/internal/game"
	"github.com/aura-trivia/backend/internal/models"
)

var _ game.Store = (*Postgres)(nil)

// PostgreSQL error codes mapped to game errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

const questionColumns = `id, room_id, question_text, option_a, option_b, option_c, option_d,
	correct_answer, is_active, asked, created_at`

// Postgres persists users, questions and answers in PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a PostgreSQL-backed store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// CreateUser inserts a new user with score 0.
func (r *Postgres) CreateUser(ctx context.Context, u *models.User) error {
	const query = `INSERT INTO users (id, room_id, name, score, is_host)
		VALUES (gen_random_uuid(), $1, $2, 0, $3)
		RETURNING id, seq, score, created_at`
	return r.pool.QueryRow(ctx, query, u.RoomID, u.Name, u.IsHost).
		Scan(&u.ID, &u.Seq, &u.Score, &u.CreatedAt)
}

// GetUser returns a user by ID.
func (r *Postgres) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const query = `SELECT id, seq, room_id, name, score, is_host, created_at FROM users WHERE id = $1`
	var u models.User
	err := r.pool.QueryRow(ctx, query, id).
		Scan(&u.ID, &u.Seq, &u.RoomID, &u.Name, &u.Score, &u.IsHost, &u.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

// ListUsersByRoom returns the room's users in registration order.
func (r *Postgres) ListUsersByRoom(ctx context.Context, room string) ([]models.User, error) {
	const query = `SELECT id, seq, room_id, name, score, is_host, created_at
		FROM users WHERE room_id = $1 ORDER BY seq`
	rows, err := r.pool.Query(ctx, query, room)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Seq, &u.RoomID, &u.Name, &u.Score, &u.IsHost, &u.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// CreateQuestion inserts a question (a template when RoomID is nil).
func (r *Postgres) CreateQuestion(ctx context.Context, q *models.Question) error {
	const query = `INSERT INTO questions (id, room_id, question_text, option_a, option_b, option_c, option_d, correct_answer)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, q.RoomID, q.Text, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.CorrectAnswer).
		Scan(&q.ID, &q.CreatedAt)
}

// GetQuestion returns a question by ID.
func (r *Postgres) GetQuestion(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	q, err := scanQuestion(r.pool.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return q, nil
}

// ListTemplates returns the global question pool.
func (r *Postgres) ListTemplates(ctx context.Context) ([]models.Question, error) {
	return r.listQuestions(ctx, `SELECT `+questionColumns+` FROM questions WHERE room_id IS NULL ORDER BY created_at, id`)
}

// ListQuestionsByRoom returns the questions bound to room.
func (r *Postgres) ListQuestionsByRoom(ctx context.Context, room string) ([]models.Question, error) {
	return r.listQuestions(ctx, `SELECT `+questionColumns+` FROM questions WHERE room_id = $1 ORDER BY created_at, id`, room)
}

// CloneTemplates copies every template into room unless it already has questions.
func (r *Postgres) CloneTemplates(ctx context.Context, room string) (int, error) {
	const query = `INSERT INTO questions (id, room_id, template_id, question_text, option_a, option_b, option_c, option_d, correct_answer)
		SELECT gen_random_uuid(), $1, t.id, t.question_text, t.option_a, t.option_b, t.option_c, t.option_d, t.correct_answer
		FROM questions t
		WHERE t.room_id IS NULL
		  AND NOT EXISTS (SELECT 1 FROM questions q WHERE q.room_id = $1)`
	tag, err := r.pool.Exec(ctx, query, room)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// ActivateQuestion marks a room question active and asked.
func (r *Postgres) ActivateQuestion(ctx context.Context, room string, id uuid.UUID) error {
	const query = `UPDATE questions SET is_active = TRUE, asked = TRUE WHERE id = $1 AND room_id = $2`
	tag, err := r.pool.Exec(ctx, query, id, room)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return game.ErrNotFound
	}
	return nil
}

// DeactivateQuestions clears the active flag of every question in room.
func (r *Postgres) DeactivateQuestions(ctx context.Context, room string) error {
	const query = `UPDATE questions SET is_active = FALSE WHERE room_id = $1 AND is_active`
	_, err := r.pool.Exec(ctx, query, room)
	return err
}

// RecordAnswer inserts an answer and, when correct, increments the user's score in one transaction.
func (r *Postgres) RecordAnswer(ctx context.Context, a *models.Answer) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insert = `INSERT INTO user_answers (id, room_id, user_id, question_id, selected_answer, is_correct)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
		RETURNING id, answered_at`
	if err := tx.QueryRow(ctx, insert, a.RoomID, a.UserID, a.QuestionID, a.SelectedOption, a.IsCorrect).
		Scan(&a.ID, &a.AnsweredAt); err != nil {
		return 0, mapErr(err)
	}

	score := `SELECT score FROM users WHERE id = $1`
	if a.IsCorrect {
		score = `UPDATE users SET score = score + 1 WHERE id = $1 RETURNING score`
	}
	var n int
	if err := tx.QueryRow(ctx, score, a.UserID).Scan(&n); err != nil {
		return 0, mapErr(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// ListAnswersByUser returns a user's answers in submission order.
func (r *Postgres) ListAnswersByUser(ctx context.Context, userID uuid.UUID) ([]models.Answer, error) {
	const query = `SELECT id, room_id, user_id, question_id, selected_answer, is_correct, answered_at
		FROM user_answers WHERE user_id = $1 ORDER BY answered_at`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Answer
	for rows.Next() {
		var a models.Answer
		if err := rows.Scan(&a.ID, &a.RoomID, &a.UserID, &a.QuestionID, &a.SelectedOption, &a.IsCorrect, &a.AnsweredAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// ResetRoom clears the room's answers, question usage and scores in one transaction.
func (r *Postgres) ResetRoom(ctx context.Context, room string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	steps := []struct {
		name  string
		query string
	}{
		{"delete answers", `DELETE FROM user_answers WHERE room_id = $1`},
		{"reset questions", `UPDATE questions SET is_active = FALSE, asked = FALSE WHERE room_id = $1`},
		{"reset scores", `UPDATE users SET score = 0 WHERE room_id = $1`},
	}
	for _, s := range steps {
		if _, err := tx.Exec(ctx, s.query, room); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return tx.Commit(ctx)
}

func (r *Postgres) listQuestions(ctx context.Context, query string, args ...interface{}) ([]models.Question, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *q)
	}
	return list, rows.Err()
}

func scanQuestion(row pgx.Row) (*models.Question, error) {
	var q models.Question
	err := row.Scan(&q.ID, &q.RoomID, &q.Text, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD,
		&q.CorrectAnswer, &q.IsActive, &q.Asked, &q.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func mapErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return game.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, game.ErrDuplicateAnswer)
		case pgForeignKeyViolation:
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, game.ErrNotFound)
		}
	}
	return err
}
