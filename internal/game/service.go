package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/aura-trivia/backend/internal/models"
	"github.com/aura-trivia/backend/internal/realtime"
)

// Outbound room events.
const (
	EventRegistrationStarted = "registration_started"
	EventGameStarted         = "game_started"
	EventNewQuestion         = "new_question"
	EventGameFinished        = "game_finished"
	EventPlayerRegistered    = "player_registered"
)

// expireTimeout bounds the store work done when a question timer fires.
const expireTimeout = 10 * time.Second

// errStale aborts a timer-driven advance whose question is no longer current.
var errStale = errors.New("stale question timer")

// Broadcaster fans events out to a room's connections.
type Broadcaster interface {
	Broadcast(room, event string, payload interface{}) realtime.Delivery
	SendToHost(room, event string, payload interface{}) bool
}

// ResultsPublisher receives the outcome of every finished game (e.g. for archiving).
type ResultsPublisher interface {
	PublishGameResult(ctx context.Context, result models.GameResult) error
}

// AnswerInput is a player's answer to the room's active question.
type AnswerInput struct {
	UserID     uuid.UUID
	QuestionID uuid.UUID
	Option     string
}

// AnswerResult is returned to the submitting player only.
type AnswerResult struct {
	Correct bool `json:"correct"`
	Score   int  `json:"score"`
}

// AdvanceResult describes what an advance produced: a new question or the final leaderboard.
type AdvanceResult struct {
	Finished    bool                      `json:"finished"`
	Question    *models.QuestionView      `json:"question,omitempty"`
	Timer       int                       `json:"timer,omitempty"`
	Leaderboard []models.LeaderboardEntry `json:"leaderboard,omitempty"`
}

// Service runs trivia rooms: it serializes each room's operations under the
// room lock and broadcasts the resulting events, in the order the state
// changed, once the lock is released.
type Service struct {
	store   Store
	pool    *Pool
	rooms   *Rooms
	hub     Broadcaster
	results ResultsPublisher
	timers  *Timers
	pick    func(n int) int
	logger  *zap.Logger
}

// NewService creates the room orchestrator.
func NewService(store Store, hub Broadcaster, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		pool:   NewPool(store),
		rooms:  NewRooms(),
		hub:    hub,
		pick:   rand.Intn,
		logger: logger,
	}
}

// SetResultsPublisher sets where finished games are reported. Nil disables it.
func (s *Service) SetResultsPublisher(p ResultsPublisher) {
	s.results = p
}

// EnableAutoAdvance makes rooms move to the next question when a question's timer expires.
func (s *Service) EnableAutoAdvance(t *Timers) {
	s.timers = t
}

// Pool returns the question pool resolver.
func (s *Service) Pool() *Pool { return s.pool }

// locked runs fn with the room's lock held. Nothing in fn may touch the network.
func (s *Service) locked(room string, fn func(st *RoomState) error) error {
	r := s.rooms.Get(room)
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(&r.state)
}

// emitting is locked for operations that broadcast their outcome. On success the
// room's emit lock is acquired before the state lock is released; the caller
// sends its events and then calls release.
func (s *Service) emitting(room string, fn func(st *RoomState) error) (release func(), err error) {
	r := s.rooms.Get(room)
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := fn(&r.state); err != nil {
		return nil, err
	}
	r.emit.Lock()
	return r.emit.Unlock, nil
}

// Register adds a player to a room whose registration is open.
func (s *Service) Register(ctx context.Context, room, name string) (*models.User, error) {
	u := &models.User{RoomID: room, Name: name}
	release, err := s.emitting(room, func(st *RoomState) error {
		if st.Phase != PhaseRegistrationOpen {
			return ErrRegistrationClosed
		}
		if err := s.store.CreateUser(ctx, u); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	defer release()
	s.logger.Info("player registered", zap.String("room", room), zap.String("user_id", u.ID.String()))
	s.hub.SendToHost(room, EventPlayerRegistered, u)
	return u, nil
}

// OpenRegistration opens a room for player registration.
func (s *Service) OpenRegistration(ctx context.Context, room string) error {
	release, err := s.emitting(room, func(st *RoomState) error {
		return st.openRegistration()
	})
	if err != nil {
		return err
	}
	defer release()
	s.hub.Broadcast(room, EventRegistrationStarted, map[string]string{
		"message": "Registration is now open!",
	})
	return nil
}

// StartGame (re)starts a room's game from any state, discarding the room's
// previous answers, question usage and scores.
func (s *Service) StartGame(ctx context.Context, room string) error {
	release, _ := s.emitting(room, func(st *RoomState) error {
		st.startGame()
		s.stopTimer(room)
		if err := s.store.ResetRoom(ctx, room); err != nil {
			// the round goes on with whatever the store still holds
			s.logger.Error("reset room data", zap.String("room", room), zap.Error(err))
		}
		return nil
	})
	defer release()
	s.hub.Broadcast(room, EventGameStarted, map[string]interface{}{
		"message":   fmt.Sprintf("Game is starting in %d seconds!", StartCountdown),
		"countdown": StartCountdown,
	})
	return nil
}

// StartFirstQuestion activates the first question of a started game.
func (s *Service) StartFirstQuestion(ctx context.Context, room string) (*AdvanceResult, error) {
	return s.advance(ctx, room, nil)
}

// NextQuestion retires the active question and activates another unused one,
// or finishes the game when none remain.
func (s *Service) NextQuestion(ctx context.Context, room string) (*AdvanceResult, error) {
	return s.advance(ctx, room, nil)
}

// advance moves the room forward. A non-nil expect only advances if that
// question is still the active one.
func (s *Service) advance(ctx context.Context, room string, expect *uuid.UUID) (*AdvanceResult, error) {
	res := &AdvanceResult{}
	release, err := s.emitting(room, func(st *RoomState) error {
		if expect != nil && !st.isCurrent(*expect) {
			return errStale
		}
		if st.Phase != PhaseGameStarted {
			return ErrGameNotStarted
		}
		if err := s.store.DeactivateQuestions(ctx, room); err != nil {
			return fmt.Errorf("deactivate questions: %w", err)
		}
		st.clearQuestion()

		unused, err := s.pool.Unused(ctx, room)
		if err != nil {
			return err
		}
		if len(unused) == 0 {
			all, err := s.store.ListQuestionsByRoom(ctx, room)
			if err != nil {
				return fmt.Errorf("list room questions: %w", err)
			}
			if len(all) == 0 {
				return ErrEmptyQuestionPool
			}
			users, err := s.store.ListUsersByRoom(ctx, room)
			if err != nil {
				return fmt.Errorf("list users: %w", err)
			}
			st.finish()
			s.stopTimer(room)
			res.Finished = true
			res.Leaderboard = Rank(users)
			return nil
		}

		q := unused[s.pick(len(unused))]
		if err := s.store.ActivateQuestion(ctx, room, q.ID); err != nil {
			return fmt.Errorf("activate question: %w", err)
		}
		st.activate(q.ID)
		s.scheduleTimer(room, q.ID)
		view := q.View()
		res.Question = &view
		res.Timer = st.TimerSeconds
		return nil
	})
	if errors.Is(err, errStale) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if res.Finished {
		s.logger.Info("game finished", zap.String("room", room), zap.Int("players", len(res.Leaderboard)))
		s.hub.Broadcast(room, EventGameFinished, map[string]interface{}{
			"leaderboard": res.Leaderboard,
		})
		release()
		s.publishResult(ctx, room, res.Leaderboard)
		return res, nil
	}

	s.logger.Info("question started", zap.String("room", room), zap.String("question_id", res.Question.ID.String()))
	s.hub.Broadcast(room, EventNewQuestion, map[string]interface{}{
		"question": res.Question,
		"timer":    res.Timer,
	})
	release()
	return res, nil
}

// SubmitAnswer scores a player's answer to the room's active question.
// Each player may answer a question once; later submissions get ErrDuplicateAnswer.
func (s *Service) SubmitAnswer(ctx context.Context, room string, in AnswerInput) (*AnswerResult, error) {
	var res AnswerResult
	err := s.locked(room, func(st *RoomState) error {
		if !st.QuestionActive {
			return ErrNoActiveQuestion
		}
		if !st.isCurrent(in.QuestionID) {
			return ErrQuestionMismatch
		}
		u, err := s.store.GetUser(ctx, in.UserID)
		if err != nil {
			return fmt.Errorf("user %s: %w", in.UserID, err)
		}
		if u.RoomID != room {
			return fmt.Errorf("user %s in room %s: %w", in.UserID, room, ErrNotFound)
		}
		q, err := s.store.GetQuestion(ctx, in.QuestionID)
		if err != nil {
			return fmt.Errorf("question %s: %w", in.QuestionID, err)
		}

		a := &models.Answer{
			RoomID:         room,
			UserID:         u.ID,
			QuestionID:     q.ID,
			SelectedOption: in.Option,
			IsCorrect:      in.Option == q.CorrectAnswer,
		}
		score, err := s.store.RecordAnswer(ctx, a)
		if err != nil {
			return fmt.Errorf("record answer: %w", err)
		}
		res = AnswerResult{Correct: a.IsCorrect, Score: score}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Snapshot returns a copy of the room's state.
func (s *Service) Snapshot(room string) RoomState {
	return s.rooms.Get(room).Snapshot()
}

// Users returns the room's players in registration order.
func (s *Service) Users(ctx context.Context, room string) ([]models.User, error) {
	return s.store.ListUsersByRoom(ctx, room)
}

// Leaderboard returns the room's players ranked by score.
func (s *Service) Leaderboard(ctx context.Context, room string) ([]models.LeaderboardEntry, error) {
	users, err := s.store.ListUsersByRoom(ctx, room)
	if err != nil {
		return nil, err
	}
	return Rank(users), nil
}

// UserAnswers returns the answers a room's player has given in the current game.
func (s *Service) UserAnswers(ctx context.Context, room string, userID uuid.UUID) ([]models.Answer, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", userID, err)
	}
	if u.RoomID != room {
		return nil, fmt.Errorf("user %s in room %s: %w", userID, room, ErrNotFound)
	}
	return s.store.ListAnswersByUser(ctx, userID)
}

// Rank orders users by score descending, then by registration order.
func Rank(users []models.User) []models.LeaderboardEntry {
	sorted := make([]models.User, len(users))
	copy(sorted, users)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].Seq < sorted[j].Seq
	})
	return lo.Map(sorted, func(u models.User, _ int) models.LeaderboardEntry {
		return models.LeaderboardEntry{ID: u.ID, Name: u.Name, Score: u.Score, IsHost: u.IsHost}
	})
}

func (s *Service) publishResult(ctx context.Context, room string, leaderboard []models.LeaderboardEntry) {
	if s.results == nil {
		return
	}
	result := models.GameResult{RoomID: room, FinishedAt: time.Now().UTC(), Leaderboard: leaderboard}
	if err := s.results.PublishGameResult(ctx, result); err != nil {
		s.logger.Warn("publish game result", zap.String("room", room), zap.Error(err))
	}
}

// scheduleTimer and stopTimer are called with the room lock held so the
// pending timer always belongs to the room's current question.
func (s *Service) scheduleTimer(room string, questionID uuid.UUID) {
	if s.timers == nil {
		return
	}
	s.timers.Schedule(room, QuestionSeconds, func() {
		ctx, cancel := context.WithTimeout(context.Background(), expireTimeout)
		defer cancel()
		if _, err := s.advance(ctx, room, &questionID); err != nil {
			s.logger.Warn("auto advance", zap.String("room", room), zap.Error(err))
		}
	})
}

func (s *Service) stopTimer(room string) {
	if s.timers != nil {
		s.timers.Stop(room)
	}
}
