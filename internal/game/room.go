package game

import (
	"sync"

	"github.com/google/uuid"
)

// QuestionSeconds is the timer value sent with every question.
const QuestionSeconds = 15

// StartCountdown is the countdown hint sent with game_started.
const StartCountdown = 5

// Phase is the lifecycle position of a room.
type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhaseRegistrationOpen Phase = "registration_open"
	PhaseGameStarted      Phase = "game_started"
	PhaseFinished         Phase = "finished"
)

// RoomState is the per-room game state. Copies returned by Room.Snapshot are
// safe to share; the live value is only touched under the room lock.
type RoomState struct {
	Room              string     `json:"room"`
	Phase             Phase      `json:"phase"`
	RegistrationOpen  bool       `json:"is_registration_open"`
	GameStarted       bool       `json:"is_game_started"`
	QuestionActive    bool       `json:"is_question_active"`
	CurrentQuestionID *uuid.UUID `json:"current_question,omitempty"`
	TimerSeconds      int        `json:"question_timer"`
}

func (s *RoomState) openRegistration() error {
	if s.Phase == PhaseGameStarted {
		return ErrGameInProgress
	}
	s.Phase = PhaseRegistrationOpen
	s.RegistrationOpen = true
	return nil
}

func (s *RoomState) startGame() {
	s.Phase = PhaseGameStarted
	s.RegistrationOpen = false
	s.GameStarted = true
	s.clearQuestion()
}

func (s *RoomState) activate(id uuid.UUID) {
	s.QuestionActive = true
	s.CurrentQuestionID = &id
	s.TimerSeconds = QuestionSeconds
}

func (s *RoomState) finish() {
	s.Phase = PhaseFinished
	s.GameStarted = false
	s.clearQuestion()
}

func (s *RoomState) clearQuestion() {
	s.QuestionActive = false
	s.CurrentQuestionID = nil
	s.TimerSeconds = 0
}

// isCurrent reports whether id is the room's active question.
func (s *RoomState) isCurrent(id uuid.UUID) bool {
	return s.QuestionActive && s.CurrentQuestionID != nil && *s.CurrentQuestionID == id
}

// Room owns one RoomState and the lock serializing every operation on it.
// emit is taken before mu is released and held while the resulting events are
// sent, so clients see events in the order the state changed.
type Room struct {
	mu    sync.Mutex
	emit  sync.Mutex
	state RoomState
}

func newRoom(key string) *Room {
	return &Room{state: RoomState{Room: key, Phase: PhaseIdle}}
}

// Key returns the room key.
func (r *Room) Key() string { return r.state.Room }

// Snapshot returns a point-in-time copy of the room state.
func (r *Room) Snapshot() RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.state
	if s.CurrentQuestionID != nil {
		id := *s.CurrentQuestionID
		s.CurrentQuestionID = &id
	}
	return s
}
