package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Options accepted as answers.
var Options = []string{"A", "B", "C", "D"}

// ValidOption reports whether opt is one of Options.
func ValidOption(opt string) bool { return lo.Contains(Options, opt) }

// Question is a multiple-choice trivia question. A nil RoomID marks a template
// from the global pool; room-bound copies are cloned from templates.
type Question struct {
	ID            uuid.UUID `json:"id"`
	RoomID        *string   `json:"room_id,omitempty"`
	Text          string    `json:"question_text"`
	OptionA       string    `json:"option_a"`
	OptionB       string    `json:"option_b"`
	OptionC       string    `json:"option_c"`
	OptionD       string    `json:"option_d"`
	CorrectAnswer string    `json:"-"` // "A", "B", "C", "D"
	IsActive      bool      `json:"is_active"`
	Asked         bool      `json:"asked"` // retired for the current game
	CreatedAt     time.Time `json:"created_at"`
}

// IsTemplate reports whether q belongs to the global pool.
func (q *Question) IsTemplate() bool { return q.RoomID == nil }

// QuestionView is what players see: the question without its answer key.
type QuestionView struct {
	ID      uuid.UUID `json:"id"`
	Text    string    `json:"question_text"`
	OptionA string    `json:"option_a"`
	OptionB string    `json:"option_b"`
	OptionC string    `json:"option_c"`
	OptionD string    `json:"option_d"`
}

// View strips the answer key.
func (q *Question) View() QuestionView {
	return QuestionView{
		ID:      q.ID,
		Text:    q.Text,
		OptionA: q.OptionA,
		OptionB: q.OptionB,
		OptionC: q.OptionC,
		OptionD: q.OptionD,
	}
}
