package game

import "errors"

var (
	ErrRegistrationClosed = errors.New("registration is closed")
	ErrNoActiveQuestion   = errors.New("no active question")
	ErrQuestionMismatch   = errors.New("question is not the active question")
	ErrNotFound           = errors.New("not found")
	ErrEmptyQuestionPool  = errors.New("no questions available")
	ErrDuplicateAnswer    = errors.New("question already answered")
	ErrGameNotStarted     = errors.New("game not started")
	ErrGameInProgress     = errors.New("game in progress")
)
