package game

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aura-trivia/backend/pkg/response"
)

// RegisterRequest is the body for POST /rooms/:room/register.
type RegisterRequest struct {
	Name string `json:"name" binding:"required"`
}

// SubmitAnswerRequest is the body for POST /rooms/:room/submit-answer.
type SubmitAnswerRequest struct {
	UserID         string `json:"user_id" binding:"required"`
	QuestionID     string `json:"question_id" binding:"required"`
	SelectedAnswer string `json:"selected_answer" binding:"required,oneof=A B C D"`
}

// ConnectionCounter reports live connections per room.
type ConnectionCounter interface {
	ConnectionCount(room string) int
}

// Handler handles room HTTP endpoints.
type Handler struct {
	svc   *Service
	conns ConnectionCounter
}

// NewHandler creates a rooms handler.
func NewHandler(svc *Service, conns ConnectionCounter) *Handler {
	return &Handler{svc: svc, conns: conns}
}

// Routes mounts the room endpoints on rg (expected to be /rooms/:room).
func (h *Handler) Routes(rg *gin.RouterGroup) {
	rg.POST("/register", h.Register)
	rg.GET("/users", h.Users)
	rg.GET("/users/:userId/answers", h.UserAnswers)
	rg.POST("/start-registration", h.StartRegistration)
	rg.POST("/start-game", h.StartGame)
	rg.POST("/start-first-question", h.StartFirstQuestion)
	rg.POST("/next-question", h.NextQuestion)
	rg.POST("/submit-answer", h.SubmitAnswer)
	rg.GET("/state", h.State)
	rg.GET("/leaderboard", h.Leaderboard)
}

// Register handles POST /rooms/:room/register.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		response.BadRequest(c, "name required")
		return
	}
	u, err := h.svc.Register(c.Request.Context(), room(c), name)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, u)
}

// Users handles GET /rooms/:room/users.
func (h *Handler) Users(c *gin.Context) {
	users, err := h.svc.Users(c.Request.Context(), room(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, gin.H{"users": users})
}

// UserAnswers handles GET /rooms/:room/users/:userId/answers.
func (h *Handler) UserAnswers(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	answers, err := h.svc.UserAnswers(c.Request.Context(), room(c), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, gin.H{"answers": answers})
}

// StartRegistration handles POST /rooms/:room/start-registration.
func (h *Handler) StartRegistration(c *gin.Context) {
	if err := h.svc.OpenRegistration(c.Request.Context(), room(c)); err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, gin.H{"message": "Registration started"})
}

// StartGame handles POST /rooms/:room/start-game.
func (h *Handler) StartGame(c *gin.Context) {
	if err := h.svc.StartGame(c.Request.Context(), room(c)); err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, gin.H{"message": "Game started"})
}

// StartFirstQuestion handles POST /rooms/:room/start-first-question.
func (h *Handler) StartFirstQuestion(c *gin.Context) {
	res, err := h.svc.StartFirstQuestion(c.Request.Context(), room(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, advanceBody(res, "First question started"))
}

// NextQuestion handles POST /rooms/:room/next-question.
func (h *Handler) NextQuestion(c *gin.Context) {
	res, err := h.svc.NextQuestion(c.Request.Context(), room(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, advanceBody(res, "Next question started"))
}

// SubmitAnswer handles POST /rooms/:room/submit-answer. The result goes to the caller only.
func (h *Handler) SubmitAnswer(c *gin.Context) {
	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		response.BadRequest(c, "invalid question id")
		return
	}
	in := AnswerInput{UserID: userID, QuestionID: questionID, Option: req.SelectedAnswer}
	res, err := h.svc.SubmitAnswer(c.Request.Context(), room(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, res)
}

// State handles GET /rooms/:room/state.
func (h *Handler) State(c *gin.Context) {
	key := room(c)
	body := gin.H{"state": h.svc.Snapshot(key)}
	if h.conns != nil {
		body["connections"] = h.conns.ConnectionCount(key)
	}
	response.OK(c, body)
}

// Leaderboard handles GET /rooms/:room/leaderboard.
func (h *Handler) Leaderboard(c *gin.Context) {
	lb, err := h.svc.Leaderboard(c.Request.Context(), room(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, gin.H{"leaderboard": lb})
}

func room(c *gin.Context) string {
	return strings.TrimSpace(c.Param("room"))
}

func advanceBody(res *AdvanceResult, started string) gin.H {
	if res.Finished {
		return gin.H{"message": "Game finished", "leaderboard": res.Leaderboard}
	}
	return gin.H{"message": started, "question": res.Question, "timer": res.Timer}
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrRegistrationClosed):
		response.Forbidden(c, err.Error())
	case errors.Is(err, ErrNoActiveQuestion),
		errors.Is(err, ErrQuestionMismatch),
		errors.Is(err, ErrGameNotStarted):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrDuplicateAnswer), errors.Is(err, ErrGameInProgress):
		response.Conflict(c, err.Error())
	case errors.Is(err, ErrEmptyQuestionPool):
		response.Unprocessable(c, err.Error())
	default:
		_ = c.Error(err)
		response.Internal(c, "internal error")
	}
}
