package questions

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aura-trivia/backend/internal/models"
	"github.com/aura-trivia/backend/pkg/response"
)

// CreateRequest is the body for POST /questions.
type CreateRequest struct {
	Text          string `json:"question_text" binding:"required"`
	OptionA       string `json:"option_a" binding:"required"`
	OptionB       string `json:"option_b" binding:"required"`
	OptionC       string `json:"option_c" binding:"required"`
	OptionD       string `json:"option_d" binding:"required"`
	CorrectAnswer string `json:"correct_answer" binding:"required,oneof=A B C D"`
}

// Handler exposes the global template pool.
type Handler struct {
	store TemplateStore
}

// NewHandler creates a questions handler.
func NewHandler(store TemplateStore) *Handler {
	return &Handler{store: store}
}

// List handles GET /questions. Answer keys are not included.
func (h *Handler) List(c *gin.Context) {
	list, err := h.store.ListTemplates(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list questions")
		return
	}
	views := make([]models.QuestionView, 0, len(list))
	for i := range list {
		views = append(views, list[i].View())
	}
	response.OK(c, gin.H{"questions": views})
}

// Create handles POST /questions. New templates reach rooms that have not been seeded yet.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	q := &models.Question{
		Text:          strings.TrimSpace(req.Text),
		OptionA:       strings.TrimSpace(req.OptionA),
		OptionB:       strings.TrimSpace(req.OptionB),
		OptionC:       strings.TrimSpace(req.OptionC),
		OptionD:       strings.TrimSpace(req.OptionD),
		CorrectAnswer: req.CorrectAnswer,
	}
	if err := h.store.CreateQuestion(c.Request.Context(), q); err != nil {
		response.Internal(c, "failed to create question")
		return
	}
	response.Created(c, q.View())
}
