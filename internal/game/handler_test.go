package game_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/aura-trivia/backend/internal/game"
	"github.com/aura-trivia/backend/internal/models"
	"github.com/aura-trivia/backend/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixedConns int

func (n fixedConns) ConnectionCount(string) int { return int(n) }

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newRouter(t *testing.T, templates ...models.Question) *gin.Engine {
	t.Helper()
	svc, _, _ := newService(t, templates...)
	r := gin.New()
	game.NewHandler(svc, fixedConns(2)).Routes(r.Group("/rooms/:room"))
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func TestHandler_GameFlow(t *testing.T) {
	r := newRouter(t, template("Q1", "B"))

	code, _ := do(t, r, http.MethodPost, "/rooms/r1/register", gin.H{"name": "alice"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = do(t, r, http.MethodPost, "/rooms/r1/start-registration", nil)
	require.Equal(t, http.StatusOK, code)

	code, env := do(t, r, http.MethodPost, "/rooms/r1/register", gin.H{"name": "  alice "})
	require.Equal(t, http.StatusCreated, code)
	var user models.User
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, "alice", user.Name)
	assert.Zero(t, user.Score)

	code, _ = do(t, r, http.MethodPost, "/rooms/r1/next-question", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, r, http.MethodPost, "/rooms/r1/start-game", nil)
	require.Equal(t, http.StatusOK, code)

	code, env = do(t, r, http.MethodPost, "/rooms/r1/start-first-question", nil)
	require.Equal(t, http.StatusOK, code)
	var started struct {
		Question models.QuestionView `json:"question"`
		Timer    int                 `json:"timer"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &started))
	assert.Equal(t, "Q1", started.Question.Text)
	assert.Equal(t, game.QuestionSeconds, started.Timer)
	assert.NotContains(t, string(env.Data), "correct_answer")

	submit := gin.H{"user_id": user.ID.String(), "question_id": started.Question.ID.String(), "selected_answer": "B"}
	code, env = do(t, r, http.MethodPost, "/rooms/r1/submit-answer", submit)
	require.Equal(t, http.StatusOK, code)
	var res game.AnswerResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, game.AnswerResult{Correct: true, Score: 1}, res)

	code, _ = do(t, r, http.MethodPost, "/rooms/r1/submit-answer", submit)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = do(t, r, http.MethodPost, "/rooms/r1/start-registration", nil)
	assert.Equal(t, http.StatusConflict, code)

	code, env = do(t, r, http.MethodGet, "/rooms/r1/state", nil)
	require.Equal(t, http.StatusOK, code)
	var state struct {
		State       game.RoomState `json:"state"`
		Connections int            `json:"connections"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &state))
	assert.True(t, state.State.QuestionActive)
	assert.Equal(t, 2, state.Connections)

	code, env = do(t, r, http.MethodPost, "/rooms/r1/next-question", nil)
	require.Equal(t, http.StatusOK, code)
	var finished struct {
		Message     string                    `json:"message"`
		Leaderboard []models.LeaderboardEntry `json:"leaderboard"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &finished))
	assert.Equal(t, "Game finished", finished.Message)
	require.Len(t, finished.Leaderboard, 1)
	assert.Equal(t, 1, finished.Leaderboard[0].Score)

	code, env = do(t, r, http.MethodGet, "/rooms/r1/users/"+user.ID.String()+"/answers", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"selected_answer":"B"`)
}

func TestHandler_SubmitAnswerValidation(t *testing.T) {
	r := newRouter(t, template("Q1", "A"))

	cases := []gin.H{
		{"user_id": "nope", "question_id": "00000000-0000-0000-0000-000000000000", "selected_answer": "A"},
		{"user_id": "00000000-0000-0000-0000-000000000000", "question_id": "00000000-0000-0000-0000-000000000000", "selected_answer": "E"},
		{"question_id": "00000000-0000-0000-0000-000000000000", "selected_answer": "A"},
	}
	for _, body := range cases {
		code, env := do(t, r, http.MethodPost, "/rooms/r1/submit-answer", body)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.False(t, env.Success)
	}

	valid := gin.H{"user_id": "00000000-0000-0000-0000-000000000001", "question_id": "00000000-0000-0000-0000-000000000002", "selected_answer": "A"}
	code, env := do(t, r, http.MethodPost, "/rooms/r1/submit-answer", valid)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, game.ErrNoActiveQuestion.Error(), env.Error)
}

func TestHandler_EmptyPool(t *testing.T) {
	r := newRouter(t)
	code, _ := do(t, r, http.MethodPost, "/rooms/r1/start-game", nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = do(t, r, http.MethodPost, "/rooms/r1/start-first-question", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestHandler_UnknownUser(t *testing.T) {
	r := newRouter(t)
	code, _ := do(t, r, http.MethodGet, "/rooms/r1/users/00000000-0000-0000-0000-000000000001/answers", nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = do(t, r, http.MethodGet, "/rooms/r1/users/not-a-uuid/answers", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHandler_EmptyLeaderboard(t *testing.T) {
	r := newRouter(t)
	code, env := do(t, r, http.MethodGet, "/rooms/r1/leaderboard", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"leaderboard":[]}`, string(env.Data))
}

func TestHandler_SubmitAnswerAcceptsUppercaseIDs(t *testing.T) {
	r := newRouter(t, template("Q1", "C"))

	code, _ := do(t, r, http.MethodPost, "/rooms/r1/start-registration", nil)
	require.Equal(t, http.StatusOK, code)
	code, env := do(t, r, http.MethodPost, "/rooms/r1/register", gin.H{"name": "alice"})
	require.Equal(t, http.StatusCreated, code)
	var user models.User
	require.NoError(t, json.Unmarshal(env.Data, &user))
	code, _ = do(t, r, http.MethodPost, "/rooms/r1/start-game", nil)
	require.Equal(t, http.StatusOK, code)
	code, env = do(t, r, http.MethodPost, "/rooms/r1/start-first-question", nil)
	require.Equal(t, http.StatusOK, code)
	var started struct {
		Question models.QuestionView `json:"question"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &started))

	code, env = do(t, r, http.MethodPost, "/rooms/r1/submit-answer", gin.H{
		"user_id":         strings.ToUpper(user.ID.String()),
		"question_id":     strings.ToUpper(started.Question.ID.String()),
		"selected_answer": "C",
	})
	require.Equal(t, http.StatusOK, code, env.Error)
	var res game.AnswerResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, game.AnswerResult{Correct: true, Score: 1}, res)

	code, env = do(t, r, http.MethodPost, "/rooms/r1/submit-answer", gin.H{
		"user_id": user.ID.String(), "question_id": "not-a-uuid", "selected_answer": "C",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid question id", env.Error)
}

type brokenUsers struct {
	*store.Memory
}

func (brokenUsers) ListUsersByRoom(context.Context, string) ([]models.User, error) {
	return nil, errors.New("pool closed")
}

func TestHandler_InternalErrorIsRecorded(t *testing.T) {
	svc := game.NewService(brokenUsers{store.NewMemory()}, &recorder{}, zaptest.NewLogger(t))
	var recorded []string
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Next()
		recorded = c.Errors.Errors()
	})
	game.NewHandler(svc, fixedConns(0)).Routes(r.Group("/rooms/:room"))

	code, env := do(t, r, http.MethodGet, "/rooms/r1/users", nil)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "internal error", env.Error)
	require.Len(t, recorded, 1)
	assert.Contains(t, recorded[0], "pool closed")
}
