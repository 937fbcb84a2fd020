package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"quiz-api/internal/app"
	"quiz-api/internal/domain"
)

// AttemptHandler serves the play flow.
type AttemptHandler struct {
	BaseHandler
	attempts *app.AttemptService
}

// NewAttemptHandler serves the attempt routes from attempts.
func NewAttemptHandler(base BaseHandler, attempts *app.AttemptService) *AttemptHandler {
	return &AttemptHandler{BaseHandler: base, attempts: attempts}
}

// startQuizRequest is optional; an empty body starts an anonymous attempt.
type startQuizRequest struct {
	PlayerName  string `json:"playerName" binding:"max=100"`
	PlayerEmail string `json:"playerEmail" binding:"omitempty,email"`
}

type submitAnswerRequest struct {
	QuestionID string  `json:"questionId" binding:"required"`
	Answer     *string `json:"answer" binding:"required"`
}

// StartQuiz handles POST /quizzes/:id/play.
func (h *AttemptHandler) StartQuiz(c *gin.Context) {
	var req startQuizRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.badRequest(c, "playerEmail must be a valid email and playerName at most 100 characters")
			return
		}
	}
	player := domain.Player{Name: req.PlayerName, Email: req.PlayerEmail}
	session, err := h.attempts.Start(c.Request.Context(), c.Param("id"), player)
	if err != nil {
		h.writeError(c, err)
		return
	}
	attemptTransitions.WithLabelValues("started").Inc()
	c.JSON(http.StatusCreated, document{Data: playResource(session)})
}

// SubmitAnswer handles POST /quiz-attempts/:id/answers.
func (h *AttemptHandler) SubmitAnswer(c *gin.Context) {
	var req submitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "questionId and answer are required")
		return
	}
	result, err := h.attempts.SubmitAnswer(c.Request.Context(), c.Param("id"), req.QuestionID, *req.Answer)
	if err != nil {
		h.writeError(c, err)
		return
	}
	attemptTransitions.WithLabelValues("answered").Inc()
	c.JSON(http.StatusCreated, document{Data: answerResource(result)})
}

// CompleteAttempt handles POST /quiz-attempts/:id/complete.
func (h *AttemptHandler) CompleteAttempt(c *gin.Context) {
	summary, err := h.attempts.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	attemptTransitions.WithLabelValues("completed").Inc()
	c.JSON(http.StatusOK, document{Data: completionResource(summary)})
}

// AbandonAttempt handles POST /quiz-attempts/:id/abandon.
func (h *AttemptHandler) AbandonAttempt(c *gin.Context) {
	attempt, err := h.attempts.Abandon(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	attemptTransitions.WithLabelValues("abandoned").Inc()
	c.JSON(http.StatusOK, document{Data: attemptResource(attempt)})
}

// GetAttempt handles GET /quiz-attempts/:id.
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	view, err := h.attempts.GetAttempt(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, document{Data: attemptViewResource(view)})
}

// ListAttemptsForQuiz handles GET /quizzes/:id/attempts, the quiz leaderboard.
func (h *AttemptHandler) ListAttemptsForQuiz(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.badRequest(c, "limit must be a positive integer")
			return
		}
		limit = n
	}
	attempts, err := h.attempts.ListAttemptsForQuiz(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, document{Data: leaderboardResources(attempts)})
}

// ListPlayerAttempts handles GET /players/:email/attempts.
func (h *AttemptHandler) ListPlayerAttempts(c *gin.Context) {
	attempts, err := h.attempts.ListPlayerAttempts(c.Request.Context(), c.Param("email"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, document{Data: attemptResources(attempts)})
}
