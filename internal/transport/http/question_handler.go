package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"quiz-api/internal/app"
	"quiz-api/internal/domain"
)

type QuestionHandler struct {
	BaseHandler
	catalog *app.CatalogService
}

// NewQuestionHandler serves the /questions routes.
func NewQuestionHandler(base BaseHandler, catalog *app.CatalogService) *QuestionHandler {
	return &QuestionHandler{BaseHandler: base, catalog: catalog}
}

type createQuestionRequest struct {
	QuizIDs       []string            `json:"quizIds"`
	Text          string              `json:"text"`
	Type          domain.QuestionType `json:"type"`
	Choices       []domain.Choice     `json:"choices"`
	CorrectAnswer string              `json:"correctAnswer"`
}

type updateQuestionRequest struct {
	QuizIDs       *[]string            `json:"quizIds"`
	Text          *string              `json:"text"`
	Type          *domain.QuestionType `json:"type"`
	Choices       *[]domain.Choice     `json:"choices"`
	CorrectAnswer *string              `json:"correctAnswer"`
}

// CreateQuestion handles POST /questions.
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var req createQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "request body must be a JSON object")
		return
	}
	question, err := h.catalog.CreateQuestion(c.Request.Context(), domain.Question{
		QuizIDs:       req.QuizIDs,
		Text:          req.Text,
		Type:          req.Type,
		Choices:       req.Choices,
		CorrectAnswer: req.CorrectAnswer,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, document{Data: questionResource(question)})
}

// ListQuestions handles GET /questions with an optional ?quizId= filter.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	questions, err := h.catalog.ListQuestions(c.Request.Context(), domain.QuestionFilter{QuizID: c.Query("quizId")})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, document{Data: questionResources(questions)})
}

func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	question, err := h.catalog.GetQuestion(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, document{Data: questionResource(question)})
}

// UpdateQuestion handles PATCH /questions/:id.
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	var req updateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "request body must be a JSON object")
		return
	}
	question, err := h.catalog.UpdateQuestion(c.Request.Context(), c.Param("id"), domain.QuestionPatch{
		QuizIDs:       req.QuizIDs,
		Text:          req.Text,
		Type:          req.Type,
		Choices:       req.Choices,
		CorrectAnswer: req.CorrectAnswer,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, document{Data: questionResource(question)})
}

func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	if err := h.catalog.DeleteQuestion(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
