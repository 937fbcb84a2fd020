package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"quiz-api/internal/app"
	"quiz-api/internal/domain"
)

type QuizHandler struct {
	BaseHandler
	catalog  *app.CatalogService
	attempts *app.AttemptService
}

// NewQuizHandler serves the /quizzes routes.
func NewQuizHandler(base BaseHandler, catalog *app.CatalogService, attempts *app.AttemptService) *QuizHandler {
	return &QuizHandler{BaseHandler: base, catalog: catalog, attempts: attempts}
}

type createQuizRequest struct {
	Title             string `json:"title"`
	Description       string `json:"description"`
	Instructions      string `json:"instructions"`
	PointsPerQuestion int    `json:"pointsPerQuestion"`
}

type updateQuizRequest struct {
	Title             *string `json:"title"`
	Description       *string `json:"description"`
	Instructions      *string `json:"instructions"`
	PointsPerQuestion *int    `json:"pointsPerQuestion"`
}

// CreateQuiz handles POST /quizzes.
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	var req createQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "request body must be a JSON object")
		return
	}
	quiz, err := h.catalog.CreateQuiz(c.Request.Context(), domain.Quiz{
		Title:             req.Title,
		Description:       req.Description,
		Instructions:      req.Instructions,
		PointsPerQuestion: req.PointsPerQuestion,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, document{Data: quizResource(quiz)})
}

// ListQuizzes handles GET /quizzes.
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	quizzes, err := h.catalog.ListQuizzes(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	data := make([]resource, 0, len(quizzes))
	for _, q := range quizzes {
		data = append(data, quizResource(q))
	}
	c.JSON(http.StatusOK, document{Data: data})
}

// GetQuiz handles GET /quizzes/:id, with ?include=questions side-loading the quiz's questions.
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	includeQuestions := false
	if include := c.Query("include"); include != "" {
		for _, name := range strings.Split(include, ",") {
			if strings.TrimSpace(name) != "questions" {
				h.badRequest(c, "unsupported include: "+name)
				return
			}
			includeQuestions = true
		}
	}

	ctx := c.Request.Context()
	quiz, err := h.catalog.GetQuiz(ctx, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	res := quizResource(quiz)
	if !includeQuestions {
		c.JSON(http.StatusOK, document{Data: res})
		return
	}

	questions, err := h.catalog.ListQuizQuestions(ctx, quiz.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	identifiers := make([]resource, 0, len(questions))
	for _, q := range questions {
		identifiers = append(identifiers, resource{Type: typeQuestions, ID: q.ID})
	}
	res.Relationships = map[string]relationship{"questions": {Data: identifiers}}
	c.JSON(http.StatusOK, document{Data: res, Included: questionResources(questions)})
}

// UpdateQuiz handles PATCH /quizzes/:id.
func (h *QuizHandler) UpdateQuiz(c *gin.Context) {
	var req updateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "request body must be a JSON object")
		return
	}
	quiz, err := h.catalog.UpdateQuiz(c.Request.Context(), c.Param("id"), domain.QuizPatch{
		Title:             req.Title,
		Description:       req.Description,
		Instructions:      req.Instructions,
		PointsPerQuestion: req.PointsPerQuestion,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, document{Data: quizResource(quiz)})
}

// DeleteQuiz handles DELETE /quizzes/:id.
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	if err := h.catalog.DeleteQuiz(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListQuizQuestions handles GET /quizzes/:id/questions.
func (h *QuizHandler) ListQuizQuestions(c *gin.Context) {
	questions, err := h.catalog.ListQuizQuestions(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, document{Data: questionResources(questions)})
}
