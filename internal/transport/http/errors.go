package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"quiz-api/internal/domain"
)

type errorDocument struct {
	Errors []apiError `json:"errors"`
}

type apiError struct {
	Status string `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
}

// BaseHandler holds what every handler needs to report failures.
type BaseHandler struct {
	logger *slog.Logger
}

// writeError maps domain errors onto the error document. Unknown errors are
// logged and reported without internal detail.
func (h BaseHandler) writeError(c *gin.Context, err error) {
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation):
		abortWithError(c, http.StatusBadRequest, "Validation Error", validation.Detail)
	case errors.Is(err, domain.ErrQuizNotFound):
		abortWithError(c, http.StatusNotFound, "Quiz not found", "")
	case errors.Is(err, domain.ErrQuestionNotFound):
		abortWithError(c, http.StatusNotFound, "Question not found", "")
	case errors.Is(err, domain.ErrAttemptNotFound):
		abortWithError(c, http.StatusNotFound, "Quiz attempt not found", "")
	case errors.Is(err, domain.ErrAttemptNotInProgress):
		abortWithError(c, http.StatusBadRequest, "Quiz attempt is no longer in progress", "")
	case errors.Is(err, domain.ErrQuestionAlreadyAnswered):
		abortWithError(c, http.StatusBadRequest, "Question already answered", "")
	case errors.Is(err, domain.ErrQuestionNotInQuiz):
		abortWithError(c, http.StatusBadRequest, "Question does not belong to this quiz", "")
	case errors.Is(err, domain.ErrVersionConflict):
		abortWithError(c, http.StatusConflict, "Concurrent update", "the attempt was modified concurrently, retry the request")
	default:
		h.logger.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method, "route", routeOf(c),
			"request_id", c.GetString(requestIDKey), "error", err)
		abortWithError(c, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

func (h BaseHandler) badRequest(c *gin.Context, detail string) {
	abortWithError(c, http.StatusBadRequest, "Validation Error", detail)
}

func abortWithError(c *gin.Context, status int, title, detail string) {
	c.AbortWithStatusJSON(status, errorDocument{Errors: []apiError{{
		Status: strconv.Itoa(status),
		Title:  title,
		Detail: detail,
	}}})
}
