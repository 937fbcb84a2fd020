package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz does not exist.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a question ID is unknown.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrAttemptNotFound indicates a quiz attempt ID is unknown.
	ErrAttemptNotFound = errors.New("quiz attempt not found")
	// ErrAttemptNotInProgress is returned when an attempt is completed or abandoned.
	ErrAttemptNotInProgress = errors.New("quiz attempt is no longer in progress")
	// ErrQuestionAlreadyAnswered is returned for a second answer to the same question.
	ErrQuestionAlreadyAnswered = errors.New("question already answered")
	// ErrQuestionNotInQuiz is returned when membership checks are on and the question is foreign.
	ErrQuestionNotInQuiz = errors.New("question does not belong to this quiz")
	// ErrVersionConflict means the stored attempt changed since it was read.
	ErrVersionConflict = errors.New("attempt version conflict")
)

// ValidationError reports invalid input; Detail is safe to show to clients.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Detail
}

// NewValidationError builds a ValidationError.
func NewValidationError(detail string) *ValidationError {
	return &ValidationError{Detail: detail}
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
