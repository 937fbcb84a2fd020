package app

import (
	"context"

	"quiz-api/internal/domain"
)

// QuizRepository stores quiz documents.
type QuizRepository interface {
	CreateQuiz(ctx context.Context, quiz domain.Quiz) error
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
	// UpdateQuiz replaces the stored quiz; domain.ErrQuizNotFound if it does not exist.
	UpdateQuiz(ctx context.Context, quiz domain.Quiz) error
	DeleteQuiz(ctx context.Context, quizID string) error
}

// QuestionRepository stores question documents.
type QuestionRepository interface {
	CreateQuestion(ctx context.Context, question domain.Question) error
	GetQuestion(ctx context.Context, questionID string) (domain.Question, error)
	ListQuestions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error)
	UpdateQuestion(ctx context.Context, question domain.Question) error
	DeleteQuestion(ctx context.Context, questionID string) error
	// RemoveQuizFromQuestions pulls quizID out of every question's quiz set and
	// returns how many questions changed.
	RemoveQuizFromQuestions(ctx context.Context, quizID string) (int64, error)
}

// AttemptRepository stores quiz attempts.
type AttemptRepository interface {
	CreateAttempt(ctx context.Context, attempt domain.Attempt) error
	GetAttempt(ctx context.Context, attemptID string) (domain.Attempt, error)
	// UpdateAttempt stores attempt only if the stored version still equals expectedVersion,
	// otherwise it returns domain.ErrVersionConflict.
	UpdateAttempt(ctx context.Context, attempt domain.Attempt, expectedVersion int) error
	// ListCompletedAttempts returns completed attempts for a quiz by score desc,
	// timeSpentSeconds asc, completedAt asc.
	ListCompletedAttempts(ctx context.Context, quizID string, limit int) ([]domain.Attempt, error)
	// ListPlayerAttempts returns the attempts of one player email, newest first.
	ListPlayerAttempts(ctx context.Context, playerEmail string) ([]domain.Attempt, error)
}

// AttemptLocker serializes mutations of a single attempt.
// The returned unlock function must always be called.
type AttemptLocker interface {
	Lock(ctx context.Context, attemptID string) (unlock func(), err error)
}

// EventPublisher emits domain events to interested consumers.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }

const (
	EventAttemptStarted   = "quiz.attempt.started"
	EventAttemptAnswered  = "quiz.attempt.answered"
	EventAttemptCompleted = "quiz.attempt.completed"
	EventAttemptAbandoned = "quiz.attempt.abandoned"
)
