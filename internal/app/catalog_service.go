package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"quiz-api/internal/domain"
)

// CatalogService owns quiz and question CRUD and the quiz/question relationship.
type CatalogService struct {
	quizzes   QuizRepository
	questions QuestionRepository
	validator *Validator
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// NewCatalogService builds the catalog over the given stores. A nil logger means slog.Default.
func NewCatalogService(quizzes QuizRepository, questions QuestionRepository, logger *slog.Logger) *CatalogService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogService{
		quizzes:   quizzes,
		questions: questions,
		validator: NewValidator(),
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// WithClock is test-only for deterministic timestamps.
func (s *CatalogService) WithClock(now func() time.Time) *CatalogService {
	s.now = now
	return s
}

// CreateQuiz validates and stores a new quiz.
func (s *CatalogService) CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	trimQuiz(&quiz)
	if err := s.validator.Quiz(quiz); err != nil {
		return domain.Quiz{}, err
	}
	now := s.now()
	quiz.ID = s.newID()
	if quiz.PointsPerQuestion == 0 {
		quiz.PointsPerQuestion = domain.DefaultPointsPerQuestion
	}
	quiz.CreatedAt = now
	quiz.UpdatedAt = now
	if err := s.quizzes.CreateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("create quiz: %w", err)
	}
	return quiz, nil
}

func (s *CatalogService) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.quizzes.GetQuiz(ctx, quizID)
}

func (s *CatalogService) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	return s.quizzes.ListQuizzes(ctx)
}

// UpdateQuiz applies a partial update and re-validates the result.
func (s *CatalogService) UpdateQuiz(ctx context.Context, quizID string, patch domain.QuizPatch) (domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	patch.Apply(&quiz)
	trimQuiz(&quiz)
	if err := s.validator.Quiz(quiz); err != nil {
		return domain.Quiz{}, err
	}
	if quiz.PointsPerQuestion == 0 {
		quiz.PointsPerQuestion = domain.DefaultPointsPerQuestion
	}
	quiz.UpdatedAt = s.now()
	if err := s.quizzes.UpdateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("update quiz: %w", err)
	}
	return quiz, nil
}

// DeleteQuiz strips the quiz from every question that references it, then removes it.
// Questions are kept even when they end up in no quiz.
func (s *CatalogService) DeleteQuiz(ctx context.Context, quizID string) error {
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return err
	}
	n, err := s.questions.RemoveQuizFromQuestions(ctx, quizID)
	if err != nil {
		return fmt.Errorf("unlink quiz %s from questions: %w", quizID, err)
	}
	if err := s.quizzes.DeleteQuiz(ctx, quizID); err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	s.logger.InfoContext(ctx, "quiz deleted", "quiz_id", quizID, "questions_unlinked", n)
	return nil
}

// ListQuizQuestions returns the questions of an existing quiz.
func (s *CatalogService) ListQuizQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return nil, err
	}
	return s.questions.ListQuestions(ctx, domain.QuestionFilter{QuizID: quizID})
}

// CreateQuestion validates and stores a new question.
func (s *CatalogService) CreateQuestion(ctx context.Context, question domain.Question) (domain.Question, error) {
	normalizeQuestion(&question)
	if err := s.validator.Question(question); err != nil {
		return domain.Question{}, err
	}
	now := s.now()
	question.ID = s.newID()
	question.CreatedAt = now
	question.UpdatedAt = now
	if err := s.questions.CreateQuestion(ctx, question); err != nil {
		return domain.Question{}, fmt.Errorf("create question: %w", err)
	}
	return question, nil
}

func (s *CatalogService) GetQuestion(ctx context.Context, questionID string) (domain.Question, error) {
	return s.questions.GetQuestion(ctx, questionID)
}

func (s *CatalogService) ListQuestions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	return s.questions.ListQuestions(ctx, filter)
}

// UpdateQuestion merges patch into the stored question and validates the whole document.
func (s *CatalogService) UpdateQuestion(ctx context.Context, questionID string, patch domain.QuestionPatch) (domain.Question, error) {
	question, err := s.questions.GetQuestion(ctx, questionID)
	if err != nil {
		return domain.Question{}, err
	}
	patch.Apply(&question)
	normalizeQuestion(&question)
	if err := s.validator.Question(question); err != nil {
		return domain.Question{}, err
	}
	question.UpdatedAt = s.now()
	if err := s.questions.UpdateQuestion(ctx, question); err != nil {
		return domain.Question{}, fmt.Errorf("update question: %w", err)
	}
	return question, nil
}

func (s *CatalogService) DeleteQuestion(ctx context.Context, questionID string) error {
	return s.questions.DeleteQuestion(ctx, questionID)
}

func trimQuiz(q *domain.Quiz) {
	q.Title = strings.TrimSpace(q.Title)
	q.Description = strings.TrimSpace(q.Description)
	q.Instructions = strings.TrimSpace(q.Instructions)
}

func normalizeQuestion(q *domain.Question) {
	q.Text = strings.TrimSpace(q.Text)
	q.QuizIDs = domain.UniqueIDs(q.QuizIDs)
	for i := range q.Choices {
		q.Choices[i].Text = strings.TrimSpace(q.Choices[i].Text)
	}
	// Only the fields of the question's own type are kept.
	switch q.Type {
	case domain.QuestionTypeFreeText:
		q.Choices = nil
	case domain.QuestionTypeMultipleChoice:
		q.CorrectAnswer = ""
	}
}
