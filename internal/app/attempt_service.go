package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"quiz-api/internal/domain"
)

// MaxLeaderboardSize caps how many completed attempts a quiz leaderboard returns.
const MaxLeaderboardSize = 10

// casAttempts bounds how often a mutation is retried after a version conflict.
const casAttempts = 3

// AttemptOptions tunes the play flow.
type AttemptOptions struct {
	// RequireQuizMembership rejects answers to questions outside the attempt's quiz.
	RequireQuizMembership bool
	// PerQuizPoints awards each quiz's pointsPerQuestion instead of the fixed
	// domain.DefaultPointsPerQuestion.
	PerQuizPoints bool
	// AttemptTTL abandons in-progress attempts older than this on their next mutation. Zero disables it.
	AttemptTTL time.Duration
	// LeaderboardSize defaults to MaxLeaderboardSize and never exceeds it.
	LeaderboardSize int

	Events EventPublisher
	Logger *slog.Logger
	Now    func() time.Time
}

// AttemptService runs the quiz attempt state machine.
type AttemptService struct {
	quizzes   QuizRepository
	questions QuestionRepository
	attempts  AttemptRepository
	locker    AttemptLocker
	events    EventPublisher
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string

	requireMembership bool
	perQuizPoints     bool
	ttl               time.Duration
	leaderboardSize   int
}

// NewAttemptService builds the play engine. Zero-valued options fall back to a
// no-op publisher, slog.Default, the UTC wall clock and MaxLeaderboardSize.
func NewAttemptService(quizzes QuizRepository, questions QuestionRepository, attempts AttemptRepository, locker AttemptLocker, opts AttemptOptions) *AttemptService {
	s := &AttemptService{
		quizzes:           quizzes,
		questions:         questions,
		attempts:          attempts,
		locker:            locker,
		events:            opts.Events,
		logger:            opts.Logger,
		now:               opts.Now,
		newID:             uuid.NewString,
		requireMembership: opts.RequireQuizMembership,
		perQuizPoints:     opts.PerQuizPoints,
		ttl:               opts.AttemptTTL,
		leaderboardSize:   opts.LeaderboardSize,
	}
	if s.events == nil {
		s.events = NopPublisher{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.leaderboardSize <= 0 || s.leaderboardSize > MaxLeaderboardSize {
		s.leaderboardSize = MaxLeaderboardSize
	}
	return s
}

// Start opens a new in-progress attempt for player and snapshots the quiz's current questions.
func (s *AttemptService) Start(ctx context.Context, quizID string, player domain.Player) (domain.PlaySession, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.PlaySession{}, err
	}
	questions, err := s.questions.ListQuestions(ctx, domain.QuestionFilter{QuizID: quizID})
	if err != nil {
		return domain.PlaySession{}, fmt.Errorf("list questions for quiz %s: %w", quizID, err)
	}

	points := domain.DefaultPointsPerQuestion
	if s.perQuizPoints {
		points = quiz.Points()
	}
	now := s.now()
	attempt := domain.Attempt{
		ID:              s.newID(),
		QuizID:          quiz.ID,
		PlayerName:      strings.TrimSpace(player.Name),
		PlayerEmail:     strings.TrimSpace(player.Email),
		Status:          domain.AttemptInProgress,
		Score:           0,
		PointsPerAnswer: points,
		Answers:         []domain.AttemptAnswer{},
		StartedAt:       now,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.attempts.CreateAttempt(ctx, attempt); err != nil {
		return domain.PlaySession{}, fmt.Errorf("create attempt: %w", err)
	}

	s.logger.InfoContext(ctx, "attempt started", "attempt_id", attempt.ID, "quiz_id", quiz.ID, "questions", len(questions))
	s.publish(ctx, EventAttemptStarted, map[string]any{
		"attemptId":      attempt.ID,
		"quizId":         quiz.ID,
		"playerEmail":    attempt.PlayerEmail,
		"totalQuestions": len(questions),
		"startedAt":      attempt.StartedAt,
	})

	return domain.PlaySession{
		Attempt:        attempt,
		QuizTitle:      quiz.Title,
		Questions:      questions,
		TotalQuestions: len(questions),
		ExpiresAt:      attempt.ExpiresAt(s.ttl),
	}, nil
}

// SubmitAnswer grades one answer and records it on the attempt.
func (s *AttemptService) SubmitAnswer(ctx context.Context, attemptID, questionID, answer string) (domain.AnswerResult, error) {
	var result domain.AnswerResult
	err := s.mutate(ctx, attemptID, func(attempt *domain.Attempt) error {
		if attempt.HasAnswer(questionID) {
			return domain.ErrQuestionAlreadyAnswered
		}
		question, err := s.questions.GetQuestion(ctx, questionID)
		if err != nil {
			return err
		}
		if s.requireMembership && !question.BelongsTo(attempt.QuizID) {
			return domain.ErrQuestionNotInQuiz
		}

		correct := domain.Grade(question, answer)
		attempt.Answers = append(attempt.Answers, domain.AttemptAnswer{
			QuestionID: questionID,
			Answer:     answer,
			IsCorrect:  correct,
			AnsweredAt: s.now(),
		})
		attempt.Score = attempt.RecomputeScore()

		result = domain.AnswerResult{
			AttemptID:    attempt.ID,
			QuestionID:   questionID,
			Answer:       answer,
			IsCorrect:    correct,
			PointsEarned: attempt.PointsFor(correct),
			CurrentScore: attempt.Score,
		}
		return nil
	})
	if err != nil {
		return domain.AnswerResult{}, err
	}

	s.publish(ctx, EventAttemptAnswered, map[string]any{
		"attemptId":    result.AttemptID,
		"questionId":   result.QuestionID,
		"isCorrect":    result.IsCorrect,
		"currentScore": result.CurrentScore,
	})
	return result, nil
}

// Complete closes an in-progress attempt and derives its final accounting.
func (s *AttemptService) Complete(ctx context.Context, attemptID string) (domain.CompletionSummary, error) {
	var completed domain.Attempt
	err := s.mutate(ctx, attemptID, func(attempt *domain.Attempt) error {
		now := s.now()
		attempt.Status = domain.AttemptCompleted
		attempt.CompletedAt = &now
		attempt.TimeSpentSeconds = int(now.Sub(attempt.StartedAt) / time.Second)
		attempt.Score = attempt.RecomputeScore()
		completed = *attempt
		return nil
	})
	if err != nil {
		return domain.CompletionSummary{}, err
	}

	summary := domain.CompletionSummary{
		Attempt:        completed,
		TotalAnswers:   len(completed.Answers),
		CorrectAnswers: completed.CorrectAnswers(),
		Accuracy:       completed.Accuracy(),
	}
	s.logger.InfoContext(ctx, "attempt completed",
		"attempt_id", completed.ID, "quiz_id", completed.QuizID,
		"score", completed.Score, "accuracy", summary.Accuracy)
	s.publish(ctx, EventAttemptCompleted, map[string]any{
		"attemptId":        completed.ID,
		"quizId":           completed.QuizID,
		"score":            completed.Score,
		"totalAnswers":     summary.TotalAnswers,
		"correctAnswers":   summary.CorrectAnswers,
		"accuracy":         summary.Accuracy,
		"timeSpentSeconds": completed.TimeSpentSeconds,
	})
	return summary, nil
}

// Abandon ends an in-progress attempt without scoring it further.
func (s *AttemptService) Abandon(ctx context.Context, attemptID string) (domain.Attempt, error) {
	var abandoned domain.Attempt
	err := s.mutate(ctx, attemptID, func(attempt *domain.Attempt) error {
		markAbandoned(attempt, s.now())
		abandoned = *attempt
		return nil
	})
	if err != nil {
		return domain.Attempt{}, err
	}
	s.publishAbandoned(ctx, abandoned, "requested")
	return abandoned, nil
}

// GetAttempt returns an attempt with the quiz's current question count.
func (s *AttemptService) GetAttempt(ctx context.Context, attemptID string) (domain.AttemptView, error) {
	attempt, err := s.attempts.GetAttempt(ctx, attemptID)
	if err != nil {
		return domain.AttemptView{}, err
	}
	questions, err := s.questions.ListQuestions(ctx, domain.QuestionFilter{QuizID: attempt.QuizID})
	if err != nil {
		return domain.AttemptView{}, fmt.Errorf("list questions for quiz %s: %w", attempt.QuizID, err)
	}
	return domain.AttemptView{
		Attempt:        attempt,
		TotalQuestions: len(questions),
		ExpiresAt:      attempt.ExpiresAt(s.ttl),
	}, nil
}

// ListAttemptsForQuiz returns the quiz leaderboard: completed attempts, best score first,
// then fastest, then earliest completed.
// limit <= 0 means the configured size; larger values are capped.
func (s *AttemptService) ListAttemptsForQuiz(ctx context.Context, quizID string, limit int) ([]domain.Attempt, error) {
	if limit <= 0 || limit > s.leaderboardSize {
		limit = s.leaderboardSize
	}
	attempts, err := s.attempts.ListCompletedAttempts(ctx, quizID, limit)
	if err != nil {
		return nil, fmt.Errorf("list attempts for quiz %s: %w", quizID, err)
	}
	return attempts, nil
}

// ListPlayerAttempts returns every attempt played under email, newest first.
func (s *AttemptService) ListPlayerAttempts(ctx context.Context, email string) ([]domain.Attempt, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, domain.NewValidationError("playerEmail is required")
	}
	attempts, err := s.attempts.ListPlayerAttempts(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("list attempts for player: %w", err)
	}
	return attempts, nil
}

// mutate loads an in-progress attempt under the attempt lock, applies fn and stores the
// result with a version check. A conflicting concurrent write re-runs fn on fresh state.
func (s *AttemptService) mutate(ctx context.Context, attemptID string, fn func(*domain.Attempt) error) error {
	unlock, err := s.locker.Lock(ctx, attemptID)
	if err != nil {
		return fmt.Errorf("lock attempt %s: %w", attemptID, err)
	}
	defer unlock()

	for try := 1; ; try++ {
		attempt, err := s.attempts.GetAttempt(ctx, attemptID)
		if err != nil {
			return err
		}
		if attempt.Status == domain.AttemptInProgress && attempt.Expired(s.ttl, s.now()) {
			if err := s.expire(ctx, attempt); err != nil && !errors.Is(err, domain.ErrVersionConflict) {
				return err
			}
			return domain.ErrAttemptNotInProgress
		}
		if attempt.Status != domain.AttemptInProgress {
			return domain.ErrAttemptNotInProgress
		}

		expected := attempt.Version
		if err := fn(&attempt); err != nil {
			return err
		}
		attempt.Version = expected + 1
		attempt.UpdatedAt = s.now()

		err = s.attempts.UpdateAttempt(ctx, attempt, expected)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) || try >= casAttempts {
			return fmt.Errorf("update attempt %s: %w", attemptID, err)
		}
		s.logger.DebugContext(ctx, "attempt version conflict, retrying", "attempt_id", attemptID, "try", try)
	}
}

// expire persists the abandonment of a timed-out attempt.
func (s *AttemptService) expire(ctx context.Context, attempt domain.Attempt) error {
	expected := attempt.Version
	markAbandoned(&attempt, s.now())
	attempt.Version = expected + 1
	attempt.UpdatedAt = s.now()
	if err := s.attempts.UpdateAttempt(ctx, attempt, expected); err != nil {
		return fmt.Errorf("expire attempt %s: %w", attempt.ID, err)
	}
	s.logger.InfoContext(ctx, "attempt expired", "attempt_id", attempt.ID, "ttl", s.ttl.String())
	s.publishAbandoned(ctx, attempt, "expired")
	return nil
}

func markAbandoned(attempt *domain.Attempt, now time.Time) {
	attempt.Status = domain.AttemptAbandoned
	attempt.AbandonedAt = &now
	attempt.TimeSpentSeconds = int(now.Sub(attempt.StartedAt) / time.Second)
}

func (s *AttemptService) publishAbandoned(ctx context.Context, attempt domain.Attempt, reason string) {
	s.publish(ctx, EventAttemptAbandoned, map[string]any{
		"attemptId": attempt.ID,
		"quizId":    attempt.QuizID,
		"score":     attempt.Score,
		"reason":    reason,
	})
}

// publish is best-effort; a broker outage never fails a request.
func (s *AttemptService) publish(ctx context.Context, eventType string, payload any) {
	if err := s.events.Publish(ctx, eventType, payload); err != nil {
		s.logger.WarnContext(ctx, "publish event failed", "event", eventType, "error", err)
	}
}
