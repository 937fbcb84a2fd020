package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"quiz-api/internal/domain"
)

// AttemptRepository stores attempts as JSONB with the columns needed for
// version checks and the leaderboard query lifted out.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository stores attempts in the attempts table.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

func (r *AttemptRepository) CreateAttempt(ctx context.Context, attempt domain.Attempt) error {
	data, err := marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO attempts (id, quiz_id, status, score, version, completed_at, data,
			player_email, time_spent_seconds, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		attempt.ID, attempt.QuizID, string(attempt.Status), attempt.Score, attempt.Version, attempt.CompletedAt, data,
		nullable(attempt.PlayerEmail), attempt.TimeSpentSeconds, attempt.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

func (r *AttemptRepository) GetAttempt(ctx context.Context, attemptID string) (domain.Attempt, error) {
	var attempt domain.Attempt
	if err := getDocument(ctx, r.pool, `SELECT data FROM attempts WHERE id=$1`, attemptID, domain.ErrAttemptNotFound, &attempt); err != nil {
		return domain.Attempt{}, err
	}
	return attempt, nil
}

func (r *AttemptRepository) UpdateAttempt(ctx context.Context, attempt domain.Attempt, expectedVersion int) error {
	data, err := marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE attempts
		SET status=$2, score=$3, version=$4, completed_at=$5, data=$6, time_spent_seconds=$8
		WHERE id=$1 AND version=$7`,
		attempt.ID, string(attempt.Status), attempt.Score, attempt.Version, attempt.CompletedAt, data, expectedVersion,
		attempt.TimeSpentSeconds)
	if err != nil {
		return fmt.Errorf("update attempt: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM attempts WHERE id=$1)`, attempt.ID).Scan(&exists); err != nil {
		return fmt.Errorf("check attempt: %w", err)
	}
	if !exists {
		return domain.ErrAttemptNotFound
	}
	return domain.ErrVersionConflict
}

func (r *AttemptRepository) ListCompletedAttempts(ctx context.Context, quizID string, limit int) ([]domain.Attempt, error) {
	attempts, err := listDocuments[domain.Attempt](ctx, r.pool, `
		SELECT data FROM attempts
		WHERE quiz_id=$1 AND status=$2
		ORDER BY score DESC, time_spent_seconds ASC, completed_at ASC
		LIMIT $3`, quizID, string(domain.AttemptCompleted), limit)
	if err != nil {
		return nil, fmt.Errorf("list completed attempts: %w", err)
	}
	return attempts, nil
}

func (r *AttemptRepository) ListPlayerAttempts(ctx context.Context, playerEmail string) ([]domain.Attempt, error) {
	attempts, err := listDocuments[domain.Attempt](ctx, r.pool, `
		SELECT data FROM attempts
		WHERE player_email=$1
		ORDER BY created_at DESC, id ASC`, playerEmail)
	if err != nil {
		return nil, fmt.Errorf("list player attempts: %w", err)
	}
	return attempts, nil
}

// nullable stores empty strings as NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
