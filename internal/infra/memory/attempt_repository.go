package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"quiz-api/internal/domain"
)

// AttemptRepository keeps attempts in process memory with version-checked updates.
type AttemptRepository struct {
	mu    sync.RWMutex
	items map[string]domain.Attempt
}

// NewAttemptRepository returns an empty attempt store.
func NewAttemptRepository() *AttemptRepository {
	return &AttemptRepository{items: make(map[string]domain.Attempt)}
}

func (r *AttemptRepository) CreateAttempt(_ context.Context, attempt domain.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[attempt.ID] = copyAttempt(attempt)
	return nil
}

func (r *AttemptRepository) GetAttempt(_ context.Context, attemptID string) (domain.Attempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	attempt, ok := r.items[attemptID]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return copyAttempt(attempt), nil
}

func (r *AttemptRepository) UpdateAttempt(_ context.Context, attempt domain.Attempt, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[attempt.ID]
	if !ok {
		return domain.ErrAttemptNotFound
	}
	if stored.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	r.items[attempt.ID] = copyAttempt(attempt)
	return nil
}

func (r *AttemptRepository) ListCompletedAttempts(_ context.Context, quizID string, limit int) ([]domain.Attempt, error) {
	r.mu.RLock()
	out := make([]domain.Attempt, 0)
	for _, attempt := range r.items {
		if attempt.QuizID == quizID && attempt.Status == domain.AttemptCompleted {
			out = append(out, copyAttempt(attempt))
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].TimeSpentSeconds != out[j].TimeSpentSeconds {
			return out[i].TimeSpentSeconds < out[j].TimeSpentSeconds
		}
		return completedAt(out[i]).Before(completedAt(out[j]))
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *AttemptRepository) ListPlayerAttempts(_ context.Context, playerEmail string) ([]domain.Attempt, error) {
	r.mu.RLock()
	out := make([]domain.Attempt, 0)
	for _, attempt := range r.items {
		if attempt.PlayerEmail == playerEmail {
			out = append(out, copyAttempt(attempt))
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func completedAt(a domain.Attempt) (t time.Time) {
	if a.CompletedAt != nil {
		t = *a.CompletedAt
	}
	return t
}

func copyAttempt(a domain.Attempt) domain.Attempt {
	a.Answers = append([]domain.AttemptAnswer{}, a.Answers...)
	return a
}
