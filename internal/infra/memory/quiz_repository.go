package memory

import (
	"context"
	"sync"

	"quiz-api/internal/domain"
)

// QuizRepository keeps quizzes in process memory, listed in creation order.
type QuizRepository struct {
	mu    sync.RWMutex
	order []string
	items map[string]domain.Quiz
}

func NewQuizRepository() *QuizRepository {
	return &QuizRepository{items: make(map[string]domain.Quiz)}
}

func (r *QuizRepository) CreateQuiz(_ context.Context, quiz domain.Quiz) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[quiz.ID]; !ok {
		r.order = append(r.order, quiz.ID)
	}
	r.items[quiz.ID] = quiz
	return nil
}

func (r *QuizRepository) GetQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	quiz, ok := r.items[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (r *QuizRepository) ListQuizzes(_ context.Context) ([]domain.Quiz, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Quiz, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	return out, nil
}

func (r *QuizRepository) UpdateQuiz(_ context.Context, quiz domain.Quiz) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[quiz.ID]; !ok {
		return domain.ErrQuizNotFound
	}
	r.items[quiz.ID] = quiz
	return nil
}

func (r *QuizRepository) DeleteQuiz(_ context.Context, quizID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[quizID]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(r.items, quizID)
	r.order = removeID(r.order, quizID)
	return nil
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}
