package memory

import (
	"context"
	"sync"

	"quiz-api/internal/domain"
)

// QuestionRepository keeps questions in process memory. Stored values are copied
// on the way in and out so callers never share slices with the store.
type QuestionRepository struct {
	mu    sync.RWMutex
	order []string
	items map[string]domain.Question
}

func NewQuestionRepository() *QuestionRepository {
	return &QuestionRepository{items: make(map[string]domain.Question)}
}

func (r *QuestionRepository) CreateQuestion(_ context.Context, question domain.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[question.ID]; !ok {
		r.order = append(r.order, question.ID)
	}
	r.items[question.ID] = copyQuestion(question)
	return nil
}

func (r *QuestionRepository) GetQuestion(_ context.Context, questionID string) (domain.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	question, ok := r.items[questionID]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return copyQuestion(question), nil
}

func (r *QuestionRepository) ListQuestions(_ context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Question, 0, len(r.order))
	for _, id := range r.order {
		question := r.items[id]
		if filter.QuizID != "" && !question.BelongsTo(filter.QuizID) {
			continue
		}
		out = append(out, copyQuestion(question))
	}
	return out, nil
}

func (r *QuestionRepository) UpdateQuestion(_ context.Context, question domain.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[question.ID]; !ok {
		return domain.ErrQuestionNotFound
	}
	r.items[question.ID] = copyQuestion(question)
	return nil
}

func (r *QuestionRepository) DeleteQuestion(_ context.Context, questionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[questionID]; !ok {
		return domain.ErrQuestionNotFound
	}
	delete(r.items, questionID)
	r.order = removeID(r.order, questionID)
	return nil
}

func (r *QuestionRepository) RemoveQuizFromQuestions(_ context.Context, quizID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var changed int64
	for id, question := range r.items {
		if !question.BelongsTo(quizID) {
			continue
		}
		kept := make([]string, 0, len(question.QuizIDs))
		for _, qid := range question.QuizIDs {
			if qid != quizID {
				kept = append(kept, qid)
			}
		}
		question.QuizIDs = kept
		r.items[id] = question
		changed++
	}
	return changed, nil
}

func copyQuestion(q domain.Question) domain.Question {
	q.QuizIDs = append([]string{}, q.QuizIDs...)
	if q.Choices != nil {
		q.Choices = append([]domain.Choice(nil), q.Choices...)
	}
	return q
}
