package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"quiz-api/internal/domain"
)

// QuestionRepository stores questions as JSONB documents; quiz membership is
// queried through the data->'quizIds' array.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository stores questions in the questions table.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

func (r *QuestionRepository) CreateQuestion(ctx context.Context, question domain.Question) error {
	data, err := marshal(question)
	if err != nil {
		return fmt.Errorf("marshal question: %w", err)
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO questions (id, data, created_at) VALUES ($1, $2, $3)`, question.ID, data, question.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

func (r *QuestionRepository) GetQuestion(ctx context.Context, questionID string) (domain.Question, error) {
	var question domain.Question
	if err := getDocument(ctx, r.pool, `SELECT data FROM questions WHERE id=$1`, questionID, domain.ErrQuestionNotFound, &question); err != nil {
		return domain.Question{}, err
	}
	return question, nil
}

func (r *QuestionRepository) ListQuestions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	var (
		questions []domain.Question
		err       error
	)
	if filter.QuizID == "" {
		questions, err = listDocuments[domain.Question](ctx, r.pool, `SELECT data FROM questions ORDER BY created_at, id`)
	} else {
		questions, err = listDocuments[domain.Question](ctx, r.pool,
			`SELECT data FROM questions WHERE data->'quizIds' ? $1 ORDER BY created_at, id`, filter.QuizID)
	}
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return questions, nil
}

func (r *QuestionRepository) UpdateQuestion(ctx context.Context, question domain.Question) error {
	data, err := marshal(question)
	if err != nil {
		return fmt.Errorf("marshal question: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `UPDATE questions SET data=$2 WHERE id=$1`, question.ID, data)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (r *QuestionRepository) DeleteQuestion(ctx context.Context, questionID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id=$1`, questionID)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (r *QuestionRepository) RemoveQuizFromQuestions(ctx context.Context, quizID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE questions
		SET data = jsonb_set(data, '{quizIds}', (data->'quizIds') - $1::text)
		WHERE data->'quizIds' ? $1`, quizID)
	if err != nil {
		return 0, fmt.Errorf("unlink quiz from questions: %w", err)
	}
	return tag.RowsAffected(), nil
}
