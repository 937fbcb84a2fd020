package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"quiz-api/internal/domain"
)

type QuizRepository struct {
	col *mongo.Collection
}

// NewQuizRepository uses the quizzes collection of db.
func NewQuizRepository(db *mongo.Database) *QuizRepository {
	return &QuizRepository{col: db.Collection(quizzesCollection)}
}

func (r *QuizRepository) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	if _, err := r.col.InsertOne(ctx, quiz); err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}
	return nil
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := r.col.FindOne(ctx, bson.M{"_id": quizID}).Decode(&quiz)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("find quiz: %w", err)
	}
	return quiz, nil
}

func (r *QuizRepository) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find quizzes: %w", err)
	}
	return decodeAll[domain.Quiz](ctx, cur)
}

func (r *QuizRepository) UpdateQuiz(ctx context.Context, quiz domain.Quiz) error {
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": quiz.ID}, quiz)
	if err != nil {
		return fmt.Errorf("replace quiz: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (r *QuizRepository) DeleteQuiz(ctx context.Context, quizID string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": quizID})
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}
