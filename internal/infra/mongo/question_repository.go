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

type QuestionRepository struct {
	col *mongo.Collection
}

func NewQuestionRepository(db *mongo.Database) *QuestionRepository {
	return &QuestionRepository{col: db.Collection(questionsCollection)}
}

func (r *QuestionRepository) CreateQuestion(ctx context.Context, question domain.Question) error {
	if _, err := r.col.InsertOne(ctx, question); err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

func (r *QuestionRepository) GetQuestion(ctx context.Context, questionID string) (domain.Question, error) {
	var question domain.Question
	err := r.col.FindOne(ctx, bson.M{"_id": questionID}).Decode(&question)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("find question: %w", err)
	}
	return question, nil
}

func (r *QuestionRepository) ListQuestions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	query := bson.M{}
	if filter.QuizID != "" {
		// matches any array element
		query["quizIds"] = filter.QuizID
	}
	cur, err := r.col.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find questions: %w", err)
	}
	return decodeAll[domain.Question](ctx, cur)
}

func (r *QuestionRepository) UpdateQuestion(ctx context.Context, question domain.Question) error {
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": question.ID}, question)
	if err != nil {
		return fmt.Errorf("replace question: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (r *QuestionRepository) DeleteQuestion(ctx context.Context, questionID string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": questionID})
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (r *QuestionRepository) RemoveQuizFromQuestions(ctx context.Context, quizID string) (int64, error) {
	res, err := r.col.UpdateMany(ctx,
		bson.M{"quizIds": quizID},
		bson.M{"$pull": bson.M{"quizIds": quizID}},
	)
	if err != nil {
		return 0, fmt.Errorf("pull quiz from questions: %w", err)
	}
	return res.ModifiedCount, nil
}
