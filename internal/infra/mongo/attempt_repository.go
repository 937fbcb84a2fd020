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

// AttemptRepository keeps attempts in the attempts collection; updates are guarded by version.
type AttemptRepository struct {
	col *mongo.Collection
}

// NewAttemptRepository uses the attempts collection of db.
func NewAttemptRepository(db *mongo.Database) *AttemptRepository {
	return &AttemptRepository{col: db.Collection(attemptsCollection)}
}

func (r *AttemptRepository) CreateAttempt(ctx context.Context, attempt domain.Attempt) error {
	if _, err := r.col.InsertOne(ctx, attempt); err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

func (r *AttemptRepository) GetAttempt(ctx context.Context, attemptID string) (domain.Attempt, error) {
	var attempt domain.Attempt
	err := r.col.FindOne(ctx, bson.M{"_id": attemptID}).Decode(&attempt)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("find attempt: %w", err)
	}
	return attempt, nil
}

// UpdateAttempt replaces the document only while its version still matches.
func (r *AttemptRepository) UpdateAttempt(ctx context.Context, attempt domain.Attempt, expectedVersion int) error {
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": attempt.ID, "version": expectedVersion}, attempt)
	if err != nil {
		return fmt.Errorf("replace attempt: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": attempt.ID})
	if err != nil {
		return fmt.Errorf("count attempt: %w", err)
	}
	if n == 0 {
		return domain.ErrAttemptNotFound
	}
	return domain.ErrVersionConflict
}

func (r *AttemptRepository) ListCompletedAttempts(ctx context.Context, quizID string, limit int) ([]domain.Attempt, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "score", Value: -1},
		{Key: "timeSpentSeconds", Value: 1},
		{Key: "completedAt", Value: 1},
	})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.col.Find(ctx, bson.M{"quizId": quizID, "status": domain.AttemptCompleted}, opts)
	if err != nil {
		return nil, fmt.Errorf("find completed attempts: %w", err)
	}
	return decodeAll[domain.Attempt](ctx, cur)
}

func (r *AttemptRepository) ListPlayerAttempts(ctx context.Context, playerEmail string) ([]domain.Attempt, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"playerEmail": playerEmail}, opts)
	if err != nil {
		return nil, fmt.Errorf("find player attempts: %w", err)
	}
	return decodeAll[domain.Attempt](ctx, cur)
}
