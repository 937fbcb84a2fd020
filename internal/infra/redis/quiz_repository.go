package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"quiz-api/internal/app"
	"quiz-api/internal/domain"
)

// loadTimeout bounds a coalesced backing-store load, which outlives any single caller.
const loadTimeout = 5 * time.Second

// QuizRepository caches quiz documents in Redis in front of another QuizRepository.
// Quizzes are stored as JSON under quiz:{quizID}. Writes go to the backing store
// first and then drop the cached copy.
type QuizRepository struct {
	client *redis.Client
	next   app.QuizRepository
	ttl    time.Duration
	logger *slog.Logger
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

// NewQuizRepository wraps next with a Redis read-through cache. ttl gets up to 10% jitter.
func NewQuizRepository(client *redis.Client, next app.QuizRepository, ttl time.Duration, logger *slog.Logger) *QuizRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuizRepository{
		client: client,
		next:   next,
		ttl:    ttl,
		logger: logger,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := r.cached(ctx, quizID); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		// Coalesced callers share this load, so the first caller's cancellation must not fail them.
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		// Re-check cache in case another goroutine filled it.
		if quiz, ok := r.cached(loadCtx, quizID); ok {
			return quiz, nil
		}
		quiz, err := r.next.GetQuiz(loadCtx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		raw, err := json.Marshal(quiz)
		if err == nil {
			err = r.client.Set(loadCtx, quizKey(quizID), raw, r.ttlWithJitter()).Err()
		}
		if err != nil {
			r.logger.WarnContext(loadCtx, "cache quiz failed", "quiz_id", quizID, "error", err)
		}
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (r *QuizRepository) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	return r.next.CreateQuiz(ctx, quiz)
}

// ListQuizzes is never cached.
func (r *QuizRepository) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	return r.next.ListQuizzes(ctx)
}

func (r *QuizRepository) UpdateQuiz(ctx context.Context, quiz domain.Quiz) error {
	if err := r.next.UpdateQuiz(ctx, quiz); err != nil {
		return err
	}
	r.invalidate(ctx, quiz.ID)
	return nil
}

func (r *QuizRepository) DeleteQuiz(ctx context.Context, quizID string) error {
	if err := r.next.DeleteQuiz(ctx, quizID); err != nil {
		return err
	}
	r.invalidate(ctx, quizID)
	return nil
}

func (r *QuizRepository) cached(ctx context.Context, quizID string) (domain.Quiz, bool) {
	raw, err := r.client.Get(ctx, quizKey(quizID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.WarnContext(ctx, "read cached quiz failed", "quiz_id", quizID, "error", err)
		}
		return domain.Quiz{}, false
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, false
	}
	return quiz, true
}

func (r *QuizRepository) invalidate(ctx context.Context, quizID string) {
	if err := r.client.Del(ctx, quizKey(quizID)).Err(); err != nil {
		r.logger.WarnContext(ctx, "invalidate cached quiz failed", "quiz_id", quizID, "error", err)
	}
}

func quizKey(quizID string) string {
	return "quiz:" + quizID
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
