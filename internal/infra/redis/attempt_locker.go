package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockRetryInterval = 20 * time.Millisecond

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// AttemptLocker serializes attempt mutations across instances with a SET NX PX lease.
// The lease expires on its own if the holder dies.
type AttemptLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAttemptLocker returns a locker whose leases expire after ttl, 5s when ttl <= 0.
func NewAttemptLocker(client *redis.Client, ttl time.Duration) *AttemptLocker {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &AttemptLocker{client: client, ttl: ttl}
}

func (l *AttemptLocker) Lock(ctx context.Context, attemptID string) (func(), error) {
	key := lockKey(attemptID)
	token := uuid.NewString()

	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return func() {}, err
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return func() {}, ctx.Err()
		case <-ticker.C:
		}
	}

	return func() {
		// release even if the request context is already cancelled
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
	}, nil
}

func lockKey(attemptID string) string {
	return "quiz:attempt-lock:" + attemptID
}
