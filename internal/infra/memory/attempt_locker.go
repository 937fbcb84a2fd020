package memory

import (
	"context"
	"sync"
)

// AttemptLocker is an in-process keyed mutex. Entries are dropped once nobody holds
// or waits for them.
type AttemptLocker struct {
	mu    sync.Mutex
	locks map[string]*attemptLock
}

type attemptLock struct {
	ch   chan struct{}
	refs int
}

// NewAttemptLocker returns an in-process keyed mutex.
func NewAttemptLocker() *AttemptLocker {
	return &AttemptLocker{locks: make(map[string]*attemptLock)}
}

// Lock blocks until attemptID is free or ctx is done.
func (l *AttemptLocker) Lock(ctx context.Context, attemptID string) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[attemptID]
	if !ok {
		lock = &attemptLock{ch: make(chan struct{}, 1)}
		l.locks[attemptID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	select {
	case lock.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(attemptID, lock)
		return func() {}, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-lock.ch
			l.release(attemptID, lock)
		})
	}, nil
}

func (l *AttemptLocker) release(attemptID string, lock *attemptLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, attemptID)
	}
}

func (l *AttemptLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
