package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-api/internal/domain"
)

func TestQuestionRepositoryFilterAndUnlink(t *testing.T) {
	ctx := context.Background()
	repo := NewQuestionRepository()
	for _, q := range []domain.Question{
		{ID: "q1", QuizIDs: []string{"quiz-a", "quiz-b"}, Text: "one"},
		{ID: "q2", QuizIDs: []string{"quiz-b"}, Text: "two"},
		{ID: "q3", QuizIDs: []string{}, Text: "orphan"},
	} {
		if err := repo.CreateQuestion(ctx, q); err != nil {
			t.Fatalf("create %s: %v", q.ID, err)
		}
	}

	all, _ := repo.ListQuestions(ctx, domain.QuestionFilter{})
	if len(all) != 3 || all[0].ID != "q1" || all[2].ID != "q3" {
		t.Fatalf("unexpected unfiltered list: %+v", all)
	}
	inB, _ := repo.ListQuestions(ctx, domain.QuestionFilter{QuizID: "quiz-b"})
	if len(inB) != 2 {
		t.Fatalf("expected 2 questions in quiz-b, got %d", len(inB))
	}

	n, err := repo.RemoveQuizFromQuestions(ctx, "quiz-b")
	if err != nil {
		t.Fatalf("unlink: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 questions changed, got %d", n)
	}
	q1, _ := repo.GetQuestion(ctx, "q1")
	if len(q1.QuizIDs) != 1 || q1.QuizIDs[0] != "quiz-a" {
		t.Fatalf("expected only quiz-a left on q1, got %v", q1.QuizIDs)
	}
	q2, _ := repo.GetQuestion(ctx, "q2")
	if len(q2.QuizIDs) != 0 {
		t.Fatalf("expected q2 unlinked, got %v", q2.QuizIDs)
	}
}

func TestQuestionRepositoryCopiesSlices(t *testing.T) {
	ctx := context.Background()
	repo := NewQuestionRepository()
	q := domain.Question{ID: "q1", QuizIDs: []string{"quiz-a"}}
	_ = repo.CreateQuestion(ctx, q)
	q.QuizIDs[0] = "mutated"

	got, _ := repo.GetQuestion(ctx, "q1")
	if got.QuizIDs[0] != "quiz-a" {
		t.Fatalf("store shares caller slice: %v", got.QuizIDs)
	}
	if err := repo.DeleteQuestion(ctx, "missing"); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAttemptRepositoryVersionCheck(t *testing.T) {
	ctx := context.Background()
	repo := NewAttemptRepository()
	attempt := domain.Attempt{ID: "a1", QuizID: "quiz-a", Status: domain.AttemptInProgress, Version: 1}
	_ = repo.CreateAttempt(ctx, attempt)

	attempt.Version = 2
	if err := repo.UpdateAttempt(ctx, attempt, 1); err != nil {
		t.Fatalf("update: %v", err)
	}
	attempt.Version = 3
	if err := repo.UpdateAttempt(ctx, attempt, 1); !errors.Is(err, domain.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}
	missing := domain.Attempt{ID: "nope"}
	if err := repo.UpdateAttempt(ctx, missing, 1); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAttemptRepositoryLeaderboardOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewAttemptRepository()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		v := base.Add(d)
		return &v
	}
	for _, a := range []domain.Attempt{
		{ID: "late-high", QuizID: "q", Status: domain.AttemptCompleted, Score: 30, TimeSpentSeconds: 60, CompletedAt: at(2 * time.Minute)},
		{ID: "early-high", QuizID: "q", Status: domain.AttemptCompleted, Score: 30, TimeSpentSeconds: 60, CompletedAt: at(time.Minute)},
		{ID: "fast-high", QuizID: "q", Status: domain.AttemptCompleted, Score: 30, TimeSpentSeconds: 20, CompletedAt: at(3 * time.Minute)},
		{ID: "low", QuizID: "q", Status: domain.AttemptCompleted, Score: 10, CompletedAt: at(0)},
		{ID: "running", QuizID: "q", Status: domain.AttemptInProgress, Score: 50},
		{ID: "other-quiz", QuizID: "x", Status: domain.AttemptCompleted, Score: 90, CompletedAt: at(0)},
	} {
		_ = repo.CreateAttempt(ctx, a)
	}

	got, err := repo.ListCompletedAttempts(ctx, "q", 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 || got[0].ID != "fast-high" || got[1].ID != "early-high" || got[2].ID != "late-high" {
		t.Fatalf("unexpected leaderboard: %+v", got)
	}
}

func TestAttemptRepositoryPlayerHistory(t *testing.T) {
	ctx := context.Background()
	repo := NewAttemptRepository()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, a := range []domain.Attempt{
		{ID: "old", QuizID: "q", PlayerEmail: "ann@example.com"},
		{ID: "new", QuizID: "x", PlayerEmail: "ann@example.com"},
		{ID: "bob", QuizID: "q", PlayerEmail: "bob@example.com"},
		{ID: "anon", QuizID: "q"},
	} {
		a.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		_ = repo.CreateAttempt(ctx, a)
	}

	got, err := repo.ListPlayerAttempts(ctx, "ann@example.com")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != "new" || got[1].ID != "old" {
		t.Fatalf("unexpected history: %+v", got)
	}
	none, _ := repo.ListPlayerAttempts(ctx, "nobody@example.com")
	if len(none) != 0 {
		t.Fatalf("expected no attempts, got %+v", none)
	}
}

func TestAttemptLockerSerializes(t *testing.T) {
	locker := NewAttemptLocker()
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "a1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		unlock2, err := locker.Lock(ctx, "a1")
		if err != nil {
			return
		}
		close(acquired)
		unlock2()
	}()

	select {
	case <-acquired:
		t.Fatalf("second lock acquired while first held")
	case <-time.After(50 * time.Millisecond):
	}

	// other keys are independent
	unlockOther, err := locker.Lock(ctx, "a2")
	if err != nil {
		t.Fatalf("lock other: %v", err)
	}
	unlockOther()

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatalf("second lock never acquired")
	}

	deadline := time.Now().Add(time.Second)
	for locker.size() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("lock entries leaked: %d", locker.size())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestAttemptLockerHonoursContext(t *testing.T) {
	locker := NewAttemptLocker()
	unlock, _ := locker.Lock(context.Background(), "a1")
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(ctx, "a1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
