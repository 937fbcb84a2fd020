package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v4/pgxpool"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"quiz-api/internal/domain"
	pgmigrations "quiz-api/internal/infra/postgres/migrations"
)

// newTestPool starts a throwaway Postgres, applies the migrations and returns a pool.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, nat.Port("5432/tcp"))
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	url := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(url)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()
	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("init migrations: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pool, err := Connect(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func TestQuestionRepositoryFilterAndUnlink(t *testing.T) {
	ctx := context.Background()
	repo := NewQuestionRepository(newTestPool(t))
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, q := range []domain.Question{
		{ID: "q1", QuizIDs: []string{"quiz-a", "quiz-b"}, Text: "one", Type: domain.QuestionTypeFreeText, CorrectAnswer: "1"},
		{ID: "q2", QuizIDs: []string{"quiz-b"}, Text: "two", Type: domain.QuestionTypeFreeText, CorrectAnswer: "2"},
		{ID: "q3", QuizIDs: []string{}, Text: "orphan", Type: domain.QuestionTypeFreeText, CorrectAnswer: "3"},
	} {
		q.CreatedAt = base.Add(time.Duration(i) * time.Second)
		if err := repo.CreateQuestion(ctx, q); err != nil {
			t.Fatalf("create %s: %v", q.ID, err)
		}
	}

	inB, err := repo.ListQuestions(ctx, domain.QuestionFilter{QuizID: "quiz-b"})
	if err != nil || len(inB) != 2 || inB[0].ID != "q1" || inB[1].ID != "q2" {
		t.Fatalf("unexpected quiz-b questions: %+v (%v)", inB, err)
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
	all, _ := repo.ListQuestions(ctx, domain.QuestionFilter{})
	if len(all) != 3 {
		t.Fatalf("unlink must not delete questions, got %d", len(all))
	}
	if _, err := repo.GetQuestion(ctx, "missing"); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAttemptRepositoryVersionConflict(t *testing.T) {
	ctx := context.Background()
	repo := NewAttemptRepository(newTestPool(t))
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	attempt := domain.Attempt{ID: "a1", QuizID: "quiz-a", Status: domain.AttemptInProgress, Version: 1, StartedAt: now, CreatedAt: now}
	if err := repo.CreateAttempt(ctx, attempt); err != nil {
		t.Fatalf("create: %v", err)
	}

	fresh := attempt
	fresh.Score = 10
	fresh.Version = 2
	if err := repo.UpdateAttempt(ctx, fresh, 1); err != nil {
		t.Fatalf("update: %v", err)
	}
	stale := attempt
	stale.Score = 30
	stale.Version = 2
	if err := repo.UpdateAttempt(ctx, stale, 1); !errors.Is(err, domain.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}
	got, _ := repo.GetAttempt(ctx, "a1")
	if got.Score != 10 || got.Version != 2 {
		t.Fatalf("stale write leaked: %+v", got)
	}
	if err := repo.UpdateAttempt(ctx, domain.Attempt{ID: "nope", Version: 2}, 1); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAttemptRepositoryLeaderboardAndPlayers(t *testing.T) {
	ctx := context.Background()
	repo := NewAttemptRepository(newTestPool(t))
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		v := base.Add(d)
		return &v
	}
	for i, a := range []domain.Attempt{
		{ID: "early-high", Score: 30, TimeSpentSeconds: 60, CompletedAt: at(time.Minute), PlayerEmail: "ann@example.com"},
		{ID: "fast-high", Score: 30, TimeSpentSeconds: 20, CompletedAt: at(3 * time.Minute), PlayerEmail: "ann@example.com"},
		{ID: "low", Score: 10, TimeSpentSeconds: 5, CompletedAt: at(0)},
	} {
		a.QuizID = "q"
		a.Status = domain.AttemptCompleted
		a.Version = 1
		a.CreatedAt = base.Add(time.Duration(i) * time.Second)
		if err := repo.CreateAttempt(ctx, a); err != nil {
			t.Fatalf("create %s: %v", a.ID, err)
		}
	}
	running := domain.Attempt{ID: "running", QuizID: "q", Status: domain.AttemptInProgress, Score: 50, Version: 1, CreatedAt: base}
	if err := repo.CreateAttempt(ctx, running); err != nil {
		t.Fatalf("create running: %v", err)
	}

	top, err := repo.ListCompletedAttempts(ctx, "q", 2)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(top) != 2 || top[0].ID != "fast-high" || top[1].ID != "early-high" {
		t.Fatalf("unexpected leaderboard: %+v", top)
	}

	history, err := repo.ListPlayerAttempts(ctx, "ann@example.com")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 || history[0].ID != "fast-high" || history[1].ID != "early-high" {
		t.Fatalf("unexpected history: %+v", history)
	}
}
