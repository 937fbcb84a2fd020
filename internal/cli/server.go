package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"quiz-api/internal/app"
	"quiz-api/internal/config"
	"quiz-api/internal/infra/memory"
	mongostore "quiz-api/internal/infra/mongo"
	pgstore "quiz-api/internal/infra/postgres"
	"quiz-api/internal/infra/rabbitmq"
	rediscache "quiz-api/internal/infra/redis"
	transport "quiz-api/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// stores is the set of repositories backing the services, plus their cleanup.
type stores struct {
	quizzes   app.QuizRepository
	questions app.QuestionRepository
	attempts  app.AttemptRepository
	close     func()
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	var locker app.AttemptLocker = memory.NewAttemptLocker()
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		quizTTL := config.TTLDuration(cfg.Redis.QuizTTL, 10*time.Minute)
		st.quizzes = rediscache.NewQuizRepository(redisClient, st.quizzes, quizTTL, logger)
		locker = rediscache.NewAttemptLocker(redisClient, config.TTLDuration(cfg.Redis.LockTTL, 5*time.Second))
		logger.Info("redis enabled", "addr", cfg.Redis.Addr, "quiz_ttl", quizTTL.String())
	}

	var events app.EventPublisher = app.NopPublisher{}
	if cfg.RabbitMQ.URL != "" {
		publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, logger)
		if err != nil {
			return err
		}
		defer publisher.Close()
		events = publisher
	} else {
		logger.Info("rabbitmq not configured, events will not be published")
	}

	catalog := app.NewCatalogService(st.quizzes, st.questions, logger)
	attempts := app.NewAttemptService(st.quizzes, st.questions, st.attempts, locker, app.AttemptOptions{
		RequireQuizMembership: cfg.Play.RequireQuizMembership,
		PerQuizPoints:         cfg.Play.PerQuizPoints,
		AttemptTTL:            config.TTLDuration(cfg.Play.AttemptTTL, 0),
		LeaderboardSize:       cfg.Play.LeaderboardSize,
		Events:                events,
		Logger:                logger,
	})
	router := transport.NewRouter(catalog, attempts, transport.RouterConfig{
		Mode:        cfg.Server.Mode,
		CORSOrigins: cfg.Server.CORSOrigins,
		Logger:      logger,
	})

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.TTLDuration(cfg.Server.WriteTimeout, 15*time.Second),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting quiz api", "addr", server.Addr, "storage", cfg.Storage.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (stores, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory storage, data is lost on restart")
		return stores{
			quizzes:   memory.NewQuizRepository(),
			questions: memory.NewQuestionRepository(),
			attempts:  memory.NewAttemptRepository(),
			close:     func() {},
		}, nil

	case config.DriverMongo:
		if cfg.Mongo.URI == "" {
			return stores{}, fmt.Errorf("mongo uri not configured")
		}
		client, err := mongostore.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			return stores{}, err
		}
		db := client.Database(cfg.Mongo.Database)
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return stores{}, err
		}
		return stores{
			quizzes:   mongostore.NewQuizRepository(db),
			questions: mongostore.NewQuestionRepository(db),
			attempts:  mongostore.NewAttemptRepository(db),
			close: func() {
				disconnectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := client.Disconnect(disconnectCtx); err != nil {
					logger.Warn("disconnect mongo", "error", err)
				}
			},
		}, nil

	case config.DriverPostgres:
		if err := runMigrations(ctx, cfg, logger); err != nil {
			return stores{}, err
		}
		pool, err := pgstore.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return stores{}, err
		}
		return stores{
			quizzes:   pgstore.NewQuizRepository(pool),
			questions: pgstore.NewQuestionRepository(pool),
			attempts:  pgstore.NewAttemptRepository(pool),
			close:     pool.Close,
		}, nil

	default:
		return stores{}, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
