package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"quiz-api/internal/app"
)

// RouterConfig controls the engine-wide middleware.
type RouterConfig struct {
	// Mode is a gin mode: debug, release or test.
	Mode        string
	CORSOrigins []string
	Logger      *slog.Logger
}

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(catalog *app.CatalogService, attempts *app.AttemptService, cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(
		RequestIDMiddleware(),
		RecoveryMiddleware(logger),
		LoggerMiddleware(logger),
		MetricsMiddleware(),
		corsMiddleware(cfg.CORSOrigins),
		SecurityMiddleware(),
	)
	router.HandleMethodNotAllowed = true
	router.NoRoute(func(c *gin.Context) {
		abortWithError(c, http.StatusNotFound, "Not Found", "no route for "+c.Request.Method+" "+c.Request.URL.Path)
	})
	router.NoMethod(func(c *gin.Context) {
		abortWithError(c, http.StatusMethodNotAllowed, "Method Not Allowed", "")
	})

	router.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	base := BaseHandler{logger: logger}
	quizzes := NewQuizHandler(base, catalog, attempts)
	questions := NewQuestionHandler(base, catalog)
	play := NewAttemptHandler(base, attempts)

	q := router.Group("/quizzes")
	{
		q.POST("", quizzes.CreateQuiz)
		q.GET("", quizzes.ListQuizzes)
		q.GET("/:id", quizzes.GetQuiz)
		q.PATCH("/:id", quizzes.UpdateQuiz)
		q.DELETE("/:id", quizzes.DeleteQuiz)
		q.GET("/:id/questions", quizzes.ListQuizQuestions)
		q.POST("/:id/play", play.StartQuiz)
		q.GET("/:id/attempts", play.ListAttemptsForQuiz)
	}

	qs := router.Group("/questions")
	{
		qs.POST("", questions.CreateQuestion)
		qs.GET("", questions.ListQuestions)
		qs.GET("/:id", questions.GetQuestion)
		qs.PATCH("/:id", questions.UpdateQuestion)
		qs.DELETE("/:id", questions.DeleteQuestion)
	}

	a := router.Group("/quiz-attempts")
	{
		a.GET("/:id", play.GetAttempt)
		a.POST("/:id/answers", play.SubmitAnswer)
		a.POST("/:id/complete", play.CompleteAttempt)
		a.POST("/:id/abandon", play.AbandonAttempt)
	}

	router.GET("/players/:email/attempts", play.ListPlayerAttempts)

	return router
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
