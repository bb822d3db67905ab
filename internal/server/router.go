// Package server exposes the pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/docquiz/internal/logging"
	"github.com/ppiankov/docquiz/internal/model"
	"github.com/ppiankov/docquiz/internal/worker"
)

type RouterConfig struct {
	QuizHandler  *QuizHandler
	Log          *logging.Logger
	AllowOrigins []string
	// Limiter throttles /api per client; nil disables it
	Limiter *worker.Limiter
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(RequestLogger(cfg.Log))
	if len(cfg.AllowOrigins) > 0 {
		router.Use(CORS(cfg.AllowOrigins))
	}

	router.GET("/healthcheck", HealthCheck)

	api := router.Group("/api")
	if cfg.Limiter != nil {
		api.Use(RateLimit(cfg.Limiter))
	}
	{
		api.POST("/generate-quiz", cfg.QuizHandler.GenerateQuiz)
		api.POST("/analyze-document", cfg.QuizHandler.AnalyzeDocument)
	}

	return router
}

// Server is the HTTP front end of the pipeline
type Server struct {
	http *http.Server
	log  *logging.Logger
}

// New builds the server for svc using the server section of cfg
func New(cfg model.ServerConfig, svc QuizService, log *logging.Logger) *Server {
	log = logging.OrNop(log)
	routerCfg := RouterConfig{
		QuizHandler:  NewQuizHandler(log, svc),
		Log:          log,
		AllowOrigins: cfg.AllowOrigins,
	}
	if cfg.RequestsPerSecond > 0 {
		routerCfg.Limiter = worker.NewLimiter(cfg.RequestsPerSecond, cfg.BurstSize)
	}
	router := NewRouter(routerCfg)

	return &Server{
		http: &http.Server{
			Addr:              cfg.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe serves until ctx is done, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", "addr", s.http.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.log.Info("HTTP server shutting down")
	return s.http.Shutdown(shutdownCtx)
}
