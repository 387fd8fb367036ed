package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizrunner/internal/config"
	"github.com/stemsi/quizrunner/internal/database"
	"github.com/stemsi/quizrunner/internal/handler"
	"github.com/stemsi/quizrunner/internal/logger"
	"github.com/stemsi/quizrunner/internal/repository"
	"github.com/stemsi/quizrunner/internal/router"
	"github.com/stemsi/quizrunner/internal/service"
	"github.com/stemsi/quizrunner/internal/validator"
	"github.com/stemsi/quizrunner/internal/view"
	"github.com/stemsi/quizrunner/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("handoff_store", cfg.HandoffStore).
		Msg("Starting Quiz Runner")

	if cfg.QuizAPIURL == "" {
		log.Warn().Msg("QUIZ_API_URL is not set; the landing page will report a fetch error")
	}

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Handoff Store ─────────────────────────────────────────────────
	var (
		handoffs repository.HandoffRepository
		purger   worker.HandoffPurger
		rdb      *redis.Client
	)
	switch cfg.HandoffStore {
	case config.HandoffStoreRedis:
		client, err := database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		rdb = client
		// Redis expires handoffs on its own; nothing to purge.
		handoffs = repository.NewRedisHandoffRepository(rdb, cfg.HandoffTTL)
	case config.HandoffStoreMemory:
		mem := repository.NewMemoryHandoffRepository(cfg.HandoffTTL)
		handoffs = mem
		purger = mem
	default:
		log.Fatal().Str("handoff_store", cfg.HandoffStore).Msg("Unknown HANDOFF_STORE")
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// ─── Initialize Services ──────────────────────────────────────────
	loaderService := service.NewLoaderService(cfg, handoffs, log)
	runnerService := service.NewRunnerService(cfg, handoffs, log)
	contentService := service.NewContentService()
	pages := view.NewBuilder(contentService)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Page:    handler.NewPageHandler(loaderService, runnerService, pages, log),
		Quiz:    handler.NewQuizHandler(loaderService),
		Session: handler.NewSessionHandler(runnerService, contentService, pages),
		WS:      handler.NewWSHandler(runnerService, pages, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	sweeper := worker.NewSweeperWorker(runnerService, purger, cfg.SessionIdle, log)
	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		sweeper.Start(workerCtx)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ctx, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Close live sessions; this also ends hijacked WebSocket streams.
	runnerService.Shutdown()

	// 3. Stop background workers.
	workerCancel()
	<-sweeperDone

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
