package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizguard-backend/internal/activity"
	"github.com/stemsi/quizguard-backend/internal/config"
	"github.com/stemsi/quizguard-backend/internal/database"
	"github.com/stemsi/quizguard-backend/internal/handler"
	"github.com/stemsi/quizguard-backend/internal/logger"
	"github.com/stemsi/quizguard-backend/internal/middleware"
	"github.com/stemsi/quizguard-backend/internal/repository"
	"github.com/stemsi/quizguard-backend/internal/router"
	"github.com/stemsi/quizguard-backend/internal/service"
	"github.com/stemsi/quizguard-backend/internal/validator"
	"github.com/stemsi/quizguard-backend/internal/worker"
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
		Msg("Starting QuizGuard Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	attemptRepo := repository.NewAttemptRepository(pool)
	quizRepo := repository.NewQuizRepository(pool)
	resumeRepo := repository.NewResumeRequestRepository(pool)
	activityRepo := repository.NewActivityRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	publisher := activity.NewRedisPublisher(rdb)
	attemptService := service.NewAttemptService(attemptRepo, quizRepo, publisher, log)
	resumeService := service.NewResumeService(resumeRepo, attemptRepo, publisher, log)
	activityService := service.NewActivityService(activityRepo)
	monitorService := service.NewMonitorService(resumeService, activityService, log)

	// ─── Rate Limiting ────────────────────────────────────────────────
	var (
		tabSwitchLimit gin.HandlerFunc
		wsLimiter      handler.TabSwitchLimiter
	)
	if cfg.TabSwitchRateLimit > 0 {
		limiter := middleware.NewRateLimiter(rdb, cfg.TabSwitchRateLimit, cfg.TabSwitchRateWindow, log)
		tabSwitchLimit = limiter.TabSwitchMiddleware()
		wsLimiter = limiter
	} else {
		log.Warn().Msg("Tab-switch rate limiting disabled")
	}

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Quiz:    handler.NewQuizHandler(attemptService, resumeService, log),
		Teacher: handler.NewTeacherHandler(resumeService, activityService, log),
		Monitor: handler.NewMonitorHandler(rdb, monitorService, log),
		WS:      handler.NewWSHandler(attemptService, wsLimiter, log, cfg.AllowedOrigins),
		System:  handler.NewSystemHandler(pool, rdb, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	activityWorker := worker.NewActivityWorker(pool, rdb, cfg.ActivityBatchSize, log)
	workers.Add(1)
	go func() {
		defer workers.Done()
		activityWorker.Start(workerCtx)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, tabSwitchLimit, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}
	// Shutdown waits for active requests; monitor streams never finish on
	// their own, so they are told to close.
	srv.RegisterOnShutdown(handlers.Monitor.Close)

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

	// 1. Stop accepting new HTTP requests, end open monitor streams and
	// let in-flight requests finish.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the activity worker and wait for its buffer to flush.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
