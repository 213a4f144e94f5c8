package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/studymate/studymate-backend/internal/config"
	"github.com/studymate/studymate-backend/internal/database"
	"github.com/studymate/studymate-backend/internal/exam"
	"github.com/studymate/studymate-backend/internal/handler"
	"github.com/studymate/studymate-backend/internal/logger"
	"github.com/studymate/studymate-backend/internal/repository"
	"github.com/studymate/studymate-backend/internal/router"
	"github.com/studymate/studymate-backend/internal/service"
	"github.com/studymate/studymate-backend/internal/validator"
	"github.com/studymate/studymate-backend/internal/worker"
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
		Msg("Starting StudyMate Backend")

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
	userRepo := repository.NewUserRepository(pool)
	noteRepo := repository.NewNoteRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	reportRepo := repository.NewReportRepository(pool)

	clocks := func(userID, noteID uuid.UUID) exam.ClockStore {
		key := config.CacheKey.ExamClockKey(userID.String(), noteID.String())
		return repository.NewClockStore(rdb, key, cfg.ClockTTL)
	}

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, userRepo)
	noteService := service.NewNoteService(noteRepo)
	moderationService := service.NewModerationService(questionRepo)
	reportService := service.NewReportService(reportRepo, rdb, log)
	sessionService := service.NewExamSessionService(
		noteService,
		reportService,
		reportService,
		userRepo,
		clocks,
		service.ExamSessionConfig{
			BatchSize:   cfg.ExamBatchSize,
			IdleTimeout: cfg.SessionIdleTimeout,
		},
		log,
	)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Note:       handler.NewNoteHandler(noteService),
		Moderation: handler.NewModerationHandler(moderationService),
		Exam:       handler.NewExamHandler(sessionService),
		WS:         handler.NewWSHandler(sessionService, log, cfg.AllowedOrigins),
		Report:     handler.NewReportHandler(reportService, log),
		System:     handler.NewSystemHandler(rdb, sessionService, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	reportWorker := worker.NewReportWorker(pool, rdb, log)
	reportDone := make(chan struct{})
	go func() {
		defer close(reportDone)
		reportWorker.Start(workerCtx)
	}()

	sweeper := worker.NewSessionSweeper(sessionService, cfg.SessionSweepInterval, log)
	if err := sweeper.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule session sweeper")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ctx, authService, handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
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

	// 2. Stop exam runners and wait for in-flight report sends to return.
	sweeper.Stop()
	if err := sessionService.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Int("sessions", sessionService.Active()).Msg("Exam sessions did not stop in time")
	}

	// 3. Stop the report worker and wait for its queue to drain.
	workerCancel()
	select {
	case <-reportDone:
	case <-time.After(10 * time.Second):
		log.Warn().Msg("Report worker did not drain in time")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
