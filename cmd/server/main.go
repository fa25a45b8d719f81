package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	stdlog "github.com/rs/zerolog/log"
	"github.com/stemsi/exstem-proctor/internal/clock"
	"github.com/stemsi/exstem-proctor/internal/config"
	"github.com/stemsi/exstem-proctor/internal/database"
	"github.com/stemsi/exstem-proctor/internal/handler"
	"github.com/stemsi/exstem-proctor/internal/logger"
	"github.com/stemsi/exstem-proctor/internal/middleware"
	"github.com/stemsi/exstem-proctor/internal/router"
	"github.com/stemsi/exstem-proctor/internal/service"
	"github.com/stemsi/exstem-proctor/internal/telemetry"
	"github.com/stemsi/exstem-proctor/internal/validator"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatal().Err(err).Msg("Invalid configuration")
	}

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("storage", cfg.StorageDriver).
		Bool("assignment_required", cfg.AssignmentRequired).
		Msg("Starting ExStem Proctor")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Tracing ───────────────────────────────────────────────────────
	if cfg.TracingEnabled {
		shutdownTracing, err := telemetry.Setup(os.Stdout)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to set up tracing")
		}
		defer func() {
			flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer flushCancel()
			if err := shutdownTracing(flushCtx); err != nil {
				log.Error().Err(err).Msg("Tracing shutdown error")
			}
		}()
	}

	// ─── Connect Storage ───────────────────────────────────────────────
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer store.close()

	clk := clock.Real()

	// ─── Connect to Redis (optional) ───────────────────────────────────
	var denylist service.TokenDenylist
	var loginLimiter *middleware.RateLimiter
	if cfg.RedisURL != "" {
		rdb, err := database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()

		denylist = service.NewRedisDenylist(rdb)
		loginLimiter = middleware.NewRateLimiter(middleware.NewRedisCounter(rdb), cfg.LoginRateLimit, clk, log)
	} else {
		log.Warn().Msg("REDIS_URL not set; logout revocation and login rate limiting are disabled")
	}

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, store.users, denylist, clk, log)
	userService := service.NewUserService(store.users, authService, clk, log)
	examService := service.NewExamService(store.exams, userService, cfg.AssignmentRequired, clk, log)
	attendanceService := service.NewAttendanceService(store.exams, store.attendance, store.users, cfg.AssignmentRequired, clk, log)
	gate := service.NewAccessGate(store.exams, attendanceService, cfg.AssignmentRequired, clk, log)
	submissionService := service.NewSubmissionService(store.exams, store.results, attendanceService, cfg.AssignmentRequired, clk, log)
	evaluationService := service.NewEvaluationService(store.results, store.exams, cfg.AllowReevaluation, clk, log)
	mediaService := service.NewMediaService(cfg, submissionService, clk, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:          handler.NewAuthHandler(authService, userService),
		Exam:          handler.NewExamHandler(examService, userService),
		StudentPortal: handler.NewStudentPortalHandler(examService, gate, submissionService, attendanceService),
		Evaluation:    handler.NewEvaluationHandler(evaluationService),
		Attendance:    handler.NewAttendanceHandler(attendanceService),
		Media:         handler.NewMediaHandler(mediaService),
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(cfg, authService, handlers, loginLimiter, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
