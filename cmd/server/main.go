package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/techsynergy/campus-backend/internal/config"
	"github.com/techsynergy/campus-backend/internal/database"
	"github.com/techsynergy/campus-backend/internal/handler"
	"github.com/techsynergy/campus-backend/internal/logger"
	"github.com/techsynergy/campus-backend/internal/repository"
	"github.com/techsynergy/campus-backend/internal/router"
	"github.com/techsynergy/campus-backend/internal/service"
	"github.com/techsynergy/campus-backend/internal/storage"
	"github.com/techsynergy/campus-backend/internal/validator"
	"github.com/techsynergy/campus-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("kv_driver", cfg.KVDriver).
		Str("storage_driver", cfg.StorageDriver).
		Msg("Starting campus backend")

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

	// ─── Keyed store and object storage ────────────────────────────────
	kv, closeKV, err := database.NewKVStore(cfg, rdb, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open keyed store")
	}
	defer closeKV()

	backend, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise upload storage")
	}

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	profileRepo := repository.NewProfileRepository(pool)
	assignmentRepo := repository.NewAssignmentRepository(pool)
	submissionRepo := repository.NewSubmissionRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb)
	userService := service.NewUserService(userRepo, profileRepo, authService)
	notificationService := service.NewNotificationService(notificationRepo, rdb, log)
	mediaService := service.NewMediaService(cfg, backend)
	fileService := service.NewFileService()
	plagiarismService := service.NewPlagiarismService(cfg, submissionRepo, log)

	aiService, err := service.NewAIService(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise AI client")
	}
	defer aiService.Close()

	assignmentService := service.NewAssignmentService(assignmentRepo, submissionRepo, profileRepo, userRepo,
		mediaService, notificationService, rdb, log)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentService, profileRepo,
		notificationService, rdb, log)
	codingExamService := service.NewCodingExamService(kv, userRepo, notificationService, log)
	studyGroupService := service.NewStudyGroupService(kv, notificationService, log)
	portalService := service.NewPortalService(kv, notificationService, log)

	wizardService := service.NewWizardService(
		service.NewRedisDraftStore(rdb, cfg.DraftTTL),
		log,
		service.NewProfileFlow(profileRepo, mediaService),
		service.NewAssignmentFlow(assignmentService, aiService),
		service.NewExamFlow(codingExamService),
	)

	// ─── Initialize Handlers ──────────────────────────────────────────
	healthChecks := map[string]handler.HealthCheck{
		"postgres": pool.Ping,
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		"kvstore": func(ctx context.Context) error {
			_, err := kv.Keys(ctx, "")
			return err
		},
	}

	handlers := &router.Handlers{
		Auth:         handler.NewAuthHandler(authService, userService),
		Wizard:       handler.NewWizardHandler(wizardService),
		Assignment:   handler.NewAssignmentHandler(assignmentService, submissionService),
		Tools:        handler.NewToolsHandler(plagiarismService, aiService, fileService, cfg.MaxUploadBytes),
		Media:        handler.NewMediaHandler(mediaService),
		CodingExam:   handler.NewCodingExamHandler(codingExamService),
		StudyGroup:   handler.NewStudyGroupHandler(studyGroupService),
		Portal:       handler.NewPortalHandler(portalService),
		Notification: handler.NewNotificationHandler(notificationService),
		WS:           handler.NewWSHandler(notificationService, log, cfg.AllowedOrigins),
		System:       handler.NewSystemHandler(rdb, healthChecks, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	scheduler, err := worker.NewExamScheduler(codingExamService, cfg.ExamPublishSchedule, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid exam publish schedule")
	}

	for _, start := range []func(context.Context){
		worker.NewNotificationWorker(notificationService, rdb, log).Start,
		worker.NewPlagiarismWorker(plagiarismService, rdb, log).Start,
		scheduler.Start,
	} {
		start := start
		workers.Add(1)
		go func() {
			defer workers.Done()
			start(workerCtx)
		}()
	}

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	if err := assignmentService.PrewarmCache(ctx); err != nil {
		log.Warn().Err(err).Msg("Cache prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, rdb, handlers, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

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

	// 1. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for their queues to drain.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}
