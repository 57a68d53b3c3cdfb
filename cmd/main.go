package main

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

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/sandpit-systems/beachline/config"
	"github.com/sandpit-systems/beachline/db"
	"github.com/sandpit-systems/beachline/handlers"
	"github.com/sandpit-systems/beachline/repositories"
	api "github.com/sandpit-systems/beachline/routes"
	"github.com/sandpit-systems/beachline/services"
	"github.com/sandpit-systems/beachline/storage"
)

// lockSyncInterval bounds how stale a tournament's lock flags can be when
// nobody touches it: every lock-dependent operation syncs lazily, the ticker
// catches idle tournaments.
const lockSyncInterval = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	var uploader storage.FileUploader
	if cfg.R2Configured() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Info("R2 credentials absent, logo upload disabled")
	}

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	entryRepo := repositories.NewPostgresEntryRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	scoringConfigRepo := repositories.NewPostgresScoringConfigRepository(dbConn)
	scoringRunRepo := repositories.NewPostgresScoringRunRepository(dbConn)
	fantasyRepo := repositories.NewPostgresFantasyTeamRepository(dbConn)
	leagueRepo := repositories.NewPostgresLeagueRepository(dbConn)
	auditRepo := repositories.NewPostgresAuditRepository(dbConn)
	logger.Info("repositories initialized")

	clock := services.Clock(time.Now)
	auditService := services.NewAuditService(auditRepo, clock)
	lockService := services.NewLockService(tournamentRepo, auditService, clock, logger)
	authService := services.NewAuthService(userRepo, cfg.JWTSecretKey)
	tournamentService := services.NewTournamentService(tournamentRepo, scoringConfigRepo, lockService, auditService, uploader, clock)
	entryService := services.NewEntryService(entryRepo, tournamentRepo, playerRepo, lockService, auditService)
	matchService := services.NewMatchService(matchRepo, tournamentRepo, entryRepo, lockService, auditService, clock)
	leagueService := services.NewLeagueService(leagueRepo, tournamentRepo, scoringRunRepo, userRepo, auditService, clock)
	scoringService := services.NewScoringService(
		scoringConfigRepo, scoringRunRepo, matchRepo, entryRepo, fantasyRepo,
		tournamentRepo, leagueRepo, leagueService, auditService, clock,
	)
	fantasyService := services.NewFantasyService(fantasyRepo, tournamentRepo, entryRepo, lockService, auditService)
	logger.Info("services initialized")

	// Background lock sync so idle tournaments still converge on time.
	go func() {
		ticker := time.NewTicker(lockSyncInterval)
		defer ticker.Stop()
		logger.Info("lineup lock scheduler started", slog.Duration("interval", lockSyncInterval))

		if err := lockService.SyncLocks(context.Background()); err != nil {
			logger.Error("lock scheduler: initial run failed", slog.Any("error", err))
		}
		for range ticker.C {
			if err := lockService.SyncLocks(context.Background()); err != nil {
				logger.Error("lock scheduler: periodic run failed", slog.Any("error", err))
			}
		}
	}()

	authHandler := handlers.NewAuthHandler(authService)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService)
	entryHandler := handlers.NewEntryHandler(entryService)
	matchHandler := handlers.NewMatchHandler(matchService)
	scoringHandler := handlers.NewScoringHandler(scoringService)
	fantasyHandler := handlers.NewFantasyHandler(fantasyService)
	leagueHandler := handlers.NewLeagueHandler(leagueService)
	auditHandler := handlers.NewAuditHandler(auditService)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		authService,
		authHandler,
		tournamentHandler,
		entryHandler,
		matchHandler,
		scoringHandler,
		fantasyHandler,
		leagueHandler,
		auditHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
	}
	logger.Info("application exited")
}
