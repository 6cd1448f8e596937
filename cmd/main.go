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

	"github.com/campuscup/league-service/config"
	"github.com/campuscup/league-service/db"
	"github.com/campuscup/league-service/handlers"
	"github.com/campuscup/league-service/metrics"
	"github.com/campuscup/league-service/repositories"
	api "github.com/campuscup/league-service/routes"
	"github.com/campuscup/league-service/services"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if err := db.Migrate(dbConn); err != nil {
		logger.Error("failed to run database migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database migrations applied")

	recorder := metrics.NewService()

	leagueRepo := repositories.NewPostgresLeagueRepository(dbConn)
	groupRepo := repositories.NewPostgresGroupRepository(dbConn)
	stageRepo := repositories.NewPostgresStageRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	standingRepo := repositories.NewPostgresStandingRepository(dbConn)
	fixtureRepo := repositories.NewPostgresFixtureRepository(dbConn)
	seasonRepo := repositories.NewPostgresSeasonRepository(dbConn)
	sportRepo := repositories.NewPostgresSportRepository(dbConn)
	txManager := repositories.NewTxManager(dbConn)
	logger.Info("repositories initialized")

	leagueService := services.NewLeagueService(txManager, leagueRepo, groupRepo, sportRepo, logger)
	stageService := services.NewStageService(txManager, stageRepo, matchRepo, groupRepo, logger)
	matchService := services.NewMatchService(txManager, matchRepo, stageRepo, standingRepo, groupRepo, cfg.DedupeWindow, recorder, logger)
	bracketService := services.NewBracketService(txManager, stageRepo, matchRepo, groupRepo, recorder, logger)
	standingsService := services.NewStandingsService(txManager, standingRepo, groupRepo, logger)
	fixtureService := services.NewFixtureService(fixtureRepo, matchRepo, matchService, cfg.DedupeWindow, logger)
	seasonService := services.NewSeasonService(txManager, seasonRepo, sportRepo, logger)
	importService := services.NewImportService(matchRepo, matchService, groupRepo, recorder, logger)
	logger.Info("services initialized")

	leagueHandler := handlers.NewLeagueHandler(leagueService)
	stageHandler := handlers.NewStageHandler(stageService, bracketService)
	matchHandler := handlers.NewMatchHandler(matchService, importService)
	standingsHandler := handlers.NewStandingsHandler(standingsService)
	fixtureHandler := handlers.NewFixtureHandler(fixtureService)
	seasonHandler := handlers.NewSeasonHandler(seasonService)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		leagueHandler,
		stageHandler,
		matchHandler,
		standingsHandler,
		fixtureHandler,
		seasonHandler,
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
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shut down gracefully")
	}
}
