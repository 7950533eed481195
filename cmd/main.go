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

	"github.com/scrabblecast/overlay-system/broadcast"
	"github.com/scrabblecast/overlay-system/config"
	"github.com/scrabblecast/overlay-system/db"
	"github.com/scrabblecast/overlay-system/handlers"
	"github.com/scrabblecast/overlay-system/repositories"
	api "github.com/scrabblecast/overlay-system/routes"
	"github.com/scrabblecast/overlay-system/services"
	"github.com/scrabblecast/overlay-system/storage"
	"github.com/scrabblecast/overlay-system/tsh"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
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

	// Хранилище фото игроков (Cloudflare R2). Необязательное: без него
	// загрузка фото отвечает 503, всё остальное работает.
	var uploader storage.FileUploader
	if cfg.R2Configured() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2Config{
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
		logger.Warn("Cloudflare R2 not configured, photo uploads disabled")
	}

	// WebSocket-хаб для оверлеев
	wsHub := broadcast.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket hub started")

	// Репозитории
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	dataRepo := repositories.NewPostgresTournamentDataRepository(dbConn)
	divisionRepo := repositories.NewPostgresDivisionRepository(dbConn)
	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	gameRepo := repositories.NewPostgresGameRepository(dbConn)
	currentMatchRepo := repositories.NewPostgresCurrentMatchRepository(dbConn)
	logger.Info("repositories initialized")

	// Сервисы
	loader := tsh.NewLoader()
	authService := services.NewAuthService(userRepo)
	userService := services.NewUserService(userRepo)
	pollService := services.NewPollService(
		dbConn,
		tournamentRepo,
		dataRepo,
		divisionRepo,
		playerRepo,
		gameRepo,
		loader,
		wsHub,
		logger,
		cfg.SaveDataVersions,
	)
	tournamentService := services.NewTournamentService(
		dbConn,
		tournamentRepo,
		dataRepo,
		divisionRepo,
		playerRepo,
		pollService,
		logger,
	)
	overlayService := services.NewOverlayService(tournamentRepo, dataRepo, divisionRepo, playerRepo, gameRepo)
	playerService := services.NewPlayerService(playerRepo, tournamentRepo, uploader)
	currentMatchService := services.NewCurrentMatchService(currentMatchRepo, divisionRepo, gameRepo)
	logger.Info("services initialized")

	// Планировщик опроса турнирных файлов
	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	go pollService.Run(schedulerCtx, cfg.PollInterval)

	// HTTP-обработчики
	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	userHandler := handlers.NewUserHandler(userService)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService, overlayService)
	overlayHandler := handlers.NewOverlayHandler(overlayService)
	playerHandler := handlers.NewPlayerHandler(playerService)
	currentMatchHandler := handlers.NewCurrentMatchHandler(currentMatchService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, tournamentService, logger)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		authHandler,
		userHandler,
		tournamentHandler,
		overlayHandler,
		playerHandler,
		currentMatchHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
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
		stopScheduler()

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		} else {
			logger.Info("server shut down gracefully")
		}
	}
}
