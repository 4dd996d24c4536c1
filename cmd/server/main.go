package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/codementor/internal/api"
	"github.com/dom/codementor/internal/assistant"
	"github.com/dom/codementor/internal/auth"
	"github.com/dom/codementor/internal/config"
	"github.com/dom/codementor/internal/logging"
	"github.com/dom/codementor/internal/repository"
	"github.com/dom/codementor/internal/repository/memory"
	"github.com/dom/codementor/internal/repository/postgres"
	"github.com/dom/codementor/internal/service"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	// Initialize repositories
	repos, err := openRepositories(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize storage", zap.String("storage", cfg.Storage), zap.Error(err))
	}

	tokens, err := auth.NewTokenManager([]byte(cfg.JWTSecret), cfg.JWTExpiry, auth.WithIssuer(cfg.JWTIssuer))
	if err != nil {
		logger.Fatal("failed to initialize token manager", zap.Error(err))
	}

	// Initialize code assistant
	var codeAssistant assistant.Assistant = assistant.Offline{}
	if cfg.GeminiAPIKey != "" {
		gemini, err := assistant.NewGeminiClient(context.Background(), assistant.GeminiConfig{
			APIKey:    cfg.GeminiAPIKey,
			ModelName: cfg.GeminiModel,
		}, logger.Named("gemini"))
		if err != nil {
			logger.Fatal("failed to initialize gemini client", zap.Error(err))
		}
		defer gemini.Close()
		codeAssistant = gemini
	} else {
		logger.Warn("GEMINI_API_KEY not set, code assistant runs offline")
	}

	// Initialize services
	services := service.NewServices(service.Dependencies{
		Repos:     repos,
		Hasher:    auth.NewBcryptHasher(cfg.BcryptCost),
		Tokens:    tokens,
		Assistant: codeAssistant,
		Logger:    logger,
	})

	// Initialize router
	router := api.NewRouter(services, cfg, logger)

	// Create server
	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting",
			zap.String("port", cfg.Port),
			zap.String("environment", cfg.Environment),
			zap.String("storage", cfg.Storage),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return
	}

	logger.Info("server stopped")
}

func openRepositories(cfg *config.Config, logger *zap.Logger) (*repository.Repositories, error) {
	if cfg.Storage == config.StorageMemory {
		if cfg.IsProduction() {
			logger.Warn("memory storage in production loses all accounts on restart")
		}
		return memory.NewRepositories(), nil
	}

	db, err := postgres.NewConnection(cfg.DatabaseURL, logger.Named("postgres"))
	if err != nil {
		return nil, err
	}

	if cfg.MigrateOnStart {
		if err := postgres.Migrate(db, logger.Named("migrate")); err != nil {
			return nil, err
		}
	}

	return postgres.NewRepositories(db), nil
}
