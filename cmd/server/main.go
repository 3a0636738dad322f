package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mcoot/gameroom/internal/api"
	"github.com/mcoot/gameroom/internal/factory"
	"github.com/mcoot/gameroom/internal/logger"
	"github.com/mcoot/gameroom/internal/services/auth"
	"github.com/mcoot/gameroom/internal/storage/postgres"
	redisstorage "github.com/mcoot/gameroom/internal/storage/redis"
)

func main() {
	// A missing .env is normal outside development
	envErr := godotenv.Load()

	log := logger.New(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), os.Stdout)
	slog.SetDefault(log)
	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		log.Warn("could not load .env", slog.String("error", envErr.Error()))
	}

	cfg, err := configFromEnv(log)
	if err != nil {
		log.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := factory.New(ctx, cfg)
	if err != nil {
		log.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error("failed to close application", slog.String("error", err.Error()))
		}
	}()

	serverConfig := api.DefaultServerConfig()
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			log.Error("invalid PORT", slog.String("port", port))
			os.Exit(1)
		}
		serverConfig.Port = p
	}
	server := api.NewServer(app.Router(), serverConfig, log, app.Shutdown)
	if err := server.Listen(); err != nil {
		log.Error("failed to listen", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	log.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.StorageType))

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			log.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	log.Info("server stopped")
}

func configFromEnv(log *slog.Logger) (factory.Config, error) {
	authCfg := auth.DefaultConfig()
	authCfg.Secret = os.Getenv("JWT_SECRET")

	cfg := factory.Config{
		AuthConfig:  authCfg,
		Logger:      log,
		StorageType: os.Getenv("STORAGE_TYPE"),
	}

	switch cfg.StorageType {
	case factory.StorageTypeRedis:
		redisURL := os.Getenv("REDIS_URL")
		if redisURL == "" {
			return cfg, errors.New("REDIS_URL required when STORAGE_TYPE=redis")
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = redisURL
		cfg.RedisConfig = &redisCfg
	case factory.StorageTypePostgres:
		dbURL := os.Getenv("DATABASE_URL")
		if dbURL == "" {
			return cfg, errors.New("DATABASE_URL required when STORAGE_TYPE=postgres")
		}
		pgCfg := postgres.DefaultConfig()
		pgCfg.URL = dbURL
		cfg.PostgresConfig = &pgCfg
	}
	return cfg, nil
}
