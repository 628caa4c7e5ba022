package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/devconnector/backend/internal/config"
	"github.com/devconnector/backend/internal/logger"
	"github.com/devconnector/backend/internal/router"
	"github.com/devconnector/backend/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr).With().Timestamp().Logger()
		boot.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.New(cfg.AppEnv, cfg.LogLevel)
	zerolog.DefaultContextLogger = &log

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	client, db, err := services.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		cancel()
		log.Fatal().Err(err).Msg("mongo connect failed")
	}
	if err := services.EnsureIndexes(ctx, db); err != nil {
		log.Warn().Err(err).Msg("index creation failed")
	}
	cancel()
	log.Info().Str("db", cfg.MongoDB).Msg("mongo connected")

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid redis url")
		}
		rdb = redis.NewClient(opts)
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis unreachable, rate limiting will fail open")
		}
		pingCancel()
	} else {
		log.Info().Msg("redis not configured, rate limiting disabled")
	}

	deps := router.Deps{
		Config:   cfg,
		Logger:   log,
		Users:    services.NewMongoUserService(db),
		Profiles: services.NewMongoProfileService(db),
		Posts:    services.NewMongoPostService(db),
		Accounts: services.NewMongoAccountService(db),
		Repos:    services.NewGitHubClient(cfg.GitHubToken, cfg.GitHubAPIURL),
		Ping: func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		},
	}
	// A typed nil would defeat the limiter's nil check.
	if rdb != nil {
		deps.Redis = rdb
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           router.New(deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.ServerAddress).Str("env", cfg.AppEnv).Msg("devconnector api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if err := client.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("mongo disconnect failed")
	}
}
