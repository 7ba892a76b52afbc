// The worker runs the background refresh jobs without the HTTP surface.
// Deploy it alongside the server when the API process should not own the
// schedule, or on its own for headless cache warming.
package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"leaguedash/internal/cache"
	"leaguedash/internal/client"
	"leaguedash/internal/config"
	"leaguedash/internal/repository"
	"leaguedash/internal/scheduler"
	"leaguedash/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	setupLogger()

	log.Info().Msg("Starting LeagueDash refresh worker")

	cfg := config.MustLoad()
	log.Info().
		Str("env", cfg.AppEnv).
		Str("league_id", cfg.LeagueID).
		Msg("Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal, gracefully shutting down...")
		cancel()
	}()

	apiClient := client.NewClient(cfg.FantasyBaseURL, client.Credentials{
		AccessToken:  cfg.FantasyAccessToken,
		RefreshToken: cfg.FantasyRefreshToken,
		TokenURL:     cfg.FantasyTokenURL,
		ClientID:     cfg.FantasyClientID,
		ClientSecret: cfg.FantasyClientSecret,
	}, cfg.FantasyTimeout)

	db, err := repository.NewDatabase(ctx, repository.Config{
		Host:     cfg.DatabaseHost,
		Port:     strconv.Itoa(cfg.DatabasePort),
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("Database connection established")

	redisCache, err := cache.NewRedisCache(ctx, cache.Config{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to connect to Redis - continuing without cache")
		redisCache = nil
	} else {
		defer redisCache.Close()
	}

	svc := service.New(cfg, apiClient, db, redisCache)

	// Warm the current season before the schedule takes over
	log.Info().Msg("Running initial refresh...")
	if _, err := svc.RefreshSeason(ctx, cfg.CurrentSeason); err != nil {
		log.Error().Err(err).Msg("Initial refresh failed, continuing anyway...")
	} else {
		log.Info().Msg("Initial refresh completed successfully")
	}

	sched := scheduler.NewScheduler(cfg, svc)
	if err := sched.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	<-ctx.Done()

	log.Info().Msg("Shutting down scheduler...")
	sched.Stop()

	log.Info().Msg("Worker shutdown complete")
}

// setupLogger configures the zerolog logger
func setupLogger() {
	if os.Getenv("APP_ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	level := zerolog.InfoLevel
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		parsedLevel, err := zerolog.ParseLevel(lvl)
		if err == nil {
			level = parsedLevel
		}
	}
	zerolog.SetGlobalLevel(level)
}
