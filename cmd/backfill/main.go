// Backfill loads historical seasons into the cache one at a time. Seasons
// come from BACKFILL_SEASONS, or from the configured game key table when
// that is empty. Historical rows never expire, so this normally runs once.
package main

import (
	"context"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	"leaguedash/internal/client"
	"leaguedash/internal/config"
	"leaguedash/internal/repository"
	"leaguedash/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	setupLogger()

	log.Info().Msg("Starting LeagueDash historical backfill")

	cfg := config.MustLoad()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal, aborting backfill...")
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

	svc := service.New(cfg, apiClient, db, nil)

	seasons := cfg.BackfillSeasons
	if len(seasons) == 0 {
		for _, season := range cfg.GameKeySeasons {
			if season < cfg.CurrentSeason {
				seasons = append(seasons, season)
			}
		}
	}
	sort.Ints(seasons)

	if len(seasons) == 0 {
		log.Warn().Msg("No seasons to backfill")
		return
	}

	log.Info().Ints("seasons", seasons).Msg("Backfilling seasons")

	failed := 0
	for _, season := range seasons {
		if ctx.Err() != nil {
			log.Warn().Msg("Backfill aborted")
			break
		}

		start := time.Now()
		scores, err := svc.RefreshSeason(ctx, season)
		if err != nil {
			log.Error().Err(err).Int("season", season).Msg("Season backfill failed")
			failed++
			continue
		}
		log.Info().
			Int("season", season).
			Int("teams", len(scores)).
			Dur("duration", time.Since(start)).
			Msg("Season backfilled")
	}

	if failed > 0 {
		log.Warn().Int("failed", failed).Msg("Backfill finished with failures")
		os.Exit(1)
	}
	log.Info().Msg("Backfill complete")
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
