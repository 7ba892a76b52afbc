// Package scheduler runs the background refresh jobs: a nightly full
// refresh of the current season and a live-week poller that repolls the
// scoreboard while the season is in progress.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"leaguedash/internal/config"
	"leaguedash/internal/service"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Scheduler manages background refresh tasks
type Scheduler struct {
	cfg      *config.Config
	svc      *service.Service
	cron     *cron.Cron
	ticker   *time.Ticker
	stopChan chan struct{}
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg *config.Config, svc *service.Service) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		svc:      svc,
		cron:     cron.New(),
		stopChan: make(chan struct{}),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info().Msg("Scheduler starting...")

	// Nightly full refresh of the current season
	if _, err := s.cron.AddFunc(s.cfg.NightlyRefreshCron, func() {
		log.Info().Msg("Running nightly refresh...")
		if _, err := s.svc.RefreshSeason(ctx, s.cfg.CurrentSeason); err != nil {
			log.Error().Err(err).Msg("Nightly refresh failed")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule nightly refresh: %w", err)
	}

	s.cron.Start()
	log.Info().
		Str("schedule", s.cfg.NightlyRefreshCron).
		Msg("Nightly refresh scheduled")

	// Live-week polling ticker. Cached weeks that have gone final are
	// never refetched, so off-season ticks are cheap no-ops.
	interval := time.Duration(s.cfg.LiveWeekPollInterval) * time.Second
	s.ticker = time.NewTicker(interval)
	log.Info().
		Dur("interval", interval).
		Msg("Live week polling started")

	go s.pollLiveWeek(ctx)

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")

	if s.cron != nil {
		s.cron.Stop()
	}

	if s.ticker != nil {
		s.ticker.Stop()
	}

	close(s.stopChan)
	log.Info().Msg("Scheduler stopped")
}

// pollLiveWeek continuously repolls the current week's scoreboard
func (s *Scheduler) pollLiveWeek(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Context cancelled, stopping live week polling")
			return
		case <-s.stopChan:
			log.Info().Msg("Stop signal received, stopping live week polling")
			return
		case <-s.ticker.C:
			start := time.Now()
			if err := s.svc.RefreshLiveWeek(ctx); err != nil {
				log.Error().Err(err).Msg("Live week refresh failed")
				continue
			}
			log.Debug().
				Dur("duration", time.Since(start)).
				Msg("Live week refresh complete")
		}
	}
}
