// Package service orchestrates the read-through cache: dashboard requests
// check the freshness policy against cached rows, and only stale or missing
// data triggers an upstream fetch and a recompute. Redis and Postgres layers
// are optimizations; a computation that cannot be persisted is still
// returned to the caller.
package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"leaguedash/internal/cache"
	"leaguedash/internal/client"
	"leaguedash/internal/config"
	"leaguedash/internal/freshness"
	"leaguedash/internal/metrics"
	"leaguedash/internal/models"
	"leaguedash/internal/repository"
	"leaguedash/internal/scoring"

	"github.com/rs/zerolog/log"
)

// Service wires the upstream client, repositories, response cache, and the
// freshness policy behind the dashboard operations
type Service struct {
	cfg    *config.Config
	client *client.Client
	db     *repository.Database
	cache  *cache.RedisCache
	policy *freshness.Policy

	scoringOpts *scoring.Options

	// seasonGameKeys is the inverse of cfg.GameKeySeasons: season year to
	// upstream game key
	seasonGameKeys map[int]string
}

// New creates a Service. redisCache may be nil; every cache path degrades
// to a recompute.
func New(cfg *config.Config, apiClient *client.Client, db *repository.Database, redisCache *cache.RedisCache) *Service {
	inverse := make(map[int]string, len(cfg.GameKeySeasons))
	for gameKey, season := range cfg.GameKeySeasons {
		inverse[season] = gameKey
	}

	return &Service{
		cfg:    cfg,
		client: apiClient,
		db:     db,
		cache:  redisCache,
		policy: freshness.NewPolicy(cfg.CurrentSeason, cfg.CacheTTL),
		scoringOpts: &scoring.Options{
			OwnerOverrides: cfg.OwnerOverrides,
		},
		seasonGameKeys: inverse,
	}
}

// Policy exposes the freshness policy, mainly for the scheduler
func (s *Service) Policy() *freshness.Policy {
	return s.policy
}

// LeagueKeyForSeason builds the upstream league key for a season year
func (s *Service) LeagueKeyForSeason(season int) (string, error) {
	gameKey, ok := s.seasonGameKeys[season]
	if !ok {
		return "", fmt.Errorf("no game key configured for season %d", season)
	}
	return fmt.Sprintf("%s.l.%s", gameKey, s.cfg.LeagueID), nil
}

// Standings returns the standings for a season, refreshing from the
// upstream when the cached set is stale or fails the integrity check
func (s *Service) Standings(ctx context.Context, season int) ([]models.Standing, error) {
	leagueKey, err := s.LeagueKeyForSeason(season)
	if err != nil {
		return nil, err
	}

	cached, err := s.db.Standings.GetBySeason(ctx, leagueKey, season)
	if err != nil {
		log.Warn().Err(err).Int("season", season).Msg("Failed to read cached standings, refetching")
	}

	if s.standingsFresh(cached, season) {
		metrics.RecordCacheHit("postgres")
		return cached, nil
	}
	metrics.RecordCacheMiss("postgres")

	if _, err := s.RefreshSeason(ctx, season); err != nil {
		// Serve a stale set over nothing when the upstream is down
		if len(cached) > 0 {
			log.Warn().Err(err).Int("season", season).Msg("Refresh failed, serving stale standings")
			return cached, nil
		}
		return nil, err
	}

	refreshed, err := s.db.Standings.GetBySeason(ctx, leagueKey, season)
	if err != nil || len(refreshed) == 0 {
		// Persist may have been degraded during the refresh; an older set
		// beats an empty response
		if len(cached) > 0 {
			return cached, nil
		}
	}
	return refreshed, err
}

// SeasonScores returns the composite dominance scores for a season,
// recomputing when the cached set is stale
func (s *Service) SeasonScores(ctx context.Context, season int) ([]models.CompositeScore, error) {
	leagueKey, err := s.LeagueKeyForSeason(season)
	if err != nil {
		return nil, err
	}

	scores, err := s.db.Scores.GetBySeason(ctx, leagueKey, season)
	if err != nil {
		log.Warn().Err(err).Int("season", season).Msg("Failed to read cached scores, recomputing")
	}

	if s.scoresFresh(ctx, leagueKey, scores, season) {
		metrics.RecordCacheHit("postgres")
		return scores, nil
	}
	metrics.RecordCacheMiss("postgres")

	fresh, err := s.RefreshSeason(ctx, season)
	if err != nil {
		if len(scores) > 0 {
			log.Warn().Err(err).Int("season", season).Msg("Refresh failed, serving stale scores")
			return scores, nil
		}
		return nil, err
	}

	return fresh, nil
}

// Leagues returns the cached league seasons
func (s *Service) Leagues(ctx context.Context) ([]models.League, error) {
	return s.db.Leagues.List(ctx, s.cfg.LeagueID)
}

// RefreshSeason fetches a season from the upstream, recomputes the composite
// scores, and fully replaces the cached rows. Returns the new scores.
func (s *Service) RefreshSeason(ctx context.Context, season int) ([]models.CompositeScore, error) {
	start := time.Now()

	leagueKey, err := s.LeagueKeyForSeason(season)
	if err != nil {
		return nil, err
	}

	log.Info().Str("league_key", leagueKey).Int("season", season).Msg("Refreshing season")

	// League settings give the regular-season length and current week;
	// fall back to configuration when the endpoint is unavailable
	weeks := s.cfg.RegularSeasonWeeks
	maxWeek := weeks
	leagueInput, err := s.client.FetchLeague(ctx, leagueKey)
	if err != nil {
		log.Warn().Err(err).Int("season", season).Msg("Failed to fetch league settings, using configured defaults")
	} else {
		league := leagueInput.ToLeague(season)
		league.LeagueKey = s.cfg.LeagueID
		if league.RegularSeasonWeeks > 0 {
			weeks = league.RegularSeasonWeeks
		}
		if s.policy.IsSeasonCurrent(season) && league.CurrentWeek.Valid {
			if cw := int(league.CurrentWeek.Int32); cw < weeks {
				maxWeek = cw
			} else {
				maxWeek = weeks
			}
		} else {
			maxWeek = weeks
		}
		if err := s.db.Leagues.Upsert(ctx, league); err != nil {
			log.Warn().Err(err).Int("season", season).Msg("Failed to persist league metadata")
		}
	}

	// Standings
	standingInputs, err := s.client.FetchStandings(ctx, leagueKey)
	if err != nil {
		metrics.RecordRefresh("season", "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("failed to fetch standings for season %d: %w", season, err)
	}

	standings := make([]models.Standing, 0, len(standingInputs))
	standingPtrs := make([]*models.Standing, 0, len(standingInputs))
	for i := range standingInputs {
		st := standingInputs[i].ToStanding(leagueKey, season)

		// The owner column must always be populated; cached sets with a
		// missing owner anywhere are rejected wholesale on read
		if !st.Owner.Valid {
			st.Owner = sql.NullString{String: scoring.ResolveOwnerName(st, s.scoringOpts), Valid: true}
		}

		standings = append(standings, *st)
		standingPtrs = append(standingPtrs, st)
	}

	if len(standings) == 0 {
		metrics.RecordRefresh("season", "empty", time.Since(start).Seconds())
		return nil, nil
	}

	if err := s.db.Standings.ReplaceSeason(ctx, leagueKey, season, standingPtrs); err != nil {
		log.Warn().Err(err).Int("season", season).Msg("Failed to persist standings, continuing with in-memory data")
	}

	// Weekly scores, week by week so closed cached weeks are not refetched
	matchups := s.refreshMatchups(ctx, leagueKey, season, maxWeek)

	// Compute and persist composite scores
	computeStart := time.Now()
	scores := scoring.ComputeCompositeScores(standings, matchups, weeks, s.scoringOpts)
	metrics.RecordComputation(time.Since(computeStart).Seconds())

	if err := s.db.Scores.ReplaceSeason(ctx, leagueKey, season, scores); err != nil {
		log.Warn().Err(err).Int("season", season).Msg("Failed to persist composite scores, returning in-memory result")
	}

	s.invalidateSeason(ctx, season)

	metrics.RecordRefresh("season", "success", time.Since(start).Seconds())
	log.Info().
		Int("season", season).
		Int("teams", len(standings)).
		Int("matchups", len(matchups)).
		Dur("duration", time.Since(start)).
		Msg("Season refreshed")

	return scores, nil
}

// RefreshLiveWeek repolls the current week's scoreboard and recomputes the
// current season's scores. Used by the in-season poller.
func (s *Service) RefreshLiveWeek(ctx context.Context) error {
	season := s.cfg.CurrentSeason
	leagueKey, err := s.LeagueKeyForSeason(season)
	if err != nil {
		return err
	}

	week := s.cfg.RegularSeasonWeeks
	if league, err := s.db.Leagues.GetBySeason(ctx, s.cfg.LeagueID, season); err == nil && league.CurrentWeek.Valid {
		week = int(league.CurrentWeek.Int32)
	}

	inputs, err := s.client.FetchScoreboard(ctx, leagueKey, week)
	if err != nil {
		metrics.RecordRefresh("live_week", "error", 0)
		return fmt.Errorf("failed to fetch live week %d: %w", week, err)
	}

	matchups := make([]*models.Matchup, 0, len(inputs))
	for i := range inputs {
		inputs[i].Week = week
		matchups = append(matchups, inputs[i].ToMatchup(leagueKey, season))
	}

	if err := s.db.Matchups.ReplaceWeek(ctx, leagueKey, season, week, matchups); err != nil {
		return fmt.Errorf("failed to persist live week: %w", err)
	}

	// Recompute derived scores from the updated cache
	standings, err := s.db.Standings.GetBySeason(ctx, leagueKey, season)
	if err != nil || len(standings) == 0 {
		// No standings cached yet; the nightly refresh will pick it up
		log.Debug().Int("season", season).Msg("No cached standings for live recompute")
		return nil
	}

	all, err := s.db.Matchups.GetBySeason(ctx, leagueKey, season)
	if err != nil {
		return fmt.Errorf("failed to load matchups for live recompute: %w", err)
	}

	computeStart := time.Now()
	scores := scoring.ComputeCompositeScores(standings, all, s.cfg.RegularSeasonWeeks, s.scoringOpts)
	metrics.RecordComputation(time.Since(computeStart).Seconds())

	if err := s.db.Scores.ReplaceSeason(ctx, leagueKey, season, scores); err != nil {
		return fmt.Errorf("failed to persist live scores: %w", err)
	}

	s.invalidateSeason(ctx, season)
	metrics.RecordRefresh("live_week", "success", 0)
	return nil
}

// refreshMatchups brings a season's weekly scores up to date. Weeks whose
// cached rows are still fresh under the policy are kept; only open or
// missing weeks hit the upstream. Per-week fetch failures degrade to
// whatever is cached; the scoring engine tolerates gaps.
func (s *Service) refreshMatchups(ctx context.Context, leagueKey string, season, maxWeek int) []models.Matchup {
	isCurrent := s.policy.IsSeasonCurrent(season)

	cached, err := s.db.Matchups.GetBySeason(ctx, leagueKey, season)
	if err != nil {
		log.Warn().Err(err).Int("season", season).Msg("Failed to read cached matchups")
	}

	byWeek := make(map[int][]models.Matchup)
	for _, m := range cached {
		byWeek[m.Week] = append(byWeek[m.Week], m)
	}

	var result []models.Matchup
	for week := 1; week <= maxWeek; week++ {
		rows := byWeek[week]
		if len(rows) > 0 {
			status := ""
			if rows[0].Status.Valid {
				status = rows[0].Status.String
			}
			closed := s.policy.IsWeekClosed(season, status)
			if s.policy.IsFresh(oldestMatchupCachedAt(rows), isCurrent, closed) {
				result = append(result, rows...)
				continue
			}
		}

		inputs, err := s.client.FetchScoreboard(ctx, leagueKey, week)
		if err != nil {
			log.Warn().Err(err).Int("season", season).Int("week", week).Msg("Failed to fetch week, keeping cached rows")
			result = append(result, rows...)
			continue
		}

		fresh := make([]*models.Matchup, 0, len(inputs))
		for i := range inputs {
			inputs[i].Week = week
			fresh = append(fresh, inputs[i].ToMatchup(leagueKey, season))
		}

		if err := s.db.Matchups.ReplaceWeek(ctx, leagueKey, season, week, fresh); err != nil {
			log.Warn().Err(err).Int("season", season).Int("week", week).Msg("Failed to persist week")
		}

		for _, m := range fresh {
			result = append(result, *m)
		}
	}

	return result
}

// standingsFresh applies the freshness policy plus the integrity rule to a
// cached standings set
func (s *Service) standingsFresh(standings []models.Standing, season int) bool {
	if len(standings) == 0 {
		return false
	}
	if !freshness.StandingsUsable(standings) {
		return false
	}
	return s.policy.IsFresh(oldestStandingCachedAt(standings), s.policy.IsSeasonCurrent(season), false)
}

// scoresFresh applies the freshness policy to a cached score set, and
// rejects sets whose backing standings fail the integrity rule
func (s *Service) scoresFresh(ctx context.Context, leagueKey string, scores []models.CompositeScore, season int) bool {
	if len(scores) == 0 {
		return false
	}
	for i := range scores {
		if scores[i].Owner == "" {
			return false
		}
	}

	standings, err := s.db.Standings.GetBySeason(ctx, leagueKey, season)
	if err != nil || !freshness.StandingsUsable(standings) {
		return false
	}

	oldest := scores[0].CachedAt
	for i := range scores {
		if scores[i].CachedAt.Before(oldest) {
			oldest = scores[i].CachedAt
		}
	}
	return s.policy.IsFresh(oldest, s.policy.IsSeasonCurrent(season), false)
}

// invalidateSeason drops the Redis response entries touched by a season
// refresh
func (s *Service) invalidateSeason(ctx context.Context, season int) {
	s.cache.Invalidate(ctx,
		fmt.Sprintf("standings:%d", season),
		fmt.Sprintf("scores:%d", season),
		"rivalries",
		"leagues",
	)
}

func oldestStandingCachedAt(standings []models.Standing) time.Time {
	oldest := standings[0].CachedAt
	for i := range standings {
		if standings[i].CachedAt.Before(oldest) {
			oldest = standings[i].CachedAt
		}
	}
	return oldest
}

func oldestMatchupCachedAt(matchups []models.Matchup) time.Time {
	oldest := matchups[0].CachedAt
	for i := range matchups {
		if matchups[i].CachedAt.Before(oldest) {
			oldest = matchups[i].CachedAt
		}
	}
	return oldest
}
