package service

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"leaguedash/internal/freshness"
	"leaguedash/internal/metrics"
	"leaguedash/internal/models"
	"leaguedash/internal/scoring"

	"github.com/rs/zerolog/log"
)

// Rivalries returns the all-time head-to-head table, rebuilding it from the
// cached seasons when the stored aggregate is stale
func (s *Service) Rivalries(ctx context.Context) ([]models.Rivalry, error) {
	cached, err := s.db.Rivalries.GetAll(ctx, s.cfg.LeagueID)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read cached rivalries, rebuilding")
	}

	// The aggregate spans the current season, so it ages out on the TTL
	if len(cached) > 0 {
		oldest := cached[0].CachedAt
		for i := range cached {
			if cached[i].CachedAt.Before(oldest) {
				oldest = cached[i].CachedAt
			}
		}
		if s.policy.IsFresh(oldest, true, false) {
			metrics.RecordCacheHit("postgres")
			return cached, nil
		}
	}
	metrics.RecordCacheMiss("postgres")

	rivalries, err := s.rebuildRivalries(ctx)
	if err != nil {
		if len(cached) > 0 {
			log.Warn().Err(err).Msg("Rivalry rebuild failed, serving stale aggregate")
			return cached, nil
		}
		return nil, err
	}
	return rivalries, nil
}

// rebuildRivalries aggregates every cached season into the head-to-head
// table and persists the result
func (s *Service) rebuildRivalries(ctx context.Context) ([]models.Rivalry, error) {
	seasons, err := s.db.Standings.Seasons(ctx, s.cfg.LeagueID)
	if err != nil {
		return nil, err
	}

	standingsBySeason := make(map[int][]models.Standing, len(seasons))
	for _, season := range seasons {
		leagueKey, err := s.LeagueKeyForSeason(season)
		if err != nil {
			continue
		}
		standings, err := s.db.Standings.GetBySeason(ctx, leagueKey, season)
		if err != nil {
			log.Warn().Err(err).Int("season", season).Msg("Skipping season in rivalry rebuild")
			continue
		}
		if !freshness.StandingsUsable(standings) {
			log.Warn().Int("season", season).Msg("Standings failed integrity check, skipping in rivalry rebuild")
			continue
		}
		standingsBySeason[season] = standings
	}

	matchups, err := s.db.Matchups.GetAll(ctx, s.cfg.LeagueID)
	if err != nil {
		return nil, err
	}

	rivalries := AggregateRivalries(standingsBySeason, matchups, s.scoringOpts)
	for i := range rivalries {
		rivalries[i].LeagueKey = s.cfg.LeagueID
	}

	if err := s.db.Rivalries.ReplaceAll(ctx, s.cfg.LeagueID, rivalries); err != nil {
		log.Warn().Err(err).Msg("Failed to persist rivalries, returning in-memory result")
	}

	s.cache.Invalidate(ctx, "rivalries")
	return rivalries, nil
}

type rivalryKey struct {
	ownerA string
	ownerB string
}

type meetingKey struct {
	season int
	week   int
	teamA  string
	teamB  string
}

// AggregateRivalries folds every head-to-head meeting across seasons into
// one row per owner pair. Owners are resolved per season so a team that
// changes hands counts toward the right person. Matchups without an
// opponent link, or whose opponent score is missing for the week, are
// skipped.
func AggregateRivalries(standingsBySeason map[int][]models.Standing, matchups []models.Matchup, opts *scoring.Options) []models.Rivalry {
	ownersByseason := make(map[int]map[string]string, len(standingsBySeason))
	for season, standings := range standingsBySeason {
		owners := make(map[string]string, len(standings))
		for i := range standings {
			owners[standings[i].TeamKey] = scoring.ResolveOwnerName(&standings[i], opts)
		}
		ownersByseason[season] = owners
	}

	// Week scores indexed for opponent-side lookup
	type weekKey struct {
		season int
		week   int
	}
	scores := make(map[weekKey]map[string]float64)
	for _, m := range matchups {
		wk := weekKey{m.Season, m.Week}
		if scores[wk] == nil {
			scores[wk] = make(map[string]float64)
		}
		scores[wk][m.TeamKey] = m.Points
	}

	agg := make(map[rivalryKey]*models.Rivalry)
	seen := make(map[meetingKey]bool)

	for _, m := range matchups {
		if !m.OpponentTeamKey.Valid {
			continue
		}
		owners := ownersByseason[m.Season]
		if owners == nil {
			continue
		}
		ownerSelf, okSelf := owners[m.TeamKey]
		ownerOpp, okOpp := owners[m.OpponentTeamKey.String]
		if !okSelf || !okOpp || ownerSelf == ownerOpp {
			continue
		}

		oppPoints, ok := scores[weekKey{m.Season, m.Week}][m.OpponentTeamKey.String]
		if !ok {
			continue
		}

		// Each meeting appears as two mirrored rows; count it once
		teamA, teamB := m.TeamKey, m.OpponentTeamKey.String
		if teamB < teamA {
			teamA, teamB = teamB, teamA
		}
		mk := meetingKey{m.Season, m.Week, teamA, teamB}
		if seen[mk] {
			continue
		}
		seen[mk] = true

		ownerA, ownerB := ownerSelf, ownerOpp
		pointsA, pointsB := m.Points, oppPoints
		if ownerB < ownerA {
			ownerA, ownerB = ownerB, ownerA
			pointsA, pointsB = pointsB, pointsA
		}

		key := rivalryKey{ownerA, ownerB}
		r := agg[key]
		if r == nil {
			r = &models.Rivalry{OwnerA: ownerA, OwnerB: ownerB}
			agg[key] = r
		}

		r.Meetings++
		r.PointsA += pointsA
		r.PointsB += pointsB
		switch {
		case pointsA > pointsB:
			r.WinsA++
		case pointsB > pointsA:
			r.WinsB++
		default:
			r.Ties++
		}

		if !r.LastSeason.Valid ||
			int(r.LastSeason.Int32) < m.Season ||
			(int(r.LastSeason.Int32) == m.Season && int(r.LastWeek.Int32) < m.Week) {
			r.LastSeason = sql.NullInt32{Int32: int32(m.Season), Valid: true}
			r.LastWeek = sql.NullInt32{Int32: int32(m.Week), Valid: true}
		}
	}

	now := time.Now().UTC()
	result := make([]models.Rivalry, 0, len(agg))
	for _, r := range agg {
		r.AvgMargin = (r.PointsA - r.PointsB) / float64(r.Meetings)
		r.CachedAt = now
		result = append(result, *r)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Meetings != result[j].Meetings {
			return result[i].Meetings > result[j].Meetings
		}
		if result[i].OwnerA != result[j].OwnerA {
			return result[i].OwnerA < result[j].OwnerA
		}
		return result[i].OwnerB < result[j].OwnerB
	})

	return result
}
