package repository

import (
	"context"
	"fmt"
	"time"

	"leaguedash/internal/models"

	"github.com/rs/zerolog/log"
)

// MatchupRepository handles weekly matchup score database operations
type MatchupRepository struct {
	db *Database
}

// ReplaceSeason replaces all weekly scores for a league season
func (r *MatchupRepository) ReplaceSeason(ctx context.Context, leagueKey string, season int, matchups []*models.Matchup) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM matchups WHERE league_key = $1 AND season = $2`,
		leagueKey, season,
	); err != nil {
		return fmt.Errorf("failed to delete matchups: %w", err)
	}

	query := `
		INSERT INTO matchups (
			league_key, season, week, team_key, points,
			opponent_team_key, status, cached_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	now := time.Now().UTC()
	for _, m := range matchups {
		m.CachedAt = now
		err := tx.QueryRow(
			ctx, query,
			leagueKey, season, m.Week, m.TeamKey, m.Points,
			m.OpponentTeamKey, m.Status, m.CachedAt,
		).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert matchup: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit matchups: %w", err)
	}

	log.Debug().
		Str("league_key", leagueKey).
		Int("season", season).
		Int("count", len(matchups)).
		Msg("Matchups replaced")

	return nil
}

// ReplaceWeek replaces the scores for a single week of a season. Used by the
// live-week poller so a refresh never touches closed weeks.
func (r *MatchupRepository) ReplaceWeek(ctx context.Context, leagueKey string, season, week int, matchups []*models.Matchup) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM matchups WHERE league_key = $1 AND season = $2 AND week = $3`,
		leagueKey, season, week,
	); err != nil {
		return fmt.Errorf("failed to delete week matchups: %w", err)
	}

	query := `
		INSERT INTO matchups (
			league_key, season, week, team_key, points,
			opponent_team_key, status, cached_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	now := time.Now().UTC()
	for _, m := range matchups {
		m.CachedAt = now
		err := tx.QueryRow(
			ctx, query,
			leagueKey, season, week, m.TeamKey, m.Points,
			m.OpponentTeamKey, m.Status, m.CachedAt,
		).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert week matchup: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit week matchups: %w", err)
	}

	return nil
}

// GetBySeason retrieves all weekly scores for a league season ordered by
// week then team key
func (r *MatchupRepository) GetBySeason(ctx context.Context, leagueKey string, season int) ([]models.Matchup, error) {
	query := `
		SELECT id, league_key, season, week, team_key, points,
		       opponent_team_key, status, cached_at, created_at, updated_at
		FROM matchups
		WHERE league_key = $1 AND season = $2
		ORDER BY week, team_key
	`

	rows, err := r.db.Pool.Query(ctx, query, leagueKey, season)
	if err != nil {
		return nil, fmt.Errorf("failed to get matchups: %w", err)
	}
	defer rows.Close()

	var matchups []models.Matchup
	for rows.Next() {
		var m models.Matchup
		err := rows.Scan(
			&m.ID, &m.LeagueKey, &m.Season, &m.Week, &m.TeamKey, &m.Points,
			&m.OpponentTeamKey, &m.Status, &m.CachedAt, &m.CreatedAt, &m.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan matchup: %w", err)
		}
		matchups = append(matchups, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matchups: %w", err)
	}

	return matchups, nil
}

// GetAll retrieves every cached matchup for a league across all seasons
func (r *MatchupRepository) GetAll(ctx context.Context, leagueKey string) ([]models.Matchup, error) {
	query := `
		SELECT id, league_key, season, week, team_key, points,
		       opponent_team_key, status, cached_at, created_at, updated_at
		FROM matchups
		WHERE league_key = $1
		ORDER BY season, week, team_key
	`

	rows, err := r.db.Pool.Query(ctx, query, leagueKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get matchups: %w", err)
	}
	defer rows.Close()

	var matchups []models.Matchup
	for rows.Next() {
		var m models.Matchup
		err := rows.Scan(
			&m.ID, &m.LeagueKey, &m.Season, &m.Week, &m.TeamKey, &m.Points,
			&m.OpponentTeamKey, &m.Status, &m.CachedAt, &m.CreatedAt, &m.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan matchup: %w", err)
		}
		matchups = append(matchups, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matchups: %w", err)
	}

	return matchups, nil
}

// OldestCachedAt returns the oldest cached_at among a season's matchups.
// The whole season set is only as fresh as its stalest row.
func (r *MatchupRepository) OldestCachedAt(ctx context.Context, leagueKey string, season int) (time.Time, error) {
	query := `
		SELECT COALESCE(MIN(cached_at), 'epoch'::timestamptz)
		FROM matchups
		WHERE league_key = $1 AND season = $2
	`

	var cachedAt time.Time
	if err := r.db.Pool.QueryRow(ctx, query, leagueKey, season).Scan(&cachedAt); err != nil {
		return time.Time{}, fmt.Errorf("failed to get oldest matchup cached_at: %w", err)
	}

	return cachedAt, nil
}
