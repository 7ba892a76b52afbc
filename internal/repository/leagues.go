package repository

import (
	"context"
	"fmt"
	"time"

	"leaguedash/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// LeagueRepository handles league metadata database operations
type LeagueRepository struct {
	db *Database
}

// Upsert inserts or updates a league season's metadata
func (r *LeagueRepository) Upsert(ctx context.Context, league *models.League) error {
	query := `
		INSERT INTO leagues (
			league_key, season, name, num_teams, regular_season_weeks,
			current_week, is_finished, cached_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (league_key, season) DO UPDATE SET
			name = EXCLUDED.name,
			num_teams = EXCLUDED.num_teams,
			regular_season_weeks = EXCLUDED.regular_season_weeks,
			current_week = EXCLUDED.current_week,
			is_finished = EXCLUDED.is_finished,
			cached_at = EXCLUDED.cached_at,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	league.CachedAt = time.Now().UTC()
	err := r.db.Pool.QueryRow(
		ctx, query,
		league.LeagueKey, league.Season, league.Name, league.NumTeams,
		league.RegularSeasonWeeks, league.CurrentWeek, league.IsFinished,
		league.CachedAt,
	).Scan(&league.ID, &league.CreatedAt, &league.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert league: %w", err)
	}

	log.Debug().
		Str("league_key", league.LeagueKey).
		Int("season", league.Season).
		Str("name", league.Name).
		Msg("League upserted")

	return nil
}

// GetBySeason retrieves league metadata for one season
func (r *LeagueRepository) GetBySeason(ctx context.Context, leagueKey string, season int) (*models.League, error) {
	query := `
		SELECT id, league_key, season, name, num_teams, regular_season_weeks,
		       current_week, is_finished, cached_at, created_at, updated_at
		FROM leagues
		WHERE league_key = $1 AND season = $2
	`

	var league models.League
	err := r.db.Pool.QueryRow(ctx, query, leagueKey, season).Scan(
		&league.ID, &league.LeagueKey, &league.Season, &league.Name,
		&league.NumTeams, &league.RegularSeasonWeeks, &league.CurrentWeek,
		&league.IsFinished, &league.CachedAt, &league.CreatedAt, &league.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("league not found: league_key=%s, season=%d", leagueKey, season)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get league: %w", err)
	}

	return &league, nil
}

// List retrieves all cached league seasons, newest first
func (r *LeagueRepository) List(ctx context.Context, leagueKey string) ([]models.League, error) {
	query := `
		SELECT id, league_key, season, name, num_teams, regular_season_weeks,
		       current_week, is_finished, cached_at, created_at, updated_at
		FROM leagues
		WHERE league_key = $1
		ORDER BY season DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, leagueKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list leagues: %w", err)
	}
	defer rows.Close()

	var leagues []models.League
	for rows.Next() {
		var league models.League
		err := rows.Scan(
			&league.ID, &league.LeagueKey, &league.Season, &league.Name,
			&league.NumTeams, &league.RegularSeasonWeeks, &league.CurrentWeek,
			&league.IsFinished, &league.CachedAt, &league.CreatedAt, &league.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan league: %w", err)
		}
		leagues = append(leagues, league)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leagues: %w", err)
	}

	return leagues, nil
}
