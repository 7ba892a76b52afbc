package repository

import (
	"context"
	"fmt"
	"time"

	"leaguedash/internal/models"

	"github.com/rs/zerolog/log"
)

// StandingRepository handles standings database operations
type StandingRepository struct {
	db *Database
}

// ReplaceSeason replaces the full standings set for a league season.
// Cached sets are always fully replaced, never patched row by row, so a
// reader never sees a mix of stale and fresh rows for one season.
func (r *StandingRepository) ReplaceSeason(ctx context.Context, leagueKey string, season int, standings []*models.Standing) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM standings WHERE league_key = $1 AND season = $2`,
		leagueKey, season,
	); err != nil {
		return fmt.Errorf("failed to delete standings: %w", err)
	}

	query := `
		INSERT INTO standings (
			league_key, season, team_key, team_name, owner,
			rank, wins, losses, ties, points_for, points_against, cached_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`

	now := time.Now().UTC()
	for _, s := range standings {
		s.CachedAt = now
		err := tx.QueryRow(
			ctx, query,
			leagueKey, season, s.TeamKey, s.TeamName, s.Owner,
			s.Rank, s.Wins, s.Losses, s.Ties, s.PointsFor, s.PointsAgainst, s.CachedAt,
		).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert standing: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit standings: %w", err)
	}

	log.Debug().
		Str("league_key", leagueKey).
		Int("season", season).
		Int("count", len(standings)).
		Msg("Standings replaced")

	return nil
}

// GetBySeason retrieves all standings for a league season, best rank first
func (r *StandingRepository) GetBySeason(ctx context.Context, leagueKey string, season int) ([]models.Standing, error) {
	query := `
		SELECT id, league_key, season, team_key, team_name, owner,
		       rank, wins, losses, ties, points_for, points_against,
		       cached_at, created_at, updated_at
		FROM standings
		WHERE league_key = $1 AND season = $2
		ORDER BY rank
	`

	rows, err := r.db.Pool.Query(ctx, query, leagueKey, season)
	if err != nil {
		return nil, fmt.Errorf("failed to get standings: %w", err)
	}
	defer rows.Close()

	var standings []models.Standing
	for rows.Next() {
		var s models.Standing
		err := rows.Scan(
			&s.ID, &s.LeagueKey, &s.Season, &s.TeamKey, &s.TeamName, &s.Owner,
			&s.Rank, &s.Wins, &s.Losses, &s.Ties, &s.PointsFor, &s.PointsAgainst,
			&s.CachedAt, &s.CreatedAt, &s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan standing: %w", err)
		}
		standings = append(standings, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating standings: %w", err)
	}

	return standings, nil
}

// Seasons returns the distinct seasons with cached standings, oldest first
func (r *StandingRepository) Seasons(ctx context.Context, leagueKey string) ([]int, error) {
	query := `
		SELECT DISTINCT season FROM standings
		WHERE league_key = $1
		ORDER BY season
	`

	rows, err := r.db.Pool.Query(ctx, query, leagueKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list seasons: %w", err)
	}
	defer rows.Close()

	var seasons []int
	for rows.Next() {
		var season int
		if err := rows.Scan(&season); err != nil {
			return nil, fmt.Errorf("failed to scan season: %w", err)
		}
		seasons = append(seasons, season)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating seasons: %w", err)
	}

	return seasons, nil
}

// Count returns the number of cached standings rows for a league
func (r *StandingRepository) Count(ctx context.Context, leagueKey string) (int, error) {
	query := `SELECT COUNT(*) FROM standings WHERE league_key = $1`

	var count int
	if err := r.db.Pool.QueryRow(ctx, query, leagueKey).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count standings: %w", err)
	}

	return count, nil
}
