package repository

import (
	"context"
	"fmt"
	"time"

	"leaguedash/internal/models"

	"github.com/rs/zerolog/log"
)

// RivalryRepository handles head-to-head aggregate database operations
type RivalryRepository struct {
	db *Database
}

// ReplaceAll replaces the full rivalry matrix for a league
func (r *RivalryRepository) ReplaceAll(ctx context.Context, leagueKey string, rivalries []models.Rivalry) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM rivalries WHERE league_key = $1`,
		leagueKey,
	); err != nil {
		return fmt.Errorf("failed to delete rivalries: %w", err)
	}

	query := `
		INSERT INTO rivalries (
			league_key, owner_a, owner_b, meetings, wins_a, wins_b, ties,
			points_a, points_b, avg_margin, last_season, last_week, cached_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at
	`

	now := time.Now().UTC()
	for i := range rivalries {
		v := &rivalries[i]
		v.CachedAt = now
		err := tx.QueryRow(
			ctx, query,
			leagueKey, v.OwnerA, v.OwnerB, v.Meetings, v.WinsA, v.WinsB, v.Ties,
			v.PointsA, v.PointsB, v.AvgMargin, v.LastSeason, v.LastWeek, v.CachedAt,
		).Scan(&v.ID, &v.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert rivalry: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rivalries: %w", err)
	}

	log.Debug().
		Str("league_key", leagueKey).
		Int("count", len(rivalries)).
		Msg("Rivalries replaced")

	return nil
}

// GetAll retrieves the rivalry matrix for a league, most meetings first
func (r *RivalryRepository) GetAll(ctx context.Context, leagueKey string) ([]models.Rivalry, error) {
	query := `
		SELECT id, league_key, owner_a, owner_b, meetings, wins_a, wins_b, ties,
		       points_a, points_b, avg_margin, last_season, last_week,
		       cached_at, created_at
		FROM rivalries
		WHERE league_key = $1
		ORDER BY meetings DESC, owner_a, owner_b
	`

	rows, err := r.db.Pool.Query(ctx, query, leagueKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get rivalries: %w", err)
	}
	defer rows.Close()

	var rivalries []models.Rivalry
	for rows.Next() {
		var v models.Rivalry
		err := rows.Scan(
			&v.ID, &v.LeagueKey, &v.OwnerA, &v.OwnerB, &v.Meetings, &v.WinsA, &v.WinsB, &v.Ties,
			&v.PointsA, &v.PointsB, &v.AvgMargin, &v.LastSeason, &v.LastWeek,
			&v.CachedAt, &v.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rivalry: %w", err)
		}
		rivalries = append(rivalries, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rivalries: %w", err)
	}

	return rivalries, nil
}

// OldestCachedAt returns the oldest cached_at among a league's rivalries
func (r *RivalryRepository) OldestCachedAt(ctx context.Context, leagueKey string) (time.Time, error) {
	query := `
		SELECT COALESCE(MIN(cached_at), 'epoch'::timestamptz)
		FROM rivalries
		WHERE league_key = $1
	`

	var cachedAt time.Time
	if err := r.db.Pool.QueryRow(ctx, query, leagueKey).Scan(&cachedAt); err != nil {
		return time.Time{}, fmt.Errorf("failed to get oldest rivalry cached_at: %w", err)
	}

	return cachedAt, nil
}
