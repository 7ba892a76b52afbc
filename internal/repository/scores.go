package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"leaguedash/internal/models"

	"github.com/rs/zerolog/log"
)

// ScoreRepository handles composite score database operations
type ScoreRepository struct {
	db *Database
}

// ReplaceSeason replaces the cached composite score set for a league season.
// A computation produces a whole new set; rows are never updated in place.
func (r *ScoreRepository) ReplaceSeason(ctx context.Context, leagueKey string, season int, scores []models.CompositeScore) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM composite_scores WHERE league_key = $1 AND season = $2`,
		leagueKey, season,
	); err != nil {
		return fmt.Errorf("failed to delete composite scores: %w", err)
	}

	query := `
		INSERT INTO composite_scores (
			league_key, season, team_key, owner, score,
			rank, final_rank, interpretation, breakdown, cached_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`

	now := time.Now().UTC()
	for i := range scores {
		s := &scores[i]
		s.CachedAt = now

		breakdown, err := json.Marshal(s.Breakdown)
		if err != nil {
			return fmt.Errorf("failed to marshal breakdown: %w", err)
		}

		err = tx.QueryRow(
			ctx, query,
			leagueKey, season, s.TeamKey, s.Owner, s.Score,
			s.Rank, s.FinalRank, s.Interpretation, breakdown, s.CachedAt,
		).Scan(&s.ID, &s.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert composite score: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit composite scores: %w", err)
	}

	log.Debug().
		Str("league_key", leagueKey).
		Int("season", season).
		Int("count", len(scores)).
		Msg("Composite scores replaced")

	return nil
}

// GetBySeason retrieves the cached composite scores for a league season,
// highest score first
func (r *ScoreRepository) GetBySeason(ctx context.Context, leagueKey string, season int) ([]models.CompositeScore, error) {
	query := `
		SELECT id, league_key, season, team_key, owner, score,
		       rank, final_rank, interpretation, breakdown, cached_at, created_at
		FROM composite_scores
		WHERE league_key = $1 AND season = $2
		ORDER BY rank
	`

	rows, err := r.db.Pool.Query(ctx, query, leagueKey, season)
	if err != nil {
		return nil, fmt.Errorf("failed to get composite scores: %w", err)
	}
	defer rows.Close()

	var scores []models.CompositeScore
	for rows.Next() {
		var s models.CompositeScore
		var breakdown []byte
		err := rows.Scan(
			&s.ID, &s.LeagueKey, &s.Season, &s.TeamKey, &s.Owner, &s.Score,
			&s.Rank, &s.FinalRank, &s.Interpretation, &breakdown, &s.CachedAt, &s.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan composite score: %w", err)
		}

		if err := json.Unmarshal(breakdown, &s.Breakdown); err != nil {
			return nil, fmt.Errorf("failed to unmarshal breakdown: %w", err)
		}

		scores = append(scores, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating composite scores: %w", err)
	}

	return scores, nil
}

// OldestCachedAt returns the oldest cached_at among a season's scores
func (r *ScoreRepository) OldestCachedAt(ctx context.Context, leagueKey string, season int) (time.Time, error) {
	query := `
		SELECT COALESCE(MIN(cached_at), 'epoch'::timestamptz)
		FROM composite_scores
		WHERE league_key = $1 AND season = $2
	`

	var cachedAt time.Time
	if err := r.db.Pool.QueryRow(ctx, query, leagueKey, season).Scan(&cachedAt); err != nil {
		return time.Time{}, fmt.Errorf("failed to get oldest score cached_at: %w", err)
	}

	return cachedAt, nil
}

// Delete removes the cached composite scores for a league season
func (r *ScoreRepository) Delete(ctx context.Context, leagueKey string, season int) error {
	result, err := r.db.Pool.Exec(ctx,
		`DELETE FROM composite_scores WHERE league_key = $1 AND season = $2`,
		leagueKey, season,
	)
	if err != nil {
		return fmt.Errorf("failed to delete composite scores: %w", err)
	}

	log.Debug().
		Str("league_key", leagueKey).
		Int("season", season).
		Int64("rows", result.RowsAffected()).
		Msg("Composite scores deleted")

	return nil
}
