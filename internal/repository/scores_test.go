package repository

import (
	"testing"

	"leaguedash/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreRepository_ReplaceSeason(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	leagueKey := "414.l.900003"
	scores := []models.CompositeScore{
		{
			LeagueKey:      leagueKey,
			Season:         2022,
			TeamKey:        "t1",
			Owner:          "Alice",
			Score:          96.5,
			Rank:           1,
			FinalRank:      1,
			Interpretation: models.TierEraDefining,
			Breakdown: models.ScoreBreakdown{
				PointsForIndex:   1.1,
				AllPlayWinPct:    0.864,
				ScheduleStrength: 1.073,
				PostseasonBonus:  0.999,
				LuckDelta:        -0.029,
			},
		},
		{
			LeagueKey:      leagueKey,
			Season:         2022,
			TeamKey:        "t2",
			Owner:          "Bob",
			Score:          71.2,
			Rank:           2,
			FinalRank:      3,
			Interpretation: models.TierSolid,
		},
	}

	err := db.Scores.ReplaceSeason(ctx, leagueKey, 2022, scores)
	require.NoError(t, err, "Should persist composite scores")

	retrieved, err := db.Scores.GetBySeason(ctx, leagueKey, 2022)
	require.NoError(t, err, "Should retrieve scores")
	require.Len(t, retrieved, 2)

	assert.Equal(t, "Alice", retrieved[0].Owner, "Rows should come back in rank order")
	assert.Equal(t, 96.5, retrieved[0].Score)
	assert.Equal(t, models.TierEraDefining, retrieved[0].Interpretation)

	// The breakdown round-trips through the jsonb column
	assert.Equal(t, 0.864, retrieved[0].Breakdown.AllPlayWinPct, "Breakdown should survive persistence")
	assert.Equal(t, -0.029, retrieved[0].Breakdown.LuckDelta)

	oldest, err := db.Scores.OldestCachedAt(ctx, leagueKey, 2022)
	require.NoError(t, err, "Should read oldest cache timestamp")
	assert.False(t, oldest.IsZero())
}

func TestScoreRepository_Delete(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	leagueKey := "414.l.900004"
	scores := []models.CompositeScore{
		{LeagueKey: leagueKey, Season: 2021, TeamKey: "t1", Owner: "Alice", Score: 50, Rank: 1, FinalRank: 1, Interpretation: models.TierAverage},
	}

	err := db.Scores.ReplaceSeason(ctx, leagueKey, 2021, scores)
	require.NoError(t, err, "Should persist scores")

	err = db.Scores.Delete(ctx, leagueKey, 2021)
	require.NoError(t, err, "Should delete scores")

	retrieved, err := db.Scores.GetBySeason(ctx, leagueKey, 2021)
	require.NoError(t, err)
	assert.Empty(t, retrieved, "Deleted season should have no scores")
}
