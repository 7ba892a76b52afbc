package repository

import (
	"database/sql"
	"testing"

	"leaguedash/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStanding(teamKey, owner string, rank, wins int, pointsFor float64) *models.Standing {
	return &models.Standing{
		LeagueKey: "414.l.900001",
		Season:    2022,
		TeamKey:   teamKey,
		TeamName:  "Team " + teamKey,
		Owner:     sql.NullString{String: owner, Valid: true},
		Rank:      rank,
		Wins:      wins,
		Losses:    14 - wins,
		PointsFor: pointsFor,
	}
}

func TestStandingRepository_ReplaceSeason(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	leagueKey := "414.l.900001"
	standings := []*models.Standing{
		testStanding("t1", "Alice", 1, 11, 1800),
		testStanding("t2", "Bob", 2, 9, 1650),
	}

	err := db.Standings.ReplaceSeason(ctx, leagueKey, 2022, standings)
	require.NoError(t, err, "Should replace season standings")

	retrieved, err := db.Standings.GetBySeason(ctx, leagueKey, 2022)
	require.NoError(t, err, "Should retrieve standings")
	require.Len(t, retrieved, 2)
	assert.Equal(t, "t1", retrieved[0].TeamKey, "Rows should come back in rank order")
	assert.Equal(t, "Alice", retrieved[0].Owner.String)
	assert.False(t, retrieved[0].CachedAt.IsZero(), "Replace should stamp cached_at")

	// Replacement is delete-then-insert: the old set must be gone entirely
	replacement := []*models.Standing{
		testStanding("t3", "Carol", 1, 12, 1900),
	}
	err = db.Standings.ReplaceSeason(ctx, leagueKey, 2022, replacement)
	require.NoError(t, err, "Should replace with new set")

	retrieved, err = db.Standings.GetBySeason(ctx, leagueKey, 2022)
	require.NoError(t, err)
	require.Len(t, retrieved, 1, "Old rows should not survive a replacement")
	assert.Equal(t, "t3", retrieved[0].TeamKey)
}

func TestStandingRepository_Seasons(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	leagueKey := "414.l.900002"

	for _, season := range []int{2020, 2021} {
		s := testStanding("t1", "Alice", 1, 10, 1500)
		s.LeagueKey = leagueKey
		s.Season = season
		err := db.Standings.ReplaceSeason(ctx, leagueKey, season, []*models.Standing{s})
		require.NoError(t, err, "Should insert season")
	}

	seasons, err := db.Standings.Seasons(ctx, leagueKey)
	require.NoError(t, err, "Should list seasons")
	assert.GreaterOrEqual(t, len(seasons), 2, "Should have at least the two inserted seasons")

	count, err := db.Standings.Count(ctx, leagueKey)
	require.NoError(t, err, "Should count standings")
	assert.GreaterOrEqual(t, count, 2)
}
