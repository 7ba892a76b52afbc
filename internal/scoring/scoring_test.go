package scoring

import (
	"database/sql"
	"math"
	"testing"

	"leaguedash/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tenTeamSeason builds a completed 14-week season without weekly data.
// Points totals descend with rank so the estimation paths are exercised.
func tenTeamSeason() []models.Standing {
	records := []struct {
		rank      int
		wins      int
		losses    int
		pointsFor float64
	}{
		{1, 11, 3, 1800},
		{2, 11, 3, 1800},
		{3, 10, 4, 1650},
		{4, 9, 5, 1600},
		{5, 8, 6, 1550},
		{6, 7, 7, 1500},
		{7, 6, 8, 1450},
		{8, 5, 9, 1350},
		{9, 4, 10, 1250},
		{10, 2, 12, 1050},
	}

	standings := make([]models.Standing, 0, len(records))
	for i, r := range records {
		standings = append(standings, models.Standing{
			LeagueKey: "414.l.123456",
			Season:    2022,
			TeamKey:   "414.l.123456.t." + string(rune('a'+i)),
			TeamName:  "Team " + string(rune('A'+i)),
			Owner:     sql.NullString{String: "Owner " + string(rune('A'+i)), Valid: true},
			Rank:      r.rank,
			Wins:      r.wins,
			Losses:    r.losses,
			PointsFor: r.pointsFor,
		})
	}
	return standings
}

func TestComputeCompositeScores_EmptyStandings(t *testing.T) {
	scores := ComputeCompositeScores(nil, nil, 14, nil)
	assert.Nil(t, scores, "Empty standings should yield nil, not an error")
}

func TestComputeCompositeScores_RankIsPermutation(t *testing.T) {
	scores := ComputeCompositeScores(tenTeamSeason(), nil, 14, nil)
	require.Len(t, scores, 10, "Should score every team")

	seen := make(map[int]bool)
	for i, s := range scores {
		assert.Equal(t, i+1, s.Rank, "Output should be sorted by rank")
		seen[s.Rank] = true
	}
	assert.Len(t, seen, 10, "Ranks should be exactly 1..N")

	// Scores descend with rank
	for i := 1; i < len(scores); i++ {
		assert.LessOrEqual(t, scores[i].Score, scores[i-1].Score, "Scores should be non-increasing")
	}
}

func TestComputeCompositeScores_Deterministic(t *testing.T) {
	first := ComputeCompositeScores(tenTeamSeason(), nil, 14, nil)
	second := ComputeCompositeScores(tenTeamSeason(), nil, 14, nil)
	assert.Equal(t, first, second, "Same inputs should produce identical output")
}

func TestComputeCompositeScores_ChampionOutranksEqualRunnerUp(t *testing.T) {
	// Ranks 1 and 2 carry identical records and points; the title must break
	// the tie decisively
	scores := ComputeCompositeScores(tenTeamSeason(), nil, 14, nil)
	require.Len(t, scores, 10)

	assert.Equal(t, 1, scores[0].FinalRank, "Champion should take the top composite rank")
	assert.Equal(t, 2, scores[1].FinalRank, "Runner-up twin should be second")
	assert.Greater(t, scores[0].Score, scores[1].Score, "Champion should strictly outscore an otherwise identical runner-up")
}

func TestComputeCompositeScores_EstimationPath(t *testing.T) {
	scores := ComputeCompositeScores(tenTeamSeason(), nil, 14, nil)
	require.Len(t, scores, 10)

	champ := scores[0]

	// 11-3 record: 0.7857 win pct boosted by 1.1
	assert.InDelta(t, 0.864, champ.Breakdown.AllPlayWinPct, 0.001, "Estimated all-play should be winPct*1.1")

	// Top points total: raw ratio 1800/1500 blended with percentile 1.0
	assert.InDelta(t, 1.1, champ.Breakdown.PointsForIndex, 0.001, "Points index should blend ratio and percentile")

	// Best record takes the full regular-season percentile
	assert.InDelta(t, 1.0, champ.Breakdown.RegularSeasonScore, 0.0001, "Top seed should score 1.0")

	for _, s := range scores {
		assert.Zero(t, s.Breakdown.ConsistencyIndex, "Consistency must be exactly neutral without weekly data")
		assert.False(t, math.IsNaN(s.Score) || math.IsInf(s.Score, 0), "Score must be finite")
	}
}

func TestComputeCompositeScores_EstimatedAllPlayCapped(t *testing.T) {
	standings := []models.Standing{
		{TeamKey: "t1", Owner: sql.NullString{String: "A", Valid: true}, Rank: 1, Wins: 14, Losses: 0, PointsFor: 2000},
		{TeamKey: "t2", Owner: sql.NullString{String: "B", Valid: true}, Rank: 2, Wins: 0, Losses: 14, PointsFor: 1000},
	}

	scores := ComputeCompositeScores(standings, nil, 14, nil)
	require.Len(t, scores, 2)
	assert.InDelta(t, 0.95, scores[0].Breakdown.AllPlayWinPct, 0.001, "Undefeated estimate should cap at 0.95")
}

func TestComputeCompositeScores_SingleTeam(t *testing.T) {
	standings := []models.Standing{
		{TeamKey: "t1", TeamName: "Solo", Owner: sql.NullString{String: "Solo", Valid: true}, Rank: 1, Wins: 14, PointsFor: 1500},
	}

	scores := ComputeCompositeScores(standings, nil, 14, nil)
	require.Len(t, scores, 1)
	assert.Equal(t, 1, scores[0].Rank)
	assert.False(t, math.IsNaN(scores[0].Score), "Single-team league must not divide by zero")
	assert.False(t, math.IsInf(scores[0].Score, 0))
}

func TestComputeCompositeScores_ZeroGamesPlayed(t *testing.T) {
	standings := []models.Standing{
		{TeamKey: "t1", Owner: sql.NullString{String: "A", Valid: true}, Rank: 1},
		{TeamKey: "t2", Owner: sql.NullString{String: "B", Valid: true}, Rank: 2},
	}

	scores := ComputeCompositeScores(standings, nil, 14, nil)
	require.Len(t, scores, 2)
	for _, s := range scores {
		assert.InDelta(t, 0.5, s.Breakdown.AllPlayWinPct, 0.001, "Zero games should estimate a neutral all-play")
		assert.False(t, math.IsNaN(s.Score), "Preseason standings must not produce NaN")
	}
}

func weeklyFixture() ([]models.Standing, []models.Matchup) {
	standings := []models.Standing{
		{TeamKey: "t1", Owner: sql.NullString{String: "A", Valid: true}, Rank: 1, Wins: 2, PointsFor: 180},
		{TeamKey: "t2", Owner: sql.NullString{String: "B", Valid: true}, Rank: 2, Wins: 1, Losses: 1, PointsFor: 190},
		{TeamKey: "t3", Owner: sql.NullString{String: "C", Valid: true}, Rank: 3, Losses: 2, PointsFor: 170},
	}
	matchups := []models.Matchup{
		{Week: 1, TeamKey: "t1", Points: 100, OpponentTeamKey: sql.NullString{String: "t2", Valid: true}},
		{Week: 1, TeamKey: "t2", Points: 90, OpponentTeamKey: sql.NullString{String: "t1", Valid: true}},
		{Week: 1, TeamKey: "t3", Points: 80},
		{Week: 2, TeamKey: "t1", Points: 80, OpponentTeamKey: sql.NullString{String: "t3", Valid: true}},
		{Week: 2, TeamKey: "t2", Points: 100},
		{Week: 2, TeamKey: "t3", Points: 90, OpponentTeamKey: sql.NullString{String: "t1", Valid: true}},
	}
	return standings, matchups
}

func TestComputeCompositeScores_AllPlayFromWeeklyScores(t *testing.T) {
	standings, matchups := weeklyFixture()
	scores := ComputeCompositeScores(standings, matchups, 2, nil)
	require.Len(t, scores, 3)

	byTeam := make(map[string]models.CompositeScore)
	for _, s := range scores {
		byTeam[s.TeamKey] = s
	}

	// t1: week 1 beats both, week 2 beats neither -> 2/4
	assert.InDelta(t, 0.5, byTeam["t1"].Breakdown.AllPlayWinPct, 0.001)
	// t2: week 1 beats t3, week 2 beats both -> 3/4
	assert.InDelta(t, 0.75, byTeam["t2"].Breakdown.AllPlayWinPct, 0.001)
	// t3: week 2 beats t1 only -> 1/4
	assert.InDelta(t, 0.25, byTeam["t3"].Breakdown.AllPlayWinPct, 0.001)
}

func TestComputeCompositeScores_ConsistencyIndex(t *testing.T) {
	standings := []models.Standing{
		{TeamKey: "steady", Owner: sql.NullString{String: "A", Valid: true}, Rank: 1, Wins: 1, Losses: 1, PointsFor: 200},
		{TeamKey: "swingy", Owner: sql.NullString{String: "B", Valid: true}, Rank: 2, Wins: 1, Losses: 1, PointsFor: 200},
	}
	matchups := []models.Matchup{
		{Week: 1, TeamKey: "steady", Points: 100},
		{Week: 2, TeamKey: "steady", Points: 100},
		{Week: 1, TeamKey: "swingy", Points: 80},
		{Week: 2, TeamKey: "swingy", Points: 120},
	}

	scores := ComputeCompositeScores(standings, matchups, 2, nil)
	require.Len(t, scores, 2)

	byTeam := make(map[string]models.CompositeScore)
	for _, s := range scores {
		byTeam[s.TeamKey] = s
	}

	// League average stddev is 10: zero deviation maxes out, double pins to
	// the lower clamp
	assert.InDelta(t, 1.0, byTeam["steady"].Breakdown.ConsistencyIndex, 0.001)
	assert.InDelta(t, -1.0, byTeam["swingy"].Breakdown.ConsistencyIndex, 0.001)
}

func TestComputeCompositeScores_ScheduleStrengthFallback(t *testing.T) {
	// No opponent links anywhere: strength falls back to the league average,
	// which is a near-neutral multiplier
	scores := ComputeCompositeScores(tenTeamSeason(), nil, 14, nil)
	require.NotEmpty(t, scores)

	for _, s := range scores {
		assert.InDelta(t, 1.0, s.Breakdown.ScheduleStrength, 0.15, "Fallback strength should hover near neutral")
	}
}

func TestComputeCompositeScores_Interpretation(t *testing.T) {
	scores := ComputeCompositeScores(tenTeamSeason(), nil, 14, nil)
	for _, s := range scores {
		assert.Equal(t, models.Interpret(s.Score), s.Interpretation, "Interpretation must match the rounded score")
	}
}

func TestInterpret_TierBoundaries(t *testing.T) {
	assert.Equal(t, models.TierEraDefining, models.Interpret(95.0))
	assert.Equal(t, models.TierDominant, models.Interpret(94.9))
	assert.Equal(t, models.TierDominant, models.Interpret(85.0))
	assert.Equal(t, models.TierElite, models.Interpret(84.9))
	assert.Equal(t, models.TierElite, models.Interpret(75.0))
	assert.Equal(t, models.TierSolid, models.Interpret(74.9))
	assert.Equal(t, models.TierSolid, models.Interpret(65.0))
	assert.Equal(t, models.TierAverage, models.Interpret(64.9))
}

func TestComputeCompositeScores_RoundingAtBoundary(t *testing.T) {
	scores := ComputeCompositeScores(tenTeamSeason(), nil, 14, nil)
	for _, s := range scores {
		assert.InDelta(t, s.Score, math.Round(s.Score*10)/10, 1e-9, "Score should carry one decimal")
		b := s.Breakdown
		for _, v := range []float64{
			b.PointsForIndex, b.AllPlayWinPct, b.RegularSeasonScore, b.WeeklyCeilingRate,
			b.ScheduleStrength, b.ConsistencyIndex, b.PostseasonBonus, b.LuckDelta,
		} {
			assert.InDelta(t, v, math.Round(v*1000)/1000, 1e-9, "Breakdown should carry three decimals")
		}
	}
}

func TestResolveOwnerName_Precedence(t *testing.T) {
	standing := &models.Standing{
		TeamKey:  "414.l.123456.t.1",
		Season:   2022,
		TeamName: "The Juggernauts",
		Owner:    sql.NullString{String: "Alice", Valid: true},
		Rank:     3,
	}

	// Override beats everything
	opts := &Options{OwnerOverrides: map[string]string{"414.l.123456.t.1": "Canonical Alice"}}
	assert.Equal(t, "Canonical Alice", ResolveOwnerName(standing, opts))

	// Season override beats upstream data
	opts = &Options{SeasonOverrides: map[int]map[string]string{
		2022: {"414.l.123456.t.1": "Alice (2022)"},
	}}
	assert.Equal(t, "Alice (2022)", ResolveOwnerName(standing, opts))

	// Upstream owner nickname
	assert.Equal(t, "Alice", ResolveOwnerName(standing, nil))

	// Blank owner falls back to team name
	standing.Owner = sql.NullString{String: "  ", Valid: true}
	assert.Equal(t, "The Juggernauts", ResolveOwnerName(standing, nil))

	// Nothing at all: generic label
	standing.TeamName = ""
	standing.Owner = sql.NullString{}
	assert.Equal(t, "Team 3", ResolveOwnerName(standing, nil))
}
