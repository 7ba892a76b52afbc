package models

import (
	"time"
)

// Interpretation tiers for a composite score, highest first
const (
	TierEraDefining = "era-defining"
	TierDominant    = "dominant / robbed by variance"
	TierElite       = "elite"
	TierSolid       = "solid"
	TierAverage     = "average/luck-driven"
)

// ScoreBreakdown holds the named sub-metrics behind a composite score.
// Values are rounded at the output boundary, never during computation.
type ScoreBreakdown struct {
	PointsForIndex     float64 `json:"points_for_index"`
	AllPlayWinPct      float64 `json:"all_play_win_pct"`
	RegularSeasonScore float64 `json:"regular_season_score"`
	WeeklyCeilingRate  float64 `json:"weekly_ceiling_rate"`
	ScheduleStrength   float64 `json:"schedule_strength"`
	ConsistencyIndex   float64 `json:"consistency_index"`
	PostseasonBonus    float64 `json:"postseason_bonus"`
	LuckDelta          float64 `json:"luck_delta"`
}

// CompositeScore is the dominance metric for one team in one season.
// A computation always produces a whole new set; rows are never mutated.
type CompositeScore struct {
	ID        int    `db:"id"`
	LeagueKey string `db:"league_key"`
	Season    int    `db:"season"`
	TeamKey   string `db:"team_key"`

	Owner string  `db:"owner"`
	Score float64 `db:"score"`

	// Rank orders teams by composite score within the season; FinalRank is
	// the league's own final standing carried over for comparison.
	Rank      int `db:"rank"`
	FinalRank int `db:"final_rank"`

	Interpretation string         `db:"interpretation"`
	Breakdown      ScoreBreakdown `db:"breakdown"`

	CachedAt  time.Time `db:"cached_at"`
	CreatedAt time.Time `db:"created_at"`
}

// Interpret returns the interpretation tier for a composite score value
func Interpret(score float64) string {
	switch {
	case score >= 95:
		return TierEraDefining
	case score >= 85:
		return TierDominant
	case score >= 75:
		return TierElite
	case score >= 65:
		return TierSolid
	default:
		return TierAverage
	}
}
