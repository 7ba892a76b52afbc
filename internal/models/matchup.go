package models

import (
	"database/sql"
	"time"
)

// Matchup represents one team's score in one week of a season.
// The opponent link is optional; older seasons exported without it.
type Matchup struct {
	ID        int    `db:"id"`
	LeagueKey string `db:"league_key"`
	Season    int    `db:"season"`
	Week      int    `db:"week"`
	TeamKey   string `db:"team_key"`

	Points          float64        `db:"points"`
	OpponentTeamKey sql.NullString `db:"opponent_team_key"`

	// Status is the upstream week status string ("postevent", "midevent",
	// "preevent"). Vocabulary is externally controlled and may drift.
	Status sql.NullString `db:"status"`

	CachedAt  time.Time `db:"cached_at"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// MatchupInput is the upstream API shape for one team-week score
type MatchupInput struct {
	TeamKey         string  `json:"team_key"`
	Week            int     `json:"week"`
	Points          float64 `json:"points"`
	OpponentTeamKey string  `json:"opponent_team_key,omitempty"`
	Status          string  `json:"status,omitempty"`
}

// ToMatchup converts a MatchupInput (from API) to a Matchup model
func (mi *MatchupInput) ToMatchup(leagueKey string, season int) *Matchup {
	matchup := &Matchup{
		LeagueKey: leagueKey,
		Season:    season,
		Week:      mi.Week,
		TeamKey:   mi.TeamKey,
		Points:    mi.Points,
	}

	if mi.OpponentTeamKey != "" {
		matchup.OpponentTeamKey = sql.NullString{String: mi.OpponentTeamKey, Valid: true}
	}
	if mi.Status != "" {
		matchup.Status = sql.NullString{String: mi.Status, Valid: true}
	}

	return matchup
}
