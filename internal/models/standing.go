package models

import (
	"database/sql"
	"time"
)

// Standing represents one team's season result in a league
type Standing struct {
	ID        int    `db:"id"`
	LeagueKey string `db:"league_key"`
	Season    int    `db:"season"`
	TeamKey   string `db:"team_key"`

	TeamName string         `db:"team_name"`
	Owner    sql.NullString `db:"owner"`

	// Rank is the final standing, 1 = champion. While a season is in
	// progress it reflects the current playoff seeding.
	Rank          int     `db:"rank"`
	Wins          int     `db:"wins"`
	Losses        int     `db:"losses"`
	Ties          int     `db:"ties"`
	PointsFor     float64 `db:"points_for"`
	PointsAgainst float64 `db:"points_against"`

	CachedAt  time.Time `db:"cached_at"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// GamesPlayed returns the number of games reflected in the record
func (s *Standing) GamesPlayed() int {
	return s.Wins + s.Losses + s.Ties
}

// WinPct returns the season win percentage, counting ties as half a win.
// Returns 0 when no games have been played.
func (s *Standing) WinPct() float64 {
	games := s.GamesPlayed()
	if games == 0 {
		return 0
	}
	return (float64(s.Wins) + 0.5*float64(s.Ties)) / float64(games)
}

// StandingInput is the upstream API shape for one standings row
type StandingInput struct {
	TeamKey       string  `json:"team_key"`
	TeamName      string  `json:"name"`
	OwnerNickname string  `json:"owner_nickname,omitempty"`
	Rank          int     `json:"rank"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	Ties          int     `json:"ties"`
	PointsFor     float64 `json:"points_for"`
	PointsAgainst float64 `json:"points_against"`
}

// ToStanding converts a StandingInput (from API) to a Standing model
func (si *StandingInput) ToStanding(leagueKey string, season int) *Standing {
	standing := &Standing{
		LeagueKey:     leagueKey,
		Season:        season,
		TeamKey:       si.TeamKey,
		TeamName:      si.TeamName,
		Rank:          si.Rank,
		Wins:          si.Wins,
		Losses:        si.Losses,
		Ties:          si.Ties,
		PointsFor:     si.PointsFor,
		PointsAgainst: si.PointsAgainst,
	}

	if si.OwnerNickname != "" {
		standing.Owner = sql.NullString{String: si.OwnerNickname, Valid: true}
	}

	return standing
}
