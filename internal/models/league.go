package models

import (
	"database/sql"
	"time"
)

// League represents one season of the fantasy league
type League struct {
	ID        int    `db:"id"`
	LeagueKey string `db:"league_key"`
	Season    int    `db:"season"`

	Name               string        `db:"name"`
	NumTeams           int           `db:"num_teams"`
	RegularSeasonWeeks int           `db:"regular_season_weeks"`
	CurrentWeek        sql.NullInt32 `db:"current_week"`
	IsFinished         bool          `db:"is_finished"`

	CachedAt  time.Time `db:"cached_at"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// LeagueInput is the upstream API shape for league settings
type LeagueInput struct {
	LeagueKey          string `json:"league_key"`
	Name               string `json:"name"`
	Season             string `json:"season"`
	NumTeams           int    `json:"num_teams"`
	RegularSeasonWeeks int    `json:"playoff_start_week,omitempty"`
	CurrentWeek        int    `json:"current_week,omitempty"`
	IsFinished         bool   `json:"is_finished,omitempty"`
}

// ToLeague converts a LeagueInput (from API) to a League model.
// The upstream reports the playoff start week; the regular season
// runs through the week before it.
func (li *LeagueInput) ToLeague(season int) *League {
	league := &League{
		LeagueKey:  li.LeagueKey,
		Season:     season,
		Name:       li.Name,
		NumTeams:   li.NumTeams,
		IsFinished: li.IsFinished,
	}

	if li.RegularSeasonWeeks > 1 {
		league.RegularSeasonWeeks = li.RegularSeasonWeeks - 1
	}
	if li.CurrentWeek > 0 {
		league.CurrentWeek = sql.NullInt32{Int32: int32(li.CurrentWeek), Valid: true}
	}

	return league
}
