package models

import (
	"database/sql"
	"time"
)

// Rivalry is the all-time head-to-head aggregate for one owner pair.
// OwnerA always sorts before OwnerB so each pair appears exactly once.
type Rivalry struct {
	ID        int    `db:"id"`
	LeagueKey string `db:"league_key"`

	OwnerA string `db:"owner_a"`
	OwnerB string `db:"owner_b"`

	Meetings int `db:"meetings"`
	WinsA    int `db:"wins_a"`
	WinsB    int `db:"wins_b"`
	Ties     int `db:"ties"`

	PointsA float64 `db:"points_a"`
	PointsB float64 `db:"points_b"`

	// AvgMargin is the mean of (A points - B points) across meetings;
	// positive means A outscores B on average.
	AvgMargin float64 `db:"avg_margin"`

	LastSeason sql.NullInt32 `db:"last_season"`
	LastWeek   sql.NullInt32 `db:"last_week"`

	CachedAt  time.Time `db:"cached_at"`
	CreatedAt time.Time `db:"created_at"`
}

// Leader returns the owner currently ahead in the series, or "" when even
func (r *Rivalry) Leader() string {
	switch {
	case r.WinsA > r.WinsB:
		return r.OwnerA
	case r.WinsB > r.WinsA:
		return r.OwnerB
	default:
		return ""
	}
}
