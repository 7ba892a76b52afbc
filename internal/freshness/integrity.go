package freshness

import (
	"strings"

	"leaguedash/internal/models"
)

// StandingsUsable reports whether a cached standings set can be trusted.
// Rows written before the owner-name migration are missing the owner field;
// any such row poisons the whole set, which is then refetched regardless of
// age. Partial cache entries are never trusted piecemeal.
func StandingsUsable(standings []models.Standing) bool {
	if len(standings) == 0 {
		return false
	}
	for i := range standings {
		if !standings[i].Owner.Valid || strings.TrimSpace(standings[i].Owner.String) == "" {
			return false
		}
	}
	return true
}
