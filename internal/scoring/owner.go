package scoring

import (
	"fmt"
	"strings"

	"leaguedash/internal/models"
)

// ResolveOwnerName picks the display name for a standings row. Precedence:
// explicit override, per-season override, upstream owner nickname, team name,
// then a generic team label as the last resort.
func ResolveOwnerName(s *models.Standing, opts *Options) string {
	if opts != nil {
		if name, ok := opts.OwnerOverrides[s.TeamKey]; ok && name != "" {
			return name
		}
		if perSeason, ok := opts.SeasonOverrides[s.Season]; ok {
			if name, ok := perSeason[s.TeamKey]; ok && name != "" {
				return name
			}
		}
	}

	if s.Owner.Valid && strings.TrimSpace(s.Owner.String) != "" {
		return s.Owner.String
	}
	if strings.TrimSpace(s.TeamName) != "" {
		return s.TeamName
	}
	return fmt.Sprintf("Team %d", s.Rank)
}
