// Package freshness decides when cached league data may be reused and when it
// must be refetched and recomputed. The upstream is immutable for past
// seasons but mutable for the live one, so the policy is asymmetric:
// historical data never expires, closed weeks never expire, and only
// current-season open data is time-boxed.
package freshness

import (
	"strings"
	"time"
)

// DefaultTTL bounds how long current-season open data is served from cache
const DefaultTTL = 7 * 24 * time.Hour

// Final-status vocabulary the upstream has been observed to use for a
// completed week. Externally controlled and known to drift; the non-current
// season rule in IsWeekClosed is the safety net, this list is an optimization.
var finalStatuses = map[string]bool{
	"postevent": true,
	"completed": true,
	"finished":  true,
	"final":     true,
}

// Policy evaluates cache freshness. The current season and clock are
// injected so season-rollover behavior is deterministic under test.
type Policy struct {
	currentSeason int
	ttl           time.Duration
	now           func() time.Time
}

// NewPolicy creates a Policy for the given current season. A non-positive
// ttl falls back to DefaultTTL.
func NewPolicy(currentSeason int, ttl time.Duration) *Policy {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Policy{
		currentSeason: currentSeason,
		ttl:           ttl,
		now:           time.Now,
	}
}

// WithClock returns a copy of the policy using the given clock
func (p *Policy) WithClock(now func() time.Time) *Policy {
	clone := *p
	clone.now = now
	return &clone
}

// TTL returns the policy window for current-season open data
func (p *Policy) TTL() time.Duration {
	return p.ttl
}

// IsFresh reports whether a cached entity may be reused. Rules in order:
// non-current seasons are always fresh, closed sub-periods are always fresh,
// and everything else is fresh only within the TTL window.
func (p *Policy) IsFresh(cachedAt time.Time, isCurrentSeason, weekClosed bool) bool {
	if !isCurrentSeason {
		return true
	}
	if weekClosed {
		return true
	}
	return p.now().Sub(cachedAt) < p.ttl
}

// IsSeasonCurrent reports whether a season is the live one
func (p *Policy) IsSeasonCurrent(season int) bool {
	return season == p.currentSeason
}

// IsWeekClosed reports whether a week can no longer change. Any week of a
// non-current season is closed regardless of status; for the live season the
// upstream status string must match the final vocabulary.
func (p *Policy) IsWeekClosed(season int, status string) bool {
	if !p.IsSeasonCurrent(season) {
		return true
	}
	return finalStatuses[strings.ToLower(strings.TrimSpace(status))]
}
