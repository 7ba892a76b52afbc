// Package scoring implements the composite dominance metric. It turns a
// season's standings and weekly scores into normalized, era-comparable scores
// with a full per-metric breakdown. Everything here is a pure function over
// its inputs; persistence and fetching live elsewhere.
package scoring

import (
	"math"
	"sort"

	"leaguedash/internal/models"
)

// Composite weights. The postseason term sits outside the schedule-strength
// multiplier: playoff results should not be scaled by regular-season schedule.
const (
	weightPointsIndex   = 0.30
	weightAllPlay       = 0.25
	weightRegularSeason = 0.15
	weightCeiling       = 0.10
	weightPostseason    = 0.20

	consistencyWeight = 0.05
	luckWeight        = 0.05

	// A title run outranks a marginally better regular season. Deliberate
	// thumb on the scale, not a bug.
	championMultiplier = 1.15

	// Caps for the no-weekly-data estimation path
	estimatedAPWCap   = 0.95
	estimatedAPWBoost = 1.1
)

// Options carries optional inputs for a computation. A nil Options is valid.
type Options struct {
	// OwnerOverrides maps team keys to canonical display names. Takes
	// precedence over anything the upstream reports.
	OwnerOverrides map[string]string

	// SeasonOverrides maps season -> team key -> display name, for owners
	// who renamed mid-history. Checked after OwnerOverrides.
	SeasonOverrides map[int]map[string]string
}

// ComputeCompositeScores computes the composite score for every team in a
// season.
//
// standings must carry rank values forming a permutation of 1..N. weekly may
// be empty; every weekly-derived metric then degrades to a documented
// estimate and the consistency index is neutral. The result is deterministic:
// ties in score keep input order, and output rank is exactly 1..N.
//
// An empty standings slice yields an empty result, never an error; callers
// treat "no data" as a displayable state.
func ComputeCompositeScores(standings []models.Standing, weekly []models.Matchup, regularSeasonWeeks int, opts *Options) []models.CompositeScore {
	n := len(standings)
	if n == 0 {
		return nil
	}
	if regularSeasonWeeks < 1 {
		regularSeasonWeeks = 1
	}

	// Index weekly scores: week -> team -> points, and team -> list of points.
	weekScores := make(map[int]map[string]float64)
	teamScores := make(map[string][]float64)
	opponents := make(map[string]map[string]bool)
	for _, m := range weekly {
		if weekScores[m.Week] == nil {
			weekScores[m.Week] = make(map[string]float64)
		}
		weekScores[m.Week][m.TeamKey] = m.Points
		teamScores[m.TeamKey] = append(teamScores[m.TeamKey], m.Points)
		if m.OpponentTeamKey.Valid && m.OpponentTeamKey.String != "" && m.OpponentTeamKey.String != m.TeamKey {
			if opponents[m.TeamKey] == nil {
				opponents[m.TeamKey] = make(map[string]bool)
			}
			opponents[m.TeamKey][m.OpponentTeamKey.String] = true
		}
	}
	hasWeekly := len(weekly) > 0

	// League-wide aggregates
	var totalPoints float64
	for i := range standings {
		totalPoints += standings[i].PointsFor
	}
	leagueAvgPoints := totalPoints / float64(n)

	var leagueAvgWeekly float64
	if hasWeekly {
		var sum float64
		var count int
		for _, scores := range teamScores {
			for _, p := range scores {
				sum += p
				count++
			}
		}
		if count > 0 {
			leagueAvgWeekly = sum / float64(count)
		}
	} else {
		leagueAvgWeekly = leagueAvgPoints / float64(regularSeasonWeeks)
	}

	// Rank teams by points scored (1 = highest) and by regular-season record
	// (wins desc, points desc). Stable: ties keep standings input order.
	pointsRank := rankBy(standings, func(a, b *models.Standing) bool {
		return a.PointsFor > b.PointsFor
	})
	regularRank := rankBy(standings, func(a, b *models.Standing) bool {
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		return a.PointsFor > b.PointsFor
	})

	// All-play win percentage per team
	apw := make(map[string]float64, n)
	for i := range standings {
		apw[standings[i].TeamKey] = allPlayWinPct(&standings[i], weekScores, teamScores)
	}
	var leagueAvgAPW float64
	for i := range standings {
		leagueAvgAPW += apw[standings[i].TeamKey]
	}
	leagueAvgAPW /= float64(n)

	// Per-team weekly standard deviation and its league average, computed
	// only over teams that actually have weekly scores
	stddev := make(map[string]float64, n)
	var sdSum float64
	var sdCount int
	for i := range standings {
		key := standings[i].TeamKey
		if scores := teamScores[key]; len(scores) > 0 {
			stddev[key] = populationStdDev(scores)
			sdSum += stddev[key]
			sdCount++
		}
	}
	var leagueAvgStdDev float64
	if sdCount > 0 {
		leagueAvgStdDev = sdSum / float64(sdCount)
	}

	results := make([]models.CompositeScore, n)
	for i := range standings {
		s := &standings[i]
		key := s.TeamKey

		// Era-adjusted points index: raw ratio blended with percentile so
		// point totals compare across scoring-rule eras
		pfi := 1.0
		if leagueAvgPoints > 0 {
			pfi = s.PointsFor / leagueAvgPoints
		}
		pfPct := percentile(pointsRank[key], n)
		pfiEra := 0.5*pfi + 0.5*pfPct

		teamAPW := apw[key]

		rss := percentile(regularRank[key], n)

		wcr := weeklyCeilingRate(s, teamScores[key], leagueAvgWeekly, regularSeasonWeeks)

		sos := scheduleStrength(opponents[key], apw, leagueAvgAPW)

		// Consistency index: neutral without weekly data or when every team
		// scored identically all season
		ci := 0.0
		if scores, ok := teamScores[key]; ok && len(scores) > 0 && leagueAvgStdDev > 0 {
			ci = clamp(1-stddev[key]/leagueAvgStdDev, -1, 1)
		}

		psb := postseasonBonus(s.Rank)
		luck := expectedPlayoffWins(regularRank[key], teamAPW) - actualPlayoffWins(s.Rank)
		psbAdj := psb + luckWeight*luck

		base := (weightPointsIndex*pfiEra+weightAllPlay*teamAPW+weightRegularSeason*rss+weightCeiling*wcr)*sos + weightPostseason*psbAdj

		multiplier := 1.0
		if s.Rank == 1 {
			multiplier = championMultiplier
		}

		score := 100 * base * (1 + consistencyWeight*ci) * multiplier

		results[i] = models.CompositeScore{
			LeagueKey: s.LeagueKey,
			Season:    s.Season,
			TeamKey:   key,
			Owner:     ResolveOwnerName(s, opts),
			Score:     score,
			FinalRank: s.Rank,
			Breakdown: models.ScoreBreakdown{
				PointsForIndex:     pfiEra,
				AllPlayWinPct:      teamAPW,
				RegularSeasonScore: rss,
				WeeklyCeilingRate:  wcr,
				ScheduleStrength:   sos,
				ConsistencyIndex:   ci,
				PostseasonBonus:    psbAdj,
				LuckDelta:          luck,
			},
		}
	}

	// Rank by score descending; stable so score ties keep input order
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	for i := range results {
		results[i].Rank = i + 1
		results[i].Score = round1(results[i].Score)
		results[i].Interpretation = models.Interpret(results[i].Score)
		roundBreakdown(&results[i].Breakdown)
	}

	return results
}

// allPlayWinPct simulates each week's score against every other team that
// week, not just the actual opponent. Without weekly data it estimates from
// the season record.
func allPlayWinPct(s *models.Standing, weekScores map[int]map[string]float64, teamScores map[string][]float64) float64 {
	if len(teamScores[s.TeamKey]) > 0 {
		wins := 0
		total := 0
		for _, scores := range weekScores {
			points, played := scores[s.TeamKey]
			if !played {
				continue
			}
			for other, otherPoints := range scores {
				if other == s.TeamKey {
					continue
				}
				total++
				if points > otherPoints {
					wins++
				}
			}
		}
		if total > 0 {
			return float64(wins) / float64(total)
		}
	}

	// Estimation path: season win percentage inflated slightly, since good
	// teams beat their schedule more often than the whole field
	if s.GamesPlayed() == 0 {
		return 0.5
	}
	return math.Min(estimatedAPWCap, s.WinPct()*estimatedAPWBoost)
}

// weeklyCeilingRate normalizes the team's best single week by the league's
// average weekly score
func weeklyCeilingRate(s *models.Standing, scores []float64, leagueAvgWeekly float64, regularSeasonWeeks int) float64 {
	var high float64
	if len(scores) > 0 {
		for _, p := range scores {
			if p > high {
				high = p
			}
		}
	} else {
		games := s.GamesPlayed()
		if games == 0 {
			return 1.0
		}
		high = 1.5 * (s.PointsFor / float64(games))
	}

	if leagueAvgWeekly <= 0 {
		return 1.0
	}
	return high / leagueAvgWeekly
}

// scheduleStrength averages the all-play strength of the distinct opponents a
// team actually faced. With no opponent tracking it falls back to the league
// average, which is a no-op adjustment near 1.0.
func scheduleStrength(opp map[string]bool, apw map[string]float64, leagueAvgAPW float64) float64 {
	var sum float64
	var count int
	for key := range opp {
		if v, ok := apw[key]; ok {
			sum += v
			count++
		}
	}

	oppAPW := leagueAvgAPW
	if count > 0 {
		oppAPW = sum / float64(count)
	}
	return 1 + (oppAPW - 0.5)
}

// postseasonBonus is the base bonus by final rank
func postseasonBonus(finalRank int) float64 {
	switch finalRank {
	case 1:
		return 1.00
	case 2:
		return 0.70
	case 3:
		return 0.45
	default:
		return 0.00
	}
}

// expectedPlayoffWins estimates playoff wins from regular-season seeding and
// all-play strength
func expectedPlayoffWins(regularSeasonRank int, apw float64) float64 {
	switch {
	case regularSeasonRank <= 2:
		return 1.5 + 0.5*apw
	case regularSeasonRank <= 4:
		return 1.0 + 0.5*apw
	default:
		return 0.5 + 0.5*apw
	}
}

// actualPlayoffWins maps final rank to playoff wins: a champion wins two
// playoff games, the runner-up and third place one each
func actualPlayoffWins(finalRank int) float64 {
	switch finalRank {
	case 1:
		return 2
	case 2, 3:
		return 1
	default:
		return 0
	}
}

// rankBy returns a 1-based rank per team key under less, ties keeping input
// order
func rankBy(standings []models.Standing, less func(a, b *models.Standing) bool) map[string]int {
	order := make([]int, len(standings))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return less(&standings[order[i]], &standings[order[j]])
	})

	ranks := make(map[string]int, len(standings))
	for pos, idx := range order {
		ranks[standings[idx].TeamKey] = pos + 1
	}
	return ranks
}

// percentile converts a 1-based rank into [0,1], 1.0 for the top rank.
// A single-team league resolves to 1.0 rather than dividing by zero.
func percentile(rank, n int) float64 {
	if n < 2 {
		return 1.0
	}
	return 1 - float64(rank-1)/float64(n-1)
}

func populationStdDev(scores []float64) float64 {
	var sum float64
	for _, p := range scores {
		sum += p
	}
	mean := sum / float64(len(scores))

	var variance float64
	for _, p := range scores {
		d := p - mean
		variance += d * d
	}
	variance /= float64(len(scores))

	return math.Sqrt(variance)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func roundBreakdown(b *models.ScoreBreakdown) {
	b.PointsForIndex = round3(b.PointsForIndex)
	b.AllPlayWinPct = round3(b.AllPlayWinPct)
	b.RegularSeasonScore = round3(b.RegularSeasonScore)
	b.WeeklyCeilingRate = round3(b.WeeklyCeilingRate)
	b.ScheduleStrength = round3(b.ScheduleStrength)
	b.ConsistencyIndex = round3(b.ConsistencyIndex)
	b.PostseasonBonus = round3(b.PostseasonBonus)
	b.LuckDelta = round3(b.LuckDelta)
}
