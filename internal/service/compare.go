package service

import (
	"context"
	"fmt"
	"sync"

	"leaguedash/internal/models"

	"github.com/rs/zerolog/log"
)

// maxCompareSeasons bounds one comparison request
const maxCompareSeasons = 12

// CompareSeasons computes the composite scores for several seasons in
// parallel and returns them keyed by season year. Seasons that fail to
// load are omitted from the result; the call errors only when every
// season fails.
func (s *Service) CompareSeasons(ctx context.Context, seasons []int) (map[int][]models.CompositeScore, error) {
	if len(seasons) == 0 {
		return nil, fmt.Errorf("no seasons requested")
	}
	if len(seasons) > maxCompareSeasons {
		return nil, fmt.Errorf("too many seasons requested: %d (max %d)", len(seasons), maxCompareSeasons)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		result  = make(map[int][]models.CompositeScore, len(seasons))
		lastErr error
	)

	for _, season := range seasons {
		wg.Add(1)
		go func(season int) {
			defer wg.Done()

			scores, err := s.SeasonScores(ctx, season)
			if err != nil {
				log.Warn().Err(err).Int("season", season).Msg("Failed to score season in comparison")
				mu.Lock()
				lastErr = err
				mu.Unlock()
				return
			}

			mu.Lock()
			result[season] = scores
			mu.Unlock()
		}(season)
	}

	wg.Wait()

	if len(result) == 0 {
		return nil, fmt.Errorf("failed to score any requested season: %w", lastErr)
	}
	return result, nil
}
