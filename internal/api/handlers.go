// Package api exposes the dashboard over HTTP: season standings, composite
// dominance scores, the all-time rivalry table, and cross-season
// comparisons. Responses are cached in Redis for a short TTL in front of
// the Postgres read-through.
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"leaguedash/internal/cache"
	"leaguedash/internal/config"
	"leaguedash/internal/models"
	"leaguedash/internal/repository"
)

// Provider is the service surface the handlers depend on
type Provider interface {
	Standings(ctx context.Context, season int) ([]models.Standing, error)
	SeasonScores(ctx context.Context, season int) ([]models.CompositeScore, error)
	Rivalries(ctx context.Context) ([]models.Rivalry, error)
	CompareSeasons(ctx context.Context, seasons []int) (map[int][]models.CompositeScore, error)
	Leagues(ctx context.Context) ([]models.League, error)
	RefreshSeason(ctx context.Context, season int) ([]models.CompositeScore, error)
}

// Handler holds shared dependencies for all endpoint handlers
type Handler struct {
	svc   Provider
	cache *cache.RedisCache
	db    *repository.Database
	cfg   *config.Config
}

// NewHandler creates a Handler with shared dependencies. cache and db may
// be nil in tests.
func NewHandler(svc Provider, redisCache *cache.RedisCache, db *repository.Database, cfg *config.Config) *Handler {
	return &Handler{
		svc:   svc,
		cache: redisCache,
		db:    db,
		cfg:   cfg,
	}
}

// Root serves API info at /
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":    "LeagueDash API",
		"version": "1.0.0",
		"status":  "running",
		"endpoints": []string{
			"/api/v1/seasons",
			"/api/v1/seasons/{season}/standings",
			"/api/v1/seasons/{season}/scores",
			"/api/v1/rivalries",
			"/api/v1/compare?seasons=2019,2020",
		},
	})
}

// HealthCheck returns basic health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if h.db == nil || h.db.Health(r.Context()) != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"pool":      h.db.PoolStats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache reports Redis connectivity. A down cache is degraded,
// not unhealthy; every response can be recomputed without it.
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	redisState := "connected"
	if h.cache == nil || h.cache.Health(r.Context()) != nil {
		status = "degraded"
		redisState = "disconnected"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    status,
		"redis":     redisState,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ListSeasons returns the cached league seasons
func (h *Handler) ListSeasons(w http.ResponseWriter, r *http.Request) {
	var leagues []models.League
	if h.cache.GetJSON(r.Context(), "leagues", &leagues) {
		writeJSON(w, http.StatusOK, leagues)
		return
	}

	leagues, err := h.svc.Leagues(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list seasons")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Failed to list seasons")
		return
	}

	h.cache.SetJSON(r.Context(), "leagues", leagues, h.cfg.ResponseCacheTTL)
	writeJSON(w, http.StatusOK, leagues)
}

// GetStandings returns the standings for one season
func (h *Handler) GetStandings(w http.ResponseWriter, r *http.Request) {
	season, ok := h.seasonParam(w, r)
	if !ok {
		return
	}

	key := "standings:" + strconv.Itoa(season)
	var standings []models.Standing
	if h.cache.GetJSON(r.Context(), key, &standings) {
		writeJSON(w, http.StatusOK, standings)
		return
	}

	standings, err := h.svc.Standings(r.Context(), season)
	if err != nil {
		log.Error().Err(err).Int("season", season).Msg("Failed to load standings")
		writeError(w, http.StatusBadGateway, "UPSTREAM", "Failed to load standings")
		return
	}
	if len(standings) == 0 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "No standings for season")
		return
	}

	h.cache.SetJSON(r.Context(), key, standings, h.cfg.ResponseCacheTTL)
	writeJSON(w, http.StatusOK, standings)
}

// GetScores returns the composite dominance scores for one season
func (h *Handler) GetScores(w http.ResponseWriter, r *http.Request) {
	season, ok := h.seasonParam(w, r)
	if !ok {
		return
	}

	key := "scores:" + strconv.Itoa(season)
	var scores []models.CompositeScore
	if h.cache.GetJSON(r.Context(), key, &scores) {
		writeJSON(w, http.StatusOK, scores)
		return
	}

	scores, err := h.svc.SeasonScores(r.Context(), season)
	if err != nil {
		log.Error().Err(err).Int("season", season).Msg("Failed to score season")
		writeError(w, http.StatusBadGateway, "UPSTREAM", "Failed to score season")
		return
	}
	if len(scores) == 0 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "No data for season")
		return
	}

	h.cache.SetJSON(r.Context(), key, scores, h.cfg.ResponseCacheTTL)
	writeJSON(w, http.StatusOK, scores)
}

// GetRivalries returns the all-time head-to-head table
func (h *Handler) GetRivalries(w http.ResponseWriter, r *http.Request) {
	var rivalries []models.Rivalry
	if h.cache.GetJSON(r.Context(), "rivalries", &rivalries) {
		writeJSON(w, http.StatusOK, rivalries)
		return
	}

	rivalries, err := h.svc.Rivalries(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to build rivalries")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Failed to build rivalries")
		return
	}

	h.cache.SetJSON(r.Context(), "rivalries", rivalries, h.cfg.ResponseCacheTTL)
	writeJSON(w, http.StatusOK, rivalries)
}

// CompareSeasons scores several seasons side by side. Seasons come from
// the comma-separated "seasons" query parameter.
func (h *Handler) CompareSeasons(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("seasons")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Missing seasons parameter")
		return
	}

	var seasons []int
	for _, part := range strings.Split(raw, ",") {
		season, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid season: "+part)
			return
		}
		seasons = append(seasons, season)
	}

	result, err := h.svc.CompareSeasons(r.Context(), seasons)
	if err != nil {
		log.Error().Err(err).Ints("seasons", seasons).Msg("Comparison failed")
		writeError(w, http.StatusBadGateway, "UPSTREAM", "Failed to compare seasons")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// TriggerRefresh forces a full refresh of one season, bypassing freshness
func (h *Handler) TriggerRefresh(w http.ResponseWriter, r *http.Request) {
	season, ok := h.seasonParam(w, r)
	if !ok {
		return
	}

	scores, err := h.svc.RefreshSeason(r.Context(), season)
	if err != nil {
		log.Error().Err(err).Int("season", season).Msg("Manual refresh failed")
		writeError(w, http.StatusBadGateway, "UPSTREAM", "Refresh failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"season":  season,
		"teams":   len(scores),
		"status":  "refreshed",
		"updated": time.Now().UTC().Format(time.RFC3339),
	})
}

// seasonParam parses the {season} URL parameter
func (h *Handler) seasonParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "season")
	season, err := strconv.Atoi(raw)
	if err != nil || season < 1990 || season > 2100 {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid season: "+raw)
		return 0, false
	}
	return season, true
}
