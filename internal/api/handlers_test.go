package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"leaguedash/internal/config"
	"leaguedash/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider serves canned data so handlers can be tested without a
// database or upstream
type stubProvider struct {
	scores     []models.CompositeScore
	standings  []models.Standing
	rivalries  []models.Rivalry
	leagues    []models.League
	scoresErr  error
	refreshed  []int
	lastSeason int
}

func (s *stubProvider) Standings(_ context.Context, season int) ([]models.Standing, error) {
	s.lastSeason = season
	return s.standings, nil
}

func (s *stubProvider) SeasonScores(_ context.Context, season int) ([]models.CompositeScore, error) {
	s.lastSeason = season
	return s.scores, s.scoresErr
}

func (s *stubProvider) Rivalries(_ context.Context) ([]models.Rivalry, error) {
	return s.rivalries, nil
}

func (s *stubProvider) CompareSeasons(ctx context.Context, seasons []int) (map[int][]models.CompositeScore, error) {
	result := make(map[int][]models.CompositeScore, len(seasons))
	for _, season := range seasons {
		result[season] = s.scores
	}
	return result, nil
}

func (s *stubProvider) Leagues(_ context.Context) ([]models.League, error) {
	return s.leagues, nil
}

func (s *stubProvider) RefreshSeason(_ context.Context, season int) ([]models.CompositeScore, error) {
	s.refreshed = append(s.refreshed, season)
	return s.scores, nil
}

func testConfig() *config.Config {
	return &config.Config{
		LeagueID:         "123456",
		CurrentSeason:    2025,
		CORSAllowOrigins: []string{"http://localhost:3000"},
		ResponseCacheTTL: 5 * time.Minute,
	}
}

func testRouter(stub *stubProvider) http.Handler {
	return NewRouter(stub, nil, nil, testConfig())
}

func sampleScores() []models.CompositeScore {
	return []models.CompositeScore{
		{Season: 2022, TeamKey: "t1", Owner: "Alice", Score: 96.5, Rank: 1, FinalRank: 1, Interpretation: models.TierEraDefining},
		{Season: 2022, TeamKey: "t2", Owner: "Bob", Score: 71.2, Rank: 2, FinalRank: 3, Interpretation: models.TierSolid},
	}
}

func TestGetScores(t *testing.T) {
	stub := &stubProvider{scores: sampleScores()}
	router := testRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/seasons/2022/scores", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2022, stub.lastSeason, "Season path parameter should reach the service")

	var scores []models.CompositeScore
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &scores))
	require.Len(t, scores, 2)
	assert.Equal(t, "Alice", scores[0].Owner)
	assert.Equal(t, 96.5, scores[0].Score)
}

func TestGetScores_InvalidSeason(t *testing.T) {
	router := testRouter(&stubProvider{})

	for _, season := range []string{"abc", "1200", "99999"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/seasons/"+season+"/scores", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "Season %q should be rejected", season)
	}
}

func TestGetScores_UpstreamFailure(t *testing.T) {
	stub := &stubProvider{scoresErr: fmt.Errorf("connection refused")}
	router := testRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/seasons/2022/scores", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "UPSTREAM", resp.Error.Code)
}

func TestGetScores_EmptySeason(t *testing.T) {
	router := testRouter(&stubProvider{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/seasons/2022/scores", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCompareSeasons(t *testing.T) {
	stub := &stubProvider{scores: sampleScores()}
	router := testRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/compare?seasons=2021,2022", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result map[string][]models.CompositeScore
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Len(t, result, 2)
	assert.Contains(t, result, "2021")
	assert.Contains(t, result, "2022")
}

func TestCompareSeasons_BadInput(t *testing.T) {
	router := testRouter(&stubProvider{})

	for _, query := range []string{"", "seasons=", "seasons=2021,abc"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/compare?"+query, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "Query %q should be rejected", query)
	}
}

func TestTriggerRefresh(t *testing.T) {
	stub := &stubProvider{scores: sampleScores()}
	router := testRouter(stub)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/seasons/2023/refresh", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int{2023}, stub.refreshed, "Refresh should bypass the freshness check")
}

func TestHealthCheck(t *testing.T) {
	router := testRouter(&stubProvider{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestHealthCheckDB_NoDatabase(t *testing.T) {
	router := testRouter(&stubProvider{})

	req := httptest.NewRequest(http.MethodGet, "/health/db", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitEnabled = true
	cfg.RateLimitRPS = 1
	cfg.RateLimitBurst = 2

	router := NewRouter(&stubProvider{}, nil, nil, cfg)

	limited := false
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			limited = true
		}
	}
	assert.True(t, limited, "Burst of requests past the limit should be rejected")
}
