package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"leaguedash/internal/metrics"
	"leaguedash/internal/models"

	"github.com/rs/zerolog/log"
)

// Client is the fantasy data API client. It authenticates with a bearer
// token and transparently refreshes it once when the upstream rejects it.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter chan struct{} // Rate limiting semaphore
	maxRetries  int
	retryDelay  time.Duration

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	tokenURL     string
	clientID     string
	clientSecret string
}

// Credentials holds the OAuth material for the upstream API. RefreshToken
// and the client pair are optional; without them a 401 is terminal.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	TokenURL     string
	ClientID     string
	ClientSecret string
}

// NewClient creates a new fantasy API client
func NewClient(baseURL string, creds Credentials, timeout time.Duration) *Client {
	// Rate limiter (max 10 concurrent requests)
	rateLimiter := make(chan struct{}, 10)
	for i := 0; i < 10; i++ {
		rateLimiter <- struct{}{}
	}

	return &Client{
		baseURL:      baseURL,
		rateLimiter:  rateLimiter,
		maxRetries:   3,
		retryDelay:   1 * time.Second,
		accessToken:  creds.AccessToken,
		refreshToken: creds.RefreshToken,
		tokenURL:     creds.TokenURL,
		clientID:     creds.ClientID,
		clientSecret: creds.ClientSecret,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// get performs a GET request with retry logic, rate limiting, and a single
// token refresh on an auth failure
func (c *Client) get(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	requestURL := fmt.Sprintf("%s/%s", c.baseURL, path)
	start := time.Now()
	refreshed := false

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s
			backoff := c.retryDelay * time.Duration(1<<uint(attempt-1))
			log.Info().
				Str("url", requestURL).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Retrying API request after backoff")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		body, status, err := c.doRequest(ctx, requestURL, params)
		if err != nil {
			lastErr = fmt.Errorf("API request failed: %w", err)
			if attempt < c.maxRetries {
				continue
			}
			metrics.RecordUpstreamCall(path, "error", time.Since(start).Seconds())
			return nil, lastErr
		}

		switch status {
		case http.StatusOK:
			log.Debug().
				Str("url", requestURL).
				Int("status", status).
				Int("size", len(body)).
				Msg("API request successful")
			metrics.RecordUpstreamCall(path, "ok", time.Since(start).Seconds())
			return body, nil

		case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			lastErr = fmt.Errorf("API returned retryable status %d: %s", status, string(body))
			if attempt < c.maxRetries {
				log.Warn().
					Str("url", requestURL).
					Int("status", status).
					Int("attempt", attempt+1).
					Msg("Received retryable error, will retry")
				continue
			}
			metrics.RecordUpstreamCall(path, "retryable", time.Since(start).Seconds())
			return nil, lastErr

		case http.StatusUnauthorized:
			// One refresh attempt per request, then the failure is terminal
			if !refreshed && c.refreshToken != "" {
				refreshed = true
				if err := c.refreshAccessToken(ctx); err != nil {
					metrics.RecordUpstreamCall(path, "auth_failed", time.Since(start).Seconds())
					return nil, fmt.Errorf("token refresh failed: %w", err)
				}
				continue
			}
			metrics.RecordUpstreamCall(path, "auth_failed", time.Since(start).Seconds())
			return nil, fmt.Errorf("API authentication failed (status %d): %s", status, string(body))

		default:
			metrics.RecordUpstreamCall(path, "error", time.Since(start).Seconds())
			return nil, fmt.Errorf("API returned status %d: %s", status, string(body))
		}
	}

	return nil, lastErr
}

// doRequest performs a single HTTP round trip under the rate limiter
func (c *Client) doRequest(ctx context.Context, requestURL string, params map[string]string) ([]byte, int, error) {
	select {
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	case <-c.rateLimiter:
		defer func() { c.rateLimiter <- struct{}{} }()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	c.mu.Lock()
	token := c.accessToken
	c.mu.Unlock()

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "leaguedash/1.0")

	if len(params) > 0 {
		q := req.URL.Query()
		for key, value := range params {
			q.Add(key, value)
		}
		req.URL.RawQuery = q.Encode()
	}

	log.Debug().
		Str("url", requestURL).
		Str("method", req.Method).
		Msg("Making API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, resp.StatusCode, nil
}

// refreshAccessToken exchanges the refresh token for a new access token
func (c *Client) refreshAccessToken(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", c.refreshToken)
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return fmt.Errorf("failed to unmarshal token response: %w", err)
	}

	if tokenResp.AccessToken == "" {
		return fmt.Errorf("token endpoint returned empty access token")
	}

	c.accessToken = tokenResp.AccessToken
	if tokenResp.RefreshToken != "" {
		c.refreshToken = tokenResp.RefreshToken
	}

	log.Info().Msg("Access token refreshed")
	return nil
}

// FetchLeague fetches league settings and metadata for a season
func (c *Client) FetchLeague(ctx context.Context, leagueKey string) (*models.LeagueInput, error) {
	path := fmt.Sprintf("league/%s/settings", leagueKey)
	body, err := c.get(ctx, path, map[string]string{"format": "json"})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch league: %w", err)
	}

	var league models.LeagueInput
	if err := json.Unmarshal(body, &league); err != nil {
		return nil, fmt.Errorf("failed to unmarshal league: %w", err)
	}

	return &league, nil
}

// FetchStandings fetches the standings for a league season
func (c *Client) FetchStandings(ctx context.Context, leagueKey string) ([]models.StandingInput, error) {
	path := fmt.Sprintf("league/%s/standings", leagueKey)
	body, err := c.get(ctx, path, map[string]string{"format": "json"})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch standings: %w", err)
	}

	var standings []models.StandingInput
	if err := json.Unmarshal(body, &standings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal standings: %w", err)
	}

	return standings, nil
}

// FetchScoreboard fetches all team scores for one week of a league season
func (c *Client) FetchScoreboard(ctx context.Context, leagueKey string, week int) ([]models.MatchupInput, error) {
	path := fmt.Sprintf("league/%s/scoreboard", leagueKey)
	body, err := c.get(ctx, path, map[string]string{
		"format": "json",
		"week":   fmt.Sprintf("%d", week),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch scoreboard: %w", err)
	}

	var matchups []models.MatchupInput
	if err := json.Unmarshal(body, &matchups); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scoreboard: %w", err)
	}

	return matchups, nil
}
