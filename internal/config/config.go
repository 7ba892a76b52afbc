package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	// Fantasy data API
	FantasyBaseURL      string        `envconfig:"FANTASY_BASE_URL" default:"https://fantasysports.yahooapis.com/fantasy/v2"`
	FantasyAccessToken  string        `envconfig:"FANTASY_ACCESS_TOKEN" required:"true"`
	FantasyRefreshToken string        `envconfig:"FANTASY_REFRESH_TOKEN" default:""`
	FantasyTokenURL     string        `envconfig:"FANTASY_TOKEN_URL" default:"https://api.login.yahoo.com/oauth2/get_token"`
	FantasyClientID     string        `envconfig:"FANTASY_CLIENT_ID" default:""`
	FantasyClientSecret string        `envconfig:"FANTASY_CLIENT_SECRET" default:""`
	FantasyTimeout      time.Duration `envconfig:"FANTASY_TIMEOUT" default:"30s"`

	// League
	LeagueID           string `envconfig:"LEAGUE_ID" required:"true"`
	CurrentSeason      int    `envconfig:"CURRENT_SEASON" default:"2025"`
	RegularSeasonWeeks int    `envconfig:"REGULAR_SEASON_WEEKS" default:"14"`

	// GameKeySeasons maps the upstream numeric game key to the human season
	// year. The upstream API issues a new game key per season, so league keys
	// like "414.l.123456" only identify a season through this table.
	GameKeySeasons map[string]int `envconfig:"GAME_KEY_SEASONS" default:"390:2019,399:2020,406:2021,414:2022,423:2023,449:2024,461:2025"`

	// Owner display-name overrides, keyed by team key. Applied ahead of any
	// upstream nickname when rendering scores and rivalries.
	OwnerOverrides map[string]string `envconfig:"OWNER_OVERRIDES"`

	// Database
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"leaguedash"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:"leaguedash_user"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" required:"true"`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSL_MODE" default:"disable"`

	// Redis
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// HTTP API
	ServerPort       int      `envconfig:"SERVER_PORT" default:"8080"`
	CORSAllowOrigins []string `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`

	// API rate limiting
	RateLimitEnabled bool    `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	RateLimitRPS     float64 `envconfig:"RATE_LIMIT_RPS" default:"10"`
	RateLimitBurst   int     `envconfig:"RATE_LIMIT_BURST" default:"20"`

	// Scheduler
	EnableScheduler      bool   `envconfig:"ENABLE_SCHEDULER" default:"true"`
	NightlyRefreshCron   string `envconfig:"NIGHTLY_REFRESH_CRON" default:"0 4 * * *"`
	LiveWeekPollInterval int    `envconfig:"LIVE_WEEK_POLL_INTERVAL" default:"900"`

	// Cache freshness
	// CacheTTL bounds how long current-season derived data may be served
	// before a recompute; historical seasons never expire.
	CacheTTL         time.Duration `envconfig:"CACHE_TTL" default:"168h"`
	ResponseCacheTTL time.Duration `envconfig:"RESPONSE_CACHE_TTL" default:"5m"`

	// Backfill
	BackfillSeasons []int `envconfig:"BACKFILL_SEASONS"`

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if in development mode
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.FantasyAccessToken == "" {
		return fmt.Errorf("FANTASY_ACCESS_TOKEN is required")
	}

	if c.LeagueID == "" {
		return fmt.Errorf("LEAGUE_ID is required")
	}

	if c.DatabasePassword == "" {
		return fmt.Errorf("DATABASE_PASSWORD is required")
	}

	if c.RegularSeasonWeeks < 1 {
		return fmt.Errorf("REGULAR_SEASON_WEEKS must be at least 1")
	}

	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}

	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DatabaseHost,
		c.DatabasePort,
		c.DatabaseUser,
		c.DatabasePassword,
		c.DatabaseName,
		c.DatabaseSSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// SeasonForGameKey resolves an upstream game key to a season year
func (c *Config) SeasonForGameKey(gameKey string) (int, bool) {
	season, ok := c.GameKeySeasons[gameKey]
	return season, ok
}

// ParseSeason parses a season string, falling back to the configured
// current season when empty or malformed
func (c *Config) ParseSeason(s string) int {
	if s == "" {
		return c.CurrentSeason
	}
	season, err := strconv.Atoi(s)
	if err != nil {
		return c.CurrentSeason
	}
	return season
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// MustLoad loads configuration or panics on error
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
