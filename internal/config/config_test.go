package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("FANTASY_ACCESS_TOKEN", "test-token")
	t.Setenv("LEAGUE_ID", "123456")
	t.Setenv("DATABASE_PASSWORD", "test-password")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err, "Should load with required vars set")

	assert.Equal(t, 2025, cfg.CurrentSeason)
	assert.Equal(t, 14, cfg.RegularSeasonWeeks)
	assert.Equal(t, 7*24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.True(t, cfg.RateLimitEnabled)
	assert.Equal(t, "0 4 * * *", cfg.NightlyRefreshCron)
	assert.NotEmpty(t, cfg.GameKeySeasons, "Default game key table should be populated")
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("FANTASY_ACCESS_TOKEN", "")
	t.Setenv("LEAGUE_ID", "123456")
	t.Setenv("DATABASE_PASSWORD", "pw")

	_, err := Load()
	assert.Error(t, err, "Missing access token should fail")
}

func TestValidate(t *testing.T) {
	valid := Config{
		FantasyAccessToken: "token",
		LeagueID:           "123456",
		DatabasePassword:   "pw",
		RegularSeasonWeeks: 14,
		CacheTTL:           time.Hour,
	}
	assert.NoError(t, valid.Validate())

	noWeeks := valid
	noWeeks.RegularSeasonWeeks = 0
	assert.Error(t, noWeeks.Validate(), "Zero regular-season weeks should be rejected")

	noTTL := valid
	noTTL.CacheTTL = 0
	assert.Error(t, noTTL.Validate(), "Zero cache TTL should be rejected")
}

func TestSeasonForGameKey(t *testing.T) {
	cfg := Config{GameKeySeasons: map[string]int{"414": 2022, "423": 2023}}

	season, ok := cfg.SeasonForGameKey("414")
	assert.True(t, ok)
	assert.Equal(t, 2022, season)

	_, ok = cfg.SeasonForGameKey("999")
	assert.False(t, ok, "Unknown game keys should not resolve")
}

func TestParseSeason(t *testing.T) {
	cfg := Config{CurrentSeason: 2025}

	assert.Equal(t, 2022, cfg.ParseSeason("2022"))
	assert.Equal(t, 2025, cfg.ParseSeason(""), "Empty input should fall back to the current season")
	assert.Equal(t, 2025, cfg.ParseSeason("latest"), "Malformed input should fall back to the current season")
}

func TestDatabaseDSN(t *testing.T) {
	cfg := Config{
		DatabaseHost:     "db.internal",
		DatabasePort:     5433,
		DatabaseUser:     "app",
		DatabasePassword: "secret",
		DatabaseName:     "leaguedash",
		DatabaseSSLMode:  "require",
	}

	dsn := cfg.DatabaseDSN()
	assert.Contains(t, dsn, "host=db.internal")
	assert.Contains(t, dsn, "port=5433")
	assert.Contains(t, dsn, "sslmode=require")
}
