package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Empty(t, cfg.Auth.AdminCode)
	assert.Equal(t, "Veyra", cfg.Auth.DefaultProject)
	assert.Equal(t, 15*time.Minute, cfg.Auth.UnlockWindow)
	assert.Equal(t, 30*time.Minute, cfg.Auth.AdminSessionTTL)
	assert.Equal(t, 30*time.Minute, cfg.Auth.FormSessionTTL)
	assert.Equal(t, 5*time.Minute, cfg.Auth.FallbackSkew)
	assert.Equal(t, 24*time.Hour, cfg.Telegram.InitDataMaxAge)
	assert.Equal(t, 5*time.Minute, cfg.ScoreCacheTTL())
	assert.Equal(t, 500, cfg.ScoreCache.MaxEntries)
	assert.Empty(t, cfg.RedisAddr())
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("AUTH_UNLOCK_WINDOW", "20m")
	t.Setenv("SCORE_CACHE_TTL_MS", "1000")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/veyra")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, 20*time.Minute, cfg.Auth.UnlockWindow)
	assert.Equal(t, time.Second, cfg.ScoreCacheTTL())
	assert.Equal(t, "cache:6379", cfg.RedisAddr())
	assert.Equal(t, "postgres://u:p@db:5432/veyra", cfg.DSN())
}

func TestParseRejectsNonPositiveCacheSettings(t *testing.T) {
	t.Setenv("SCORE_CACHE_MAX", "0")

	_, err := Parse()
	assert.Error(t, err)
}

func TestFallbackSecret(t *testing.T) {
	t.Run("uses webhook secret when unset", func(t *testing.T) {
		t.Setenv("TELEGRAM_WEBHOOK_SECRET", "hook")
		cfg, err := Parse()
		require.NoError(t, err)
		assert.Equal(t, "hook", cfg.FallbackSecret())
	})

	t.Run("explicit value wins", func(t *testing.T) {
		t.Setenv("TELEGRAM_WEBHOOK_SECRET", "hook")
		t.Setenv("TELEGRAM_WEBAPP_FALLBACK_SECRET", "fallback")
		cfg, err := Parse()
		require.NoError(t, err)
		assert.Equal(t, "fallback", cfg.FallbackSecret())
	})
}

func TestDSNFromParts(t *testing.T) {
	cfg := &Config{}
	cfg.Postgres.User = "veyra"
	cfg.Postgres.Password = "secret"
	cfg.Postgres.Host = "db"
	cfg.Postgres.Port = 5432
	cfg.Postgres.Database = "veyra"
	cfg.Postgres.SSLMode = "disable"

	assert.Equal(t, "postgres://veyra:secret@db:5432/veyra?sslmode=disable", cfg.DSN())
}
