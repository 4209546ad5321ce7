package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug       bool   `env:"DEBUG" envDefault:"false"`
	Environment string `env:"APP_ENV" envDefault:"development"`

	Server struct {
		Port          int    `env:"PORT" envDefault:"8080"`
		Origin        string `env:"ORIGIN" envDefault:"http://localhost:3000"`
		PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:""`
	}

	Postgres struct {
		Host            string        `env:"POSTGRES_HOST" envDefault:"localhost"`
		Port            int           `env:"POSTGRES_PORT" envDefault:"5432"`
		User            string        `env:"POSTGRES_USER" envDefault:"postgres"`
		Password        string        `env:"POSTGRES_PASSWORD" envDefault:""`
		Database        string        `env:"POSTGRES_DB" envDefault:"veyra"`
		SSLMode         string        `env:"POSTGRES_SSLMODE" envDefault:"disable"`
		MaxConns        int32         `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
		ConnMaxLifetime time.Duration `env:"POSTGRES_CONN_MAX_LIFETIME" envDefault:"30m"`
		// URL overrides the individual fields when set.
		URL         string `env:"DATABASE_URL" envDefault:""`
		AutoMigrate bool   `env:"POSTGRES_AUTO_MIGRATE" envDefault:"true"`
	}

	Redis struct {
		// Empty host disables Redis; caches and the rate limiter fall back to process memory.
		Host     string `env:"REDIS_HOST" envDefault:""`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Telegram struct {
		BotToken          string        `env:"TELEGRAM_BOT_TOKEN" envDefault:""`
		WebhookSecret     string        `env:"TELEGRAM_WEBHOOK_SECRET" envDefault:""`
		FallbackSecret    string        `env:"TELEGRAM_WEBAPP_FALLBACK_SECRET" envDefault:""`
		APIURL            string        `env:"TELEGRAM_API_URL" envDefault:"https://api.telegram.org"`
		InitDataMaxAge    time.Duration `env:"TELEGRAM_INITDATA_MAX_AGE" envDefault:"24h"`
		WelcomeBannerFile string        `env:"TELEGRAM_WELCOME_BANNER_FILE_ID" envDefault:""`
		WelcomeBannerURL  string        `env:"TELEGRAM_WELCOME_BANNER_URL" envDefault:""`
	}

	Auth struct {
		AdminCode       string        `env:"VEYRA_ADMIN_CODE" envDefault:""`
		DefaultProject  string        `env:"VEYRA_DEFAULT_PROJECT" envDefault:"Veyra"`
		UnlockWindow    time.Duration `env:"AUTH_UNLOCK_WINDOW" envDefault:"15m"`
		AdminSessionTTL time.Duration `env:"AUTH_ADMIN_SESSION_TTL" envDefault:"30m"`
		FormSessionTTL  time.Duration `env:"AUTH_FORM_SESSION_TTL" envDefault:"30m"`
		FallbackSkew    time.Duration `env:"AUTH_FALLBACK_SKEW" envDefault:"5m"`
	}

	FairScale struct {
		BaseURL string        `env:"FAIRSCALE_API_BASE" envDefault:"https://api2.fairscale.xyz"`
		APIKey  string        `env:"FAIRSCALE_API_KEY" envDefault:""`
		Timeout time.Duration `env:"FAIRSCALE_TIMEOUT" envDefault:"10s"`
	}

	ScoreCache struct {
		TTLMillis  int64 `env:"SCORE_CACHE_TTL_MS" envDefault:"300000"`
		MaxEntries int   `env:"SCORE_CACHE_MAX" envDefault:"500"`
	}

	RateLimit struct {
		Requests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"30"`
		Window   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
	}

	PublicCache struct {
		TTL time.Duration `env:"PUBLIC_CACHE_TTL" envDefault:"15s"`
	}

	Sentry struct {
		DSN         string  `env:"SENTRY_DSN" envDefault:""`
		SampleRate  float64 `env:"SENTRY_TRACES_SAMPLE_RATE" envDefault:"0"`
		Environment string  `env:"SENTRY_ENVIRONMENT" envDefault:""`
	}
}

// DSN returns the postgres connection string in URL form, which both pgx and migrate accept.
func (c *Config) DSN() string {
	if c.Postgres.URL != "" {
		return c.Postgres.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Postgres.User, c.Postgres.Password, c.Postgres.Host, c.Postgres.Port,
		c.Postgres.Database, c.Postgres.SSLMode)
}

func (c *Config) RedisAddr() string {
	if c.Redis.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// FallbackSecret falls back to the webhook secret, as deployments share one value.
func (c *Config) FallbackSecret() string {
	if c.Telegram.FallbackSecret != "" {
		return c.Telegram.FallbackSecret
	}
	return c.Telegram.WebhookSecret
}

func (c *Config) ScoreCacheTTL() time.Duration {
	return time.Duration(c.ScoreCache.TTLMillis) * time.Millisecond
}

func Load() *Config {
	// .env is optional; production sets variables directly
	_ = godotenv.Load()

	cfg, err := Parse()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Parse reads the environment without touching .env files.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if cfg.ScoreCache.TTLMillis <= 0 {
		return nil, fmt.Errorf("SCORE_CACHE_TTL_MS must be positive")
	}
	if cfg.ScoreCache.MaxEntries <= 0 {
		return nil, fmt.Errorf("SCORE_CACHE_MAX must be positive")
	}
	return cfg, nil
}
