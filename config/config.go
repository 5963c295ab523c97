// Package config centraliza o carregamento de configurações a partir do ambiente.
// Um arquivo .env no diretório atual é lido quando existe.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr string
	Env        string
	LogLevel   string
	LogFormat  string

	RateLimit   RateLimitConfig
	Redis       RedisConfig
	CSRF        CSRFConfig
	Geo         GeoConfig
	OS          OSConfig
	Tracking    TrackingConfig
	Concurrency ConcurrencyConfig
}

type RateLimitConfig struct {
	Points       int
	Window       time.Duration
	Store        string // "memory" ou "redis"
	StatsEnabled bool
	StatsTTL     time.Duration
	StatsKeys    bool
	StatsBucket  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (r RedisConfig) Enabled() bool { return strings.TrimSpace(r.Addr) != "" }

type CSRFConfig struct {
	AuthKey        []byte
	TrustedOrigins []string
}

type GeoConfig struct {
	Enabled     bool
	BaseURL     string
	Timeout     time.Duration
	RPS         float64
	Burst       int
	CacheTTL    time.Duration
	LocalesFile string
}

type OSConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

func (o OSConfig) Configured() bool {
	return o.BaseURL != "" && o.ClientID != "" && o.ClientSecret != ""
}

type TrackingConfig struct {
	Concurrency int
	Timeout     time.Duration
}

type ConcurrencyConfig struct {
	Max     int
	Timeout time.Duration
}

func (c Config) Production() bool { return c.Env == "production" }

// Load lê .env (se existir) e o ambiente.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv monta a configuração a partir de uma função de lookup (testes).
func FromEnv(getenv func(string) string) (Config, error) {
	e := env{get: getenv}

	cfg := Config{
		ListenAddr: e.str("LISTEN_ADDR", ":8080"),
		Env:        strings.ToLower(e.str("APP_ENV", "development")),
		LogLevel:   e.str("LOG_LEVEL", "info"),
		LogFormat:  e.str("LOG_FORMAT", "json"),
		RateLimit: RateLimitConfig{
			Points:       e.integer("RATE_LIMIT_POINTS", 100),
			Window:       e.duration("RATE_LIMIT_WINDOW", 60*time.Second),
			Store:        strings.ToLower(e.str("RATE_LIMIT_STORE", "memory")),
			StatsEnabled: e.boolean("RATE_STATS_ENABLED", false),
			StatsTTL:     e.duration("RATE_STATS_TTL", 24*time.Hour),
			StatsKeys:    e.boolean("RATE_STATS_TRACK_KEYS", false),
			StatsBucket:  e.str("RATE_STATS_BUCKET", "minute"),
		},
		Redis: RedisConfig{
			Addr:     e.str("REDIS_ADDR", ""),
			Password: e.str("REDIS_PASSWORD", ""),
			DB:       e.integer("REDIS_DB", 0),
		},
		CSRF: CSRFConfig{
			TrustedOrigins: e.list("CSRF_TRUSTED_ORIGINS"),
		},
		Geo: GeoConfig{
			Enabled:     e.boolean("GEO_ENABLED", true),
			BaseURL:     e.str("GEO_BASE_URL", "https://ipapi.co"),
			Timeout:     e.duration("GEO_TIMEOUT", 2*time.Second),
			RPS:         e.float("GEO_RPS", 5),
			Burst:       e.integer("GEO_BURST", 10),
			CacheTTL:    e.duration("GEO_CACHE_TTL", time.Hour),
			LocalesFile: e.str("GEO_LOCALES_FILE", ""),
		},
		OS: OSConfig{
			BaseURL:      e.str("OS_BASE_URL", ""),
			ClientID:     e.str("OS_CLIENT_ID", ""),
			ClientSecret: e.str("OS_CLIENT_SECRET", ""),
			Timeout:      e.duration("OS_TIMEOUT", 10*time.Second),
		},
		Tracking: TrackingConfig{
			Concurrency: e.integer("TRACKING_CONCURRENCY", 8),
			Timeout:     e.duration("TRACKING_TIMEOUT", 15*time.Second),
		},
		Concurrency: ConcurrencyConfig{
			Max:     e.integer("CONCURRENCY_MAX", 0),
			Timeout: e.duration("CONCURRENCY_TIMEOUT", 0),
		},
	}

	if raw := e.str("CSRF_AUTH_KEY", ""); raw != "" {
		key, err := hex.DecodeString(raw)
		if err != nil {
			e.fail("CSRF_AUTH_KEY", err)
		} else if len(key) != 32 {
			e.fail("CSRF_AUTH_KEY", fmt.Errorf("must be 32 bytes, got %d", len(key)))
		}
		cfg.CSRF.AuthKey = key
	}

	if err := errors.Join(e.errs...); err != nil {
		return Config{}, err
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.RateLimit.Points <= 0 {
		return errors.New("RATE_LIMIT_POINTS must be > 0")
	}
	if c.RateLimit.Window <= 0 {
		return errors.New("RATE_LIMIT_WINDOW must be > 0")
	}
	switch c.RateLimit.Store {
	case "memory":
	case "redis":
		if !c.Redis.Enabled() {
			return errors.New("REDIS_ADDR is required when RATE_LIMIT_STORE=redis")
		}
	default:
		return fmt.Errorf("RATE_LIMIT_STORE must be memory or redis, got %q", c.RateLimit.Store)
	}
	if c.Concurrency.Max < 0 {
		return errors.New("CONCURRENCY_MAX must be >= 0")
	}
	return nil
}
