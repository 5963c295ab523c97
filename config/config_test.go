package config

import (
	"strings"
	"testing"
	"time"
)

func lookup(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(lookup(nil))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if cfg.RateLimit.Points != 100 || cfg.RateLimit.Window != time.Minute {
		t.Fatalf("unexpected policy: %+v", cfg.RateLimit)
	}
	if cfg.RateLimit.Store != "memory" {
		t.Fatalf("expected memory store, got %q", cfg.RateLimit.Store)
	}
	if cfg.Geo.Timeout != 2*time.Second || !cfg.Geo.Enabled {
		t.Fatalf("unexpected geo: %+v", cfg.Geo)
	}
	if cfg.Production() {
		t.Fatalf("default env should not be production")
	}
	if cfg.OS.Configured() {
		t.Fatalf("os client should not be configured")
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(lookup(map[string]string{
		"RATE_LIMIT_POINTS":    "5",
		"RATE_LIMIT_WINDOW":    "10s",
		"RATE_LIMIT_STORE":     "redis",
		"REDIS_ADDR":           "localhost:6379",
		"CSRF_AUTH_KEY":        strings.Repeat("ab", 32),
		"CSRF_TRUSTED_ORIGINS": "a.example.com, b.example.com",
		"OS_BASE_URL":          "https://os.example.com",
		"OS_CLIENT_ID":         "id",
		"OS_CLIENT_SECRET":     "secret",
		"APP_ENV":              "Production",
	}))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if cfg.RateLimit.Points != 5 || cfg.RateLimit.Window != 10*time.Second {
		t.Fatalf("unexpected policy: %+v", cfg.RateLimit)
	}
	if !cfg.Redis.Enabled() || !cfg.OS.Configured() || !cfg.Production() {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if len(cfg.CSRF.AuthKey) != 32 || len(cfg.CSRF.TrustedOrigins) != 2 {
		t.Fatalf("unexpected csrf: %+v", cfg.CSRF)
	}
}

func TestFromEnv_ReportsAllParseErrors(t *testing.T) {
	_, err := FromEnv(lookup(map[string]string{
		"RATE_LIMIT_POINTS": "abc",
		"GEO_TIMEOUT":       "soon",
	}))
	if err == nil {
		t.Fatalf("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "RATE_LIMIT_POINTS") || !strings.Contains(msg, "GEO_TIMEOUT") {
		t.Fatalf("expected both keys in error, got %q", msg)
	}
}

func TestFromEnv_Validation(t *testing.T) {
	cases := map[string]map[string]string{
		"redis sem addr":   {"RATE_LIMIT_STORE": "redis"},
		"store invalido":   {"RATE_LIMIT_STORE": "disk"},
		"pontos zero":      {"RATE_LIMIT_POINTS": "0"},
		"chave curta":      {"CSRF_AUTH_KEY": "abcd"},
		"chave nao hex":    {"CSRF_AUTH_KEY": "zz"},
		"concorrencia neg": {"CONCURRENCY_MAX": "-1"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := FromEnv(lookup(env)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
