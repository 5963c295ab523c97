package infra

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"site-edge/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

//go:embed window.lua
var windowScriptSrc string

var windowScript = redis.NewScript(windowScriptSrc)

// RedisWindowStore compartilha os contadores de janela fixa entre instâncias.
type RedisWindowStore struct {
	rdb    redis.Cmdable
	prefix string
}

type RedisWindowOption func(*RedisWindowStore)

func WithWindowPrefix(prefix string) RedisWindowOption {
	return func(s *RedisWindowStore) { s.prefix = strings.Trim(prefix, ":") }
}

func NewRedisWindowStore(rdb redis.Cmdable, opts ...RedisWindowOption) *RedisWindowStore {
	s := &RedisWindowStore{rdb: rdb, prefix: "ratelimit:window"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Increment implementa domain.WindowStore.
func (s *RedisWindowStore) Increment(ctx context.Context, key domain.Key, window time.Duration) (int64, time.Duration, error) {
	k := s.prefix + ":" + string(key)
	res, err := windowScript.Run(ctx, s.rdb, []string{k}, window.Milliseconds()).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("redis window script for %s: %w", k, err)
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) != 2 {
		return 0, 0, fmt.Errorf("unexpected redis window result for %s: %T", k, res)
	}
	count, ok1 := vals[0].(int64)
	ttlMs, ok2 := vals[1].(int64)
	if !ok1 || !ok2 {
		return 0, 0, fmt.Errorf("unexpected redis window values for %s: %v", k, vals)
	}
	return count, time.Duration(ttlMs) * time.Millisecond, nil
}
