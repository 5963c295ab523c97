package infra

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisWindowStore_CountsAndExpires(t *testing.T) {
	mr, rdb := newTestRedis(t)
	s := NewRedisWindowStore(rdb)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		count, ttl, err := s.Increment(ctx, "1.2.3.4", time.Minute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count != i {
			t.Fatalf("expected count=%d, got %d", i, count)
		}
		if ttl <= 0 || ttl > time.Minute {
			t.Fatalf("expected ttl within (0, 1m], got %s", ttl)
		}
	}

	mr.FastForward(time.Minute + time.Second)

	count, _, err := s.Increment(ctx, "1.2.3.4", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected counter reset after window, got %d", count)
	}
}

func TestRedisWindowStore_UsesPrefix(t *testing.T) {
	mr, rdb := newTestRedis(t)
	s := NewRedisWindowStore(rdb, WithWindowPrefix("edge:rl:"))

	if _, _, err := s.Increment(context.Background(), "k", time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !mr.Exists("edge:rl:k") {
		t.Fatalf("expected key edge:rl:k to exist, keys=%v", mr.Keys())
	}
}

func TestRedisWindowStore_ErrorWhenRedisDown(t *testing.T) {
	mr, rdb := newTestRedis(t)
	s := NewRedisWindowStore(rdb)
	mr.Close()

	if _, _, err := s.Increment(context.Background(), "k", time.Minute); err == nil {
		t.Fatalf("expected error with redis down")
	}
}
