package geo

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache guarda resultados de lookup por IP. Falhas de cache são tratadas como miss.
type Cache interface {
	Get(ctx context.Context, ip string) (Info, bool)
	Set(ctx context.Context, ip string, info Info, ttl time.Duration)
}

type memoryEntry struct {
	info      Info
	expiresAt time.Time
}

// MemoryCache é um cache TTL simples, por processo.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	max     int
	now     func() time.Time
}

// NewMemoryCache limita o cache a max entradas; ao encher, entradas expiradas
// são removidas e, se ainda estiver cheio, o Set é ignorado.
func NewMemoryCache(max int) *MemoryCache {
	if max <= 0 {
		max = 10_000
	}
	return &MemoryCache{entries: make(map[string]memoryEntry), max: max, now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, ip string) (Info, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[ip]
	if !ok {
		return Info{}, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, ip)
		return Info{}, false
	}
	return e.info, true
}

func (c *MemoryCache) Set(_ context.Context, ip string, info Info, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[ip]; !exists && len(c.entries) >= c.max {
		for k, e := range c.entries {
			if !now.Before(e.expiresAt) {
				delete(c.entries, k)
			}
		}
		if len(c.entries) >= c.max {
			return
		}
	}
	c.entries[ip] = memoryEntry{info: info, expiresAt: now.Add(ttl)}
}

const redisCachePrefix = "geo:ip:"

// RedisCache compartilha os lookups entre instâncias.
type RedisCache struct {
	rdb redis.Cmdable
}

func NewRedisCache(rdb redis.Cmdable) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) Get(ctx context.Context, ip string) (Info, bool) {
	data, err := c.rdb.Get(ctx, redisCachePrefix+ip).Bytes()
	if err != nil {
		return Info{}, false // miss ou erro do Redis
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return Info{}, false
	}
	return info, true
}

func (c *RedisCache) Set(ctx context.Context, ip string, info Info, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	data, err := json.Marshal(info)
	if err != nil {
		return
	}
	_ = c.rdb.Set(ctx, redisCachePrefix+ip, data, ttl).Err()
}
