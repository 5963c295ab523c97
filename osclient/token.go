package osclient

import (
	"sync"
	"time"
)

const (
	// ExpiryBuffer: o token é renovado um minuto antes de expirar de fato.
	ExpiryBuffer     = 60 * time.Second
	defaultExpiresIn = 3600
)

type Token struct {
	Value     string
	ExpiresAt time.Time
}

// TokenCache guarda um único bearer token em memória.
type TokenCache struct {
	mu  sync.RWMutex
	tok Token
	now func() time.Time
}

func NewTokenCache(now func() time.Time) *TokenCache {
	if now == nil {
		now = time.Now
	}
	return &TokenCache{now: now}
}

// Valid devolve o token se now < ExpiresAt - ExpiryBuffer.
func (c *TokenCache) Valid() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.tok.Value == "" || !c.now().Before(c.tok.ExpiresAt.Add(-ExpiryBuffer)) {
		return "", false
	}
	return c.tok.Value, true
}

func (c *TokenCache) Store(tok Token) {
	c.mu.Lock()
	c.tok = tok
	c.mu.Unlock()
}

func (c *TokenCache) Current() Token {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tok
}
