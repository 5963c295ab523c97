package application

import (
	"context"
	"fmt"
	"time"

	"site-edge/middleware/ratelimit/domain"
)

const (
	DefaultPoints = 100
	DefaultWindow = 60 * time.Second
)

// Service concentra a regra de aplicação do rate limit de janela fixa.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
type Service struct {
	Store  domain.WindowStore
	Policy domain.Policy
	Now    func() time.Time
}

// Consume consome 1 ponto da chave.
//
// Orçamento esgotado: Decision.Allowed=false e err é *domain.QuotaError.
// Qualquer outro erro vem do store e deve ser tratado como erro interno.
func (s Service) Consume(ctx context.Context, key domain.Key) (domain.Decision, error) {
	points, window := s.Policy.Points, s.Policy.Window
	if points <= 0 {
		points = DefaultPoints
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if s.Store == nil {
		return domain.Decision{Allowed: true, Limit: points, Remaining: points}, nil
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	count, ttl, err := s.Store.Increment(ctx, key, window)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("consume %q: %w", key, err)
	}
	if ttl <= 0 || ttl > window {
		ttl = window
	}

	remaining := points - int(count)
	if remaining < 0 {
		remaining = 0
	}
	dec := domain.Decision{
		Allowed:    int(count) <= points,
		Limit:      points,
		Remaining:  remaining,
		ResetAt:    now().Add(ttl),
		RetryAfter: ttl,
	}
	if dec.Allowed {
		return dec, nil
	}
	return dec, &domain.QuotaError{
		Key:        key,
		Limit:      dec.Limit,
		Remaining:  dec.Remaining,
		ResetAt:    dec.ResetAt,
		RetryAfter: dec.RetryAfter,
	}
}
