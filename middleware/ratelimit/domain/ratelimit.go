package domain

// Camada de domínio do rate limit.
//
// Janela fixa: cada chave tem um orçamento de pontos que é zerado por inteiro
// quando a janela termina (não é sliding window nem token bucket).

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type Key string

// UnknownKey é a chave usada quando não há header de IP encaminhado.
const UnknownKey Key = "unknown"

// WindowStore guarda contadores de janela fixa por chave.
//
// Increment soma 1 ao contador da janela ativa (criando uma nova janela se a
// anterior expirou) e devolve o total consumido e quanto falta para o reset.
// Implementações devem ser seguras para uso concorrente.
type WindowStore interface {
	Increment(ctx context.Context, key Key, window time.Duration) (count int64, ttl time.Duration, err error)
}

// Policy é o orçamento aplicado a cada chave.
type Policy struct {
	Points int
	Window time.Duration
}

type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetAt é o instante absoluto em que a janela atual termina.
	ResetAt time.Time
	// RetryAfter é quanto falta para o reset.
	RetryAfter time.Duration
}

// ErrQuotaExceeded indica orçamento esgotado na janela atual.
var ErrQuotaExceeded = errors.New("rate limit quota exceeded")

// QuotaError carrega o estado do limiter no momento da rejeição.
// errors.Is(err, ErrQuotaExceeded) é verdadeiro para ele.
type QuotaError struct {
	Key        Key
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%s: key=%s limit=%d retry_after=%s", ErrQuotaExceeded, e.Key, e.Limit, e.RetryAfter)
}

func (e *QuotaError) Is(target error) bool { return target == ErrQuotaExceeded }

func IsQuotaExceeded(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}
