package domain

import (
	"context"
	"time"
)

// Outcome é o resultado de uma requisição no gate.
type Outcome string

const (
	OutcomeAllowed      Outcome = "allowed"
	OutcomeRateLimited  Outcome = "rate_limited"
	OutcomeCSRFRejected Outcome = "csrf_rejected"
)

// StatsEvent representa uma decisão do gate.
//
// Ele é propositalmente "agnóstico de HTTP": Method/Path são strings genéricas.
//
// Observação: cuidado com cardinalidade (ex.: salvar Key/Path sem controle pode
// explodir o número de chaves em uma base como Redis).
type StatsEvent struct {
	Key     Key
	Outcome Outcome

	Method string
	Path   string

	At time.Time
}

// StatsStore é a estratégia de persistência para estatísticas do gate.
//
// O middleware trata erro como best-effort (não derruba request).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
