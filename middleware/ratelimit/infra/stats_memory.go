package infra

import (
	"context"
	"sync"

	"site-edge/middleware/ratelimit/domain"
)

type Counters struct {
	Allowed      int64 `json:"allowed"`
	RateLimited  int64 `json:"rateLimited"`
	CSRFRejected int64 `json:"csrfRejected"`
}

// Snapshot é a leitura exposta em GET /api/stats.
type Snapshot struct {
	Total  Counters            `json:"total"`
	Routes map[string]Counters `json:"routes,omitempty"`
	Keys   map[string]Counters `json:"keys,omitempty"`
}

func (c *Counters) set(o domain.Outcome, n int64) {
	switch o {
	case domain.OutcomeAllowed:
		c.Allowed = n
	case domain.OutcomeRateLimited:
		c.RateLimited = n
	case domain.OutcomeCSRFRejected:
		c.CSRFRejected = n
	}
}

func (c *Counters) add(o domain.Outcome) {
	switch o {
	case domain.OutcomeAllowed:
		c.Allowed++
	case domain.OutcomeRateLimited:
		c.RateLimited++
	case domain.OutcomeCSRFRejected:
		c.CSRFRejected++
	}
}

// MemoryStatsStore é uma implementação simples em memória.
// Útil para testes e desenvolvimento; não faz expiração.
type MemoryStatsStore struct {
	mu      sync.Mutex
	total   Counters
	byRoute map[string]Counters
	byKey   map[string]Counters

	trackKeys bool
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackKeys(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackKeys = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byRoute: make(map[string]Counters),
		byKey:   make(map[string]Counters),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	route := ev.Method + " " + ev.Path

	s.mu.Lock()
	defer s.mu.Unlock()

	s.total.add(ev.Outcome)

	c := s.byRoute[route]
	c.add(ev.Outcome)
	s.byRoute[route] = c

	if s.trackKeys {
		k := s.byKey[string(ev.Key)]
		k.add(ev.Outcome)
		s.byKey[string(ev.Key)] = k
	}
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) byRouteCopy() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.byRoute))
	for k, v := range s.byRoute {
		out[k] = v
	}
	return out
}

func (s *MemoryStatsStore) byKeyCopy() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.byKey))
	for k, v := range s.byKey {
		out[k] = v
	}
	return out
}

// Snapshot junta total, rotas e (se habilitado) chaves.
func (s *MemoryStatsStore) Snapshot(context.Context) (Snapshot, error) {
	snap := Snapshot{Total: s.Total(), Routes: s.byRouteCopy()}
	if s.trackKeys {
		snap.Keys = s.byKeyCopy()
	}
	return snap, nil
}
