package ratelimit

import (
	"errors"
	"net/http"
	"time"

	"site-edge/middleware/ratelimit/application"
	"site-edge/middleware/ratelimit/domain"
	"site-edge/middleware/respond"

	"github.com/rs/zerolog/log"
)

type Options struct {
	Store  domain.WindowStore
	Policy domain.Policy
	Stats  domain.StatsStore
	KeyFn  KeyFunc
	Now    func() time.Time
	// DeferAllowed deixa o registro de "allowed" para AllowedStats, mais adiante
	// na cadeia, quando outro passo ainda pode rejeitar a request.
	DeferAllowed bool
}

// Middleware aplica o limite de janela fixa por cliente.
//
// Só o caminho 429 expõe os headers de quota; requests permitidas seguem sem
// X-RateLimit-*.
func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.KeyFn == nil {
		opts.KeyFn = ClientKey
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	svc := application.Service{
		Store:  opts.Store,
		Policy: opts.Policy,
		Now:    opts.Now,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := opts.KeyFn(r)

			if _, err := svc.Consume(r.Context(), key); err != nil {
				var qe *domain.QuotaError
				if errors.As(err, &qe) {
					Record(r, opts.Stats, key, domain.OutcomeRateLimited)
					log.Warn().Str("key", string(key)).Str("path", r.URL.Path).Int("limit", qe.Limit).
						Dur("retry_after", qe.RetryAfter).Msg("rate limit exceeded")

					h := w.Header()
					h.Set("Retry-After", formatInt64(ceilSeconds(qe.RetryAfter)))
					h.Set("X-RateLimit-Limit", formatInt(qe.Limit))
					h.Set("X-RateLimit-Remaining", formatInt(qe.Remaining))
					h.Set("X-RateLimit-Reset", formatInt64(ceilUnix(qe.ResetAt)))
					respond.TooManyRequests(w)
					return
				}

				log.Error().Err(err).Str("key", string(key)).Msg("rate limiter failed")
				respond.InternalError(w)
				return
			}

			if !opts.DeferAllowed {
				Record(r, opts.Stats, key, domain.OutcomeAllowed)
			}
			next.ServeHTTP(w, r.WithContext(WithClientKey(r.Context(), key)))
		})
	}
}

// AllowedStats registra "allowed" para requests que chegaram até aqui.
func AllowedStats(stats domain.StatsStore) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if stats == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := ClientKeyFrom(r.Context())
			if !ok {
				key = ClientKey(r)
			}
			Record(r, stats, key, domain.OutcomeAllowed)
			next.ServeHTTP(w, r)
		})
	}
}

// Record registra a decisão no stats store. É best-effort: erro do store não
// derruba a request.
func Record(r *http.Request, stats domain.StatsStore, key domain.Key, outcome domain.Outcome) {
	if stats == nil {
		return
	}
	err := stats.Record(r.Context(), domain.StatsEvent{
		Key:     key,
		Outcome: outcome,
		Method:  r.Method,
		Path:    r.URL.Path,
		At:      time.Now(),
	})
	if err != nil {
		log.Debug().Err(err).Msg("stats record failed")
	}
}
