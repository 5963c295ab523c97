// Package gate monta o pipeline de borda das rotas /api, sempre nesta ordem:
//
//	rate limit → CSRF (só POST/PUT/PATCH/DELETE) → headers de segurança → geolocalização → handler
//
// Só rate limit e CSRF podem encerrar a request; a geolocalização nunca falha
// a request.
package gate

import (
	"net/http"

	"site-edge/middleware/csrf"
	"site-edge/middleware/geo"
	"site-edge/middleware/ratelimit"
	"site-edge/middleware/secure"

	"github.com/go-chi/chi/v5"
)

type Options struct {
	RateLimit ratelimit.Options
	CSRF      csrf.Options
	// Geo nil desliga o enriquecimento.
	Geo geo.Locator
}

// Estatística "allowed" só conta requests que passaram pelo CSRF também.
func Middleware(opts Options) func(next http.Handler) http.Handler {
	opts.RateLimit.DeferAllowed = true
	chain := chi.Chain(
		ratelimit.Middleware(opts.RateLimit),
		csrf.Middleware(opts.CSRF),
		ratelimit.AllowedStats(opts.RateLimit.Stats),
		secure.Middleware,
		geo.Middleware(opts.Geo),
	)
	return chain.Handler
}
