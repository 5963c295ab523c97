package ratelimit

import (
	"net/http"
	"time"

	"site-edge/middleware/ratelimit/application"
	"site-edge/middleware/ratelimit/infra"
	"site-edge/middleware/respond"

	"github.com/rs/zerolog/log"
)

// ConcurrencyOptions limita requests em voo no servidor inteiro.
// Max <= 0 desliga o guard.
type ConcurrencyOptions struct {
	Max            int
	RejectStatus   int
	AcquireTimeout time.Duration
}

func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}

	svc := application.ConcurrencyService{
		Pool:           infra.NewChanPool(opts.Max),
		AcquireTimeout: opts.AcquireTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, ok := svc.Acquire(r.Context())
			if !ok {
				log.Warn().Str("path", r.URL.Path).Int("max", opts.Max).Msg("no concurrency slot available")
				respond.JSON(w, opts.RejectStatus, respond.Error{Error: http.StatusText(opts.RejectStatus)})
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
