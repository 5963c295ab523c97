// Package api expõe as rotas /api do site. Todas passam pelo gate.
package api

import (
	"context"
	"net/http"
	"time"

	"site-edge/contact"
	"site-edge/middleware/ratelimit/infra"
	"site-edge/tracking"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	LandingIngestPath = "/api/ingest/landing"
	ContactIngestPath = "/api/ingest/contact"

	maxBodyBytes = 64 << 10
)

// Dispatcher é o lado fire-and-forget (tracking.Dispatcher).
type Dispatcher interface {
	Dispatch(job tracking.Job) bool
}

// StatsReader lê os contadores do gate para GET /api/stats.
type StatsReader interface {
	Snapshot(ctx context.Context) (infra.Snapshot, error)
}

// IngestStats expõe os contadores do envio ao parceiro (tracking.Dispatcher).
type IngestStats interface {
	Stats() tracking.Stats
}

type Handlers struct {
	Submissions contact.Store
	// Dispatcher nil desliga o envio ao parceiro.
	Dispatcher Dispatcher
	// Stats e Ingest nil fazem GET /api/stats responder 404.
	Stats  StatsReader
	Ingest IngestStats
	Now   func() time.Time
}

func (h *Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// NewRouter monta o chi.Router com o gate aplicado ao grupo /api.
func NewRouter(h *Handlers, gate func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		if gate != nil {
			r.Use(gate)
		}
		r.Get("/health", h.Health)
		r.Get("/csrf", h.CSRFToken)
		r.Get("/stats", h.StatsTotal)
		r.Post("/contact", h.Contact)
		r.Post("/landing-tracking", h.LandingTracking)
	})
	return r
}
