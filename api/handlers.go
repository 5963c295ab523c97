package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"site-edge/contact"
	"site-edge/middleware/csrf"
	"site-edge/middleware/geo"
	"site-edge/middleware/ratelimit/infra"
	"site-edge/middleware/respond"
	"site-edge/tracking"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) CSRFToken(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"csrfToken": csrf.Token(r)})
}

type statsResponse struct {
	Gate   *infra.Snapshot `json:"gate,omitempty"`
	Ingest *tracking.Stats `json:"ingest,omitempty"`
}

func (h *Handlers) StatsTotal(w http.ResponseWriter, r *http.Request) {
	if h.Stats == nil && h.Ingest == nil {
		respond.JSON(w, http.StatusNotFound, respond.Error{Error: "Not Found"})
		return
	}
	var out statsResponse
	if h.Stats != nil {
		snap, err := h.Stats.Snapshot(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("stats read failed")
			respond.InternalError(w)
			return
		}
		out.Gate = &snap
	}
	if h.Ingest != nil {
		st := h.Ingest.Stats()
		out.Ingest = &st
	}
	respond.JSON(w, http.StatusOK, out)
}

func (h *Handlers) Contact(w http.ResponseWriter, r *http.Request) {
	var sub contact.Submission
	if err := decodeBody(w, r, &sub); err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := sub.Normalize(); err != nil {
		badRequest(w, err.Error())
		return
	}

	sub.ID = uuid.NewString()
	sub.ReceivedAt = h.now().UTC()
	sub.Locale = w.Header().Get(geo.HeaderLocale)
	sub.Country = w.Header().Get(geo.HeaderCountry)

	if h.Submissions != nil {
		if err := h.Submissions.Save(r.Context(), sub); err != nil {
			log.Error().Err(err).Str("id", sub.ID).Msg("contact save failed")
			respond.InternalError(w)
			return
		}
	}

	h.dispatch(tracking.Job{ID: sub.ID, Method: http.MethodPost, Path: ContactIngestPath, Body: sub})
	respond.JSON(w, http.StatusCreated, map[string]string{"id": sub.ID})
}

// LandingTracking aceita o evento e responde 202 sem esperar o parceiro.
func (h *Handlers) LandingTracking(w http.ResponseWriter, r *http.Request) {
	var ev map[string]any
	if err := decodeBody(w, r, &ev); err != nil {
		badRequest(w, err.Error())
		return
	}
	for _, field := range []string{"page", "event"} {
		v, _ := ev[field].(string)
		if strings.TrimSpace(v) == "" {
			badRequest(w, field+": required")
			return
		}
	}

	id := uuid.NewString()
	ev["id"] = id
	ev["receivedAt"] = h.now().UTC()
	if loc := w.Header().Get(geo.HeaderLocale); loc != "" {
		ev["locale"] = loc
	}

	h.dispatch(tracking.Job{ID: id, Method: http.MethodPost, Path: LandingIngestPath, Body: ev})
	respond.JSON(w, http.StatusAccepted, map[string]string{"id": id})
}

func (h *Handlers) dispatch(job tracking.Job) {
	if h.Dispatcher == nil {
		return
	}
	if !h.Dispatcher.Dispatch(job) {
		log.Warn().Str("id", job.ID).Str("path", job.Path).Msg("ingest job dropped")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return errors.New("body too large")
		}
		return errors.New("invalid JSON body")
	}
	return nil
}

func badRequest(w http.ResponseWriter, details string) {
	respond.JSON(w, http.StatusBadRequest, respond.Error{Error: "Bad Request", Details: details})
}
