// Package respond escreve as respostas JSON de erro do gate.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Error é o corpo de erro padrão das rotas /api.
type Error struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Int("status", status).Msg("failed to write json response")
	}
}

func TooManyRequests(w http.ResponseWriter) {
	JSON(w, http.StatusTooManyRequests, Error{Error: "Too Many Requests"})
}

func InternalError(w http.ResponseWriter) {
	JSON(w, http.StatusInternalServerError, Error{Error: "Internal Server Error"})
}

// InvalidCSRF sempre inclui details, mesmo quando a causa é desconhecida.
func InvalidCSRF(w http.ResponseWriter, details string) {
	if details == "" {
		details = "Unknown error"
	}
	JSON(w, http.StatusForbidden, struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}{Error: "Invalid CSRF token", Details: details})
}
