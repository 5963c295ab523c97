// Package osstub é um dublê local da API OS do parceiro: emite tokens em
// /api/oauth/token e ecoa qualquer outra chamada autenticada.
package osstub

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Options struct {
	ClientID     string
	ClientSecret string
	// ExpiresIn em segundos; 0 omite o campo da resposta.
	ExpiresIn int64
}

// Call é uma chamada recebida fora do endpoint de token.
type Call struct {
	Method string          `json:"method"`
	Path   string          `json:"path"`
	Body   json.RawMessage `json:"body,omitempty"`
}

type Server struct {
	opts Options

	mu     sync.Mutex
	tokens map[string]struct{}
	calls  []Call
	issued int
}

func New(opts Options) *Server {
	return &Server{opts: opts, tokens: make(map[string]struct{})}
}

// Calls devolve uma cópia das chamadas recebidas.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Issued conta os tokens emitidos.
func (s *Server) Issued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issued
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api/oauth/token" {
		s.token(w, r)
		return
	}
	s.echo(w, r)
}

func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	var req struct {
		GrantType    string `json:"grant_type"`
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}
	if req.GrantType != "client_credentials" || req.ClientID != s.opts.ClientID || req.ClientSecret != s.opts.ClientSecret {
		log.Warn().Str("client_id", req.ClientID).Msg("stub: rejected token request")
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_client"})
		return
	}

	tok := uuid.NewString()
	s.mu.Lock()
	s.tokens[tok] = struct{}{}
	s.issued++
	s.mu.Unlock()

	resp := map[string]any{"access_token": tok, "token_type": "Bearer"}
	if s.opts.ExpiresIn > 0 {
		resp["expires_in"] = s.opts.ExpiresIn
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) echo(w http.ResponseWriter, r *http.Request) {
	tok, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	s.mu.Lock()
	_, known := s.tokens[tok]
	s.mu.Unlock()
	if !ok || !known {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
		return
	}

	raw, _ := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	call := Call{Method: r.Method, Path: r.URL.Path}
	if len(raw) > 0 && json.Valid(raw) {
		call.Body = raw
	}

	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()

	log.Info().Str("method", call.Method).Str("path", call.Path).Int("bytes", len(raw)).Msg("stub: call received")
	writeJSON(w, http.StatusOK, map[string]any{"received": call})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
