// Package csrf protege métodos mutáveis com double-submit: o token real vai
// num cookie assinado (SameSite=Strict, Secure em produção) e a request precisa
// reenviar o token mascarado no header.
package csrf

import (
	"net/http"
	"net/url"
	"strings"

	"site-edge/middleware/ratelimit"
	"site-edge/middleware/ratelimit/domain"
	"site-edge/middleware/respond"

	gcsrf "github.com/gorilla/csrf"
	"github.com/gorilla/securecookie"
	"github.com/rs/zerolog/log"
)

const (
	DefaultCookieName = "_csrf"
	DefaultHeaderName = "X-CSRF-Token"
)

type Options struct {
	// AuthKey assina o cookie; 32 bytes. Vazio gera uma chave aleatória.
	AuthKey []byte
	// Secure liga o flag Secure do cookie e exige Origin ou Referer do mesmo
	// host (ou de TrustedOrigins) em métodos mutáveis.
	Secure         bool
	CookieName     string
	HeaderName     string
	TrustedOrigins []string
	Stats          domain.StatsStore
}

// Mutating diz se o método passa pela validação.
func Mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func safe(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

// Middleware valida o par cookie/token nas requests mutáveis e responde 403
// em caso de falha. Requests seguras só recebem o cookie (quando ainda não
// existe) e o token atual no header de resposta.
func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	if opts.HeaderName == "" {
		opts.HeaderName = DefaultHeaderName
	}
	if len(opts.AuthKey) == 0 {
		// chave por processo: tokens não sobrevivem a restart nem valem entre réplicas
		opts.AuthKey = securecookie.GenerateRandomKey(32)
		log.Warn().Msg("csrf auth key not configured, using a random per-process key")
	}

	protect := gcsrf.Protect(opts.AuthKey,
		gcsrf.Secure(opts.Secure),
		gcsrf.SameSite(gcsrf.SameSiteStrictMode),
		gcsrf.HttpOnly(true),
		gcsrf.Path("/"),
		gcsrf.CookieName(opts.CookieName),
		gcsrf.RequestHeader(opts.HeaderName),
		gcsrf.TrustedOrigins(originHosts(opts.TrustedOrigins)),
		gcsrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			details := ""
			if reason := gcsrf.FailureReason(r); reason != nil {
				details = reason.Error()
			}
			key, _ := ratelimit.ClientKeyFrom(r.Context())
			ratelimit.Record(r, opts.Stats, key, domain.OutcomeCSRFRejected)
			log.Warn().Str("key", string(key)).Str("method", r.Method).Str("path", r.URL.Path).
				Str("reason", details).Msg("csrf validation failed")
			respond.InvalidCSRF(w, details)
		})),
	)

	return func(next http.Handler) http.Handler {
		protected := protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(opts.HeaderName, gcsrf.Token(r))
			next.ServeHTTP(w, r)
		}))

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// métodos fora das duas listas não são validados
			if !Mutating(r.Method) && !safe(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			if !opts.Secure {
				r = gcsrf.PlaintextHTTPRequest(r)
			}
			protected.ServeHTTP(w, r)
		})
	}
}

// originHosts aceita "https://a.example.com" ou "a.example.com"; o gorilla
// compara só o host.
func originHosts(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if strings.Contains(o, "://") {
			if u, err := url.Parse(o); err == nil && u.Host != "" {
				o = u.Host
			}
		}
		if o = strings.TrimRight(o, "/"); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Token devolve o token mascarado da request atual. Só tem valor dentro
// de um handler protegido por Middleware.
func Token(r *http.Request) string {
	return gcsrf.Token(r)
}
