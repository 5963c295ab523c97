// Package secure anexa o conjunto fixo de headers de segurança das rotas /api.
package secure

import "net/http"

// Headers é o conjunto fixo, na ordem em que é aplicado.
var Headers = [][2]string{
	{"Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'"},
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"X-XSS-Protection", "1; mode=block"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"Strict-Transport-Security", "max-age=31536000; includeSubDomains"},
}

func Apply(h http.Header) {
	for _, kv := range Headers {
		h.Set(kv[0], kv[1])
	}
}

// Middleware seta os headers antes de chamar o próximo handler, então eles
// estão presentes mesmo que o handler não escreva nada.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Apply(w.Header())
		next.ServeHTTP(w, r)
	})
}
