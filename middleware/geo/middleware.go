package geo

import (
	"net/http"

	"site-edge/middleware/ratelimit"
)

const (
	HeaderLocale      = "X-Detected-Locale"
	HeaderCountry     = "X-Detected-Country"
	HeaderCountryName = "X-Detected-Country-Name"
)

// Middleware anexa os headers x-detected-* quando o lookup funciona.
// Chaves privadas/desconhecidas não geram chamada de saída; qualquer falha
// segue sem os headers.
func Middleware(loc Locator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if loc == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := ratelimit.ClientKeyFrom(r.Context())
			if !ok {
				key = ratelimit.ClientKey(r)
			}

			if ip := string(key); !SkipLookup(ip) {
				if info, ok := loc.Lookup(r.Context(), ip); ok {
					h := w.Header()
					h.Set(HeaderLocale, info.Locale)
					h.Set(HeaderCountry, info.CountryCode)
					h.Set(HeaderCountryName, info.CountryName)
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
