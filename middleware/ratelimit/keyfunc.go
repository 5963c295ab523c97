package ratelimit

import (
	"context"
	"net/http"
	"strings"

	"site-edge/middleware/ratelimit/domain"
)

type KeyFunc func(r *http.Request) domain.Key

// ClientKey resolve a identidade do cliente; a primeira regra que casa vence:
//
//  1. primeiro item do X-Forwarded-For (cliente original)
//  2. CF-Connecting-IP
//  3. "unknown"
//
// RemoteAddr não é usado: atrás do proxy ele é sempre o próprio proxy.
func ClientKey(r *http.Request) domain.Key {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return domain.Key(ip)
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return domain.Key(ip)
	}
	return domain.UnknownKey
}

type clientKeyCtx struct{}

// WithClientKey guarda a chave resolvida para os passos seguintes do gate.
func WithClientKey(ctx context.Context, key domain.Key) context.Context {
	return context.WithValue(ctx, clientKeyCtx{}, key)
}

// ClientKeyFrom devolve a chave guardada por WithClientKey, se houver.
func ClientKeyFrom(ctx context.Context) (domain.Key, bool) {
	k, ok := ctx.Value(clientKeyCtx{}).(domain.Key)
	return k, ok
}
