// Package ratelimit fornece adapters HTTP (net/http) para rate limit e limite de concorrência.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (consumo de pontos, acquire/timeout) sem net/http
//   - infra: implementações concretas (janela fixa em memória/Redis, semáforo, stats)
//   - ratelimit (este pacote): middlewares HTTP + extração de chave + tradução para status/headers
//
// Fluxo no gate:
//
//  1. Resolve a chave do cliente (X-Forwarded-For, CF-Connecting-IP, "unknown")
//  2. Consome 1 ponto da janela fixa da chave (100 pontos / 60s por padrão)
//  3. Orçamento esgotado: 429 com Retry-After e X-RateLimit-*; erro do store: 500
//  4. Permitido: guarda a chave no contexto e chama o próximo handler
package ratelimit
