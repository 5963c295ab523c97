// Package application contém os casos de uso para rate limit e limite de concorrência.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Service.Consume(ctx, key) retorna uma Decision ou um *domain.QuotaError.
package application
