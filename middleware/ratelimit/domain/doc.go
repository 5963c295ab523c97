// Package domain tem os tipos da janela fixa (Key, Policy, Decision, QuotaError),
// os eventos de estatística do gate e o contrato de vagas de concorrência.
//
// Nada aqui conhece net/http, memória ou Redis.
package domain
