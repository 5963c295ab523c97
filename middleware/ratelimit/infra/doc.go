// Package infra contém implementações concretas para os contratos do pacote domain.
//
//   - MemoryWindowStore: janela fixa por chave em memória, com limpeza periódica
//   - RedisWindowStore: janela fixa compartilhada entre instâncias (INCR + PEXPIRE atômico)
//   - ChanPool: semáforo simples para limite de concorrência
//   - MemoryStatsStore / RedisStatsStore: contadores das decisões do gate
package infra
