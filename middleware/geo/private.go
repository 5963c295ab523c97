package geo

import "strings"

// SkipLookup diz se a chave do cliente não deve gerar lookup: "unknown",
// loopback ou as faixas privadas 192.168.* e 10.*.
func SkipLookup(key string) bool {
	switch key {
	case "", "unknown", "127.0.0.1", "::1", "localhost":
		return true
	}
	return strings.HasPrefix(key, "192.168.") || strings.HasPrefix(key, "10.")
}
