package osclient

import (
	"fmt"
	"strings"
)

// ConfigurationError indica credenciais ausentes. É checado antes de qualquer
// chamada de rede e não adianta repetir.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return "os client not configured: missing " + strings.Join(e.Missing, ", ")
}

// AuthError é uma resposta não-2xx (ou inválida) do endpoint de token.
type AuthError struct {
	Status int
	Body   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("os token request failed: status %d: %s", e.Status, e.Body)
}

// RequestError é uma resposta não-2xx de uma chamada à API.
type RequestError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("os request %s %s failed: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}
