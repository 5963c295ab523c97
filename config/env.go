package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// env lê variáveis e acumula erros de parse, para reportar todos de uma vez.
type env struct {
	get  func(string) string
	errs []error
}

func (e *env) fail(k string, err error) {
	e.errs = append(e.errs, fmt.Errorf("invalid %s: %w", k, err))
}

func (e *env) str(k, def string) string {
	if v := strings.TrimSpace(e.get(k)); v != "" {
		return v
	}
	return def
}

func (e *env) integer(k string, def int) int {
	v := strings.TrimSpace(e.get(k))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		e.fail(k, err)
		return def
	}
	return i
}

func (e *env) float(k string, def float64) float64 {
	v := strings.TrimSpace(e.get(k))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(k, err)
		return def
	}
	return f
}

func (e *env) boolean(k string, def bool) bool {
	v := strings.TrimSpace(e.get(k))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(k, err)
		return def
	}
	return b
}

func (e *env) duration(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(e.get(k))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(k, err)
		return def
	}
	return d
}

func (e *env) list(k string) []string {
	var out []string
	for _, p := range strings.Split(e.get(k), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
