// Package geo resolve país e locale a partir do IP do cliente. É best-effort:
// toda falha vira "sem enriquecimento", nunca erro para o usuário.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://ipapi.co"
	DefaultTimeout = 2 * time.Second
	DefaultTTL     = time.Hour

	defaultCountryCode = "US"
	defaultCountryName = "United States"
)

// Info é o resultado do enriquecimento.
type Info struct {
	Country     string `json:"country"`
	CountryCode string `json:"countryCode"`
	CountryName string `json:"countryName"`
	Locale      string `json:"locale"`
}

// Locator resolve um IP. ok=false é o caso normal "não enriquecido".
type Locator interface {
	Lookup(ctx context.Context, ip string) (info Info, ok bool)
}

type Options struct {
	BaseURL string
	Timeout time.Duration
	// RPS limita lookups de saída; sem token disponível o lookup é pulado.
	// <= 0 desliga o limite.
	RPS      float64
	Burst    int
	Cache    Cache
	CacheTTL time.Duration
	Table    LocaleTable
	HTTP     *http.Client
}

// Client consulta um serviço no formato GET {base}/{ip}/json/.
type Client struct {
	baseURL  string
	timeout  time.Duration
	http     *http.Client
	limiter  *rate.Limiter
	cache    Cache
	cacheTTL time.Duration
	table    LocaleTable
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = DefaultTTL
	}
	if opts.Table == nil {
		opts.Table = DefaultTable
	}
	if opts.HTTP == nil {
		opts.HTTP = &http.Client{Timeout: opts.Timeout}
	}

	c := &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		timeout:  opts.Timeout,
		http:     opts.HTTP,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		table:    opts.Table,
	}
	if opts.RPS > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}
	return c
}

type lookupResponse struct {
	IP          string `json:"ip"`
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
	CountryName string `json:"country_name"`
	Error       bool   `json:"error"`
	Reason      string `json:"reason"`
}

// Lookup nunca devolve erro: falhas são logadas e viram ok=false.
func (c *Client) Lookup(ctx context.Context, ip string) (Info, bool) {
	if c.cache != nil {
		if info, ok := c.cache.Get(ctx, ip); ok {
			return info, true
		}
	}
	if c.limiter != nil && !c.limiter.Allow() {
		log.Debug().Str("ip", ip).Msg("geo lookup skipped, outbound budget exhausted")
		return Info{}, false
	}

	info, err := c.fetch(ctx, ip)
	if err != nil {
		log.Warn().Err(err).Str("ip", ip).Msg("geo lookup failed")
		return Info{}, false
	}
	if c.cache != nil {
		c.cache.Set(ctx, ip, info, c.cacheTTL)
	}
	return info, true
}

func (c *Client) fetch(ctx context.Context, ip string) (Info, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/%s/json/", c.baseURL, url.PathEscape(ip))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Info{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Info{}, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return Info{}, fmt.Errorf("geo service returned status %d", resp.StatusCode)
	}

	var body lookupResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err != nil {
		return Info{}, fmt.Errorf("decode response: %w", err)
	}
	if body.Error {
		return Info{}, fmt.Errorf("geo service error: %s", body.Reason)
	}

	code := strings.ToUpper(strings.TrimSpace(body.CountryCode))
	if code == "" {
		code = strings.ToUpper(strings.TrimSpace(body.Country))
	}
	name := body.CountryName
	if code == "" {
		code, name = defaultCountryCode, defaultCountryName
	}
	if name == "" {
		name = code
	}
	country := body.Country
	if country == "" {
		country = code
	}

	return Info{
		Country:     country,
		CountryCode: code,
		CountryName: name,
		Locale:      c.table.Locale(code),
	}, nil
}
