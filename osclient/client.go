// Package osclient acessa a API do parceiro ("OS") com OAuth2 client-credentials.
//
// O bearer token fica em cache no processo e é renovado 60s antes de expirar.
// Renovações concorrentes são colapsadas em uma única chamada ao endpoint de token.
package osclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	TokenPath      = "/api/oauth/token"
	DefaultTimeout = 10 * time.Second

	maxBodyBytes = 1 << 20
)

type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

func (c Config) validate() error {
	var missing []string
	if strings.TrimSpace(c.BaseURL) == "" {
		missing = append(missing, "OS_BASE_URL")
	}
	if strings.TrimSpace(c.ClientID) == "" {
		missing = append(missing, "OS_CLIENT_ID")
	}
	if strings.TrimSpace(c.ClientSecret) == "" {
		missing = append(missing, "OS_CLIENT_SECRET")
	}
	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}

type Client struct {
	cfg   Config
	http  *http.Client
	cache *TokenCache
	now   func() time.Time
	group singleflight.Group
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithClock troca a fonte de tempo (testes).
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func New(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")

	c := &Client{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: cfg.Timeout}
	}
	c.cache = NewTokenCache(c.now)
	return c
}

// Cache expõe o cache de token (inspeção e testes).
func (c *Client) Cache() *TokenCache { return c.cache }

type tokenRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	// number no contrato; frações são truncadas
	ExpiresIn *float64 `json:"expires_in,omitempty"`
}

// Token devolve um bearer token válido, buscando um novo quando não há token
// em cache ou ele está dentro da margem de expiração.
func (c *Client) Token(ctx context.Context) (string, error) {
	if err := c.cfg.validate(); err != nil {
		return "", err
	}
	if tok, ok := c.cache.Valid(); ok {
		return tok, nil
	}

	ch := c.group.DoChan("token", func() (interface{}, error) {
		// outro caller pode ter renovado enquanto esperávamos
		if tok, ok := c.cache.Valid(); ok {
			return tok, nil
		}
		// a renovação é compartilhada: não herda o cancelamento de quem a disparou
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.Timeout)
		defer cancel()
		tok, err := c.fetchToken(fetchCtx)
		if err != nil {
			return "", err
		}
		c.cache.Store(tok)
		log.Debug().Time("expires_at", tok.ExpiresAt).Msg("os token refreshed")
		return tok.Value, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			log.Debug().Msg("os token refresh shared with concurrent caller")
		}
		return res.Val.(string), nil
	}
}

func (c *Client) fetchToken(ctx context.Context) (Token, error) {
	payload, err := json.Marshal(tokenRequest{
		GrantType:    "client_credentials",
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
	})
	if err != nil {
		return Token{}, fmt.Errorf("marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+TokenPath, bytes.NewReader(payload))
	if err != nil {
		return Token{}, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Token{}, fmt.Errorf("token request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Token{}, fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Token{}, &AuthError{Status: resp.StatusCode, Body: string(raw)}
	}

	var body tokenResponse
	if err := json.Unmarshal(raw, &body); err != nil || body.AccessToken == "" {
		return Token{}, &AuthError{Status: resp.StatusCode, Body: string(raw)}
	}

	expiresIn := int64(defaultExpiresIn)
	if body.ExpiresIn != nil {
		expiresIn = int64(*body.ExpiresIn)
	}
	return Token{
		Value:     body.AccessToken,
		ExpiresAt: c.now().Add(time.Duration(expiresIn) * time.Second),
	}, nil
}

// Request chama {BaseURL}{path} com o bearer token e devolve o JSON da
// resposta 2xx (nil quando o corpo é vazio). Não há retry.
func (c *Client) Request(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create %s %s: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s %s response: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RequestError{Method: method, Path: path, Status: resp.StatusCode, Body: string(raw)}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%s %s: response is not json", method, path)
	}
	return json.RawMessage(raw), nil
}
