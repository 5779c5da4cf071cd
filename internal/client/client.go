// Package client resolves secrets from a lookup endpoint speaking the
// POST {"alias": ...} -> {"secret": ...} contract.
//
// Resolved values are cached for the life of the Client, so the endpoint is
// called at most once per alias that resolves. Misses are never cached.
package client

import (
	"bytes"
	"context"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vfraga/wso2-custom-secret-vault/internal/infra/network"
)

const (
	DefaultURL         = "http://localhost:5001/secrets"
	DefaultResponseKey = "secret"

	maxResponseBytes = 1 << 20
)

var (
	ErrEmptyAlias = errors.New("alias is empty")
	ErrNotFound   = errors.New("secret not found")
)

type Config struct {
	URL             string
	ConnectTimeout  time.Duration
	SocketTimeout   time.Duration
	MaxConns        int
	MaxConnsPerHost int

	// DisableHostnameVerification accepts a server certificate issued for
	// another name. The chain is still verified against RootCAs.
	DisableHostnameVerification bool

	// RootCAs replaces the system roots when set.
	RootCAs *x509.CertPool

	// Headers are sent with every request, e.g. Authorization.
	Headers map[string]string

	// ResponseKey names the JSON member holding the secret.
	ResponseKey string
}

func DefaultConfig() Config {
	return Config{
		URL:             DefaultURL,
		ConnectTimeout:  5 * time.Second,
		SocketTimeout:   5 * time.Second,
		MaxConns:        20,
		MaxConnsPerHost: 5,
		ResponseKey:     DefaultResponseKey,
	}
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger zerolog.Logger

	mu    sync.RWMutex
	cache map[string]string
}

func New(cfg Config, logger zerolog.Logger) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.ResponseKey == "" {
		cfg.ResponseKey = DefaultResponseKey
	}
	if cfg.DisableHostnameVerification {
		logger.Warn().Msg("hostname verification is disabled for the secrets endpoint")
	}
	return &Client{
		cfg: cfg,
		http: network.NewHTTPClient(network.ClientOptions{
			ConnectTimeout:              cfg.ConnectTimeout,
			ResponseTimeout:             cfg.SocketTimeout,
			MaxIdleConns:                cfg.MaxConns,
			MaxIdleConnsPerHost:         cfg.MaxConnsPerHost,
			RootCAs:                     cfg.RootCAs,
			DisableHostnameVerification: cfg.DisableHostnameVerification,
		}),
		logger: logger.With().Str("component", "client").Logger(),
		cache:  map[string]string{},
	}
}

// Get returns the secret for alias, from cache when it was resolved before.
func (c *Client) Get(ctx context.Context, alias string) (string, error) {
	if alias == "" {
		return "", ErrEmptyAlias
	}
	c.mu.RLock()
	v, ok := c.cache[alias]
	c.mu.RUnlock()
	if ok {
		c.logger.Debug().Str("alias", alias).Msg("cache hit")
		return v, nil
	}

	v, err := c.fetch(ctx, alias)
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.cache[alias] = v
	c.mu.Unlock()
	return v, nil
}

func (c *Client) fetch(ctx context.Context, alias string) (string, error) {
	body, err := json.Marshal(map[string]string{"alias": alias})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}

	c.logger.Debug().Str("alias", alias).Str("url", c.cfg.URL).Msg("fetching secret")
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request secret %q: %w", alias, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read response for %q: %w", alias, err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().Str("alias", alias).Int("status", resp.StatusCode).Msg("secret lookup failed")
		return "", fmt.Errorf("%w: alias %q: HTTP %d: %s", ErrNotFound, alias, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	secret := extractSecret(raw, c.cfg.ResponseKey)
	if secret == "" {
		return "", fmt.Errorf("%w: alias %q: empty value", ErrNotFound, alias)
	}
	return secret, nil
}

// extractSecret reads key from a JSON object body. Bodies that are not JSON
// objects, or lack the key, are taken as the raw secret.
func extractSecret(body []byte, key string) string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err == nil {
		if v, ok := obj[key]; ok && string(v) != "null" {
			var s string
			if err := json.Unmarshal(v, &s); err == nil {
				return s
			}
			return string(v)
		}
	}
	return strings.TrimSpace(string(body))
}

