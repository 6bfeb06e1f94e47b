// Package gateway is the HTTP client for the inventory-loan backend. All
// business logic (availability, penalties, loan transitions) lives on the
// server; this package only shapes requests, injects the bearer token and
// classifies responses.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"labloan-client/config"
)

// TokenSource supplies the stored bearer token. An empty token means the
// request goes out unauthenticated.
type TokenSource interface {
	Token() (string, error)
}

// Result carries the server-side confirmation of a mutating call. Callers use
// it to decide whether to re-invoke their listing query.
type Result struct {
	Message string `json:"message"`
}

// Client talks to the backend API.
type Client struct {
	baseURL string
	client  *http.Client
	tokens  TokenSource
	limiter *rate.Limiter
	cache   *cache.Cache
}

// NewClient creates a client for the configured backend.
func NewClient(cfg *config.APIConfig, tokens TokenSource) *Client {
	var transport http.RoundTripper = &http.Transport{}
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			log.Printf("Warning: Invalid proxy URL %q: %v. Client will not use a proxy.", cfg.HTTPProxy, err)
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		tokens:  tokens,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateBurst),
		cache:   cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
	}
}

// FlushCache drops every cached GET response. Called on logout and when the
// backend signals an expired session.
func (c *Client) FlushCache() {
	c.cache.Flush()
}

// do performs one request and returns the raw response body. Non-2xx
// responses come back as *APIError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request payload: %w", err)
		}
		reader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read stored token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, parseAPIError(resp.StatusCode, raw)
	}
	return raw, nil
}

// call performs a request and decodes the response into out when out is
// non-nil.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body, out any) error {
	raw, err := c.do(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s %s response: %w", method, path, err)
	}
	return nil
}

// getCached serves slow-changing GET resources from memory, keyed by path.
func (c *Client) getCached(ctx context.Context, path string, out any) error {
	if raw, found := c.cache.Get(path); found {
		return json.Unmarshal(raw.([]byte), out)
	}

	raw, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to unmarshal GET %s response: %w", path, err)
	}
	c.cache.SetDefault(path, raw)
	return nil
}
