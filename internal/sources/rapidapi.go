// Package sources holds the pricing lookups used by the planner: flights via
// Kiwi, stays via Booking.com (both on RapidAPI) and a curated inter-city
// transport table. Lookups never fail; on any problem they degrade to
// synthetic options tagged domain.SourceSynthetic.
package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

var ErrNoAPIKey = errors.New("rapidapi key not configured")

type RapidAPIClient struct {
	httpClient *http.Client
	apiKey     string
	limiter    *rate.Limiter
	baseURL    string
}

type RapidAPIOption func(*RapidAPIClient)

// WithBaseURL sends every request to baseURL instead of https://<host>.
func WithBaseURL(baseURL string) RapidAPIOption {
	return func(c *RapidAPIClient) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

func WithHTTPClient(hc *http.Client) RapidAPIOption {
	return func(c *RapidAPIClient) { c.httpClient = hc }
}

func NewRapidAPIClient(apiKey string, timeout time.Duration, requestsPerSecond float64, opts ...RapidAPIOption) *RapidAPIClient {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	c := &RapidAPIClient{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(limit, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RapidAPIClient) Configured() bool {
	return c != nil && c.apiKey != ""
}

// Get issues a rate-limited GET against host+path and decodes the JSON body
// into dst.
func (c *RapidAPIClient) Get(ctx context.Context, host, path string, params url.Values, dst any) error {
	if !c.Configured() {
		return ErrNoAPIKey
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	base := c.baseURL
	if base == "" {
		base = "https://" + host
	}
	endpoint := base + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("x-rapidapi-key", c.apiKey)
	req.Header.Set("x-rapidapi-host", host)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("rapidapi %s%s: status %d: %s", host, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s%s: %w", host, path, err)
	}
	return nil
}
