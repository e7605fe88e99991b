package gammaapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/liamashdown/polymonitor/internal/config"
	"github.com/liamashdown/polymonitor/internal/metrics"
	"github.com/liamashdown/polymonitor/internal/ratelimit"
)

// Client handles communication with the Polymarket Gamma API
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
}

// NewClient creates a new Gamma API client
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:    cfg.GammaAPIBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    ratelimit.New(cfg.GammaAPIMarketsRPS),
	}
}

// MarketParams holds paging parameters for ListMarkets
type MarketParams struct {
	Limit  int
	Offset int
}

// ListMarkets fetches one page of open markets ordered by 24h volume, highest first
func (c *Client) ListMarkets(ctx context.Context, params MarketParams) (markets []Market, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordAPIRequest("gamma", "/markets", time.Since(start), err)
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u, err := url.Parse(c.baseURL + "/markets")
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}

	q := u.Query()
	q.Set("active", "true")
	q.Set("closed", "false")
	q.Set("order", "volume24hr")
	q.Set("ascending", "false")
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Offset > 0 {
		q.Set("offset", strconv.Itoa(params.Offset))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	// Gamma API is public, no auth headers
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(&markets); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return markets, nil
}
