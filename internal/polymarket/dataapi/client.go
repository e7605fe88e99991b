package dataapi

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

// Client handles communication with the Polymarket Data API
type Client struct {
	baseURL       string
	httpClient    *http.Client
	authMode      config.AuthMode
	bearerToken   string
	apiKey        string
	extraHeaders  map[string]string
	tradesLimiter *ratelimit.Limiter
}

// NewClient creates a new Data API client
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:       cfg.DataAPIBaseURL,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		authMode:      cfg.DataAPIAuthMode,
		bearerToken:   cfg.DataAPIBearerToken,
		apiKey:        cfg.DataAPIAPIKey,
		extraHeaders:  cfg.DataAPIExtraHeaders,
		tradesLimiter: ratelimit.New(cfg.DataAPITradesRPS),
	}
}

// TradeParams holds parameters for the GetTrades call
type TradeParams struct {
	Limit  int
	Offset int
	Market string
	User   string
	Side   string // BUY, SELL
}

// GetTrades fetches one page of trades
func (c *Client) GetTrades(ctx context.Context, params TradeParams) (trades []Trade, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordAPIRequest("data", "/trades", time.Since(start), err)
	}()

	if err := c.tradesLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u, err := url.Parse(c.baseURL + "/trades")
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}

	q := u.Query()
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Offset > 0 {
		q.Set("offset", strconv.Itoa(params.Offset))
	}
	if params.Market != "" {
		q.Set("market", params.Market)
	}
	if params.User != "" {
		q.Set("user", params.User)
	}
	if params.Side != "" {
		q.Set("side", params.Side)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("401 Unauthorized (auth_mode=%s) - check credentials", c.authMode)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(&trades); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return trades, nil
}

func (c *Client) setAuthHeaders(req *http.Request) {
	switch c.authMode {
	case config.AuthModeBearer:
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	case config.AuthModeAPIKey:
		req.Header.Set("X-API-KEY", c.apiKey)
	}

	for k, v := range c.extraHeaders {
		req.Header.Set(k, v)
	}
}
