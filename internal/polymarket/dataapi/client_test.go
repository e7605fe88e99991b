package dataapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/liamashdown/polymonitor/internal/config"
)

func newTestClient(url string, mode config.AuthMode) *Client {
	return NewClient(&config.Config{
		DataAPIBaseURL:      url,
		DataAPIAuthMode:     mode,
		DataAPIBearerToken:  "tok",
		DataAPIAPIKey:       "key",
		DataAPIExtraHeaders: map[string]string{"X-Client": "test"},
		DataAPITradesRPS:    100,
	})
}

func TestGetTrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/trades" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("limit") != "500" || q.Get("offset") != "1000" || q.Get("user") != "0xabc" {
			t.Errorf("query: got %s", r.URL.RawQuery)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("auth header: got %q", got)
		}
		if got := r.Header.Get("X-Client"); got != "test" {
			t.Errorf("extra header: got %q", got)
		}
		w.Write([]byte(`[
			{"proxyWallet":"0xabc","side":"BUY","asset":"123","conditionId":"0xc1","size":10,"price":0.42,
			 "timestamp":1700000000,"transactionHash":"0xt1"},
			{"proxyWallet":"0xabc","side":"SELL","conditionId":"0xc1","timestamp":"1700000100","realizedPnl":1.5}
		]`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, config.AuthModeBearer)
	trades, err := c.GetTrades(context.Background(), TradeParams{Limit: 500, Offset: 1000, User: "0xabc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trades) != 2 {
		t.Fatalf("got %d trades, want 2", len(trades))
	}
	if trades[0].Price == nil || *trades[0].Price != 0.42 || trades[0].Timestamp.String() != "1700000000" {
		t.Errorf("first trade: got %+v", trades[0])
	}
	if trades[1].Size != nil || trades[1].RealizedPnl == nil || *trades[1].RealizedPnl != 1.5 {
		t.Errorf("second trade: got %+v", trades[1])
	}
	if trades[1].Timestamp.String() != "1700000100" {
		t.Errorf("quoted timestamp: got %q", trades[1].Timestamp)
	}
}

func TestGetTradesAPIKeyHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-API-KEY"); got != "key" {
			t.Errorf("api key header: got %q", got)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("unexpected Authorization header")
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	trades, err := newTestClient(srv.URL, config.AuthModeAPIKey).GetTrades(context.Background(), TradeParams{})
	if err != nil || len(trades) != 0 {
		t.Errorf("got %v %v", trades, err)
	}
}

func TestGetTradesErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"unauthorized", http.StatusUnauthorized, ""},
		{"server error", http.StatusBadGateway, "upstream down"},
		{"bad json", http.StatusOK, "{not json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			if _, err := newTestClient(srv.URL, config.AuthModeNone).GetTrades(context.Background(), TradeParams{}); err == nil {
				t.Error("expected error")
			}
		})
	}
}
