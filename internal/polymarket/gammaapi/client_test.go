package gammaapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/liamashdown/polymonitor/internal/config"
)

func TestListMarkets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		want := map[string]string{
			"active": "true", "closed": "false", "order": "volume24hr",
			"ascending": "false", "limit": "100", "offset": "200",
		}
		for k, v := range want {
			if got := q.Get(k); got != v {
				t.Errorf("%s: got %q, want %q", k, got, v)
			}
		}
		w.Write([]byte(`[
			{"id":"12","conditionId":"0xc1","question":"Will it rain?","volume24hr":1500.5,"volumeNum":90000,"active":true,"closed":false},
			{"id":"13","question":"No condition","active":true,"closed":true}
		]`))
	}))
	defer srv.Close()

	c := NewClient(&config.Config{GammaAPIBaseURL: srv.URL, GammaAPIMarketsRPS: 100})
	markets, err := c.ListMarkets(context.Background(), MarketParams{Limit: 100, Offset: 200})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(markets) != 2 {
		t.Fatalf("got %d markets, want 2", len(markets))
	}

	first := markets[0]
	if first.Key() != "0xc1" || first.Status() != "active" {
		t.Errorf("first: key=%s status=%s", first.Key(), first.Status())
	}
	if first.Volume24hr == nil || *first.Volume24hr != 1500.5 {
		t.Errorf("volume24hr: got %v", first.Volume24hr)
	}

	second := markets[1]
	if second.Key() != "13" || second.Status() != "closed" || second.Volume24hr != nil {
		t.Errorf("second: got %+v", second)
	}
}

func TestListMarketsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(&config.Config{GammaAPIBaseURL: srv.URL, GammaAPIMarketsRPS: 100})
	if _, err := c.ListMarkets(context.Background(), MarketParams{}); err == nil {
		t.Error("expected error")
	}
}
