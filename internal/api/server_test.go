package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/liamashdown/polymonitor/internal/analytics"
	"github.com/liamashdown/polymonitor/internal/config"
	"github.com/sirupsen/logrus"
)

var now = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

func fptr(f float64) *float64 { return &f }

func raw(id, user, market, side string, price, size float64, ago time.Duration) analytics.RawTrade {
	return analytics.RawTrade{
		ID: id, UserID: user, MarketID: market, Side: side,
		Price: fptr(price), Size: fptr(size),
		Timestamp: now.Add(-ago).Format(time.RFC3339),
	}
}

func testConfig() *config.Config {
	return &config.Config{
		SmartMoneyMinROI:     0.2,
		SmartMoneyMinWinRate: 0.6,
		SmartMoneyMinTrades:  5,
		SmartMoneySinceDays:  30,
		WhaleMinNetInvested:  10000,
		WhaleSinceHours:      24,
		TopProfitSinceDays:   30,
		HotMarketsSinceHours: 24,
		ResultLimit:          20,
	}
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func fixtureStore() *analytics.StaticStore {
	return &analytics.StaticStore{
		Trades: []analytics.RawTrade{
			raw("a1", "A", "M1", "BUY", 10, 10, 3*time.Hour),
			raw("a2", "A", "M1", "SELL", 12, 5, 2*time.Hour),
			raw("w1", "W", "M2", "BUY", 5, 3000, time.Hour),
		},
		Markets: []analytics.Market{
			{ID: "M1", Question: "First?", Volume24h: fptr(500), Status: "active"},
			{ID: "M2", Question: "Second?", Volume24h: fptr(900), Status: "active"},
		},
	}
}

type mapCache struct {
	data   map[string][]byte
	purged int
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := c.data[key]
	return v, ok
}

func (c *mapCache) Set(_ context.Context, key string, value []byte) { c.data[key] = value }

func (c *mapCache) Purge(context.Context) error {
	c.purged++
	c.data = map[string][]byte{}
	return nil
}

type fakeSyncer struct {
	calls int
	err   error
}

func (s *fakeSyncer) SyncAll(context.Context) error {
	s.calls++
	return s.err
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type failingStore struct{}

func (failingStore) LoadTrades(context.Context) ([]analytics.RawTrade, error) {
	return nil, errors.New("db down")
}

func (failingStore) LoadMarkets(context.Context) ([]analytics.Market, error) {
	return nil, errors.New("db down")
}

func newTestServer(store analytics.Store, syncer Syncer, c *mapCache) *Server {
	engine := analytics.NewEngine(store, quietLogger())
	engine.SetClock(func() time.Time { return now })
	if c == nil {
		return NewServer(testConfig(), engine, syncer, fakePinger{}, nil, quietLogger())
	}
	return NewServer(testConfig(), engine, syncer, fakePinger{}, c, quietLogger())
}

func do(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, w.Body.String())
	}
	if err := json.Unmarshal(envelope.Data, v); err != nil {
		t.Fatalf("decode data: %v (%s)", err, envelope.Data)
	}
}

func TestWhalesEndpoint(t *testing.T) {
	s := newTestServer(fixtureStore(), nil, nil)

	w := do(t, s, http.MethodGet, "/monitor/whales")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", w.Code, w.Body.String())
	}
	var whales []analytics.Whale
	decodeData(t, w, &whales)
	if len(whales) != 1 || whales[0].UserID != "W" || whales[0].NetInvested != 15000 {
		t.Errorf("got %+v", whales)
	}

	// Raising the threshold above W's notional empties the result
	w = do(t, s, http.MethodGet, "/monitor/whales?min_net_invested=20000")
	decodeData(t, w, &whales)
	if len(whales) != 0 {
		t.Errorf("got %+v, want none", whales)
	}
}

func TestTopProfitEndpoint(t *testing.T) {
	s := newTestServer(fixtureStore(), nil, nil)

	w := do(t, s, http.MethodGet, "/rankings/top-profit?limit=5&since_days=7")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", w.Code, w.Body.String())
	}
	var ranks []analytics.ProfitRanking
	decodeData(t, w, &ranks)
	if len(ranks) != 1 || ranks[0].UserID != "A" || ranks[0].Profit != 10 {
		t.Errorf("got %+v", ranks)
	}
}

func TestUserProfitEndpoint(t *testing.T) {
	s := newTestServer(fixtureStore(), nil, nil)

	w := do(t, s, http.MethodGet, "/users/A/profit")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", w.Code, w.Body.String())
	}
	var report analytics.UserProfitReport
	decodeData(t, w, &report)
	if report.UserID != "A" || report.Profit != 10 || len(report.Markets) != 1 || report.Markets[0].MarketID != "M1" {
		t.Errorf("got %+v", report)
	}
}

func TestHotMarketsEndpoint(t *testing.T) {
	s := newTestServer(fixtureStore(), nil, nil)

	w := do(t, s, http.MethodGet, "/markets/hot?limit=1")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", w.Code, w.Body.String())
	}
	var markets []analytics.HotMarket
	decodeData(t, w, &markets)
	if len(markets) != 1 || markets[0].MarketID != "M2" || markets[0].Source != analytics.VolumeSourceMarket {
		t.Errorf("got %+v", markets)
	}
}

func TestSmartMoneyEndpointEmpty(t *testing.T) {
	s := newTestServer(fixtureStore(), nil, nil)

	w := do(t, s, http.MethodGet, "/monitor/smart-money")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", w.Code, w.Body.String())
	}
	if got := w.Body.String(); got != `{"data":[]}` {
		t.Errorf("body: got %s", got)
	}
}

func TestBadParameters(t *testing.T) {
	s := newTestServer(fixtureStore(), nil, nil)

	tests := []struct {
		name   string
		target string
	}{
		{"non-numeric limit", "/rankings/top-profit?limit=ten"},
		{"non-numeric roi", "/monitor/smart-money?min_roi=high"},
		{"negative window", "/monitor/whales?since_hours=-1"},
		{"negative limit", "/markets/hot?limit=-3"},
		{"negative account age", "/monitor/smart-money?min_account_age_days=-1"},
		{"whale window too wide", "/monitor/whales?since_hours=3000000"},
		{"profit window too wide", "/rankings/top-profit?since_days=200000"},
		{"user profit window too wide", "/users/A/profit?since_days=200000"},
		{"hot window too wide", "/markets/hot?since_hours=3000000"},
		{"NaN whale threshold", "/monitor/whales?min_net_invested=NaN"},
		{"infinite roi", "/monitor/smart-money?min_roi=Inf"},
		{"NaN win rate", "/monitor/smart-money?min_roi=0.1&min_win_rate=nan"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodGet, tt.target)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want 400 (%s)", w.Code, w.Body.String())
			}
			var body map[string]string
			json.Unmarshal(w.Body.Bytes(), &body)
			if body["error"] == "" {
				t.Errorf("missing error message: %s", w.Body.String())
			}
		})
	}
}

func TestStoreErrorIs500(t *testing.T) {
	s := newTestServer(failingStore{}, nil, nil)

	w := do(t, s, http.MethodGet, "/rankings/top-profit")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", w.Code)
	}
}

func TestResponsesAreCached(t *testing.T) {
	c := newMapCache()
	s := newTestServer(fixtureStore(), nil, c)

	first := do(t, s, http.MethodGet, "/monitor/whales?since_hours=24&min_net_invested=100")
	if first.Header().Get("X-Cache") != "MISS" {
		t.Errorf("first request: X-Cache=%q", first.Header().Get("X-Cache"))
	}
	// Same query in a different order hits the same entry
	second := do(t, s, http.MethodGet, "/monitor/whales?min_net_invested=100&since_hours=24")
	if second.Header().Get("X-Cache") != "HIT" {
		t.Errorf("second request: X-Cache=%q", second.Header().Get("X-Cache"))
	}
	if first.Body.String() != second.Body.String() {
		t.Errorf("cached body differs:\n%s\n%s", first.Body.String(), second.Body.String())
	}
}

func TestAdminSync(t *testing.T) {
	c := newMapCache()
	syncer := &fakeSyncer{}
	s := newTestServer(fixtureStore(), syncer, c)

	do(t, s, http.MethodGet, "/monitor/whales")
	w := do(t, s, http.MethodPost, "/admin/sync")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", w.Code, w.Body.String())
	}
	if syncer.calls != 1 || c.purged != 1 || len(c.data) != 0 {
		t.Errorf("calls=%d purged=%d cached=%d", syncer.calls, c.purged, len(c.data))
	}

	syncer.err = errors.New("venue down")
	if w := do(t, s, http.MethodPost, "/admin/sync"); w.Code != http.StatusInternalServerError {
		t.Errorf("failed sync: got %d, want 500", w.Code)
	}

	noSync := newTestServer(fixtureStore(), nil, nil)
	if w := do(t, noSync, http.MethodPost, "/admin/sync"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("no syncer: got %d, want 503", w.Code)
	}
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(fixtureStore(), nil, nil)
	if w := do(t, s, http.MethodGet, "/health"); w.Code != http.StatusOK {
		t.Errorf("health: got %d", w.Code)
	}
	if w := do(t, s, http.MethodGet, "/ready"); w.Code != http.StatusOK {
		t.Errorf("ready: got %d", w.Code)
	}

	s.db = fakePinger{err: errors.New("down")}
	if w := do(t, s, http.MethodGet, "/ready"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("ready with db down: got %d, want 503", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(fixtureStore(), nil, nil)
	do(t, s, http.MethodGet, "/monitor/whales")

	w := do(t, s, http.MethodGet, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("metrics: got %d", w.Code)
	}
}
