package analytics

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func fptr(f float64) *float64 { return &f }

func raw(id, user, market, side string, price, size float64, ts string) RawTrade {
	return RawTrade{ID: id, UserID: user, MarketID: market, Side: side, Price: fptr(price), Size: fptr(size), Timestamp: ts}
}

func epoch(d time.Duration) string {
	return strconv.FormatInt(now.Add(-d).Unix(), 10)
}

func newTestEngine(store Store) *Engine {
	e := NewEngine(store, quietLogger())
	e.SetClock(func() time.Time { return now })
	return e
}

func fixtureStore() *StaticStore {
	return &StaticStore{
		Trades: []RawTrade{
			raw("1", "A", "M1", "BUY", 0.5, 100, epoch(48*time.Hour)),
			raw("2", "A", "M1", "SELL", 0.8, 100, now.Add(-24*time.Hour).Format(time.RFC3339)),
			raw("3", "A", "M2", "BUY", 0.4, 50, epoch(48*time.Hour)),
			raw("4", "A", "M2", "SELL", 0.6, 50, epoch(24*time.Hour)),
			raw("5", "A", "M3", "BUY", 0.5, 10, epoch(time.Hour)),
			raw("6", "W", "M3", "BUY", 0.5, 30000, epoch(2*time.Hour)),
			raw("7", "W", "M3", "SELL", 0.4, 30000, "not a time"),
		},
		Markets: []Market{
			{ID: "M1", Question: "First?"},
			{ID: "M3", Question: "Third?"},
		},
	}
}

func TestEngineSmartMoney(t *testing.T) {
	e := newTestEngine(fixtureStore())
	got, err := e.SmartMoney(context.Background(), DefaultSmartMoneyOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].UserID != "A" || got[0].TradeCount != 5 {
		t.Errorf("got %+v", got)
	}
}

func TestEngineWhalesSkipsBadTimestamps(t *testing.T) {
	e := newTestEngine(fixtureStore())
	got, err := e.Whales(context.Background(), DefaultWhaleOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// the unparseable sell is dropped, leaving W's 15000 buy
	want := []Whale{{UserID: "W", NetInvested: 15000}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestEngineTopProfit(t *testing.T) {
	e := newTestEngine(fixtureStore())
	got, err := e.TopProfit(context.Background(), DefaultTopProfitOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []ProfitRanking{{UserID: "A", Profit: 40}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestEngineUserProfit(t *testing.T) {
	e := newTestEngine(fixtureStore())
	got, err := e.UserProfit(context.Background(), UserProfitOptions{UserID: "A", SinceDays: 30})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Profit != 40 || len(got.Markets) != 2 || got.Markets[0].MarketID != "M1" {
		t.Errorf("got %+v", got)
	}

	if _, err := e.UserProfit(context.Background(), UserProfitOptions{}); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("missing user: got %v, want ErrInvalidOption", err)
	}
}

func TestEngineHotMarketsFallsBackToFills(t *testing.T) {
	e := newTestEngine(fixtureStore())
	got, err := e.HotMarkets(context.Background(), DefaultHotMarketOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// fills exactly 24h old sit on the cutoff and count
	want := []HotMarket{
		{MarketID: "M3", Question: "Third?", Volume: 15005, Source: VolumeSourceTrades},
		{MarketID: "M1", Question: "First?", Volume: 80, Source: VolumeSourceTrades},
		{MarketID: "M2", Question: "", Volume: 30, Source: VolumeSourceTrades},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestEngineHotMarketsUsesStoredVolume(t *testing.T) {
	store := fixtureStore()
	store.Markets[0].Volume24h = fptr(123.5)
	e := newTestEngine(store)

	got, err := e.HotMarkets(context.Background(), DefaultHotMarketOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []HotMarket{{MarketID: "M1", Question: "First?", Volume: 123.5, Source: VolumeSourceMarket}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestEngineIdempotent(t *testing.T) {
	e := newTestEngine(fixtureStore())
	ctx := context.Background()

	first, err := e.SmartMoney(ctx, DefaultSmartMoneyOptions())
	if err != nil {
		t.Fatal(err)
	}
	firstWhales, _ := e.Whales(ctx, DefaultWhaleOptions())
	for i := 0; i < 10; i++ {
		again, _ := e.SmartMoney(ctx, DefaultSmartMoneyOptions())
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d: smart money changed: %+v vs %+v", i, first, again)
		}
		whales, _ := e.Whales(ctx, DefaultWhaleOptions())
		if !reflect.DeepEqual(firstWhales, whales) {
			t.Fatalf("run %d: whales changed", i)
		}
	}
}

func TestEngineEmptyStore(t *testing.T) {
	e := newTestEngine(&StaticStore{})
	ctx := context.Background()

	sm, err := e.SmartMoney(ctx, DefaultSmartMoneyOptions())
	if err != nil || len(sm) != 0 {
		t.Errorf("smart money: %v %v", sm, err)
	}
	wh, err := e.Whales(ctx, DefaultWhaleOptions())
	if err != nil || len(wh) != 0 {
		t.Errorf("whales: %v %v", wh, err)
	}
	tp, err := e.TopProfit(ctx, DefaultTopProfitOptions())
	if err != nil || len(tp) != 0 {
		t.Errorf("top profit: %v %v", tp, err)
	}
	hm, err := e.HotMarkets(ctx, DefaultHotMarketOptions())
	if err != nil || len(hm) != 0 {
		t.Errorf("hot markets: %v %v", hm, err)
	}
}

type failingStore struct{}

func (failingStore) LoadTrades(context.Context) ([]RawTrade, error) {
	return nil, errors.New("connection refused")
}

func (failingStore) LoadMarkets(context.Context) ([]Market, error) {
	return nil, errors.New("connection refused")
}

func TestEngineStoreErrorsPropagate(t *testing.T) {
	e := newTestEngine(failingStore{})
	if _, err := e.Whales(context.Background(), DefaultWhaleOptions()); err == nil {
		t.Error("expected error from whales")
	}
	if _, err := e.HotMarkets(context.Background(), DefaultHotMarketOptions()); err == nil {
		t.Error("expected error from hot markets")
	}
}

func TestEngineRejectsInvalidOptions(t *testing.T) {
	e := newTestEngine(fixtureStore())
	ctx := context.Background()

	if _, err := e.Whales(ctx, WhaleOptions{SinceHours: -1}); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("whales: got %v", err)
	}
	if _, err := e.TopProfit(ctx, TopProfitOptions{Limit: -1}); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("top profit: got %v", err)
	}
	if _, err := e.HotMarkets(ctx, HotMarketOptions{SinceHours: -3}); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("hot markets: got %v", err)
	}
	if _, err := e.SmartMoney(ctx, SmartMoneyOptions{MinTrades: -1}); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("smart money: got %v", err)
	}
}
