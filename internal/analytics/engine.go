package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/liamashdown/polymonitor/internal/metrics"
	"github.com/sirupsen/logrus"
)

// Engine answers analytics queries from a fresh store snapshot per call.
// It holds no state between calls and never writes to the store.
type Engine struct {
	store Store
	log   *logrus.Logger
	now   func() time.Time
}

// NewEngine creates an engine over the given store
func NewEngine(store Store, log *logrus.Logger) *Engine {
	return &Engine{
		store: store,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the wall clock used for window cutoffs
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// SmartMoney classifies traders by ROI and cross-market win rate
func (e *Engine) SmartMoney(ctx context.Context, opts SmartMoneyOptions) (res []SmartMoneyEntry, err error) {
	defer e.observe("smart_money", time.Now(), &err)
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	now := e.now()
	trades, err := e.loadTrades(ctx, "smart_money")
	if err != nil {
		return nil, err
	}
	res = ClassifySmartMoney(trades, RealizedProfits(trades), opts, now)

	e.log.WithFields(logrus.Fields{
		"query":       "smart_money",
		"trades":      len(trades),
		"results":     len(res),
		"min_roi":     opts.MinROI,
		"min_winrate": opts.MinWinRate,
		"min_trades":  opts.MinTrades,
		"since_days":  opts.SinceDays,
	}).Debug("Smart money computed")
	return res, nil
}

// Whales ranks traders by capital deployed in the window
func (e *Engine) Whales(ctx context.Context, opts WhaleOptions) (res []Whale, err error) {
	defer e.observe("whales", time.Now(), &err)
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	now := e.now()
	trades, err := e.loadTrades(ctx, "whales")
	if err != nil {
		return nil, err
	}
	return DetectWhales(trades, opts, now), nil
}

// TopProfit ranks traders by realized profit in the window
func (e *Engine) TopProfit(ctx context.Context, opts TopProfitOptions) (res []ProfitRanking, err error) {
	defer e.observe("top_profit", time.Now(), &err)
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	now := e.now()
	trades, err := e.loadTrades(ctx, "top_profit")
	if err != nil {
		return nil, err
	}
	return RankByProfit(RealizedProfits(trades), opts, now), nil
}

// UserProfit reports one trader's realized profit per market
func (e *Engine) UserProfit(ctx context.Context, opts UserProfitOptions) (res UserProfitReport, err error) {
	defer e.observe("user_profit", time.Now(), &err)
	if err := opts.Validate(); err != nil {
		return UserProfitReport{}, err
	}

	now := e.now()
	trades, err := e.loadTrades(ctx, "user_profit")
	if err != nil {
		return UserProfitReport{}, err
	}

	// only this trader's ledgers need replaying
	own := make([]Trade, 0)
	for _, t := range trades {
		if t.UserID == opts.UserID {
			own = append(own, t)
		}
	}
	return ProfitBreakdown(RealizedProfits(own), opts, now), nil
}

// HotMarkets ranks markets by stored 24h volume, or by volume rebuilt from
// fills when no market carries one.
func (e *Engine) HotMarkets(ctx context.Context, opts HotMarketOptions) (res []HotMarket, err error) {
	defer e.observe("hot_markets", time.Now(), &err)
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	now := e.now()
	markets, err := e.store.LoadMarkets(ctx)
	if err != nil {
		return nil, fmt.Errorf("load markets: %w", err)
	}
	if HasMarketVolume(markets) {
		return RankMarketsByVolume(markets, opts), nil
	}

	e.log.WithField("markets", len(markets)).Debug("No market carries 24h volume, rebuilding from fills")
	trades, err := e.loadTrades(ctx, "hot_markets")
	if err != nil {
		return nil, err
	}
	return RankMarketsByFills(trades, markets, opts, now), nil
}

func (e *Engine) loadTrades(ctx context.Context, query string) ([]Trade, error) {
	raw, err := e.store.LoadTrades(ctx)
	if err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}

	trades, skipped := NormalizeTrades(raw)
	if skipped > 0 {
		metrics.RecordTradesSkipped("timestamp", skipped)
		e.log.WithFields(logrus.Fields{
			"query":   query,
			"skipped": skipped,
			"loaded":  len(raw),
		}).Warn("Skipped trades with unparseable timestamps")
	}
	return trades, nil
}

func (e *Engine) observe(query string, start time.Time, err *error) {
	metrics.RecordQuery(query, time.Since(start), *err)
}
