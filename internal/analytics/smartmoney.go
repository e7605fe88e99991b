package analytics

import (
	"fmt"
	"sort"
	"time"
)

// SmartMoneyOptions tunes the smart money classifier.
//
// MinAccountAgeDays and ReinvestWindowHours are accepted for compatibility
// with the query surface; they do not change the score.
type SmartMoneyOptions struct {
	MinROI              float64
	MinWinRate          float64
	MinTrades           int
	SinceDays           int
	MinAccountAgeDays   int
	ReinvestWindowHours int
}

// DefaultSmartMoneyOptions returns the stock thresholds
func DefaultSmartMoneyOptions() SmartMoneyOptions {
	return SmartMoneyOptions{
		MinROI:     0.2,
		MinWinRate: 0.6,
		MinTrades:  5,
		SinceDays:  30,
	}
}

// Validate rejects out of range windows, negative counts and non-finite
// thresholds
func (o SmartMoneyOptions) Validate() error {
	if err := checkWindow("since_days", o.SinceDays, MaxWindowDays); err != nil {
		return err
	}
	if err := checkFinite("min_roi", o.MinROI); err != nil {
		return err
	}
	if err := checkFinite("min_win_rate", o.MinWinRate); err != nil {
		return err
	}
	if o.MinTrades < 0 {
		return fmt.Errorf("%w: min_trades must be >= 0", ErrInvalidOption)
	}
	if o.MinAccountAgeDays < 0 || o.ReinvestWindowHours < 0 {
		return fmt.Errorf("%w: account age and reinvest window must be >= 0", ErrInvalidOption)
	}
	return nil
}

// SmartMoneyEntry is one classified trader
type SmartMoneyEntry struct {
	UserID     string  `json:"user_id"`
	ROI        float64 `json:"roi"`
	WinRate    float64 `json:"win_rate"`
	Profit     float64 `json:"profit"`
	TradeCount int     `json:"trade_count"`
}

type stakeStats struct {
	stake      float64
	tradeCount int
}

// ClassifySmartMoney scores every trader with activity in the window and
// keeps those whose ROI and win rate clear the thresholds. Results are sorted
// by ROI, highest first.
func ClassifySmartMoney(trades []Trade, events []ProfitEvent, opts SmartMoneyOptions, now time.Time) []SmartMoneyEntry {
	w := daysWindow(now, opts.SinceDays)

	var users []string
	stats := make(map[string]*stakeStats)
	for _, t := range trades {
		if !w.Contains(t.Timestamp) {
			continue
		}
		st, ok := stats[t.UserID]
		if !ok {
			st = &stakeStats{}
			stats[t.UserID] = st
			users = append(users, t.UserID)
		}
		st.stake += Notional(t.Price, t.Size)
		st.tradeCount++
	}

	// users with profit but no in-window trades have no stake and never qualify
	totals := AggregateProfits(events, w)

	results := make([]SmartMoneyEntry, 0)
	for _, u := range users {
		st := stats[u]
		if st.tradeCount < opts.MinTrades || st.stake <= 0 {
			continue
		}

		markets, byMarket := totals.MarketProfits(u)
		perMarket := make([]float64, 0, len(markets))
		for _, m := range markets {
			perMarket = append(perMarket, byMarket[m])
		}
		winRate, ok := WinRate(perMarket)
		if !ok {
			continue
		}

		profit := totals.UserProfit(u)
		roi, ok := ROI(profit, st.stake)
		if !ok {
			continue
		}
		if roi < opts.MinROI || winRate < opts.MinWinRate {
			continue
		}

		results = append(results, SmartMoneyEntry{
			UserID:     u,
			ROI:        Round4(roi),
			WinRate:    Round4(winRate),
			Profit:     Round4(profit),
			TradeCount: st.tradeCount,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].ROI > results[j].ROI
	})
	return results
}
