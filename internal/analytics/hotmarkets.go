package analytics

import (
	"fmt"
	"sort"
	"time"
)

// Hot market sources
const (
	VolumeSourceMarket = "market_24h"
	VolumeSourceTrades = "trades"
)

// HotMarketOptions tunes the hot market ranking
type HotMarketOptions struct {
	Limit      int
	SinceHours int
}

// DefaultHotMarketOptions returns the top 20 over 24 hours
func DefaultHotMarketOptions() HotMarketOptions {
	return HotMarketOptions{Limit: DefaultLimit, SinceHours: 24}
}

// Validate rejects negative windows and limits
func (o HotMarketOptions) Validate() error {
	if o.Limit < 0 {
		return fmt.Errorf("%w: limit must be >= 0", ErrInvalidOption)
	}
	return checkWindow("since_hours", o.SinceHours, MaxWindowHours)
}

// HotMarket is one ranked market
type HotMarket struct {
	MarketID string  `json:"market_id"`
	Question string  `json:"question"`
	Volume   float64 `json:"volume"`
	Source   string  `json:"source"`
}

// HasMarketVolume reports whether any market carries a 24h volume figure
func HasMarketVolume(markets []Market) bool {
	for _, m := range markets {
		if m.Volume24h != nil {
			return true
		}
	}
	return false
}

// RankMarketsByVolume ranks markets by their stored 24h volume
func RankMarketsByVolume(markets []Market, opts HotMarketOptions) []HotMarket {
	hot := make([]HotMarket, 0, len(markets))
	for _, m := range markets {
		if m.Volume24h == nil {
			continue
		}
		hot = append(hot, HotMarket{
			MarketID: m.ID,
			Question: m.Question,
			Volume:   *m.Volume24h,
			Source:   VolumeSourceMarket,
		})
	}
	sort.SliceStable(hot, func(i, j int) bool {
		return hot[i].Volume > hot[j].Volume
	})
	return truncate(hot, opts.Limit)
}

// RankMarketsByFills rebuilds per-market volume from fills in the window.
// Markets missing from the market list get an empty question.
func RankMarketsByFills(trades []Trade, markets []Market, opts HotMarketOptions, now time.Time) []HotMarket {
	w := hoursWindow(now, opts.SinceHours)

	questions := make(map[string]string, len(markets))
	for _, m := range markets {
		questions[m.ID] = m.Question
	}

	totals := newOrderedSums[string]()
	for _, t := range trades {
		if !w.Contains(t.Timestamp) {
			continue
		}
		totals.add(t.MarketID, Notional(t.Price, t.Size))
	}

	hot := make([]HotMarket, 0, totals.len())
	for _, id := range totals.keys {
		hot = append(hot, HotMarket{
			MarketID: id,
			Question: questions[id],
			Volume:   Round4(totals.totals[id]),
			Source:   VolumeSourceTrades,
		})
	}
	sort.SliceStable(hot, func(i, j int) bool {
		return hot[i].Volume > hot[j].Volume
	})
	return truncate(hot, opts.Limit)
}
