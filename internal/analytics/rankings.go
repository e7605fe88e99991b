package analytics

import (
	"fmt"
	"sort"
	"time"
)

// DefaultLimit caps ranked results when the caller does not
const DefaultLimit = 20

// TopProfitOptions tunes the profit ranking
type TopProfitOptions struct {
	Limit     int
	SinceDays int
}

// DefaultTopProfitOptions returns the top 20 over 30 days
func DefaultTopProfitOptions() TopProfitOptions {
	return TopProfitOptions{Limit: DefaultLimit, SinceDays: 30}
}

// Validate rejects negative windows and limits
func (o TopProfitOptions) Validate() error {
	if o.Limit < 0 {
		return fmt.Errorf("%w: limit must be >= 0", ErrInvalidOption)
	}
	return checkWindow("since_days", o.SinceDays, MaxWindowDays)
}

// ProfitRanking is one row of the profit leaderboard
type ProfitRanking struct {
	UserID string  `json:"user_id"`
	Profit float64 `json:"profit"`
}

// RankByProfit sums realized profit per trader in the window and returns the
// top entries, highest first. A limit of zero means DefaultLimit.
func RankByProfit(events []ProfitEvent, opts TopProfitOptions, now time.Time) []ProfitRanking {
	w := daysWindow(now, opts.SinceDays)
	totals := AggregateProfits(events, w)

	rankings := make([]ProfitRanking, 0, totals.byUser.len())
	for _, u := range totals.Users() {
		rankings = append(rankings, ProfitRanking{UserID: u, Profit: Round4(totals.UserProfit(u))})
	}
	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].Profit > rankings[j].Profit
	})
	return truncate(rankings, opts.Limit)
}

// UserProfitOptions selects one trader's per-market breakdown
type UserProfitOptions struct {
	UserID    string
	SinceDays int
}

// Validate requires a user and an in-range window
func (o UserProfitOptions) Validate() error {
	if o.UserID == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidOption)
	}
	return checkWindow("since_days", o.SinceDays, MaxWindowDays)
}

// MarketProfit is realized profit of one trader in one market
type MarketProfit struct {
	MarketID string  `json:"market_id"`
	Profit   float64 `json:"profit"`
}

// UserProfitReport is the realized profit breakdown of one trader
type UserProfitReport struct {
	UserID  string         `json:"user_id"`
	Profit  float64        `json:"profit"`
	Markets []MarketProfit `json:"markets"`
}

// ProfitBreakdown reports a trader's realized profit per market in the
// window, highest first.
func ProfitBreakdown(events []ProfitEvent, opts UserProfitOptions, now time.Time) UserProfitReport {
	w := daysWindow(now, opts.SinceDays)
	totals := AggregateProfits(events, w)

	report := UserProfitReport{
		UserID:  opts.UserID,
		Profit:  Round4(totals.UserProfit(opts.UserID)),
		Markets: make([]MarketProfit, 0),
	}
	markets, byMarket := totals.MarketProfits(opts.UserID)
	for _, m := range markets {
		report.Markets = append(report.Markets, MarketProfit{MarketID: m, Profit: Round4(byMarket[m])})
	}
	sort.SliceStable(report.Markets, func(i, j int) bool {
		return report.Markets[i].Profit > report.Markets[j].Profit
	})
	return report
}

func truncate[T any](items []T, limit int) []T {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
