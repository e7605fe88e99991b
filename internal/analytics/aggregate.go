package analytics

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Window is a trailing time window ending at query time
type Window struct {
	Cutoff time.Time
}

// TrailingWindow builds a window that starts span before now
func TrailingWindow(now time.Time, span time.Duration) Window {
	return Window{Cutoff: now.Add(-span)}
}

// Longest accepted trailing windows. Both stay inside the range of a
// time.Duration.
const (
	MaxWindowDays  = 100000
	MaxWindowHours = MaxWindowDays * 24
)

// hoursWindow is the trailing window of n hours, clamped to MaxWindowHours
func hoursWindow(now time.Time, n int) Window {
	if n > MaxWindowHours {
		n = MaxWindowHours
	}
	return TrailingWindow(now, time.Duration(n)*time.Hour)
}

// daysWindow is the trailing window of n days, clamped to MaxWindowDays
func daysWindow(now time.Time, n int) Window {
	if n > MaxWindowDays {
		n = MaxWindowDays
	}
	return TrailingWindow(now, time.Duration(n)*24*time.Hour)
}

func checkWindow(name string, n, max int) error {
	if n < 0 {
		return fmt.Errorf("%w: %s must be >= 0", ErrInvalidOption, name)
	}
	if n > max {
		return fmt.Errorf("%w: %s must be <= %d", ErrInvalidOption, name, max)
	}
	return nil
}

func checkFinite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be a finite number", ErrInvalidOption, name)
	}
	return nil
}

// Contains reports whether t falls inside the window. The cutoff itself is inside.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Cutoff)
}

// ProfitTotals is realized profit summed per user and per (user, market)
type ProfitTotals struct {
	byUser       *orderedSums[string]
	byUserMarket *orderedSums[pairKey]
	// markets per user, in first-seen order
	userMarkets map[string][]string
}

// AggregateProfits sums the events that fall inside the window
func AggregateProfits(events []ProfitEvent, w Window) *ProfitTotals {
	totals := &ProfitTotals{
		byUser:       newOrderedSums[string](),
		byUserMarket: newOrderedSums[pairKey](),
		userMarkets:  make(map[string][]string),
	}
	for _, ev := range events {
		if !w.Contains(ev.Timestamp) {
			continue
		}
		totals.byUser.add(ev.UserID, ev.Profit)
		key := pairKey{UserID: ev.UserID, MarketID: ev.MarketID}
		if _, seen := totals.byUserMarket.get(key); !seen {
			totals.userMarkets[ev.UserID] = append(totals.userMarkets[ev.UserID], ev.MarketID)
		}
		totals.byUserMarket.add(key, ev.Profit)
	}
	return totals
}

// Users returns users with at least one event in the window, first-seen first
func (t *ProfitTotals) Users() []string {
	return t.byUser.keys
}

// UserProfit is the total realized profit of a user
func (t *ProfitTotals) UserProfit(userID string) float64 {
	v, _ := t.byUser.get(userID)
	return v
}

// MarketProfits returns the per-market totals of a user, keyed by market id,
// along with the market ids in first-seen order.
func (t *ProfitTotals) MarketProfits(userID string) ([]string, map[string]float64) {
	markets := t.userMarkets[userID]
	out := make(map[string]float64, len(markets))
	for _, m := range markets {
		v, _ := t.byUserMarket.get(pairKey{UserID: userID, MarketID: m})
		out[m] = v
	}
	return markets, out
}

// Notional is the absolute traded value of a fill
func Notional(price, size float64) float64 {
	return math.Abs(price * size)
}

// ROI is realized profit over stake. ok is false when stake is not positive.
func ROI(profit, stake float64) (roi float64, ok bool) {
	if stake <= 0 {
		return 0, false
	}
	return profit / stake, true
}

// WinRate is the share of market totals that are strictly positive. ok is
// false when there are no market totals.
func WinRate(marketProfits []float64) (rate float64, ok bool) {
	if len(marketProfits) == 0 {
		return 0, false
	}
	wins := 0
	for _, p := range marketProfits {
		if p > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(marketProfits)), true
}

// Round4 rounds the exact binary value of v to four decimal places, so
// 0.00015 (stored just below the tie) becomes 0.0001. Exact ties go to even.
func Round4(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	d, err := decimal.NewFromString(strconv.FormatFloat(v, 'f', 4, 64))
	if err != nil {
		return v
	}
	return d.InexactFloat64()
}
