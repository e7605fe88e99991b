package analytics

import (
	"sort"
	"time"
)

// WhaleOptions tunes the whale detector
type WhaleOptions struct {
	MinNetInvested float64
	SinceHours     int
}

// DefaultWhaleOptions returns a 24h window and a 10k threshold
func DefaultWhaleOptions() WhaleOptions {
	return WhaleOptions{MinNetInvested: 10000, SinceHours: 24}
}

// Validate rejects an out of range window and a non-finite threshold
func (o WhaleOptions) Validate() error {
	if err := checkWindow("since_hours", o.SinceHours, MaxWindowHours); err != nil {
		return err
	}
	return checkFinite("min_net_invested", o.MinNetInvested)
}

// Whale is a trader with large capital deployed in the window
type Whale struct {
	UserID      string  `json:"user_id"`
	NetInvested float64 `json:"net_invested"`
}

// DetectWhales sums notional per trader inside the window and keeps traders
// at or above the threshold, largest first.
func DetectWhales(trades []Trade, opts WhaleOptions, now time.Time) []Whale {
	w := hoursWindow(now, opts.SinceHours)

	totals := newOrderedSums[string]()
	for _, t := range trades {
		if !w.Contains(t.Timestamp) {
			continue
		}
		totals.add(t.UserID, Notional(t.Price, t.Size))
	}

	whales := make([]Whale, 0)
	for _, u := range totals.keys {
		total := totals.totals[u]
		if total < opts.MinNetInvested {
			continue
		}
		whales = append(whales, Whale{UserID: u, NetInvested: Round4(total)})
	}

	sort.SliceStable(whales, func(i, j int) bool {
		return whales[i].NetInvested > whales[j].NetInvested
	})
	return whales
}
