package analytics

import (
	"sort"
	"strings"
)

// Position is the running average-cost state of one (user, market) pair.
// OpenQuantity never goes below zero: there is no short side.
type Position struct {
	OpenQuantity float64
	TotalCost    float64
}

// AverageCost is the blended cost per open unit, zero when flat
func (p Position) AverageCost() float64 {
	if p.OpenQuantity <= 0 {
		return 0
	}
	return p.TotalCost / p.OpenQuantity
}

// Apply folds one fill into the position. For a sell that closes part or all
// of the open quantity it returns the matched quantity, the realized profit
// and true. Buys, ignored sides, non-positive sizes and sells against a flat
// position return false.
func (p *Position) Apply(side string, price, size float64) (matched, profit float64, realized bool) {
	if size <= 0 {
		return 0, 0, false
	}

	switch strings.ToUpper(strings.TrimSpace(side)) {
	case SideBuy:
		p.OpenQuantity += size
		p.TotalCost += price * size
		return 0, 0, false
	case SideSell:
		if p.OpenQuantity <= 0 {
			return 0, 0, false
		}
		avg := p.AverageCost()
		matched = size
		if matched > p.OpenQuantity {
			matched = p.OpenQuantity
		}
		profit = (price - avg) * matched
		p.OpenQuantity -= matched
		p.TotalCost = avg * p.OpenQuantity
		return matched, profit, matched > 0
	default:
		return 0, 0, false
	}
}

// Replay runs trades for a single (user, market) pair through a fresh
// position. Trades must already be in chronological order.
func Replay(userID, marketID string, trades []Trade) ([]ProfitEvent, Position) {
	var pos Position
	var events []ProfitEvent
	for _, t := range trades {
		matched, profit, ok := pos.Apply(t.Side, t.Price, t.Size)
		if !ok {
			continue
		}
		events = append(events, ProfitEvent{
			UserID:    userID,
			MarketID:  marketID,
			Timestamp: t.Timestamp,
			Quantity:  matched,
			Profit:    profit,
		})
	}
	return events, pos
}

// RealizedProfits groups trades by (user, market), sorts each group by time
// and replays it. Groups are emitted in first-seen order; trades with equal
// timestamps keep their input order.
func RealizedProfits(trades []Trade) []ProfitEvent {
	var order []pairKey
	groups := make(map[pairKey][]Trade)
	for _, t := range trades {
		key := pairKey{UserID: t.UserID, MarketID: t.MarketID}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], t)
	}

	var events []ProfitEvent
	for _, key := range order {
		group := groups[key]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Timestamp.Before(group[j].Timestamp)
		})
		pairEvents, _ := Replay(key.UserID, key.MarketID, group)
		events = append(events, pairEvents...)
	}
	return events
}
