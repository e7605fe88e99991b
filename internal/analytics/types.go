// Package analytics turns a snapshot of stored fills into realized-profit
// events and the rankings built on top of them.
package analytics

import (
	"context"
	"errors"
	"time"
)

// Trade sides understood by the ledger
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// ErrInvalidOption is returned when query options are out of range
var ErrInvalidOption = errors.New("invalid option")

// RawTrade is a trade as it comes out of the store, before normalization
type RawTrade struct {
	ID        string
	MarketID  string
	UserID    string
	Side      string
	Price     *float64
	Size      *float64
	Timestamp string
}

// Trade is a normalized trade with a parsed timestamp
type Trade struct {
	ID        string
	MarketID  string
	UserID    string
	Side      string
	Price     float64
	Size      float64
	Timestamp time.Time
}

// Market is a stored market record
type Market struct {
	ID        string
	Question  string
	Volume24h *float64
	Volume    *float64
	Status    string
	CreatedAt string
}

// ProfitEvent is realized profit locked in by a sell against an open position
type ProfitEvent struct {
	UserID    string
	MarketID  string
	Timestamp time.Time
	Quantity  float64
	Profit    float64
}

// Store is the read side of the trade store
type Store interface {
	LoadTrades(ctx context.Context) ([]RawTrade, error)
	LoadMarkets(ctx context.Context) ([]Market, error)
}

// StaticStore serves a fixed snapshot. Useful for fixtures and replays.
type StaticStore struct {
	Trades  []RawTrade
	Markets []Market
}

// LoadTrades returns a copy of the snapshot trades
func (s *StaticStore) LoadTrades(_ context.Context) ([]RawTrade, error) {
	out := make([]RawTrade, len(s.Trades))
	copy(out, s.Trades)
	return out, nil
}

// LoadMarkets returns a copy of the snapshot markets
func (s *StaticStore) LoadMarkets(_ context.Context) ([]Market, error) {
	out := make([]Market, len(s.Markets))
	copy(out, s.Markets)
	return out, nil
}

// pairKey identifies one (user, market) ledger
type pairKey struct {
	UserID   string
	MarketID string
}

// orderedSums accumulates float totals while remembering first-seen key order,
// so ties sort the same way on every run.
type orderedSums[K comparable] struct {
	keys   []K
	totals map[K]float64
}

func newOrderedSums[K comparable]() *orderedSums[K] {
	return &orderedSums[K]{totals: make(map[K]float64)}
}

func (s *orderedSums[K]) add(key K, v float64) {
	if _, ok := s.totals[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.totals[key] += v
}

func (s *orderedSums[K]) get(key K) (float64, bool) {
	v, ok := s.totals[key]
	return v, ok
}

func (s *orderedSums[K]) len() int {
	return len(s.keys)
}
