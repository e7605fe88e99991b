package analytics

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// isoLayouts are tried in order after the numeric forms fail. Layouts without
// a zone are read as UTC.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp accepts epoch seconds (integer or fractional) or an ISO-8601
// string and returns the instant in UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	if isDigits(s) {
		sec, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse epoch %q: %w", s, err)
		}
		return time.Unix(sec, 0).UTC(), nil
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return time.Time{}, fmt.Errorf("non-finite epoch %q", s)
		}
		sec, frac := math.Modf(f)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// NormalizeTrades parses every trade timestamp and drops the trades that
// cannot be placed in time. Missing price or size becomes zero. The second
// return value is the number of dropped trades.
func NormalizeTrades(raw []RawTrade) ([]Trade, int) {
	trades := make([]Trade, 0, len(raw))
	skipped := 0
	for _, r := range raw {
		ts, err := ParseTimestamp(r.Timestamp)
		if err != nil {
			skipped++
			continue
		}
		trades = append(trades, Trade{
			ID:        r.ID,
			MarketID:  r.MarketID,
			UserID:    r.UserID,
			Side:      r.Side,
			Price:     valueOrZero(r.Price),
			Size:      valueOrZero(r.Size),
			Timestamp: ts,
		})
	}
	return trades, skipped
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
