package syncer

import (
	"fmt"

	"github.com/liamashdown/polymonitor/internal/polymarket/dataapi"
	"github.com/liamashdown/polymonitor/internal/polymarket/gammaapi"
	"github.com/liamashdown/polymonitor/internal/storage"
)

// tradeID picks the stored key for a fill: the transaction hash, then the
// venue ID, then a key derived from wallet, time and asset.
func tradeID(t *dataapi.Trade) string {
	if t.TransactionHash != "" {
		return t.TransactionHash
	}
	if t.ID != "" {
		return t.ID
	}
	return fmt.Sprintf("%s-%s-%s", t.ProxyWallet, t.Timestamp.String(), t.Asset)
}

func tradeFromAPI(t *dataapi.Trade) storage.Trade {
	row := storage.Trade{
		ID:       tradeID(t),
		MarketID: t.ConditionID,
		UserID:   t.ProxyWallet,
		Side:     t.Side,
		Price:    t.Price,
		Size:     t.Size,
		Profit:   t.RealizedPnl,
		Realized: t.RealizedPnl != nil && *t.RealizedPnl != 0,
	}
	if ts := t.Timestamp.String(); ts != "" {
		row.Timestamp = &ts
	}
	return row
}

func marketFromAPI(m *gammaapi.Market) storage.Market {
	row := storage.Market{
		ID:        m.Key(),
		Volume24h: m.Volume24hr,
		Volume:    m.VolumeNum,
		Status:    m.Status(),
	}
	if m.Question != "" {
		q := m.Question
		row.Question = &q
	}
	if m.CreatedAt != "" {
		c := m.CreatedAt
		row.MarketCreatedAt = &c
	}
	return row
}
