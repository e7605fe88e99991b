package dataapi

import "encoding/json"

// Trade represents a trade from the Data API
type Trade struct {
	ID              string      `json:"id"`
	ProxyWallet     string      `json:"proxyWallet"`
	Side            string      `json:"side"` // BUY, SELL
	Asset           string      `json:"asset"`
	ConditionID     string      `json:"conditionId"`
	Size            *float64    `json:"size"`
	Price           *float64    `json:"price"`
	Timestamp       json.Number `json:"timestamp"` // Unix seconds
	Outcome         string      `json:"outcome"`
	Title           string      `json:"title"`
	Slug            string      `json:"slug"`
	TransactionHash string      `json:"transactionHash"`
	RealizedPnl     *float64    `json:"realizedPnl"`
}
