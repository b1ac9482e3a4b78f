package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a point-in-time market price for a symbol, as returned by the
// market data provider (possibly via the Redis cache).
type Quote struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	PreviousClose decimal.Decimal `json:"previous_close,omitempty"`
	Currency      string          `json:"currency,omitempty"`
	AsOf          time.Time       `json:"as_of"`
}
