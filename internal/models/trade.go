package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade side constants
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Trade represents a single executed buy or sell for an account.
// The trade log is append-only: a trade is never edited or reordered after
// creation. A mistake is corrected by recording an offsetting trade.
type Trade struct {
	ID         int             `json:"id"`
	AccountID  string          `json:"account_id"`
	OrderID    string          `json:"order_id,omitempty"`
	Source     string          `json:"source,omitempty"`
	Symbol     string          `json:"symbol"`
	Side       string          `json:"side"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Notes      string          `json:"notes,omitempty"`
	ExecutedAt time.Time       `json:"executed_at"`
	CreatedAt  time.Time       `json:"created_at"`
}

// TotalCost returns quantity * price for this trade.
func (t *Trade) TotalCost() decimal.Decimal {
	return t.Quantity.Mul(t.Price)
}
