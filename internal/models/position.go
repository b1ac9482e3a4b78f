package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is a derived holding for one symbol: the net open quantity and the
// volume-weighted average cost of that quantity. Positions are a pure
// projection of the trade log and are recomputed from scratch on every fold;
// they are never mutated incrementally by callers.
type Position struct {
	Symbol      string          `json:"symbol"`
	Quantity    decimal.Decimal `json:"quantity"`
	AverageCost decimal.Decimal `json:"average_cost"`
	CostBasis   decimal.Decimal `json:"cost_basis"`
}

// ValuedPosition is a Position decorated with a live market price. Valuation
// fields are populated only when Priced is true; a missing price for one
// symbol leaves the position itself intact.
type ValuedPosition struct {
	Position
	Priced           bool            `json:"priced"`
	CurrentPrice     decimal.Decimal `json:"current_price,omitempty"`
	MarketValue      decimal.Decimal `json:"market_value,omitempty"`
	UnrealizedPnl    decimal.Decimal `json:"unrealized_pnl,omitempty"`
	UnrealizedPnlPct decimal.Decimal `json:"unrealized_pnl_pct,omitempty"`
	PricedAt         time.Time       `json:"priced_at,omitempty"`
}
