// Package marketdata supplies live quotes for the ledger's valuation step.
// Providers fail per symbol, wrapping ledger.ErrPriceUnavailable, so one
// symbol's outage never blocks the rest of the portfolio.
package marketdata

import (
	"context"

	"github.com/quantfolio/paper-trading-service/internal/models"
)

// PriceProvider returns the latest quote for a symbol.
type PriceProvider interface {
	Quote(ctx context.Context, symbol string) (models.Quote, error)
}
