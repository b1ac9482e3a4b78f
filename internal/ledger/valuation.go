package ledger

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfolio/paper-trading-service/internal/models"
)

// PriceSource supplies a live market price per symbol. Implementations may
// fail per symbol (wrapping ErrPriceUnavailable) and should honor the
// caller's context deadline.
type PriceSource interface {
	Quote(ctx context.Context, symbol string) (models.Quote, error)
}

var hundred = decimal.NewFromInt(100)

// Valuate decorates a position with a live price: market value, unrealized
// P&L and its percentage. The percentage is skipped when the average cost is
// zero (no open position to measure against).
func Valuate(p models.Position, q models.Quote) models.ValuedPosition {
	v := models.ValuedPosition{
		Position:     p,
		Priced:       true,
		CurrentPrice: q.Price,
		MarketValue:  p.Quantity.Mul(q.Price),
		PricedAt:     q.AsOf,
	}
	v.UnrealizedPnl = q.Price.Sub(p.AverageCost).Mul(p.Quantity)
	if !p.AverageCost.IsZero() {
		v.UnrealizedPnlPct = q.Price.Sub(p.AverageCost).Div(p.AverageCost).Mul(hundred)
	}
	return v
}

// ValuateAll fetches quotes for every position concurrently and returns the
// valued portfolio. Each lookup carries its own timeout so one slow or
// failing symbol cannot delay or fail the others: a symbol whose price is
// unavailable is returned unpriced, with its position data intact.
func ValuateAll(ctx context.Context, positions map[string]models.Position, prices PriceSource, perSymbolTimeout time.Duration) map[string]models.ValuedPosition {
	valued := make(map[string]models.ValuedPosition, len(positions))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for symbol, pos := range positions {
		wg.Add(1)
		go func(symbol string, pos models.Position) {
			defer wg.Done()

			qctx, cancel := context.WithTimeout(ctx, perSymbolTimeout)
			defer cancel()

			quote, err := prices.Quote(qctx, symbol)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("Price unavailable for %s, returning unvalued position: %v", symbol, err)
				valued[symbol] = models.ValuedPosition{Position: pos}
				return
			}
			valued[symbol] = Valuate(pos, quote)
		}(symbol, pos)
	}
	wg.Wait()

	return valued
}
