// Package ledger implements the position ledger: a pure, deterministic fold
// of an account's ordered trade log into per-symbol holdings, and the
// valuation of those holdings against live market prices.
//
// The ledger itself performs no I/O and holds no state. Given the same
// ordered trade list it always produces the same positions, so it is always
// safe to re-run from the full trade history.
package ledger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/quantfolio/paper-trading-service/internal/models"
)

// ValidateTrade checks the field-level invariants of a single trade:
// quantity > 0, price > 0, non-empty symbol, and a known side. It normalizes
// the symbol to uppercase in place. Ledger-level invariants (overselling) are
// checked at fold time because they depend on prior trades.
func ValidateTrade(t *models.Trade) error {
	t.Symbol = strings.ToUpper(strings.TrimSpace(t.Symbol))
	if t.Symbol == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidTrade)
	}
	if t.Side != models.SideBuy && t.Side != models.SideSell {
		return fmt.Errorf("%w: side must be %s or %s, got %q", ErrInvalidTrade, models.SideBuy, models.SideSell, t.Side)
	}
	if !t.Quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive, got %s", ErrInvalidTrade, t.Quantity)
	}
	if !t.Price.IsPositive() {
		return fmt.Errorf("%w: price must be positive, got %s", ErrInvalidTrade, t.Price)
	}
	return nil
}

// Fold replays an account's trade log in (executed_at, id) order and returns
// the open position per symbol.
//
// Buys add quantity*price to the cost basis and recompute the average cost.
// Sells reduce the cost basis proportionally and leave the average cost
// unchanged: selling does not change the cost basis of the remaining shares.
// A sell larger than the open quantity fails with ErrInsufficientPosition
// before any running total is mutated.
//
// Symbols whose open quantity reaches exactly zero are omitted from the
// result, so a later buy starts a fresh average cost rather than blending
// with the closed lot.
func Fold(trades []models.Trade) (map[string]models.Position, error) {
	ordered := make([]models.Trade, len(trades))
	copy(ordered, trades)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].ExecutedAt.Equal(ordered[j].ExecutedAt) {
			return ordered[i].ExecutedAt.Before(ordered[j].ExecutedAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	type running struct {
		quantity  decimal.Decimal
		costBasis decimal.Decimal
	}
	open := make(map[string]*running)

	for _, t := range ordered {
		if err := ValidateTrade(&t); err != nil {
			return nil, err
		}

		r, ok := open[t.Symbol]
		if !ok {
			r = &running{quantity: decimal.Zero, costBasis: decimal.Zero}
			open[t.Symbol] = r
		}

		switch t.Side {
		case models.SideBuy:
			r.costBasis = r.costBasis.Add(t.TotalCost())
			r.quantity = r.quantity.Add(t.Quantity)
		case models.SideSell:
			if t.Quantity.GreaterThan(r.quantity) {
				return nil, fmt.Errorf("%w: sell %s %s exceeds open quantity %s",
					ErrInsufficientPosition, t.Quantity, t.Symbol, r.quantity)
			}
			remaining := r.quantity.Sub(t.Quantity)
			if remaining.IsZero() {
				r.quantity = decimal.Zero
				r.costBasis = decimal.Zero
				continue
			}
			// Proportional reduction keeps the average cost of the
			// remaining shares exact under repeated partial sells.
			r.costBasis = r.costBasis.Mul(remaining).Div(r.quantity)
			r.quantity = remaining
		}
	}

	positions := make(map[string]models.Position, len(open))
	for symbol, r := range open {
		if r.quantity.IsZero() {
			continue
		}
		positions[symbol] = models.Position{
			Symbol:      symbol,
			Quantity:    r.quantity,
			AverageCost: r.costBasis.Div(r.quantity),
			CostBasis:   r.costBasis,
		}
	}
	return positions, nil
}
