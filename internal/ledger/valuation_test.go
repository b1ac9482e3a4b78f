package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfolio/paper-trading-service/internal/models"
)

// fakePriceSource serves canned quotes and fails for unknown symbols.
type fakePriceSource struct {
	prices map[string]float64
	delay  map[string]time.Duration
}

func (f *fakePriceSource) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	if d, ok := f.delay[symbol]; ok {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return models.Quote{}, fmt.Errorf("%w: %s: %v", ErrPriceUnavailable, symbol, ctx.Err())
		}
	}
	price, ok := f.prices[symbol]
	if !ok {
		return models.Quote{}, fmt.Errorf("%w: %s", ErrPriceUnavailable, symbol)
	}
	return models.Quote{
		Symbol: symbol,
		Price:  decimal.NewFromFloat(price),
		AsOf:   time.Now(),
	}, nil
}

func position(symbol string, quantity, averageCost float64) models.Position {
	q := decimal.NewFromFloat(quantity)
	c := decimal.NewFromFloat(averageCost)
	return models.Position{
		Symbol:      symbol,
		Quantity:    q,
		AverageCost: c,
		CostBasis:   q.Mul(c),
	}
}

func TestValuate(t *testing.T) {
	t.Run("market value and unrealized pnl", func(t *testing.T) {
		// 15 shares at average cost 110, marked at 130.
		v := Valuate(position("AAPL", 15, 110), models.Quote{
			Symbol: "AAPL",
			Price:  decimal.NewFromInt(130),
			AsOf:   time.Now(),
		})

		assert.True(t, v.Priced)
		assert.True(t, decimal.NewFromInt(1950).Equal(v.MarketValue), "marketValue = %s", v.MarketValue)
		assert.True(t, decimal.NewFromInt(300).Equal(v.UnrealizedPnl), "unrealizedPnl = %s", v.UnrealizedPnl)

		expectedPct := decimal.NewFromInt(20).Div(decimal.NewFromInt(110)).Mul(decimal.NewFromInt(100))
		assert.True(t, expectedPct.Equal(v.UnrealizedPnlPct), "unrealizedPnlPct = %s", v.UnrealizedPnlPct)
	})

	t.Run("loss position", func(t *testing.T) {
		v := Valuate(position("MSFT", 10, 300), models.Quote{
			Symbol: "MSFT",
			Price:  decimal.NewFromInt(270),
		})
		assert.True(t, decimal.NewFromInt(-300).Equal(v.UnrealizedPnl))
		assert.True(t, decimal.NewFromInt(-10).Equal(v.UnrealizedPnlPct))
	})

	t.Run("pct skipped when average cost is zero", func(t *testing.T) {
		v := Valuate(models.Position{Symbol: "AAPL"}, models.Quote{Price: decimal.NewFromInt(130)})
		assert.True(t, v.UnrealizedPnlPct.IsZero())
	})
}

func TestValuateAll(t *testing.T) {
	positions := map[string]models.Position{
		"AAPL": position("AAPL", 15, 110),
		"MSFT": position("MSFT", 10, 300),
		"GOOG": position("GOOG", 5, 140),
	}

	t.Run("all symbols priced", func(t *testing.T) {
		src := &fakePriceSource{prices: map[string]float64{"AAPL": 130, "MSFT": 310, "GOOG": 150}}
		valued := ValuateAll(context.Background(), positions, src, time.Second)

		require.Len(t, valued, 3)
		for symbol, v := range valued {
			assert.True(t, v.Priced, "%s should be priced", symbol)
		}
		assert.True(t, decimal.NewFromInt(1950).Equal(valued["AAPL"].MarketValue))
	})

	t.Run("one failing symbol does not block the others", func(t *testing.T) {
		src := &fakePriceSource{prices: map[string]float64{"AAPL": 130, "GOOG": 150}}
		valued := ValuateAll(context.Background(), positions, src, time.Second)

		require.Len(t, valued, 3)
		assert.True(t, valued["AAPL"].Priced)
		assert.True(t, valued["GOOG"].Priced)

		// MSFT degrades to position-only: quantity and cost survive unpriced.
		msft := valued["MSFT"]
		assert.False(t, msft.Priced)
		assert.True(t, decimal.NewFromInt(10).Equal(msft.Quantity))
		assert.True(t, decimal.NewFromInt(300).Equal(msft.AverageCost))
		assert.True(t, msft.MarketValue.IsZero())
	})

	t.Run("slow symbol times out independently", func(t *testing.T) {
		src := &fakePriceSource{
			prices: map[string]float64{"AAPL": 130, "MSFT": 310, "GOOG": 150},
			delay:  map[string]time.Duration{"MSFT": 500 * time.Millisecond},
		}
		start := time.Now()
		valued := ValuateAll(context.Background(), positions, src, 50*time.Millisecond)
		elapsed := time.Since(start)

		assert.True(t, valued["AAPL"].Priced)
		assert.True(t, valued["GOOG"].Priced)
		assert.False(t, valued["MSFT"].Priced)
		assert.Less(t, elapsed, 400*time.Millisecond, "lookups must run concurrently")
	})

	t.Run("empty portfolio", func(t *testing.T) {
		src := &fakePriceSource{}
		valued := ValuateAll(context.Background(), nil, src, time.Second)
		assert.Empty(t, valued)
	})
}

func TestErrPriceUnavailableMatching(t *testing.T) {
	src := &fakePriceSource{}
	_, err := src.Quote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPriceUnavailable))
}
