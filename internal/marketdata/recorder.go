package marketdata

import (
	"context"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfolio/paper-trading-service/internal/models"
)

// BarStore persists daily price bars built from observed quotes.
type BarStore interface {
	CreatePriceBar(p *models.PriceBar) error
	GetLatestPriceBar(symbol string) (*models.PriceBar, error)
}

// RecordingProvider wraps a PriceProvider and folds every fetched quote into
// the symbol's daily price bar: the first quote of the day opens the bar,
// later quotes extend its high/low and move the close. When the upstream
// quote carries no previous close, the prior day's recorded close fills it
// in. Store failures are logged and never make a quote unavailable.
type RecordingProvider struct {
	upstream PriceProvider
	store    BarStore
}

// NewRecordingProvider wraps upstream with daily bar recording.
func NewRecordingProvider(upstream PriceProvider, store BarStore) *RecordingProvider {
	return &RecordingProvider{
		upstream: upstream,
		store:    store,
	}
}

// Quote fetches a quote from upstream and records it into today's bar.
func (r *RecordingProvider) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	q, err := r.upstream.Quote(ctx, symbol)
	if err != nil {
		return models.Quote{}, err
	}

	day := q.AsOf.UTC().Truncate(24 * time.Hour)

	latest, err := r.store.GetLatestPriceBar(q.Symbol)
	if err != nil {
		latest = nil // no history yet
	}

	if q.PreviousClose.IsZero() && latest != nil && latest.Date.Before(day) {
		q.PreviousClose = latest.Close
	}

	bar := &models.PriceBar{
		Symbol: q.Symbol,
		Date:   day,
		Open:   q.Price,
		High:   q.Price,
		Low:    q.Price,
		Close:  q.Price,
	}
	if latest != nil && latest.Date.Equal(day) {
		bar.Open = latest.Open
		bar.High = decimal.Max(latest.High, q.Price)
		bar.Low = decimal.Min(latest.Low, q.Price)
	}
	if err := r.store.CreatePriceBar(bar); err != nil {
		log.Printf("Failed to record price bar for %s: %v", q.Symbol, err)
	}

	return q, nil
}
