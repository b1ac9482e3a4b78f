// Package portfolio ties the trade store, the position ledger and the market
// data provider together behind the operations the API exposes.
package portfolio

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfolio/paper-trading-service/internal/ledger"
	"github.com/quantfolio/paper-trading-service/internal/models"
)

// TradeStore is the persistence interface for the append-only trade log.
// AppendTrade must linearize writes per account so concurrent sells cannot
// validate against a stale open quantity.
type TradeStore interface {
	AppendTrade(t *models.Trade) error
	GetTradesByAccount(accountID string) ([]models.Trade, error)
	GetRecentTrades(accountID string, limit int) ([]models.Trade, error)
}

// EventPublisher publishes trade events. May be nil when Kafka is disabled.
type EventPublisher interface {
	PublishTradeRecorded(ctx context.Context, trade *models.Trade) error
}

// Service implements the portfolio operations.
type Service struct {
	store            TradeStore
	prices           ledger.PriceSource
	publisher        EventPublisher
	perSymbolTimeout time.Duration
}

// NewService creates a portfolio service. publisher may be nil.
func NewService(store TradeStore, prices ledger.PriceSource, publisher EventPublisher, perSymbolTimeout time.Duration) *Service {
	return &Service{
		store:            store,
		prices:           prices,
		publisher:        publisher,
		perSymbolTimeout: perSymbolTimeout,
	}
}

// SubmitTrade validates a trade and appends it to the account's ledger.
// Returns ledger.ErrInvalidTrade for malformed input and
// ledger.ErrInsufficientPosition when a sell would oversell; in both cases
// nothing is recorded.
func (s *Service) SubmitTrade(ctx context.Context, t *models.Trade) error {
	if t.AccountID == "" {
		return fmt.Errorf("%w: account_id is required", ledger.ErrInvalidTrade)
	}
	if err := ledger.ValidateTrade(t); err != nil {
		return err
	}

	if err := s.store.AppendTrade(t); err != nil {
		return err
	}

	if s.publisher != nil {
		if err := s.publisher.PublishTradeRecorded(ctx, t); err != nil {
			log.Printf("Failed to publish trade event for %s %s: %v", t.AccountID, t.Symbol, err)
		}
	}

	return nil
}

// Positions folds the account's trade log into open positions and values
// them against live prices. Symbols whose price lookup fails are returned
// unpriced; the fold itself fails only if the persisted log is corrupt.
func (s *Service) Positions(ctx context.Context, accountID string) (map[string]models.ValuedPosition, error) {
	trades, err := s.store.GetTradesByAccount(accountID)
	if err != nil {
		return nil, err
	}

	positions, err := ledger.Fold(trades)
	if err != nil {
		return nil, fmt.Errorf("failed to fold trade log for account %s: %w", accountID, err)
	}

	return ledger.ValuateAll(ctx, positions, s.prices, s.perSymbolTimeout), nil
}

// ClosePosition records an offsetting sell for the full open quantity of a
// symbol at the current market price. Closing is an append, never a delete:
// the trade log stays immutable.
func (s *Service) ClosePosition(ctx context.Context, accountID, symbol string) (*models.Trade, error) {
	trades, err := s.store.GetTradesByAccount(accountID)
	if err != nil {
		return nil, err
	}

	positions, err := ledger.Fold(trades)
	if err != nil {
		return nil, fmt.Errorf("failed to fold trade log for account %s: %w", accountID, err)
	}

	pos, ok := positions[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: no open position in %s", ledger.ErrInsufficientPosition, symbol)
	}

	qctx, cancel := context.WithTimeout(ctx, s.perSymbolTimeout)
	defer cancel()
	quote, err := s.prices.Quote(qctx, symbol)
	if err != nil {
		return nil, err
	}

	closing := &models.Trade{
		AccountID:  accountID,
		Symbol:     symbol,
		Side:       models.SideSell,
		Quantity:   pos.Quantity,
		Price:      quote.Price,
		Notes:      "position closed at market",
		ExecutedAt: time.Now(),
	}
	if err := s.SubmitTrade(ctx, closing); err != nil {
		return nil, err
	}
	return closing, nil
}

// History returns the account's most recent trades, newest first.
func (s *Service) History(ctx context.Context, accountID string, limit int) ([]models.Trade, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.store.GetRecentTrades(accountID, limit)
}

// TotalValue sums the market value of every priced position. Unpriced
// positions contribute their cost basis, so a partial price outage degrades
// the total instead of zeroing it.
func TotalValue(valued map[string]models.ValuedPosition) decimal.Decimal {
	total := decimal.Zero
	for _, v := range valued {
		if v.Priced {
			total = total.Add(v.MarketValue)
		} else {
			total = total.Add(v.CostBasis)
		}
	}
	return total
}
