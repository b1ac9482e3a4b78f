// Package alerts polls live prices on the platform's refresh cycle and fires
// price alert rules.
package alerts

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/quantfolio/paper-trading-service/internal/ledger"
	"github.com/quantfolio/paper-trading-service/internal/models"
)

// RuleStore defines the alert persistence the evaluator needs.
type RuleStore interface {
	GetEnabledAlertRules() ([]*models.AlertRule, error)
	MarkAlertRuleTriggered(id int, triggeredAt time.Time) error
	CreateAlertHistory(h *models.AlertHistory) error
}

// AlertPublisher publishes triggered-alert events. May be nil.
type AlertPublisher interface {
	PublishAlertTriggered(ctx context.Context, alert *models.AlertHistory) error
}

// Evaluator runs the alert refresh loop: every interval it fetches a quote
// per rule symbol and fires rules whose condition holds, honoring each
// rule's cooldown. A failed quote skips that rule for the cycle; nothing
// stops the loop except context cancellation.
type Evaluator struct {
	store     RuleStore
	prices    ledger.PriceSource
	publisher AlertPublisher
	interval  time.Duration
	timeout   time.Duration
}

// NewEvaluator creates an alert evaluator. publisher may be nil.
func NewEvaluator(store RuleStore, prices ledger.PriceSource, publisher AlertPublisher, interval, quoteTimeout time.Duration) *Evaluator {
	return &Evaluator{
		store:     store,
		prices:    prices,
		publisher: publisher,
		interval:  interval,
		timeout:   quoteTimeout,
	}
}

// Start runs the evaluation loop until ctx is cancelled.
func (e *Evaluator) Start(ctx context.Context) {
	log.Printf("Starting alert evaluator, interval %s", e.interval)
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Alert evaluator shutting down...")
			return
		case <-ticker.C:
			e.RunCycle(ctx)
		}
	}
}

// RunCycle evaluates every enabled rule once. Quotes are fetched at most
// once per symbol per cycle.
func (e *Evaluator) RunCycle(ctx context.Context) {
	rules, err := e.store.GetEnabledAlertRules()
	if err != nil {
		log.Printf("Failed to load alert rules: %v", err)
		return
	}

	quotes := make(map[string]*models.Quote)
	for _, rule := range rules {
		quote, ok := quotes[rule.Symbol]
		if !ok {
			quote = e.fetchQuote(ctx, rule.Symbol)
			quotes[rule.Symbol] = quote
		}
		if quote == nil {
			continue
		}

		e.evaluateRule(ctx, rule, quote)
	}
}

func (e *Evaluator) fetchQuote(ctx context.Context, symbol string) *models.Quote {
	qctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	quote, err := e.prices.Quote(qctx, symbol)
	if err != nil {
		log.Printf("Quote unavailable for %s, skipping its rules this cycle: %v", symbol, err)
		return nil
	}
	return &quote
}

func (e *Evaluator) evaluateRule(ctx context.Context, rule *models.AlertRule, quote *models.Quote) {
	if !conditionHolds(rule, quote) {
		return
	}

	now := time.Now()
	if rule.LastTriggeredAt != nil {
		cooldown := time.Duration(rule.CooldownMinutes) * time.Minute
		if now.Sub(*rule.LastTriggeredAt) < cooldown {
			return
		}
	}

	history := &models.AlertHistory{
		AlertRuleID:    rule.ID,
		Symbol:         rule.Symbol,
		RuleType:       rule.RuleType,
		TriggeredValue: quote.Price,
		Message:        fmt.Sprintf("%s %s: price %s crossed threshold %s", rule.Symbol, rule.RuleType, quote.Price, rule.Threshold),
		TriggeredAt:    now,
	}
	if err := e.store.CreateAlertHistory(history); err != nil {
		log.Printf("Failed to record alert history for rule %d: %v", rule.ID, err)
		return
	}
	if err := e.store.MarkAlertRuleTriggered(rule.ID, now); err != nil {
		log.Printf("Failed to mark rule %d triggered: %v", rule.ID, err)
	}
	rule.LastTriggeredAt = &now

	log.Printf("Alert triggered: %s", history.Message)

	if e.publisher != nil {
		if err := e.publisher.PublishAlertTriggered(ctx, history); err != nil {
			log.Printf("Failed to publish alert event for rule %d: %v", rule.ID, err)
		}
	}
}

func conditionHolds(rule *models.AlertRule, quote *models.Quote) bool {
	switch rule.RuleType {
	case models.RuleTypePriceAbove:
		return quote.Price.GreaterThanOrEqual(rule.Threshold)
	case models.RuleTypePriceBelow:
		return quote.Price.LessThanOrEqual(rule.Threshold)
	default:
		return false
	}
}
