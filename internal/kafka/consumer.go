package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/quantfolio/paper-trading-service/internal/ledger"
	"github.com/quantfolio/paper-trading-service/internal/models"
)

// FillStore defines the trade-log operations the fill consumer needs.
type FillStore interface {
	AppendTrade(t *models.Trade) error
	TradeExistsByOrderID(orderID, source string) (bool, error)
}

// Consumer ingests execution-fill events from an external order feed and
// appends them to the account trade log. Ingestion is idempotent by
// (order_id, source), so replayed messages are skipped.
type Consumer struct {
	reader *kafka.Reader
	store  FillStore
}

// NewConsumer creates a new Kafka consumer for fill events
func NewConsumer(brokers []string, topic, groupID string, store FillStore) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	return &Consumer{
		reader: reader,
		store:  store,
	}
}

// Start begins consuming messages from Kafka
func (c *Consumer) Start(ctx context.Context) error {
	log.Printf("Starting Kafka consumer for topic: %s", c.reader.Config().Topic)

	for {
		select {
		case <-ctx.Done():
			log.Println("Kafka consumer shutting down...")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil // Context cancelled, normal shutdown
				}
				log.Printf("Error reading message: %v", err)
				continue
			}

			if err := c.processMessage(msg); err != nil {
				log.Printf("Error processing message: %v", err)
				// Continue processing other messages
			}
		}
	}
}

// processMessage handles a single Kafka message
func (c *Consumer) processMessage(msg kafka.Message) error {
	log.Printf("Received message from partition %d offset %d: key=%s",
		msg.Partition, msg.Offset, string(msg.Key))

	var event models.FillEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal fill event: %w", err)
	}

	if event.EventType != models.EventFillReported {
		log.Printf("Ignoring event type: %s", event.EventType)
		return nil
	}

	// Check for duplicate (idempotency)
	exists, err := c.store.TradeExistsByOrderID(event.Data.OrderID, event.Source)
	if err != nil {
		return fmt.Errorf("failed to check for duplicate fill: %w", err)
	}
	if exists {
		log.Printf("Fill %s from %s already ingested, skipping", event.Data.OrderID, event.Source)
		return nil
	}

	trade, err := c.convertEventToTrade(event)
	if err != nil {
		return fmt.Errorf("failed to convert fill event: %w", err)
	}

	if err := c.store.AppendTrade(trade); err != nil {
		if errors.Is(err, ledger.ErrInsufficientPosition) {
			// A fill the ledger cannot accept is a feed defect; dropping it
			// keeps the log consistent and the consumer alive.
			log.Printf("Rejected fill %s from %s: %v", event.Data.OrderID, event.Source, err)
			return nil
		}
		return fmt.Errorf("failed to append fill: %w", err)
	}

	log.Printf("Ingested fill: %s %s %s @ %s (order_id: %s)",
		trade.Side, trade.Quantity, trade.Symbol, trade.Price, trade.OrderID)

	return nil
}

// convertEventToTrade maps a FillEvent to a Trade model
func (c *Consumer) convertEventToTrade(event models.FillEvent) (*models.Trade, error) {
	data := event.Data

	if data.AccountID == "" {
		return nil, fmt.Errorf("fill %s has no account_id", data.OrderID)
	}

	quantity, err := decimal.NewFromString(data.Quantity)
	if err != nil {
		return nil, fmt.Errorf("invalid quantity %s: %w", data.Quantity, err)
	}

	price, err := decimal.NewFromString(data.AveragePrice)
	if err != nil {
		return nil, fmt.Errorf("invalid price %s: %w", data.AveragePrice, err)
	}

	side := strings.ToUpper(data.Side)
	if side != models.SideBuy && side != models.SideSell {
		return nil, fmt.Errorf("invalid fill side: %s", data.Side)
	}

	var executedAt time.Time
	if data.ExecutedAt != nil && *data.ExecutedAt != "" {
		executedAt, err = time.Parse(time.RFC3339, *data.ExecutedAt)
		if err != nil {
			// Try parsing without timezone
			executedAt, err = time.Parse("2006-01-02T15:04:05", *data.ExecutedAt)
			if err != nil {
				executedAt = time.Now()
			}
		}
	} else {
		executedAt = time.Now()
	}

	trade := &models.Trade{
		AccountID:  data.AccountID,
		OrderID:    data.OrderID,
		Source:     event.Source,
		Symbol:     data.Symbol,
		Side:       side,
		Quantity:   quantity,
		Price:      price,
		Notes:      data.Notes,
		ExecutedAt: executedAt,
	}
	if err := ledger.ValidateTrade(trade); err != nil {
		return nil, err
	}
	return trade, nil
}

// Close closes the Kafka consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}
