package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/quantfolio/paper-trading-service/internal/models"
)

// Producer handles publishing trading events to Kafka
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
	}
}

// PublishTradeRecorded publishes an event for a trade appended to a ledger
func (p *Producer) PublishTradeRecorded(ctx context.Context, trade *models.Trade) error {
	event := models.TradeEvent{
		EventType: models.EventTradeRecorded,
		AccountID: trade.AccountID,
		Symbol:    trade.Symbol,
		Trade:     trade,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, trade.AccountID+":"+trade.Symbol, event)
}

// PublishAlertTriggered publishes an event for a fired alert rule
func (p *Producer) PublishAlertTriggered(ctx context.Context, alert *models.AlertHistory) error {
	event := models.AlertEvent{
		EventType: models.EventAlertTriggered,
		Symbol:    alert.Symbol,
		Alert:     alert,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, alert.Symbol, event)
}

func (p *Producer) publish(ctx context.Context, key string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
