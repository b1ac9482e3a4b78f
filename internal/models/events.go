package models

import "time"

// Event type constants
const (
	EventTradeRecorded  = "TRADE_RECORDED"
	EventAlertTriggered = "ALERT_TRIGGERED"
	EventFillReported   = "FILL_REPORTED"
)

// TradeEvent is published to Kafka whenever a trade is appended to an
// account's ledger.
type TradeEvent struct {
	EventType string    `json:"event_type"`
	AccountID string    `json:"account_id"`
	Symbol    string    `json:"symbol"`
	Trade     *Trade    `json:"trade,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// AlertEvent is published to Kafka when an alert rule fires.
type AlertEvent struct {
	EventType string        `json:"event_type"`
	Symbol    string        `json:"symbol"`
	Alert     *AlertHistory `json:"alert,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// FillEvent is the shape of execution-fill messages consumed from the
// external order feed. Numeric fields arrive as strings and are parsed with
// decimal.NewFromString before the fill is appended to the trade log.
type FillEvent struct {
	EventType string   `json:"event_type"`
	Source    string   `json:"source"`
	Data      FillData `json:"data"`
}

// FillData carries the fill payload of a FillEvent.
type FillData struct {
	OrderID      string  `json:"order_id"`
	AccountID    string  `json:"account_id"`
	Symbol       string  `json:"symbol"`
	Side         string  `json:"side"`
	Quantity     string  `json:"quantity"`
	AveragePrice string  `json:"average_price"`
	ExecutedAt   *string `json:"executed_at,omitempty"`
	Notes        string  `json:"notes,omitempty"`
}
