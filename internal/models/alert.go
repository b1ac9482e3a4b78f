package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Alert rule type constants
const (
	RuleTypePriceAbove = "PRICE_ABOVE"
	RuleTypePriceBelow = "PRICE_BELOW"
)

// Priority constants
const (
	PriorityLow      = "low"
	PriorityNormal   = "normal"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// AlertRule represents a configurable price alert condition evaluated on
// every refresh cycle.
type AlertRule struct {
	ID              int             `json:"id"`
	Symbol          string          `json:"symbol"`
	RuleType        string          `json:"rule_type"`
	Threshold       decimal.Decimal `json:"threshold"`
	Enabled         bool            `json:"enabled"`
	TriggeredCount  int             `json:"triggered_count"`
	LastTriggeredAt *time.Time      `json:"last_triggered_at,omitempty"`
	CooldownMinutes int             `json:"cooldown_minutes"`
	Priority        string          `json:"priority"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// AlertHistory represents a triggered alert record.
type AlertHistory struct {
	ID             int             `json:"id"`
	AlertRuleID    int             `json:"alert_rule_id,omitempty"`
	Symbol         string          `json:"symbol"`
	RuleType       string          `json:"rule_type"`
	TriggeredValue decimal.Decimal `json:"triggered_value,omitempty"`
	Message        string          `json:"message,omitempty"`
	TriggeredAt    time.Time       `json:"triggered_at"`
}
