package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfolio/paper-trading-service/internal/models"
)

// CreateAlertRule inserts a new alert rule
func (db *DB) CreateAlertRule(a *models.AlertRule) error {
	query := `
		INSERT INTO alert_rules (
			symbol, rule_type, threshold, enabled, cooldown_minutes, priority,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	now := time.Now()
	err := db.conn.QueryRow(query,
		a.Symbol, a.RuleType, a.Threshold, a.Enabled, a.CooldownMinutes, a.Priority,
		now, now,
	).Scan(&a.ID)

	if err != nil {
		return fmt.Errorf("failed to create alert rule: %w", err)
	}
	a.CreatedAt = now
	a.UpdatedAt = now
	return nil
}

const selectAlertRulesQuery = `
	SELECT id, symbol, rule_type, threshold, enabled, triggered_count,
	       last_triggered_at, cooldown_minutes, priority, created_at, updated_at
	FROM alert_rules`

// GetAlertRuleByID retrieves an alert rule by ID
func (db *DB) GetAlertRuleByID(id int) (*models.AlertRule, error) {
	row := db.conn.QueryRow(selectAlertRulesQuery+` WHERE id = $1`, id)

	a, err := scanAlertRule(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("alert rule not found: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert rule: %w", err)
	}
	return a, nil
}

// GetEnabledAlertRules retrieves all enabled alert rules
func (db *DB) GetEnabledAlertRules() ([]*models.AlertRule, error) {
	return db.queryAlertRules(selectAlertRulesQuery + ` WHERE enabled = true ORDER BY symbol ASC, id ASC`)
}

// GetAllAlertRules retrieves all alert rules
func (db *DB) GetAllAlertRules() ([]*models.AlertRule, error) {
	return db.queryAlertRules(selectAlertRulesQuery + ` ORDER BY symbol ASC, id ASC`)
}

func (db *DB) queryAlertRules(query string, args ...interface{}) ([]*models.AlertRule, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alert rules: %w", err)
	}
	defer rows.Close()

	var rules []*models.AlertRule
	for rows.Next() {
		a, err := scanAlertRule(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert rule: %w", err)
		}
		rules = append(rules, a)
	}

	return rules, rows.Err()
}

func scanAlertRule(scan func(dest ...interface{}) error) (*models.AlertRule, error) {
	var a models.AlertRule
	var threshold sql.NullString
	var lastTriggeredAt sql.NullTime

	err := scan(
		&a.ID, &a.Symbol, &a.RuleType, &threshold, &a.Enabled, &a.TriggeredCount,
		&lastTriggeredAt, &a.CooldownMinutes, &a.Priority, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if threshold.Valid {
		a.Threshold, _ = decimal.NewFromString(threshold.String)
	}
	if lastTriggeredAt.Valid {
		a.LastTriggeredAt = &lastTriggeredAt.Time
	}

	return &a, nil
}

// MarkAlertRuleTriggered bumps the trigger count and timestamp on a rule.
func (db *DB) MarkAlertRuleTriggered(id int, triggeredAt time.Time) error {
	result, err := db.conn.Exec(`
		UPDATE alert_rules
		SET triggered_count = triggered_count + 1, last_triggered_at = $2, updated_at = $2
		WHERE id = $1
	`, id, triggeredAt)
	if err != nil {
		return fmt.Errorf("failed to mark alert rule triggered: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("alert rule not found: %d", id)
	}
	return nil
}

// DeleteAlertRule removes an alert rule by ID
func (db *DB) DeleteAlertRule(id int) error {
	result, err := db.conn.Exec(`DELETE FROM alert_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete alert rule: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("alert rule not found: %d", id)
	}
	return nil
}

// CreateAlertHistory records a triggered alert
func (db *DB) CreateAlertHistory(h *models.AlertHistory) error {
	query := `
		INSERT INTO alert_history (alert_rule_id, symbol, rule_type, triggered_value, message, triggered_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	if h.TriggeredAt.IsZero() {
		h.TriggeredAt = time.Now()
	}

	err := db.conn.QueryRow(query,
		h.AlertRuleID, h.Symbol, h.RuleType, h.TriggeredValue, h.Message, h.TriggeredAt,
	).Scan(&h.ID)
	if err != nil {
		return fmt.Errorf("failed to create alert history: %w", err)
	}
	return nil
}

// GetAlertHistory retrieves recent triggered alerts, newest first
func (db *DB) GetAlertHistory(limit int) ([]*models.AlertHistory, error) {
	query := `
		SELECT id, alert_rule_id, symbol, rule_type, triggered_value, message, triggered_at
		FROM alert_history
		ORDER BY triggered_at DESC
		LIMIT $1
	`
	rows, err := db.conn.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alert history: %w", err)
	}
	defer rows.Close()

	var history []*models.AlertHistory
	for rows.Next() {
		var h models.AlertHistory
		var ruleID sql.NullInt64
		var triggeredValue sql.NullString
		var message sql.NullString

		err := rows.Scan(&h.ID, &ruleID, &h.Symbol, &h.RuleType, &triggeredValue, &message, &h.TriggeredAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert history: %w", err)
		}

		if ruleID.Valid {
			h.AlertRuleID = int(ruleID.Int64)
		}
		if triggeredValue.Valid {
			h.TriggeredValue, _ = decimal.NewFromString(triggeredValue.String)
		}
		if message.Valid {
			h.Message = message.String
		}

		history = append(history, &h)
	}

	return history, rows.Err()
}
