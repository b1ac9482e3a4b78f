package database

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfolio/paper-trading-service/internal/models"
)

func TestAlertsRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	t.Run("CreateAlertRule creates rule", func(t *testing.T) {
		testDB.TruncateAll(t)

		rule := &models.AlertRule{
			Symbol:          "AAPL",
			RuleType:        models.RuleTypePriceAbove,
			Threshold:       decimal.NewFromFloat(200.50),
			Enabled:         true,
			CooldownMinutes: 30,
			Priority:        models.PriorityHigh,
		}
		err := testDB.CreateAlertRule(rule)
		require.NoError(t, err)
		assert.NotZero(t, rule.ID)
		assert.False(t, rule.CreatedAt.IsZero())
	})

	t.Run("GetAlertRuleByID retrieves rule", func(t *testing.T) {
		testDB.TruncateAll(t)

		rule := &models.AlertRule{
			Symbol:          "MSFT",
			RuleType:        models.RuleTypePriceBelow,
			Threshold:       decimal.NewFromInt(300),
			Enabled:         true,
			CooldownMinutes: 60,
			Priority:        models.PriorityNormal,
		}
		require.NoError(t, testDB.CreateAlertRule(rule))

		got, err := testDB.GetAlertRuleByID(rule.ID)
		require.NoError(t, err)
		assert.Equal(t, "MSFT", got.Symbol)
		assert.Equal(t, models.RuleTypePriceBelow, got.RuleType)
		assert.True(t, decimal.NewFromInt(300).Equal(got.Threshold))
	})

	t.Run("GetAlertRuleByID not found", func(t *testing.T) {
		testDB.TruncateAll(t)

		_, err := testDB.GetAlertRuleByID(99999)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("GetEnabledAlertRules filters disabled", func(t *testing.T) {
		testDB.TruncateAll(t)

		enabled := &models.AlertRule{Symbol: "AAPL", RuleType: models.RuleTypePriceAbove, Threshold: decimal.NewFromInt(200), Enabled: true, CooldownMinutes: 60, Priority: models.PriorityNormal}
		disabled := &models.AlertRule{Symbol: "MSFT", RuleType: models.RuleTypePriceBelow, Threshold: decimal.NewFromInt(300), Enabled: false, CooldownMinutes: 60, Priority: models.PriorityNormal}
		require.NoError(t, testDB.CreateAlertRule(enabled))
		require.NoError(t, testDB.CreateAlertRule(disabled))

		rules, err := testDB.GetEnabledAlertRules()
		require.NoError(t, err)
		require.Len(t, rules, 1)
		assert.Equal(t, "AAPL", rules[0].Symbol)
	})

	t.Run("MarkAlertRuleTriggered bumps count and timestamp", func(t *testing.T) {
		testDB.TruncateAll(t)

		rule := &models.AlertRule{Symbol: "AAPL", RuleType: models.RuleTypePriceAbove, Threshold: decimal.NewFromInt(200), Enabled: true, CooldownMinutes: 60, Priority: models.PriorityNormal}
		require.NoError(t, testDB.CreateAlertRule(rule))

		triggeredAt := time.Now()
		require.NoError(t, testDB.MarkAlertRuleTriggered(rule.ID, triggeredAt))

		got, err := testDB.GetAlertRuleByID(rule.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.TriggeredCount)
		require.NotNil(t, got.LastTriggeredAt)
		assert.WithinDuration(t, triggeredAt, *got.LastTriggeredAt, time.Second)
	})

	t.Run("DeleteAlertRule removes rule", func(t *testing.T) {
		testDB.TruncateAll(t)

		rule := &models.AlertRule{Symbol: "AAPL", RuleType: models.RuleTypePriceAbove, Threshold: decimal.NewFromInt(200), Enabled: true, CooldownMinutes: 60, Priority: models.PriorityNormal}
		require.NoError(t, testDB.CreateAlertRule(rule))
		require.NoError(t, testDB.DeleteAlertRule(rule.ID))

		err := testDB.DeleteAlertRule(rule.ID)
		require.Error(t, err)
	})

	t.Run("alert history round trip", func(t *testing.T) {
		testDB.TruncateAll(t)

		rule := &models.AlertRule{Symbol: "AAPL", RuleType: models.RuleTypePriceAbove, Threshold: decimal.NewFromInt(200), Enabled: true, CooldownMinutes: 60, Priority: models.PriorityNormal}
		require.NoError(t, testDB.CreateAlertRule(rule))

		history := &models.AlertHistory{
			AlertRuleID:    rule.ID,
			Symbol:         "AAPL",
			RuleType:       models.RuleTypePriceAbove,
			TriggeredValue: decimal.NewFromFloat(201.25),
			Message:        "AAPL crossed 200",
		}
		require.NoError(t, testDB.CreateAlertHistory(history))
		assert.NotZero(t, history.ID)

		records, err := testDB.GetAlertHistory(10)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "AAPL", records[0].Symbol)
		assert.True(t, decimal.NewFromFloat(201.25).Equal(records[0].TriggeredValue))
	})
}
