package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTradeTotalCost(t *testing.T) {
	trade := &Trade{
		Symbol:   "AAPL",
		Side:     SideBuy,
		Quantity: decimal.NewFromFloat(2.5),
		Price:    decimal.NewFromFloat(189.43),
	}
	assert.True(t, decimal.NewFromFloat(473.575).Equal(trade.TotalCost()), "totalCost = %s", trade.TotalCost())
}
