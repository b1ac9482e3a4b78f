package database

import (
	"fmt"
	"time"

	"github.com/quantfolio/paper-trading-service/internal/models"
)

// CreatePriceBar inserts or updates a daily price bar
func (db *DB) CreatePriceBar(p *models.PriceBar) error {
	query := `
		INSERT INTO price_bars (symbol, date, open, high, low, close, volume, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (symbol, date) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume
		RETURNING id
	`
	err := db.conn.QueryRow(query,
		p.Symbol, p.Date, p.Open, p.High, p.Low, p.Close, p.Volume, time.Now(),
	).Scan(&p.ID)

	if err != nil {
		return fmt.Errorf("failed to create price bar: %w", err)
	}
	return nil
}

// GetPriceBars retrieves daily bars for a symbol, newest first
func (db *DB) GetPriceBars(symbol string, limit int) ([]*models.PriceBar, error) {
	query := `
		SELECT id, symbol, date, open, high, low, close, volume, created_at
		FROM price_bars
		WHERE symbol = $1
		ORDER BY date DESC
		LIMIT $2
	`
	rows, err := db.conn.Query(query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query price bars: %w", err)
	}
	defer rows.Close()

	var bars []*models.PriceBar
	for rows.Next() {
		var p models.PriceBar
		err := rows.Scan(&p.ID, &p.Symbol, &p.Date, &p.Open, &p.High, &p.Low, &p.Close, &p.Volume, &p.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price bar: %w", err)
		}
		bars = append(bars, &p)
	}

	return bars, rows.Err()
}

// GetLatestPriceBar retrieves the most recent daily bar for a symbol
func (db *DB) GetLatestPriceBar(symbol string) (*models.PriceBar, error) {
	bars, err := db.GetPriceBars(symbol, 1)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no price bars for symbol: %s", symbol)
	}
	return bars[0], nil
}
