package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/quantfolio/paper-trading-service/internal/models"
)

// UpsertWatchlistEntry adds a symbol to the watchlist or updates its targets.
func (db *DB) UpsertWatchlistEntry(w *models.WatchlistEntry) error {
	query := `
		INSERT INTO watchlist (
			symbol, enabled, priority, target_price, stop_price, notes, added_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (symbol) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			priority = EXCLUDED.priority,
			target_price = EXCLUDED.target_price,
			stop_price = EXCLUDED.stop_price,
			notes = EXCLUDED.notes,
			updated_at = EXCLUDED.updated_at
	`
	now := time.Now()
	if w.Priority == 0 {
		w.Priority = 1
	}

	_, err := db.conn.Exec(query,
		w.Symbol, w.Enabled, w.Priority, w.TargetPrice, w.StopPrice, w.Notes, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert watchlist entry: %w", err)
	}
	w.AddedAt = now
	w.UpdatedAt = now
	return nil
}

// GetWatchlistEntry retrieves a watchlist entry by symbol.
func (db *DB) GetWatchlistEntry(symbol string) (*models.WatchlistEntry, error) {
	query := `
		SELECT symbol, enabled, priority, target_price, stop_price, notes, added_at, updated_at
		FROM watchlist
		WHERE symbol = $1
	`
	var w models.WatchlistEntry
	var targetPrice, stopPrice sql.NullFloat64
	var notes sql.NullString

	err := db.conn.QueryRow(query, symbol).Scan(
		&w.Symbol, &w.Enabled, &w.Priority, &targetPrice, &stopPrice, &notes, &w.AddedAt, &w.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("watchlist entry not found: %s", symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get watchlist entry: %w", err)
	}

	if targetPrice.Valid {
		w.TargetPrice = &targetPrice.Float64
	}
	if stopPrice.Valid {
		w.StopPrice = &stopPrice.Float64
	}
	if notes.Valid {
		w.Notes = notes.String
	}

	return &w, nil
}

// GetWatchlist retrieves all watchlist entries ordered by priority.
func (db *DB) GetWatchlist() ([]*models.WatchlistEntry, error) {
	query := `
		SELECT symbol, enabled, priority, target_price, stop_price, notes, added_at, updated_at
		FROM watchlist
		ORDER BY priority ASC, symbol ASC
	`
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist: %w", err)
	}
	defer rows.Close()

	var entries []*models.WatchlistEntry
	for rows.Next() {
		var w models.WatchlistEntry
		var targetPrice, stopPrice sql.NullFloat64
		var notes sql.NullString

		err := rows.Scan(&w.Symbol, &w.Enabled, &w.Priority, &targetPrice, &stopPrice, &notes, &w.AddedAt, &w.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watchlist entry: %w", err)
		}

		if targetPrice.Valid {
			w.TargetPrice = &targetPrice.Float64
		}
		if stopPrice.Valid {
			w.StopPrice = &stopPrice.Float64
		}
		if notes.Valid {
			w.Notes = notes.String
		}

		entries = append(entries, &w)
	}

	return entries, rows.Err()
}

// DeleteWatchlistEntry removes a symbol from the watchlist.
func (db *DB) DeleteWatchlistEntry(symbol string) error {
	result, err := db.conn.Exec(`DELETE FROM watchlist WHERE symbol = $1`, symbol)
	if err != nil {
		return fmt.Errorf("failed to delete watchlist entry: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("watchlist entry not found: %s", symbol)
	}
	return nil
}
