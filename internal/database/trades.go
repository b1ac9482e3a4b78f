package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/quantfolio/paper-trading-service/internal/ledger"
	"github.com/quantfolio/paper-trading-service/internal/models"
)

// AppendTrade appends a trade to an account's ledger. The whole operation
// runs in a transaction holding a per-account advisory lock, so concurrent
// appends for the same account are linearized: each candidate trade is
// checked against the account's full trade history (via a ledger fold) with
// no other writer in between. Two racing sells can therefore never both
// validate against the same stale open quantity.
//
// Returns ledger.ErrInsufficientPosition when the trade would oversell; in
// that case nothing is written.
func (db *DB) AppendTrade(t *models.Trade) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`SELECT pg_advisory_xact_lock(hashtext($1))`, t.AccountID); err != nil {
		return fmt.Errorf("failed to take account lock: %w", err)
	}

	existing, err := scanTrades(tx.Query(selectTradesQuery+`
		WHERE account_id = $1
		ORDER BY executed_at ASC, id ASC
	`, t.AccountID))
	if err != nil {
		return err
	}

	now := time.Now()
	executedAt := t.ExecutedAt
	if executedAt.IsZero() {
		executedAt = now
	}

	// Validate-then-apply: fold the history with the candidate appended and
	// commit only if the ledger accepts it. The candidate gets a provisional
	// id past the existing ones so timestamp ties replay it last, exactly as
	// the serial id will order it once inserted.
	candidate := *t
	candidate.ExecutedAt = executedAt
	for _, prev := range existing {
		if prev.ID >= candidate.ID {
			candidate.ID = prev.ID + 1
		}
	}
	if _, err := ledger.Fold(append(existing, candidate)); err != nil {
		return err
	}

	err = tx.QueryRow(`
		INSERT INTO trades (account_id, order_id, source, symbol, side, quantity, price, notes, executed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, t.AccountID, t.OrderID, t.Source, t.Symbol, t.Side, t.Quantity, t.Price, t.Notes, executedAt, now).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("failed to insert trade: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit trade: %w", err)
	}

	t.ExecutedAt = executedAt
	t.CreatedAt = now
	return nil
}

const selectTradesQuery = `
	SELECT id, account_id, order_id, source, symbol, side, quantity, price, notes, executed_at, created_at
	FROM trades`

// GetTradesByAccount retrieves an account's full trade log in fold order.
func (db *DB) GetTradesByAccount(accountID string) ([]models.Trade, error) {
	return scanTrades(db.conn.Query(selectTradesQuery+`
		WHERE account_id = $1
		ORDER BY executed_at ASC, id ASC
	`, accountID))
}

// GetRecentTrades retrieves an account's most recent trades, newest first.
func (db *DB) GetRecentTrades(accountID string, limit int) ([]models.Trade, error) {
	return scanTrades(db.conn.Query(selectTradesQuery+`
		WHERE account_id = $1
		ORDER BY executed_at DESC, id DESC
		LIMIT $2
	`, accountID, limit))
}

// TradeExistsByOrderID checks if a trade with the given order_id and source
// was already ingested. Used by the fill consumer for idempotency.
func (db *DB) TradeExistsByOrderID(orderID, source string) (bool, error) {
	var exists bool
	err := db.conn.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM trades WHERE order_id = $1 AND source = $2)`,
		orderID, source,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check trade existence: %w", err)
	}
	return exists, nil
}

func scanTrades(rows *sql.Rows, err error) ([]models.Trade, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		var t models.Trade
		var orderID, source, notes sql.NullString

		err := rows.Scan(
			&t.ID, &t.AccountID, &orderID, &source, &t.Symbol, &t.Side,
			&t.Quantity, &t.Price, &notes, &t.ExecutedAt, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}

		if orderID.Valid {
			t.OrderID = orderID.String
		}
		if source.Valid {
			t.Source = source.String
		}
		if notes.Valid {
			t.Notes = notes.String
		}

		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trades: %w", err)
	}

	return trades, nil
}
