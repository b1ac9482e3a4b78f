package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	t.Run("all tables exist", func(t *testing.T) {
		expectedTables := []string{
			"trades",
			"watchlist",
			"alert_rules",
			"alert_history",
			"price_bars",
		}

		for _, tableName := range expectedTables {
			var exists bool
			err := testDB.GetRawConn().QueryRow(`
				SELECT EXISTS (
					SELECT FROM information_schema.tables
					WHERE table_schema = 'public'
					AND table_name = $1
				)
			`, tableName).Scan(&exists)

			require.NoError(t, err, "failed to check table existence for %s", tableName)
			assert.True(t, exists, "table %s should exist", tableName)
		}
	})

	t.Run("trades table rejects non-positive quantity", func(t *testing.T) {
		_, err := testDB.GetRawConn().Exec(`
			INSERT INTO trades (account_id, symbol, side, quantity, price, executed_at)
			VALUES ('acct-1', 'AAPL', 'BUY', 0, 100, now())
		`)
		require.Error(t, err, "zero quantity must violate the check constraint")
	})

	t.Run("trades table rejects unknown side", func(t *testing.T) {
		_, err := testDB.GetRawConn().Exec(`
			INSERT INTO trades (account_id, symbol, side, quantity, price, executed_at)
			VALUES ('acct-1', 'AAPL', 'HOLD', 1, 100, now())
		`)
		require.Error(t, err)
	})

	t.Run("duplicate order_id and source rejected", func(t *testing.T) {
		testDB.TruncateAll(t)

		insert := `
			INSERT INTO trades (account_id, order_id, source, symbol, side, quantity, price, executed_at)
			VALUES ('acct-1', 'ord-1', 'broker-sim', 'AAPL', 'BUY', 1, 100, now())
		`
		_, err := testDB.GetRawConn().Exec(insert)
		require.NoError(t, err)
		_, err = testDB.GetRawConn().Exec(insert)
		require.Error(t, err, "unique index on (order_id, source) must reject the replay")
	})
}
