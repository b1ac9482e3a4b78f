package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfolio/paper-trading-service/internal/models"
)

func TestWatchlistRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	t.Run("UpsertWatchlistEntry creates entry", func(t *testing.T) {
		testDB.TruncateAll(t)

		target := 200.0
		entry := &models.WatchlistEntry{
			Symbol:      "AAPL",
			Enabled:     true,
			TargetPrice: &target,
			Notes:       "earnings play",
		}
		err := testDB.UpsertWatchlistEntry(entry)
		require.NoError(t, err)
		assert.Equal(t, 1, entry.Priority, "priority defaults to 1")
		assert.False(t, entry.AddedAt.IsZero())
	})

	t.Run("UpsertWatchlistEntry updates on conflict", func(t *testing.T) {
		testDB.TruncateAll(t)

		entry := &models.WatchlistEntry{Symbol: "AAPL", Enabled: true}
		require.NoError(t, testDB.UpsertWatchlistEntry(entry))

		stop := 150.0
		updated := &models.WatchlistEntry{Symbol: "AAPL", Enabled: false, Priority: 2, StopPrice: &stop}
		require.NoError(t, testDB.UpsertWatchlistEntry(updated))

		got, err := testDB.GetWatchlistEntry("AAPL")
		require.NoError(t, err)
		assert.False(t, got.Enabled)
		assert.Equal(t, 2, got.Priority)
		require.NotNil(t, got.StopPrice)
		assert.Equal(t, 150.0, *got.StopPrice)
	})

	t.Run("GetWatchlistEntry not found", func(t *testing.T) {
		testDB.TruncateAll(t)

		_, err := testDB.GetWatchlistEntry("NOPE")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("GetWatchlist orders by priority", func(t *testing.T) {
		testDB.TruncateAll(t)

		require.NoError(t, testDB.UpsertWatchlistEntry(&models.WatchlistEntry{Symbol: "MSFT", Enabled: true, Priority: 3}))
		require.NoError(t, testDB.UpsertWatchlistEntry(&models.WatchlistEntry{Symbol: "AAPL", Enabled: true, Priority: 1}))
		require.NoError(t, testDB.UpsertWatchlistEntry(&models.WatchlistEntry{Symbol: "GOOG", Enabled: true, Priority: 2}))

		entries, err := testDB.GetWatchlist()
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, "AAPL", entries[0].Symbol)
		assert.Equal(t, "GOOG", entries[1].Symbol)
		assert.Equal(t, "MSFT", entries[2].Symbol)
	})

	t.Run("DeleteWatchlistEntry removes entry", func(t *testing.T) {
		testDB.TruncateAll(t)

		require.NoError(t, testDB.UpsertWatchlistEntry(&models.WatchlistEntry{Symbol: "AAPL", Enabled: true}))
		require.NoError(t, testDB.DeleteWatchlistEntry("AAPL"))

		err := testDB.DeleteWatchlistEntry("AAPL")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}
