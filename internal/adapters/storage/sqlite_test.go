package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coinhopper/internal/adapters/storage"
	"coinhopper/internal/domain"
)

func newStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	db, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSeedCoins_CreatesCoinsAndOrderedPairs(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()

	require.NoError(t, db.SeedCoins(ctx, []string{"ADA", "BTC", "ETH"}))

	coins, err := db.Coins(ctx)
	require.NoError(t, err)
	require.Len(t, coins, 3)
	for _, c := range coins {
		assert.True(t, c.Enabled, c.Symbol)
	}

	pairs, err := db.PairsFrom(ctx, "ADA")
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	// Ordered by destination symbol.
	assert.Equal(t, "BTC", pairs[0].To.Symbol)
	assert.Equal(t, "ETH", pairs[1].To.Symbol)
	for _, p := range pairs {
		assert.False(t, p.Calibrated, "new pairs start uncalibrated")
	}
}

func TestSeedCoins_ReseedingDisablesDroppedCoinsKeepsRatios(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()

	require.NoError(t, db.SeedCoins(ctx, []string{"ADA", "BTC", "ETH"}))
	require.NoError(t, db.SetRatio(ctx, "ADA", "BTC", 0.25))

	// ETH drops off the supported list.
	require.NoError(t, db.SeedCoins(ctx, []string{"ADA", "BTC"}))

	coins, err := db.Coins(ctx)
	require.NoError(t, err)
	bySymbolEnabled := map[string]bool{}
	for _, c := range coins {
		bySymbolEnabled[c.Symbol] = c.Enabled
	}
	assert.True(t, bySymbolEnabled["ADA"])
	assert.True(t, bySymbolEnabled["BTC"])
	assert.False(t, bySymbolEnabled["ETH"], "dropped coins are disabled, not deleted")

	pairs, err := db.PairsFrom(ctx, "ADA")
	require.NoError(t, err)
	for _, p := range pairs {
		if p.To.Symbol == "BTC" {
			assert.True(t, p.Calibrated)
			assert.InDelta(t, 0.25, p.Ratio, 1e-12)
		}
		if p.To.Symbol == "ETH" {
			assert.False(t, p.To.Enabled)
		}
	}
}

func TestCurrentCoin_EmptyBeforeBootstrapLatestAfter(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()

	current, err := db.CurrentCoin(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", current)

	require.NoError(t, db.SetCurrentCoin(ctx, "ADA"))
	require.NoError(t, db.SetCurrentCoin(ctx, "BTC"))

	current, err = db.CurrentCoin(ctx)
	require.NoError(t, err)
	assert.Equal(t, "BTC", current)
}

func TestRatios_UncalibratedUntilSet(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()
	require.NoError(t, db.SeedCoins(ctx, []string{"ADA", "BTC"}))

	uncal, err := db.UncalibratedPairs(ctx)
	require.NoError(t, err)
	require.Len(t, uncal, 2) // ADA->BTC and BTC->ADA

	require.NoError(t, db.SetRatio(ctx, "ADA", "BTC", 0.5))

	uncal, err = db.UncalibratedPairs(ctx)
	require.NoError(t, err)
	require.Len(t, uncal, 1)
	assert.Equal(t, "BTC", uncal[0].From.Symbol)

	pairs, err := db.PairsTo(ctx, "BTC")
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.True(t, pairs[0].Calibrated)
	assert.InDelta(t, 0.5, pairs[0].Ratio, 1e-12)
}

func TestSetRatio_UnknownPairFails(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()
	require.NoError(t, db.SeedCoins(ctx, []string{"ADA", "BTC"}))

	err := db.SetRatio(ctx, "ADA", "DOGE", 1.0)
	require.Error(t, err)
}

func TestRecordTrade_AssignsIDAndListsNewestFirst(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()

	first := domain.Trade{
		FromSymbol: "ADA", ToSymbol: "BTC",
		SellPrice: 100, BuyPrice: 80,
		ExecutedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
	second := domain.Trade{
		FromSymbol: "BTC", ToSymbol: "ETH",
		SellPrice: 80, BuyPrice: 75,
		ExecutedAt: time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.RecordTrade(ctx, first))
	require.NoError(t, db.RecordTrade(ctx, second))

	trades, err := db.Trades(ctx, 10)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "BTC", trades[0].FromSymbol)
	assert.Equal(t, "ADA", trades[1].FromSymbol)
	assert.NotEmpty(t, trades[0].ID)
	assert.NotEqual(t, trades[0].ID, trades[1].ID)
}

func TestCoinValues_RoundTrip(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, db.SaveCoinValue(ctx, domain.CoinValue{
		Symbol: "ADA", Balance: 2, USDValue: 200, BridgeValue: 200, RecordedAt: now,
	}))
	require.NoError(t, db.SaveCoinValue(ctx, domain.CoinValue{
		Symbol: "BTC", Balance: 0.5, USDValue: 20000, BridgeValue: 20000, RecordedAt: now.Add(time.Minute),
	}))

	values, err := db.RecentCoinValues(ctx, 10)
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, "BTC", values[0].Symbol)
	assert.InDelta(t, 0.5, values[0].Balance, 1e-12)
	assert.Equal(t, "ADA", values[1].Symbol)
	assert.InDelta(t, 200.0, values[1].USDValue, 1e-12)
}
