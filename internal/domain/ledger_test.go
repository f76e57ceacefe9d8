package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coinhopper/internal/domain"
)

func TestBestRatioLedger_RecordKeepsMaximum(t *testing.T) {
	ledger := domain.NewBestRatioLedger()

	ledger.Record("ADA", "BTC", -0.02)
	ledger.Record("ADA", "BTC", 0.01)
	ledger.Record("ADA", "BTC", -0.5) // worse, ignored

	entries := ledger.Entries()
	require.Len(t, entries, 1)
	assert.InDelta(t, 0.01, entries[0].Diff, 1e-12)
}

func TestBestRatioLedger_EntriesSortedBestFirst(t *testing.T) {
	ledger := domain.NewBestRatioLedger()
	ledger.Record("ADA", "BTC", -0.1)
	ledger.Record("ADA", "ETH", 0.3)
	ledger.Record("ETH", "BTC", 0.05)

	entries := ledger.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "ETH", entries[0].To)
	assert.InDelta(t, 0.3, entries[0].Diff, 1e-12)
	assert.InDelta(t, 0.05, entries[1].Diff, 1e-12)
	assert.InDelta(t, -0.1, entries[2].Diff, 1e-12)
}

func TestBestRatioLedger_EqualDiffsOrderedByPair(t *testing.T) {
	ledger := domain.NewBestRatioLedger()
	ledger.Record("ETH", "BTC", 0.2)
	ledger.Record("ADA", "BTC", 0.2)

	entries := ledger.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "ADA", entries[0].From)
	assert.Equal(t, "ETH", entries[1].From)
}

func TestBestRatioLedger_Clear(t *testing.T) {
	ledger := domain.NewBestRatioLedger()
	ledger.Record("ADA", "BTC", 0.1)
	require.Equal(t, 1, ledger.Len())

	ledger.Clear()
	assert.Equal(t, 0, ledger.Len())
	assert.Empty(t, ledger.Entries())

	// Usable again after a clear.
	ledger.Record("ADA", "ETH", 0.2)
	assert.Equal(t, 1, ledger.Len())
}
