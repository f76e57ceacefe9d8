package notify_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coinhopper/internal/adapters/notify"
	"coinhopper/internal/domain"
)

func TestHeartbeat_RendersLedgerTable(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf)

	err := n.Heartbeat(context.Background(), []domain.LedgerEntry{
		{From: "ADA", To: "ETH", Diff: 0.0375},
		{From: "ADA", To: "BTC", Diff: -0.012},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Best scouting ratios since last trade:")
	assert.Contains(t, out, "ADA")
	assert.Contains(t, out, "ETH")
	assert.Contains(t, out, "3.7500%")
	assert.Contains(t, out, "-1.2000%")
}

func TestHeartbeat_EmptyLedger(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf)

	require.NoError(t, n.Heartbeat(context.Background(), nil))
	assert.Contains(t, buf.String(), "no scouting ratios recorded yet")
}

func TestValueReport_RendersBalances(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf)

	err := n.ValueReport(context.Background(), []domain.CoinValue{
		{Symbol: "BTC", Balance: 0.5, USDValue: 32000, BridgeValue: 32000},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "BTC")
	assert.Contains(t, out, "0.50000000")
	assert.Contains(t, out, "$32000.00")
}

func TestValueReport_NoBalances(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf)

	require.NoError(t, n.ValueReport(context.Background(), nil))
	assert.Contains(t, buf.String(), "no coin balances to report")
}
