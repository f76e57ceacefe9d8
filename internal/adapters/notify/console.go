package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"coinhopper/internal/domain"
)

// Console implements ports.Notifier, printing tables to a writer.
type Console struct {
	out io.Writer
}

// NewConsole creates a notifier writing to stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter creates a notifier for tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// Heartbeat prints the best scouting ratios since the last trade.
func (c *Console) Heartbeat(_ context.Context, entries []domain.LedgerEntry) error {
	if len(entries) == 0 {
		fmt.Fprintf(c.out, "[%s] no scouting ratios recorded yet\n", time.Now().Format("15:04:05"))
		return nil
	}

	fmt.Fprintln(c.out, "Best scouting ratios since last trade:")
	table := tablewriter.NewWriter(c.out)
	table.Header("From", "To", "Diff")
	for _, e := range entries {
		table.Append(e.From, e.To, fmt.Sprintf("%0.4f%%", e.Diff*100))
	}
	return table.Render()
}

// ValueReport prints the latest coin value snapshots.
func (c *Console) ValueReport(_ context.Context, values []domain.CoinValue) error {
	if len(values) == 0 {
		fmt.Fprintf(c.out, "[%s] no coin balances to report\n", time.Now().Format("15:04:05"))
		return nil
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Coin", "Balance", "USD", "Bridge")
	for _, v := range values {
		table.Append(
			v.Symbol,
			fmt.Sprintf("%.8f", v.Balance),
			fmt.Sprintf("$%.2f", v.USDValue),
			fmt.Sprintf("%.8f", v.BridgeValue),
		)
	}
	return table.Render()
}
