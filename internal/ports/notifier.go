package ports

import (
	"context"

	"coinhopper/internal/domain"
)

// Notifier presents reporting output to the operator.
type Notifier interface {
	// Heartbeat shows the best scouting ratios observed since the last
	// trade, best first.
	Heartbeat(ctx context.Context, entries []domain.LedgerEntry) error

	// ValueReport shows the latest coin value snapshots.
	ValueReport(ctx context.Context, values []domain.CoinValue) error
}
