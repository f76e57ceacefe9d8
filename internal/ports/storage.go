package ports

import (
	"context"

	"coinhopper/internal/domain"
)

// Store persists the supported coins, pair calibration ratios, the
// currently held coin, and telemetry.
type Store interface {
	// SeedCoins upserts the supported coin list and creates every ordered
	// pair between them. Coins no longer in the list are disabled, not
	// deleted; existing ratios are preserved.
	SeedCoins(ctx context.Context, symbols []string) error

	// Coins returns all known coins, enabled and disabled.
	Coins(ctx context.Context) ([]domain.Coin, error)

	// CurrentCoin returns the held coin's symbol, or "" before bootstrap.
	CurrentCoin(ctx context.Context) (string, error)

	// SetCurrentCoin appends a new row to the holding history.
	SetCurrentCoin(ctx context.Context, symbol string) error

	// PairsFrom returns all pairs whose source is the given coin, ordered
	// by destination symbol.
	PairsFrom(ctx context.Context, symbol string) ([]domain.Pair, error)

	// PairsTo returns all pairs whose destination is the given coin,
	// ordered by source symbol.
	PairsTo(ctx context.Context, symbol string) ([]domain.Pair, error)

	// UncalibratedPairs returns pairs that have no calibration ratio yet.
	UncalibratedPairs(ctx context.Context) ([]domain.Pair, error)

	// SetRatio stores the calibration ratio for a pair.
	SetRatio(ctx context.Context, from, to string, ratio float64) error

	// RecordTrade appends one completed transition.
	RecordTrade(ctx context.Context, trade domain.Trade) error

	// Trades returns the most recent trades, newest first.
	Trades(ctx context.Context, limit int) ([]domain.Trade, error)

	// SaveCoinValue appends one value snapshot.
	SaveCoinValue(ctx context.Context, value domain.CoinValue) error

	// RecentCoinValues returns the most recent snapshots, newest first.
	RecentCoinValues(ctx context.Context, limit int) ([]domain.CoinValue, error)

	// Close closes the underlying database cleanly.
	Close() error
}
