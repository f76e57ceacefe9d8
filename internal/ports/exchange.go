package ports

import (
	"context"
	"errors"

	"coinhopper/internal/domain"
)

// ErrPriceUnavailable signals that the exchange has no quote for a symbol.
// Expected and transient: callers skip the affected item, they do not abort.
var ErrPriceUnavailable = errors.New("price unavailable")

// Exchange is the order-execution and market-data collaborator.
type Exchange interface {
	// TickerPrice returns the current price for a symbol such as "ETHUSDT".
	// Returns ErrPriceUnavailable when the symbol has no quote.
	TickerPrice(ctx context.Context, symbol string) (float64, error)

	// Fee returns the trading fee fraction for one leg of a coin<->bridge
	// trade. Never fails; the adapter falls back to a configured default.
	Fee(ctx context.Context, coin, bridge domain.Coin, selling bool) float64

	// Sell liquidates the full balance of coin into the bridge with a
	// market order. A nil result with an error means the leg did not
	// execute and no funds moved.
	Sell(ctx context.Context, coin, bridge domain.Coin) (*domain.OrderResult, error)

	// Buy spends the full bridge balance on coin with a market order.
	// May be retried by the caller.
	Buy(ctx context.Context, coin, bridge domain.Coin) (*domain.OrderResult, error)

	// Balance returns the free balance of an asset.
	Balance(ctx context.Context, symbol string) (float64, error)
}
