package trader

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"coinhopper/internal/domain"
)

// candidate is one evaluated jump target within a scout cycle.
type candidate struct {
	pair      domain.Pair
	advantage float64
}

// Scout runs one decision cycle: evaluate every viable jump from the held
// coin and transition through the bridge if the best candidate clears the
// fee-adjusted threshold. One cycle at a time; the caller serializes.
func (t *Trader) Scout(ctx context.Context) error {
	current, err := t.store.CurrentCoin(ctx)
	if err != nil {
		return fmt.Errorf("trader.Scout: read current coin: %w", err)
	}
	if current == "" {
		return fmt.Errorf("trader.Scout: no current coin, bootstrap has not run")
	}

	currentPrice, err := t.exchange.TickerPrice(ctx, current+t.cfg.Bridge.Symbol)
	if err != nil {
		slog.Info("skipping scouting, current coin price unavailable", "coin", current, "err", err)
		return nil
	}

	pairs, err := t.store.PairsFrom(ctx, current)
	if err != nil {
		return fmt.Errorf("trader.Scout: pairs from %s: %w", current, err)
	}

	var candidates []candidate
	for _, pair := range pairs {
		if !pair.To.Enabled {
			continue
		}
		// Uncalibrated pairs have no breakeven baseline and are not viable.
		if !pair.Calibrated {
			continue
		}

		optionPrice, err := t.exchange.TickerPrice(ctx, pair.To.Symbol+t.cfg.Bridge.Symbol)
		if err != nil {
			slog.Info("skipping candidate, price unavailable", "coin", pair.To, "err", err)
			continue
		}

		rawRatio := currentPrice / optionPrice
		fee := t.exchange.Fee(ctx, pair.From, t.cfg.Bridge, true) +
			t.exchange.Fee(ctx, pair.To, t.cfg.Bridge, false)
		advantage := (rawRatio - fee*t.cfg.ScoutMultiplier*rawRatio) - pair.Ratio

		candidates = append(candidates, candidate{pair: pair, advantage: advantage})
		t.ledger.Record(pair.From.Symbol, pair.To.Symbol, advantage)
	}

	if len(candidates) == 0 {
		slog.Debug("no viable candidates this cycle", "coin", current)
		return nil
	}

	// Strict maximum; ties resolve to the first candidate in pair order.
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.advantage > best.advantage {
			best = c
		}
	}
	slog.Debug("best candidate",
		"from", best.pair.From,
		"to", best.pair.To,
		"advantage", fmt.Sprintf("%.5f%%", best.advantage*100),
	)

	if best.advantage > 0 {
		slog.Info("jumping through bridge",
			"from", current,
			"to", best.pair.To,
			"advantage", fmt.Sprintf("%.5f%%", best.advantage*100),
		)
		return t.transitionThroughBridge(ctx, best.pair)
	}
	return nil
}

// transitionThroughBridge executes the two-leg swap from pair.From to
// pair.To. A failed sell leg aborts cleanly with no state change. Once the
// sell has filled the buy leg must eventually succeed: holding raw bridge
// currency is an unmanaged position, so the leg is retried per policy
// rather than abandoned.
func (t *Trader) transitionThroughBridge(ctx context.Context, pair domain.Pair) error {
	sellResult, err := t.exchange.Sell(ctx, pair.From, t.cfg.Bridge)
	if err != nil || sellResult == nil {
		slog.Info("couldn't sell, going back to scouting mode", "coin", pair.From, "err", err)
		return nil
	}

	buyResult, err := t.buyWithRetry(ctx, pair.To)
	if err != nil {
		return fmt.Errorf("trader: buy %s after selling %s into %s: %w",
			pair.To, pair.From, t.cfg.Bridge, err)
	}

	if err := t.store.SetCurrentCoin(ctx, pair.To.Symbol); err != nil {
		return fmt.Errorf("trader: set current coin %s: %w", pair.To, err)
	}
	t.ledger.Clear()

	trade := domain.Trade{
		ID:         uuid.New().String(),
		FromSymbol: pair.From.Symbol,
		ToSymbol:   pair.To.Symbol,
		SellPrice:  sellResult.Price,
		BuyPrice:   buyResult.Price,
		ExecutedAt: time.Now().UTC(),
	}
	if err := t.store.RecordTrade(ctx, trade); err != nil {
		slog.Warn("failed to record trade", "from", pair.From, "to", pair.To, "err", err)
	}

	if err := t.UpdateTradeThreshold(ctx, buyResult.Price); err != nil {
		slog.Warn("threshold update after jump failed", "coin", pair.To, "err", err)
	}
	return nil
}
