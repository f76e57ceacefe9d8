package trader

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"coinhopper/internal/domain"
	"coinhopper/internal/ports"
)

// Config controls the trading core.
type Config struct {
	// Bridge is the intermediate coin every transition is routed through.
	// Never a scouting target.
	Bridge domain.Coin

	// CurrentCoin optionally names the coin assumed to be held at first
	// run. Empty means pick one at random from the enabled set and buy it.
	CurrentCoin string

	// ScoutMultiplier scales the fee term so a jump must clear a safety
	// margin above breakeven before it triggers.
	ScoutMultiplier float64

	// BuyRetry governs the buy leg of a transition.
	BuyRetry RetryPolicy
}

// Trader is the rotation core: it scouts for a better coin than the one
// currently held and jumps through the bridge when one is found.
type Trader struct {
	cfg      Config
	exchange ports.Exchange
	store    ports.Store
	notifier ports.Notifier
	ledger   *domain.BestRatioLedger
}

func New(cfg Config, exchange ports.Exchange, store ports.Store, notifier ports.Notifier) *Trader {
	if cfg.ScoutMultiplier <= 0 {
		cfg.ScoutMultiplier = 1
	}
	return &Trader{
		cfg:      cfg,
		exchange: exchange,
		store:    store,
		notifier: notifier,
		ledger:   domain.NewBestRatioLedger(),
	}
}

// InitializeCurrentCoin decides which coin is held at first run. An already
// recorded coin is resumed as-is. A configured symbol outside the supported
// list is a configuration error; nothing is written in that case.
func (t *Trader) InitializeCurrentCoin(ctx context.Context) error {
	current, err := t.store.CurrentCoin(ctx)
	if err != nil {
		return fmt.Errorf("trader.InitializeCurrentCoin: read current coin: %w", err)
	}
	if current != "" {
		slog.Info("resuming with previously held coin", "coin", current)
		return nil
	}

	coins, err := t.store.Coins(ctx)
	if err != nil {
		return fmt.Errorf("trader.InitializeCurrentCoin: list coins: %w", err)
	}
	var enabled []string
	for _, c := range coins {
		if c.Enabled {
			enabled = append(enabled, c.Symbol)
		}
	}
	if len(enabled) == 0 {
		return fmt.Errorf("trader.InitializeCurrentCoin: no enabled coins")
	}

	symbol := t.cfg.CurrentCoin
	configured := symbol != ""
	if !configured {
		symbol = enabled[rand.Intn(len(enabled))]
	}
	if !contains(enabled, symbol) {
		return fmt.Errorf("trader.InitializeCurrentCoin: initial coin %q is not in the supported coin list", symbol)
	}

	slog.Info("setting initial coin", "coin", symbol, "configured", configured)
	if err := t.store.SetCurrentCoin(ctx, symbol); err != nil {
		return fmt.Errorf("trader.InitializeCurrentCoin: set current coin: %w", err)
	}

	// A randomly chosen coin is not actually held yet; buy it so scouting
	// starts from a real position. A configured coin is assumed held.
	if !configured {
		slog.Info("purchasing initial coin to begin trading", "coin", symbol, "bridge", t.cfg.Bridge)
		coin := domain.Coin{Symbol: symbol, Enabled: true}
		if _, err := t.buyWithRetry(ctx, coin); err != nil {
			return fmt.Errorf("trader.InitializeCurrentCoin: buy %s: %w", symbol, err)
		}
		slog.Info("ready to start trading")
	}
	return nil
}

// InitializeThresholds calibrates every pair that has no stored ratio yet.
// Pairs with a disabled endpoint stay uncalibrated, as do pairs for which
// either price is unavailable this pass.
func (t *Trader) InitializeThresholds(ctx context.Context) error {
	pairs, err := t.store.UncalibratedPairs(ctx)
	if err != nil {
		return fmt.Errorf("trader.InitializeThresholds: list pairs: %w", err)
	}

	for _, pair := range pairs {
		if !pair.From.Enabled || !pair.To.Enabled {
			continue
		}
		slog.Info("calibrating pair", "from", pair.From, "to", pair.To)

		fromPrice, err := t.exchange.TickerPrice(ctx, pair.From.Symbol+t.cfg.Bridge.Symbol)
		if err != nil {
			slog.Info("skipping calibration, source price unavailable", "coin", pair.From, "err", err)
			continue
		}
		toPrice, err := t.exchange.TickerPrice(ctx, pair.To.Symbol+t.cfg.Bridge.Symbol)
		if err != nil {
			slog.Info("skipping calibration, destination price unavailable", "coin", pair.To, "err", err)
			continue
		}

		if err := t.store.SetRatio(ctx, pair.From.Symbol, pair.To.Symbol, fromPrice/toPrice); err != nil {
			return fmt.Errorf("trader.InitializeThresholds: store ratio %s->%s: %w", pair.From, pair.To, err)
		}
	}
	return nil
}

// UpdateTradeThreshold recalibrates every pair pointing at the currently
// held coin against its fresh acquisition price. Pairs whose source price
// is unavailable keep their stale ratio this round.
func (t *Trader) UpdateTradeThreshold(ctx context.Context, currentPrice float64) error {
	if currentPrice <= 0 {
		slog.Info("skipping threshold update, no acquisition price")
		return nil
	}

	current, err := t.store.CurrentCoin(ctx)
	if err != nil {
		return fmt.Errorf("trader.UpdateTradeThreshold: read current coin: %w", err)
	}

	pairs, err := t.store.PairsTo(ctx, current)
	if err != nil {
		return fmt.Errorf("trader.UpdateTradeThreshold: pairs to %s: %w", current, err)
	}
	for _, pair := range pairs {
		fromPrice, err := t.exchange.TickerPrice(ctx, pair.From.Symbol+t.cfg.Bridge.Symbol)
		if err != nil {
			slog.Info("skipping threshold update for pair, source price unavailable", "coin", pair.From, "err", err)
			continue
		}
		if err := t.store.SetRatio(ctx, pair.From.Symbol, pair.To.Symbol, fromPrice/currentPrice); err != nil {
			return fmt.Errorf("trader.UpdateTradeThreshold: store ratio %s->%s: %w", pair.From, pair.To, err)
		}
	}
	return nil
}

// Heartbeat reports the best scouting ratios observed since the last trade.
func (t *Trader) Heartbeat(ctx context.Context) error {
	entries := t.ledger.Entries()
	if len(entries) == 0 {
		slog.Info("no best scouting ratios available, a trade was probably just made")
		return nil
	}
	return t.notifier.Heartbeat(ctx, entries)
}

// UpdateValues snapshots the value of every non-zero coin balance in USD
// and bridge terms.
func (t *Trader) UpdateValues(ctx context.Context) error {
	coins, err := t.store.Coins(ctx)
	if err != nil {
		return fmt.Errorf("trader.UpdateValues: list coins: %w", err)
	}

	now := time.Now().UTC()
	var values []domain.CoinValue
	for _, coin := range coins {
		balance, err := t.exchange.Balance(ctx, coin.Symbol)
		if err != nil {
			slog.Warn("balance lookup failed", "coin", coin, "err", err)
			continue
		}
		if balance == 0 {
			continue
		}

		usdPrice, err := t.exchange.TickerPrice(ctx, coin.Symbol+"USDT")
		if err != nil {
			usdPrice = 0
		}
		bridgePrice, err := t.exchange.TickerPrice(ctx, coin.Symbol+t.cfg.Bridge.Symbol)
		if err != nil {
			bridgePrice = 0
		}

		value := domain.CoinValue{
			Symbol:      coin.Symbol,
			Balance:     balance,
			USDValue:    balance * usdPrice,
			BridgeValue: balance * bridgePrice,
			RecordedAt:  now,
		}
		if err := t.store.SaveCoinValue(ctx, value); err != nil {
			return fmt.Errorf("trader.UpdateValues: save %s: %w", coin, err)
		}
		values = append(values, value)
	}

	if t.notifier != nil && len(values) > 0 {
		return t.notifier.ValueReport(ctx, values)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
