package trader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"coinhopper/internal/domain"
)

// RetryPolicy governs the buy leg of a transition. MaxAttempts of zero
// means retry until the context is cancelled, which preserves the
// never-abandon-mid-swap contract while keeping shutdown possible.
type RetryPolicy struct {
	MaxAttempts int
	BaseWait    time.Duration
	MaxWait     time.Duration
}

// DefaultRetryPolicy retries without bound, backing off from one second
// to a thirty second ceiling.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 0,
		BaseWait:    time.Second,
		MaxWait:     30 * time.Second,
	}
}

// wait returns the backoff before the next attempt, doubling per attempt
// and capped at MaxWait.
func (p RetryPolicy) wait(attempt int) time.Duration {
	d := p.BaseWait
	if d <= 0 {
		d = time.Second
	}
	for i := 0; i < attempt; i++ {
		d *= 2
		if p.MaxWait > 0 && d >= p.MaxWait {
			return p.MaxWait
		}
	}
	if p.MaxWait > 0 && d > p.MaxWait {
		return p.MaxWait
	}
	return d
}

// buyWithRetry acquires coin with the full bridge balance, retrying failed
// attempts per the configured policy.
func (t *Trader) buyWithRetry(ctx context.Context, coin domain.Coin) (*domain.OrderResult, error) {
	policy := t.cfg.BuyRetry
	for attempt := 0; ; attempt++ {
		result, err := t.exchange.Buy(ctx, coin, t.cfg.Bridge)
		if err == nil && result != nil {
			return result, nil
		}

		slog.Warn("buy attempt failed",
			"coin", coin,
			"bridge", t.cfg.Bridge,
			"attempt", attempt+1,
			"err", err,
		)
		if policy.MaxAttempts > 0 && attempt+1 >= policy.MaxAttempts {
			if err == nil {
				err = errors.New("no result")
			}
			return nil, fmt.Errorf("trader: buy %s: gave up after %d attempts: %w", coin, attempt+1, err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("trader: buy %s: %w", coin, ctx.Err())
		case <-time.After(policy.wait(attempt)):
		}
	}
}
