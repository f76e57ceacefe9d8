package trader

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coinhopper/internal/domain"
)

func TestRetryPolicy_WaitDoublesAndCaps(t *testing.T) {
	p := RetryPolicy{BaseWait: 100 * time.Millisecond, MaxWait: time.Second}

	assert.Equal(t, 100*time.Millisecond, p.wait(0))
	assert.Equal(t, 200*time.Millisecond, p.wait(1))
	assert.Equal(t, 400*time.Millisecond, p.wait(2))
	assert.Equal(t, 800*time.Millisecond, p.wait(3))
	assert.Equal(t, time.Second, p.wait(4))
	assert.Equal(t, time.Second, p.wait(20))
}

func TestRetryPolicy_WaitDefaultsBaseToOneSecond(t *testing.T) {
	p := RetryPolicy{}
	assert.Equal(t, time.Second, p.wait(0))
}

type alwaysFailingExchange struct{}

func (alwaysFailingExchange) TickerPrice(context.Context, string) (float64, error) {
	return 0, errors.New("unreachable")
}
func (alwaysFailingExchange) Fee(context.Context, domain.Coin, domain.Coin, bool) float64 {
	return 0
}
func (alwaysFailingExchange) Sell(context.Context, domain.Coin, domain.Coin) (*domain.OrderResult, error) {
	return nil, errors.New("unreachable")
}
func (alwaysFailingExchange) Buy(context.Context, domain.Coin, domain.Coin) (*domain.OrderResult, error) {
	return nil, errors.New("order rejected")
}
func (alwaysFailingExchange) Balance(context.Context, string) (float64, error) {
	return 0, errors.New("unreachable")
}

func TestBuyWithRetry_UnboundedStopsOnContextCancel(t *testing.T) {
	tr := New(Config{
		Bridge: domain.Coin{Symbol: "USDT"},
		BuyRetry: RetryPolicy{
			MaxAttempts: 0, // unbounded
			BaseWait:    time.Millisecond,
			MaxWait:     2 * time.Millisecond,
		},
	}, alwaysFailingExchange{}, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()

	result, err := tr.buyWithRetry(ctx, domain.Coin{Symbol: "BTC", Enabled: true})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBuyWithRetry_BoundedGivesUpAfterMaxAttempts(t *testing.T) {
	tr := New(Config{
		Bridge: domain.Coin{Symbol: "USDT"},
		BuyRetry: RetryPolicy{
			MaxAttempts: 3,
			BaseWait:    time.Millisecond,
			MaxWait:     time.Millisecond,
		},
	}, alwaysFailingExchange{}, nil, nil)

	result, err := tr.buyWithRetry(context.Background(), domain.Coin{Symbol: "BTC", Enabled: true})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "gave up after 3 attempts")
}
