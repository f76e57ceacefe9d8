package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"coinhopper/internal/domain"
	"coinhopper/internal/ports"
)

const (
	defaultBaseURL = "https://api.binance.com"

	// Conservative share of Binance's documented 1200 weight/min budget.
	requestsPerSec = 10

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// errSymbolUnknown marks a 4xx response for a symbol the exchange does not
// quote; callers translate it to ports.ErrPriceUnavailable.
var errSymbolUnknown = errors.New("symbol unknown")

// Client is the Binance REST client with rate limiting, retries, and
// HMAC-signed private endpoints.
type Client struct {
	http       *http.Client
	baseURL    string
	apiKey     string
	apiSecret  string
	limiter    *rate.Limiter
	defaultFee float64

	feeMu    sync.Mutex
	feeCache map[string]float64
}

// NewClient creates a Client. An empty baseURL selects production.
// defaultFee is the per-leg fee fraction assumed when the fee endpoint is
// unavailable.
func NewClient(baseURL, apiKey, apiSecret string, defaultFee float64) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http:       &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		limiter:    rate.NewLimiter(requestsPerSec, 5),
		defaultFee: defaultFee,
		feeCache:   make(map[string]float64),
	}
}

// TickerPrice returns the current price for a symbol. The identity symbol
// (bridge quoted against itself, e.g. "USDTUSDT") is always 1.
func (c *Client) TickerPrice(ctx context.Context, symbol string) (float64, error) {
	if n := len(symbol); n > 0 && n%2 == 0 && symbol[:n/2] == symbol[n/2:] {
		return 1, nil
	}

	var out struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	q := url.Values{"symbol": {symbol}}
	if err := c.get(ctx, "/api/v3/ticker/price", q, false, &out); err != nil {
		if errors.Is(err, errSymbolUnknown) {
			return 0, fmt.Errorf("exchange.TickerPrice: %s: %w", symbol, ports.ErrPriceUnavailable)
		}
		return 0, fmt.Errorf("exchange.TickerPrice: %s: %w", symbol, err)
	}

	price, err := strconv.ParseFloat(out.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("exchange.TickerPrice: %s: parse %q: %w", symbol, out.Price, err)
	}
	return price, nil
}

// Fee returns the taker fee fraction for one leg of a coin<->bridge market
// order. Results are cached per symbol; lookup failures fall back to the
// configured default so scouting never stalls on the fee endpoint.
func (c *Client) Fee(ctx context.Context, coin, bridge domain.Coin, selling bool) float64 {
	symbol := coin.Symbol + bridge.Symbol

	c.feeMu.Lock()
	if fee, ok := c.feeCache[symbol]; ok {
		c.feeMu.Unlock()
		return fee
	}
	c.feeMu.Unlock()

	var out []struct {
		Symbol string `json:"symbol"`
		Maker  string `json:"makerCommission"`
		Taker  string `json:"takerCommission"`
	}
	q := url.Values{"symbol": {symbol}}
	if err := c.get(ctx, "/sapi/v1/asset/tradeFee", q, true, &out); err != nil || len(out) == 0 {
		slog.Debug("trade fee lookup failed, using default", "symbol", symbol, "err", err)
		return c.defaultFee
	}

	fee, err := strconv.ParseFloat(out[0].Taker, 64)
	if err != nil {
		return c.defaultFee
	}

	c.feeMu.Lock()
	c.feeCache[symbol] = fee
	c.feeMu.Unlock()
	return fee
}

// Sell liquidates the full free balance of coin into the bridge.
func (c *Client) Sell(ctx context.Context, coin, bridge domain.Coin) (*domain.OrderResult, error) {
	balance, err := c.Balance(ctx, coin.Symbol)
	if err != nil {
		return nil, fmt.Errorf("exchange.Sell: balance %s: %w", coin, err)
	}
	if balance <= 0 {
		return nil, fmt.Errorf("exchange.Sell: no %s balance to sell", coin)
	}

	// TODO: round quantity down to the symbol's LOT_SIZE step before
	// submitting instead of relying on the exchange to truncate.
	params := url.Values{
		"quantity": {strconv.FormatFloat(balance, 'f', -1, 64)},
	}
	return c.order(ctx, coin.Symbol+bridge.Symbol, "SELL", params)
}

// Buy spends the full free bridge balance on coin.
func (c *Client) Buy(ctx context.Context, coin, bridge domain.Coin) (*domain.OrderResult, error) {
	balance, err := c.Balance(ctx, bridge.Symbol)
	if err != nil {
		return nil, fmt.Errorf("exchange.Buy: balance %s: %w", bridge, err)
	}
	if balance <= 0 {
		return nil, fmt.Errorf("exchange.Buy: no %s balance to spend", bridge)
	}

	params := url.Values{
		"quoteOrderQty": {strconv.FormatFloat(balance, 'f', 8, 64)},
	}
	return c.order(ctx, coin.Symbol+bridge.Symbol, "BUY", params)
}

// Balance returns the free balance of an asset from the account endpoint.
func (c *Client) Balance(ctx context.Context, asset string) (float64, error) {
	var out struct {
		Balances []struct {
			Asset string `json:"asset"`
			Free  string `json:"free"`
		} `json:"balances"`
	}
	if err := c.get(ctx, "/api/v3/account", url.Values{}, true, &out); err != nil {
		return 0, fmt.Errorf("exchange.Balance: %s: %w", asset, err)
	}

	for _, b := range out.Balances {
		if b.Asset == asset {
			free, err := strconv.ParseFloat(b.Free, 64)
			if err != nil {
				return 0, fmt.Errorf("exchange.Balance: %s: parse %q: %w", asset, b.Free, err)
			}
			return free, nil
		}
	}
	return 0, nil
}

// order submits a MARKET order and returns the average fill price.
func (c *Client) order(ctx context.Context, symbol, side string, params url.Values) (*domain.OrderResult, error) {
	params.Set("symbol", symbol)
	params.Set("side", side)
	params.Set("type", "MARKET")

	var out struct {
		Symbol      string `json:"symbol"`
		ExecutedQty string `json:"executedQty"`
		QuoteQty    string `json:"cummulativeQuoteQty"`
		Fills       []struct {
			Price string `json:"price"`
			Qty   string `json:"qty"`
		} `json:"fills"`
	}
	if err := c.post(ctx, "/api/v3/order", params, &out); err != nil {
		return nil, fmt.Errorf("exchange: %s %s: %w", side, symbol, err)
	}

	executed, _ := strconv.ParseFloat(out.ExecutedQty, 64)
	if executed <= 0 {
		return nil, fmt.Errorf("exchange: %s %s: order not filled", side, symbol)
	}

	var notional, qty float64
	for _, f := range out.Fills {
		p, err1 := strconv.ParseFloat(f.Price, 64)
		q, err2 := strconv.ParseFloat(f.Qty, 64)
		if err1 != nil || err2 != nil {
			continue
		}
		notional += p * q
		qty += q
	}
	price := 0.0
	if qty > 0 {
		price = notional / qty
	} else if quote, err := strconv.ParseFloat(out.QuoteQty, 64); err == nil {
		price = quote / executed
	}

	return &domain.OrderResult{Symbol: symbol, Price: price, Quantity: executed}, nil
}

// get performs a GET with rate limiting and retries. Signed requests carry
// the HMAC signature and API key header.
func (c *Client) get(ctx context.Context, path string, q url.Values, signed bool, out any) error {
	return c.doWithRetry(ctx, func() (*http.Request, error) {
		query := q.Encode()
		if signed {
			var err error
			if query, err = c.sign(q); err != nil {
				return nil, err
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			c.baseURL+path+"?"+query, nil)
		if err != nil {
			return nil, err
		}
		if signed {
			req.Header.Set("X-MBX-APIKEY", c.apiKey)
		}
		return req, nil
	}, out)
}

// post performs a signed POST with form-encoded parameters.
func (c *Client) post(ctx context.Context, path string, params url.Values, out any) error {
	return c.doWithRetry(ctx, func() (*http.Request, error) {
		query, err := c.sign(params)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+path+"?"+query, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-MBX-APIKEY", c.apiKey)
		return req, nil
	}, out)
}

func (c *Client) doWithRetry(ctx context.Context, build func() (*http.Request, error), out any) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			wait := baseRetryWait * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := build()
		if err != nil {
			return err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			if out == nil {
				return nil
			}
			return json.Unmarshal(body, out)
		case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound:
			// Unknown symbol or rejected parameters; retrying won't help.
			return fmt.Errorf("%w: status %d: %s", errSymbolUnknown, resp.StatusCode, truncateBody(body))
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, truncateBody(body))
			continue
		default:
			return fmt.Errorf("status %d: %s", resp.StatusCode, truncateBody(body))
		}
	}
	return fmt.Errorf("giving up after %d attempts: %w", maxRetries, lastErr)
}

func truncateBody(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
