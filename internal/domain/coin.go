package domain

import "time"

// Coin is a tradable asset. Disabled coins are excluded from scouting but
// may still be the currently held coin.
type Coin struct {
	Symbol  string
	Enabled bool
}

func (c Coin) String() string { return c.Symbol }

// Pair is an ordered (from, to) relation between two coins carrying the
// calibration ratio used as the breakeven baseline in scouting.
// Calibrated is false until a ratio has been computed; an uncalibrated
// pair must never be treated as ratio 0.
type Pair struct {
	From       Coin
	To         Coin
	Ratio      float64
	Calibrated bool
}

func (p Pair) Key() PairKey {
	return PairKey{From: p.From.Symbol, To: p.To.Symbol}
}

// OrderResult is the outcome of a filled market order.
type OrderResult struct {
	Symbol   string
	Price    float64 // average fill price
	Quantity float64
}

// Trade records one completed bridge transition.
type Trade struct {
	ID         string
	FromSymbol string
	ToSymbol   string
	SellPrice  float64
	BuyPrice   float64
	ExecutedAt time.Time
}

// CoinValue is a point-in-time snapshot of a coin balance and its USD and
// bridge equivalents. Write-once telemetry, never mutated.
type CoinValue struct {
	Symbol      string
	Balance     float64
	USDValue    float64
	BridgeValue float64
	RecordedAt  time.Time
}
