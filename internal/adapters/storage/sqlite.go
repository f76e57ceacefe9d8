package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"coinhopper/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS coins (
    symbol  TEXT PRIMARY KEY,
    enabled INTEGER NOT NULL DEFAULT 1
);

-- One row per ordered (from, to) combination of supported coins.
-- ratio IS NULL is the uncalibrated state; it is never stored as 0.
CREATE TABLE IF NOT EXISTS pairs (
    from_symbol TEXT NOT NULL REFERENCES coins(symbol),
    to_symbol   TEXT NOT NULL REFERENCES coins(symbol),
    ratio       REAL,
    PRIMARY KEY (from_symbol, to_symbol)
);

-- Append-only holding history; the newest row is the session state.
CREATE TABLE IF NOT EXISTS current_coin (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    symbol      TEXT     NOT NULL,
    switched_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
    id          TEXT PRIMARY KEY,
    from_symbol TEXT     NOT NULL,
    to_symbol   TEXT     NOT NULL,
    sell_price  REAL     NOT NULL,
    buy_price   REAL     NOT NULL,
    executed_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS coin_values (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    symbol       TEXT     NOT NULL,
    balance      REAL     NOT NULL,
    usd_value    REAL     NOT NULL,
    bridge_value REAL     NOT NULL,
    recorded_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pairs_to      ON pairs(to_symbol);
CREATE INDEX IF NOT EXISTS idx_trades_at     ON trades(executed_at DESC);
CREATE INDEX IF NOT EXISTS idx_values_at     ON coin_values(recorded_at DESC);
`

// SQLiteStore implements ports.Store on SQLite (pure Go, no CGo).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at the given path and
// applies the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStore: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStore: apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// SeedCoins upserts the supported coin list and creates every ordered pair
// between the listed coins. Coins that drop off the list are disabled, not
// deleted, and calibrated ratios survive re-seeding.
func (s *SQLiteStore) SeedCoins(ctx context.Context, symbols []string) error {
	if len(symbols) == 0 {
		return errors.New("storage.SeedCoins: empty coin list")
	}
	normalized := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		normalized = append(normalized, strings.ToUpper(strings.TrimSpace(symbol)))
	}
	symbols = normalized

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SeedCoins: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE coins SET enabled = 0`); err != nil {
		return fmt.Errorf("storage.SeedCoins: disable all: %w", err)
	}
	for _, symbol := range symbols {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO coins (symbol, enabled) VALUES (?, 1)
			ON CONFLICT(symbol) DO UPDATE SET enabled = 1
		`, symbol); err != nil {
			return fmt.Errorf("storage.SeedCoins: upsert %s: %w", symbol, err)
		}
	}

	for _, from := range symbols {
		for _, to := range symbols {
			if from == to {
				continue
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO pairs (from_symbol, to_symbol, ratio)
				VALUES (?, ?, NULL)
			`, from, to); err != nil {
				return fmt.Errorf("storage.SeedCoins: pair %s->%s: %w", from, to, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SeedCoins: commit: %w", err)
	}
	return nil
}

// Coins returns all known coins ordered by symbol.
func (s *SQLiteStore) Coins(ctx context.Context) ([]domain.Coin, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT symbol, enabled FROM coins ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("storage.Coins: query: %w", err)
	}
	defer rows.Close()

	var coins []domain.Coin
	for rows.Next() {
		var c domain.Coin
		var enabled int
		if err := rows.Scan(&c.Symbol, &enabled); err != nil {
			return nil, fmt.Errorf("storage.Coins: scan: %w", err)
		}
		c.Enabled = enabled == 1
		coins = append(coins, c)
	}
	return coins, rows.Err()
}

// CurrentCoin returns the most recently recorded holding, or "" if the
// bootstrap has not run yet.
func (s *SQLiteStore) CurrentCoin(ctx context.Context) (string, error) {
	var symbol string
	err := s.db.QueryRowContext(ctx,
		`SELECT symbol FROM current_coin ORDER BY id DESC LIMIT 1`,
	).Scan(&symbol)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("storage.CurrentCoin: query: %w", err)
	}
	return symbol, nil
}

// SetCurrentCoin appends a new holding row.
func (s *SQLiteStore) SetCurrentCoin(ctx context.Context, symbol string) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO current_coin (symbol, switched_at) VALUES (?, ?)`,
		symbol, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("storage.SetCurrentCoin: insert %s: %w", symbol, err)
	}
	return nil
}

// PairsFrom returns all pairs leaving the given coin, ordered by
// destination symbol so candidate iteration is deterministic.
func (s *SQLiteStore) PairsFrom(ctx context.Context, symbol string) ([]domain.Pair, error) {
	return s.queryPairs(ctx, `WHERE p.from_symbol = ? ORDER BY p.to_symbol`, symbol)
}

// PairsTo returns all pairs pointing at the given coin, ordered by source
// symbol.
func (s *SQLiteStore) PairsTo(ctx context.Context, symbol string) ([]domain.Pair, error) {
	return s.queryPairs(ctx, `WHERE p.to_symbol = ? ORDER BY p.from_symbol`, symbol)
}

// UncalibratedPairs returns every pair without a stored ratio.
func (s *SQLiteStore) UncalibratedPairs(ctx context.Context) ([]domain.Pair, error) {
	return s.queryPairs(ctx, `WHERE p.ratio IS NULL ORDER BY p.from_symbol, p.to_symbol`)
}

func (s *SQLiteStore) queryPairs(ctx context.Context, clause string, args ...any) ([]domain.Pair, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.from_symbol, cf.enabled, p.to_symbol, ct.enabled, p.ratio
		FROM pairs p
		JOIN coins cf ON cf.symbol = p.from_symbol
		JOIN coins ct ON ct.symbol = p.to_symbol
	`+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: query pairs: %w", err)
	}
	defer rows.Close()

	var pairs []domain.Pair
	for rows.Next() {
		var p domain.Pair
		var fromEnabled, toEnabled int
		var ratio sql.NullFloat64
		if err := rows.Scan(&p.From.Symbol, &fromEnabled, &p.To.Symbol, &toEnabled, &ratio); err != nil {
			return nil, fmt.Errorf("storage: scan pair: %w", err)
		}
		p.From.Enabled = fromEnabled == 1
		p.To.Enabled = toEnabled == 1
		p.Ratio = ratio.Float64
		p.Calibrated = ratio.Valid
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

// SetRatio stores the calibration ratio for the pair.
func (s *SQLiteStore) SetRatio(ctx context.Context, from, to string, ratio float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE pairs SET ratio = ? WHERE from_symbol = ? AND to_symbol = ?`,
		ratio, from, to,
	)
	if err != nil {
		return fmt.Errorf("storage.SetRatio: %s->%s: %w", from, to, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("storage.SetRatio: unknown pair %s->%s", from, to)
	}
	return nil
}

// RecordTrade appends one completed transition. A missing ID gets a fresh
// UUID.
func (s *SQLiteStore) RecordTrade(ctx context.Context, trade domain.Trade) error {
	if trade.ID == "" {
		trade.ID = uuid.New().String()
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO trades (id, from_symbol, to_symbol, sell_price, buy_price, executed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, trade.ID, trade.FromSymbol, trade.ToSymbol, trade.SellPrice, trade.BuyPrice, trade.ExecutedAt.UTC(),
	); err != nil {
		return fmt.Errorf("storage.RecordTrade: insert %s->%s: %w", trade.FromSymbol, trade.ToSymbol, err)
	}
	return nil
}

// Trades returns the most recent transitions, newest first.
func (s *SQLiteStore) Trades(ctx context.Context, limit int) ([]domain.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, from_symbol, to_symbol, sell_price, buy_price, executed_at
		FROM trades ORDER BY executed_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.Trades: query: %w", err)
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		var t domain.Trade
		if err := rows.Scan(&t.ID, &t.FromSymbol, &t.ToSymbol, &t.SellPrice, &t.BuyPrice, &t.ExecutedAt); err != nil {
			return nil, fmt.Errorf("storage.Trades: scan: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// SaveCoinValue appends one value snapshot.
func (s *SQLiteStore) SaveCoinValue(ctx context.Context, v domain.CoinValue) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO coin_values (symbol, balance, usd_value, bridge_value, recorded_at)
		VALUES (?, ?, ?, ?, ?)
	`, v.Symbol, v.Balance, v.USDValue, v.BridgeValue, v.RecordedAt.UTC(),
	); err != nil {
		return fmt.Errorf("storage.SaveCoinValue: insert %s: %w", v.Symbol, err)
	}
	return nil
}

// RecentCoinValues returns the newest snapshots first.
func (s *SQLiteStore) RecentCoinValues(ctx context.Context, limit int) ([]domain.CoinValue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, balance, usd_value, bridge_value, recorded_at
		FROM coin_values ORDER BY recorded_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.RecentCoinValues: query: %w", err)
	}
	defer rows.Close()

	var values []domain.CoinValue
	for rows.Next() {
		var v domain.CoinValue
		if err := rows.Scan(&v.Symbol, &v.Balance, &v.USDValue, &v.BridgeValue, &v.RecordedAt); err != nil {
			return nil, fmt.Errorf("storage.RecentCoinValues: scan: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
