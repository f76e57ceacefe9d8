package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the complete bot configuration.
type Config struct {
	Trading TradingConfig `yaml:"trading"`
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// TradingConfig controls the rotation strategy.
type TradingConfig struct {
	Bridge                   string      `yaml:"bridge"`
	Coins                    []string    `yaml:"coins"`
	CurrentCoin              string      `yaml:"current_coin"` // empty: pick at random and buy it
	ScoutMultiplier          float64     `yaml:"scout_multiplier"`
	ScoutIntervalSeconds     int         `yaml:"scout_interval_seconds"`
	HeartbeatIntervalMinutes int         `yaml:"heartbeat_interval_minutes"`
	ValueIntervalMinutes     int         `yaml:"value_interval_minutes"`
	FeeDefault               float64     `yaml:"fee_default"` // per-leg fallback when the fee endpoint fails
	BuyRetry                 RetryConfig `yaml:"buy_retry"`
}

// RetryConfig controls the buy leg of a transition. MaxAttempts of zero
// retries until shutdown.
type RetryConfig struct {
	MaxAttempts    int `yaml:"max_attempts"`
	BaseWaitMillis int `yaml:"base_wait_ms"`
	MaxWaitMillis  int `yaml:"max_wait_ms"`
}

// APIConfig holds the exchange endpoint and credentials. Key and Secret
// normally come from the environment, not the YAML file.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Key     string `yaml:"key"`
	Secret  string `yaml:"secret"`
}

// StorageConfig controls where state is persisted.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // SQLite file path, or ":memory:"
}

// LogConfig controls logging format and level.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML config and the .env file if present. Environment
// variables override file values for credentials and logging.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the bot cannot safely start with.
func (c *Config) Validate() error {
	if len(c.Trading.Coins) == 0 {
		return fmt.Errorf("config: trading.coins must not be empty")
	}
	for _, coin := range c.Trading.Coins {
		if strings.EqualFold(coin, c.Trading.Bridge) {
			return fmt.Errorf("config: bridge coin %s must not appear in trading.coins", c.Trading.Bridge)
		}
	}
	if c.Trading.CurrentCoin != "" {
		found := false
		for _, coin := range c.Trading.Coins {
			if strings.EqualFold(coin, c.Trading.CurrentCoin) {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("config: current_coin %s is not in trading.coins", c.Trading.CurrentCoin)
		}
	}
	return nil
}

func (c *Config) ScoutInterval() time.Duration {
	return time.Duration(c.Trading.ScoutIntervalSeconds) * time.Second
}

func (c *Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.Trading.HeartbeatIntervalMinutes) * time.Minute
}

func (c *Config) ValueInterval() time.Duration {
	return time.Duration(c.Trading.ValueIntervalMinutes) * time.Minute
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BINANCE_API_KEY"); v != "" {
		cfg.API.Key = v
	}
	if v := os.Getenv("BINANCE_API_SECRET"); v != "" {
		cfg.API.Secret = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Trading.Bridge == "" {
		cfg.Trading.Bridge = "USDT"
	}
	if cfg.Trading.ScoutMultiplier <= 0 {
		cfg.Trading.ScoutMultiplier = 5
	}
	if cfg.Trading.ScoutIntervalSeconds <= 0 {
		cfg.Trading.ScoutIntervalSeconds = 5
	}
	if cfg.Trading.HeartbeatIntervalMinutes <= 0 {
		cfg.Trading.HeartbeatIntervalMinutes = 60
	}
	if cfg.Trading.ValueIntervalMinutes <= 0 {
		cfg.Trading.ValueIntervalMinutes = 60
	}
	if cfg.Trading.FeeDefault <= 0 {
		cfg.Trading.FeeDefault = 0.001
	}
	if cfg.Trading.BuyRetry.BaseWaitMillis <= 0 {
		cfg.Trading.BuyRetry.BaseWaitMillis = 1000
	}
	if cfg.Trading.BuyRetry.MaxWaitMillis <= 0 {
		cfg.Trading.BuyRetry.MaxWaitMillis = 30000
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "coinhopper.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	cfg.Trading.Bridge = strings.ToUpper(cfg.Trading.Bridge)
	cfg.Trading.CurrentCoin = strings.ToUpper(cfg.Trading.CurrentCoin)
	for i, coin := range cfg.Trading.Coins {
		cfg.Trading.Coins[i] = strings.ToUpper(strings.TrimSpace(coin))
	}
}
