// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Feed, quoting and chain modes.
const (
	ModeMock    = "mock"
	ModeBinance = "binance"
	ModeJupiter = "jupiter"
	ModeRPC     = "rpc"
)

// Strategy modes.
const (
	StrategySwap      = "swap"
	StrategyArbitrage = "arbitrage"
	StrategyYield     = "yield"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Wallet    WalletConfig    `mapstructure:"wallet"`
	Chain     ChainConfig     `mapstructure:"chain"`
	Market    MarketConfig    `mapstructure:"market"`
	Quoting   QuotingConfig   `mapstructure:"quoting"`
	Strategy  StrategyConfig  `mapstructure:"strategy"`
	Execution ExecutionConfig `mapstructure:"execution"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Health    HealthConfig    `mapstructure:"health"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	TUIMode     bool   `mapstructure:"-"` // set at runtime from flags
}

// WalletConfig points at the agent-wallet credentials file. Address and
// APIToken, when set, override the file.
type WalletConfig struct {
	ConfigPath  string  `mapstructure:"config_path"`
	Address     string  `mapstructure:"address"`
	APIToken    string  `mapstructure:"api_token"`
	MockBalance float64 `mapstructure:"mock_balance"`
	MockTxHash  string  `mapstructure:"mock_tx_hash"`
}

// ChainConfig selects the source of slot and blockhash data.
type ChainConfig struct {
	Mode                 string        `mapstructure:"mode"`
	RPCURL               string        `mapstructure:"rpc_url"`
	Commitment           string        `mapstructure:"commitment"`
	CacheTTL             time.Duration `mapstructure:"cache_ttl"`
	LastValidBlockHeight uint64        `mapstructure:"last_valid_block_height"`
	PriorityFeeLamports  uint64        `mapstructure:"priority_fee_lamports"`
}

// MarketConfig configures the price feed and yield source.
type MarketConfig struct {
	Feed            string        `mapstructure:"feed"`
	InitialPrices   []TokenPrice  `mapstructure:"initial_prices"`
	PriceJitter     float64       `mapstructure:"price_jitter"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	Seed            uint64        `mapstructure:"seed"`
	Pools           []Pool        `mapstructure:"pools"`
	APYJitter       float64       `mapstructure:"apy_jitter"`
	StaleTimeout    time.Duration `mapstructure:"stale_timeout"`
	Binance         BinanceConfig `mapstructure:"binance"`
}

// TokenPrice seeds the mock price feed. Lists are used instead of maps
// because viper lower-cases map keys and symbols are case-sensitive (mSOL).
type TokenPrice struct {
	Symbol string  `mapstructure:"symbol"`
	USD    float64 `mapstructure:"usd"`
}

// Pool seeds the mock yield source. Name is "venue:pair".
type Pool struct {
	Name string  `mapstructure:"name"`
	APY  float64 `mapstructure:"apy"`
}

// HasPool reports whether a pool with name (case-insensitive) is configured.
func (c *MarketConfig) HasPool(name string) bool {
	for _, p := range c.Pools {
		if strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

// BinanceConfig holds the live ticker stream settings.
type BinanceConfig struct {
	WebSocketURL string   `mapstructure:"websocket_url"`
	Symbols      []string `mapstructure:"symbols"` // e.g. SOLUSDT
}

// VenueConfig is the execution band of one mocked venue: quotes are the
// fair cross rate times a factor drawn from [BandLow, BandHigh].
type VenueConfig struct {
	Name     string  `mapstructure:"name"`
	BandLow  float64 `mapstructure:"band_low"`
	BandHigh float64 `mapstructure:"band_high"`
}

// QuotingConfig configures quote venues.
type QuotingConfig struct {
	Mode           string        `mapstructure:"mode"`
	Venues         []VenueConfig `mapstructure:"venues"`
	PriceImpactPct float64       `mapstructure:"price_impact_pct"`
	MockPayload    string        `mapstructure:"mock_payload"`
	Jupiter        JupiterConfig `mapstructure:"jupiter"`
}

// JupiterConfig configures the live aggregator client.
type JupiterConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RequestsPerSec float64       `mapstructure:"requests_per_sec"`
	Burst          int           `mapstructure:"burst"`
	QuoteCacheTTL  time.Duration `mapstructure:"quote_cache_ttl"`
}

// StrategyConfig drives detection.
type StrategyConfig struct {
	Modes       []string        `mapstructure:"modes"`
	Interval    time.Duration   `mapstructure:"interval"`
	InputToken  string          `mapstructure:"input_token"`
	OutputToken string          `mapstructure:"output_token"`
	TradeAmount float64         `mapstructure:"trade_amount"`
	SlippageBps int             `mapstructure:"slippage_bps"`
	Arbitrage   ArbitrageConfig `mapstructure:"arbitrage"`
	Yield       YieldConfig     `mapstructure:"yield"`
}

// ArbitrageConfig holds the arbitrage profit threshold.
type ArbitrageConfig struct {
	MinProfitPct float64 `mapstructure:"min_profit_pct"`
}

// YieldConfig holds the yield-farming comparison settings.
type YieldConfig struct {
	CurrentPool string  `mapstructure:"current_pool"`
	MinAPYDiff  float64 `mapstructure:"min_apy_diff"`
}

// ExecutionConfig controls what execution does after building a transaction.
type ExecutionConfig struct {
	SimulateBroadcast bool `mapstructure:"simulate_broadcast"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider"` // zipkin, console, otlp-grpc, otlp-http
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// HealthConfig holds the health server settings.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// TradeAmountDecimal returns the trade amount as decimal.Decimal.
func (c *StrategyConfig) TradeAmountDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.TradeAmount)
}

// MinProfitPctDecimal returns the arbitrage threshold as decimal.Decimal.
func (c *ArbitrageConfig) MinProfitPctDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinProfitPct)
}

// MinAPYDiffDecimal returns the yield threshold as decimal.Decimal.
func (c *YieldConfig) MinAPYDiffDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinAPYDiff)
}

// ModeEnabled reports whether a strategy mode is switched on.
func (c *StrategyConfig) ModeEnabled(mode string) bool {
	for _, m := range c.Modes {
		if strings.EqualFold(strings.TrimSpace(m), mode) {
			return true
		}
	}
	return false
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("DEFI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file: defaults plus env vars.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("app.name", "DEFI_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "DEFI_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "DEFI_LOG_LEVEL", "LOG_LEVEL")

	v.BindEnv("wallet.config_path", "DEFI_WALLET_CONFIG", "AGENTWALLET_CONFIG")
	v.BindEnv("wallet.address", "DEFI_WALLET_ADDRESS", "SOLANA_ADDRESS")
	v.BindEnv("wallet.api_token", "DEFI_WALLET_API_TOKEN", "AGENTWALLET_API_TOKEN")

	v.BindEnv("chain.mode", "DEFI_CHAIN_MODE")
	v.BindEnv("chain.rpc_url", "DEFI_SOLANA_RPC_URL", "SOLANA_RPC_URL")

	v.BindEnv("market.feed", "DEFI_MARKET_FEED")
	v.BindEnv("market.seed", "DEFI_MARKET_SEED")
	v.BindEnv("market.binance.websocket_url", "DEFI_BINANCE_WS_URL", "BINANCE_WS_URL")

	v.BindEnv("quoting.mode", "DEFI_QUOTING_MODE")
	v.BindEnv("quoting.jupiter.base_url", "DEFI_JUPITER_URL", "JUPITER_API_URL")

	v.BindEnv("strategy.modes", "DEFI_STRATEGY_MODES")
	v.BindEnv("strategy.interval", "DEFI_STRATEGY_INTERVAL")
	v.BindEnv("strategy.arbitrage.min_profit_pct", "DEFI_MIN_PROFIT_PCT")
	v.BindEnv("strategy.yield.min_apy_diff", "DEFI_MIN_APY_DIFF")

	v.BindEnv("execution.simulate_broadcast", "DEFI_SIMULATE_BROADCAST")

	v.BindEnv("telemetry.enabled", "DEFI_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "DEFI_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "DEFI_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")

	v.BindEnv("health.port", "DEFI_HEALTH_PORT")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "defi-optimizer")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("wallet.config_path", "~/.agentwallet/config.json")
	v.SetDefault("wallet.mock_balance", 0.5)
	v.SetDefault("wallet.mock_tx_hash", "mocked_transaction_hash_12345")

	v.SetDefault("chain.mode", ModeMock)
	v.SetDefault("chain.rpc_url", "https://api.mainnet-beta.solana.com")
	v.SetDefault("chain.commitment", "confirmed")
	v.SetDefault("chain.cache_ttl", "2s")
	v.SetDefault("chain.last_valid_block_height", 100000000)
	v.SetDefault("chain.priority_fee_lamports", 1000)

	v.SetDefault("market.feed", ModeMock)
	v.SetDefault("market.initial_prices", []map[string]any{
		{"symbol": "SOL", "usd": 170.0},
		{"symbol": "USDC", "usd": 1.0},
		{"symbol": "USDT", "usd": 1.0},
		{"symbol": "mSOL", "usd": 190.0},
	})
	v.SetDefault("market.price_jitter", 0.005)
	v.SetDefault("market.refresh_interval", "30s")
	v.SetDefault("market.seed", 0)
	v.SetDefault("market.pools", []map[string]any{
		{"name": "raydium:SOL-USDC", "apy": 12.5},
		{"name": "orca:SOL-USDC", "apy": 10.8},
		{"name": "marinade:mSOL", "apy": 7.2},
		{"name": "kamino:USDC", "apy": 8.9},
	})
	v.SetDefault("market.apy_jitter", 1.5)
	v.SetDefault("market.stale_timeout", "10s")
	v.SetDefault("market.binance.websocket_url", "wss://stream.binance.com:9443")
	v.SetDefault("market.binance.symbols", []string{"SOLUSDT"})

	v.SetDefault("quoting.mode", ModeMock)
	v.SetDefault("quoting.venues", []map[string]any{
		{"name": "jupiter", "band_low": 0.997, "band_high": 1.003},
		{"name": "raydium", "band_low": 0.995, "band_high": 1.002},
	})
	v.SetDefault("quoting.price_impact_pct", 0.0001)
	v.SetDefault("quoting.mock_payload", "mocked_base64_unsigned_transaction")
	v.SetDefault("quoting.jupiter.base_url", "https://quote-api.jup.ag/v6")
	v.SetDefault("quoting.jupiter.timeout", "8s")
	v.SetDefault("quoting.jupiter.requests_per_sec", 1)
	v.SetDefault("quoting.jupiter.burst", 2)
	v.SetDefault("quoting.jupiter.quote_cache_ttl", "5s")

	v.SetDefault("strategy.modes", []string{StrategySwap, StrategyArbitrage, StrategyYield})
	v.SetDefault("strategy.interval", "60s")
	v.SetDefault("strategy.input_token", "SOL")
	v.SetDefault("strategy.output_token", "USDC")
	v.SetDefault("strategy.trade_amount", 0.1)
	v.SetDefault("strategy.slippage_bps", 100)
	v.SetDefault("strategy.arbitrage.min_profit_pct", 0.1)
	v.SetDefault("strategy.yield.current_pool", "orca:SOL-USDC")
	v.SetDefault("strategy.yield.min_apy_diff", 2.0)

	v.SetDefault("execution.simulate_broadcast", false)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "defi-optimizer")
	v.SetDefault("telemetry.trace_provider", "zipkin")
	v.SetDefault("telemetry.prometheus_port", 9090)

	v.SetDefault("health.enabled", true)
	v.SetDefault("health.port", 8081)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Chain.Mode {
	case ModeMock, ModeRPC:
	default:
		return fmt.Errorf("chain.mode must be %q or %q, got %q", ModeMock, ModeRPC, c.Chain.Mode)
	}
	if c.Chain.Mode == ModeRPC && c.Chain.RPCURL == "" {
		return fmt.Errorf("chain.rpc_url is required in rpc mode")
	}

	switch c.Market.Feed {
	case ModeMock, ModeBinance:
	default:
		return fmt.Errorf("market.feed must be %q or %q, got %q", ModeMock, ModeBinance, c.Market.Feed)
	}
	if len(c.Market.InitialPrices) == 0 {
		return fmt.Errorf("market.initial_prices cannot be empty")
	}
	for _, p := range c.Market.InitialPrices {
		if p.Symbol == "" || p.USD <= 0 {
			return fmt.Errorf("market.initial_prices: %q needs a symbol and a positive usd price", p.Symbol)
		}
	}
	if c.Market.PriceJitter < 0 || c.Market.PriceJitter >= 1 {
		return fmt.Errorf("market.price_jitter must be in [0, 1)")
	}
	if c.Market.APYJitter < 0 {
		return fmt.Errorf("market.apy_jitter cannot be negative")
	}

	switch c.Quoting.Mode {
	case ModeMock, ModeJupiter:
	default:
		return fmt.Errorf("quoting.mode must be %q or %q, got %q", ModeMock, ModeJupiter, c.Quoting.Mode)
	}
	if c.Quoting.Mode == ModeMock && len(c.Quoting.Venues) == 0 {
		return fmt.Errorf("quoting.venues cannot be empty")
	}
	for _, venue := range c.Quoting.Venues {
		if venue.Name == "" {
			return fmt.Errorf("quoting.venues: name is required")
		}
		if venue.BandLow <= 0 || venue.BandHigh < venue.BandLow {
			return fmt.Errorf("quoting.venues[%s]: need 0 < band_low <= band_high", venue.Name)
		}
	}

	if len(c.Strategy.Modes) == 0 {
		return fmt.Errorf("strategy.modes cannot be empty")
	}
	for _, m := range c.Strategy.Modes {
		switch strings.ToLower(strings.TrimSpace(m)) {
		case StrategySwap, StrategyArbitrage, StrategyYield:
		default:
			return fmt.Errorf("unknown strategy mode %q", m)
		}
	}
	if c.Strategy.Interval <= 0 {
		return fmt.Errorf("strategy.interval must be positive")
	}
	if c.Strategy.TradeAmount <= 0 {
		return fmt.Errorf("strategy.trade_amount must be positive")
	}
	if c.Strategy.SlippageBps < 0 || c.Strategy.SlippageBps > 10000 {
		return fmt.Errorf("strategy.slippage_bps must be in [0, 10000]")
	}
	if c.Strategy.InputToken == "" || c.Strategy.OutputToken == "" {
		return fmt.Errorf("strategy.input_token and strategy.output_token are required")
	}
	if c.Strategy.ModeEnabled(StrategyArbitrage) && c.Quoting.Mode == ModeMock && len(c.Quoting.Venues) < 2 {
		return fmt.Errorf("arbitrage needs at least two quoting.venues")
	}
	if c.Strategy.ModeEnabled(StrategyYield) {
		if len(c.Market.Pools) < 2 {
			return fmt.Errorf("yield strategy needs at least two market.pools")
		}
		if !c.Market.HasPool(c.Strategy.Yield.CurrentPool) {
			return fmt.Errorf("strategy.yield.current_pool %q is not in market.pools", c.Strategy.Yield.CurrentPool)
		}
	}

	return nil
}
