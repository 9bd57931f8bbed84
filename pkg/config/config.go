// Package config loads environment-driven settings and the optional
// per-strategy thresholds file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds process-level settings for the decision core.
type Config struct {
	Port     string
	LogLevel string

	// API auth
	JWTSecret string

	// Portfolio and risk limits
	PortfolioValue   float64
	MaxPortfolioRisk float64
	MaxPositionSize  float64

	// Decision cycle pacing (cycles per second in the demo runner).
	CycleRate   float64
	UseMockFeed bool

	// Path to the optional strategies.yaml thresholds file.
	StrategyFile string

	Strategies StrategyConfig
}

// StrategyConfig carries the per-strategy threshold surface. Zero values
// mean "use the strategy default".
type StrategyConfig struct {
	FlashLoan struct {
		MinProfitThreshold float64 `yaml:"min_profit_threshold"`
		MaxGasCost         float64 `yaml:"max_gas_cost"`
		MinLiquidity       float64 `yaml:"min_liquidity"`
	} `yaml:"flash_loan"`
	CrossChain struct {
		MinProfitAfterFees float64  `yaml:"min_profit_after_fees"`
		MaxBridgeTime      int      `yaml:"max_bridge_time"`
		SupportedChains    []string `yaml:"supported_chains"`
	} `yaml:"cross_chain"`
	Liquidation struct {
		MinHealthFactor      float64 `yaml:"min_health_factor"`
		MinLiquidationProfit float64 `yaml:"min_liquidation_profit"`
		MaxGasPrice          float64 `yaml:"max_gas_price"`
	} `yaml:"liquidation"`
	MEV struct {
		MinTransactionSize float64 `yaml:"min_transaction_size"`
		MinExpectedProfit  float64 `yaml:"min_expected_profit"`
		MaxSlippageImpact  float64 `yaml:"max_slippage_impact"`
	} `yaml:"mev"`
	StatArb struct {
		ZScoreThreshold      float64 `yaml:"z_score_threshold"`
		CorrelationThreshold float64 `yaml:"correlation_threshold"`
		LookbackPeriod       int     `yaml:"lookback_period"`
	} `yaml:"stat_arb"`
	Yield struct {
		MinAPY             float64 `yaml:"min_apy"`
		MaxProtocolRisk    float64 `yaml:"max_protocol_risk"`
		RebalanceThreshold float64 `yaml:"rebalance_threshold"`
	} `yaml:"yield"`
}

// Load reads environment variables (optionally via .env) into Config and,
// when present, merges the strategies file.
func Load() (*Config, error) {
	// Ignore error so the process still starts when .env is missing.
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		JWTSecret:        getEnv("JWT_SECRET", "dev-secret"),
		PortfolioValue:   getEnvFloat("PORTFOLIO_VALUE", 100000),
		MaxPortfolioRisk: getEnvFloat("MAX_PORTFOLIO_RISK", 0.02),
		MaxPositionSize:  getEnvFloat("MAX_POSITION_SIZE", 0.1),
		CycleRate:        getEnvFloat("CYCLE_RATE", 1),
		UseMockFeed:      getEnv("USE_MOCK_FEED", "true") == "true",
		StrategyFile:     getEnv("STRATEGY_FILE", ""),
	}

	if cfg.StrategyFile != "" {
		if err := cfg.loadStrategyFile(cfg.StrategyFile); err != nil {
			return nil, fmt.Errorf("load strategy file: %w", err)
		}
	}

	return cfg, nil
}

func (c *Config) loadStrategyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, &c.Strategies)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
