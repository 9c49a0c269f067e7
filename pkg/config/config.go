package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nmoreno/poolarb/pkg/types"
)

// Execution modes.
const (
	ModePaper = "paper"
	ModeLive  = "live"
)

// Storage modes.
const (
	StorageConsole  = "console"
	StoragePostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Chain access
	RPCURL     string
	IndexerURL string
	FeedWSURL  string
	SignerKey  string // hex private key, optional in paper mode

	// Pools to monitor at startup (comma-separated addresses)
	Pools []string

	// Detection
	ScanInterval    time.Duration
	MinProfitUSD    float64
	MaxRiskScore    float64
	StalenessWindow time.Duration

	// Execution
	ExecutionMode           string // "paper" or "live"
	MaxConcurrentExecutions int
	StepTimeout             time.Duration
	CapitalUSD              float64

	// Auto-execution
	AutoExecute          bool
	AutoExecuteMinProfit float64
	AutoExecuteRisk      types.RiskLevel

	// Circuit breaker
	BreakerEnabled     bool
	BreakerMaxLosses   int
	BreakerMaxDrawdown float64
	BreakerCooldown    time.Duration

	// Storage
	StorageMode  string // "postgres" or "console"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		// Chain access defaults
		RPCURL:     os.Getenv("RPC_URL"),
		IndexerURL: getEnvOrDefault("INDEXER_URL", "https://dlmm-api.meteora.ag"),
		FeedWSURL:  os.Getenv("FEED_WS_URL"),
		SignerKey:  os.Getenv("SIGNER_PRIVATE_KEY"),

		Pools: getListOrDefault("POOLS", nil),

		// Detection defaults
		ScanInterval:    getDurationOrDefault("SCAN_INTERVAL", 5*time.Second),
		MinProfitUSD:    getFloat64OrDefault("MIN_PROFIT_USD", 10.0),
		MaxRiskScore:    getFloat64OrDefault("MAX_RISK_SCORE", 0.7),
		StalenessWindow: getDurationOrDefault("OPPORTUNITY_STALENESS_WINDOW", 30*time.Second),

		// Execution defaults
		ExecutionMode:           getEnvOrDefault("EXECUTION_MODE", "paper"),
		MaxConcurrentExecutions: getIntOrDefault("MAX_CONCURRENT_EXECUTIONS", 3),
		StepTimeout:             getDurationOrDefault("STEP_TIMEOUT", 30*time.Second),
		CapitalUSD:              getFloat64OrDefault("CAPITAL_USD", 10_000.0),

		// Auto-execution defaults
		AutoExecute:          getBoolOrDefault("AUTO_EXECUTE", false),
		AutoExecuteMinProfit: getFloat64OrDefault("AUTO_EXECUTE_MIN_PROFIT_USD", 50.0),
		AutoExecuteRisk:      types.RiskLevel(getEnvOrDefault("AUTO_EXECUTE_RISK_TOLERANCE", "medium")),

		// Circuit breaker defaults
		BreakerEnabled:     getBoolOrDefault("BREAKER_ENABLED", true),
		BreakerMaxLosses:   getIntOrDefault("BREAKER_MAX_CONSECUTIVE_LOSSES", 3),
		BreakerMaxDrawdown: getFloat64OrDefault("BREAKER_MAX_DRAWDOWN_USD", 500.0),
		BreakerCooldown:    getDurationOrDefault("BREAKER_COOLDOWN", 30*time.Minute),

		// Storage defaults
		StorageMode:  getEnvOrDefault("STORAGE_MODE", "console"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "poolarb"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "poolarb123"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "poolarb"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.ScanInterval <= 0 {
		return fmt.Errorf("SCAN_INTERVAL must be positive, got %s", c.ScanInterval)
	}

	if c.MaxRiskScore <= 0 || c.MaxRiskScore > 1.0 {
		return fmt.Errorf("MAX_RISK_SCORE must be in (0, 1.0], got %f", c.MaxRiskScore)
	}

	if c.ExecutionMode != ModePaper && c.ExecutionMode != ModeLive {
		return fmt.Errorf("EXECUTION_MODE must be 'paper' or 'live', got %q", c.ExecutionMode)
	}

	if c.ExecutionMode == ModeLive && c.RPCURL == "" {
		return fmt.Errorf("RPC_URL is required when EXECUTION_MODE is 'live'")
	}

	if c.MaxConcurrentExecutions <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_EXECUTIONS must be positive, got %d", c.MaxConcurrentExecutions)
	}

	if !c.AutoExecuteRisk.Valid() {
		return fmt.Errorf("AUTO_EXECUTE_RISK_TOLERANCE must be low, medium, high or extreme, got %q", c.AutoExecuteRisk)
	}

	if c.CapitalUSD <= 0 {
		return fmt.Errorf("CAPITAL_USD must be positive, got %f", c.CapitalUSD)
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

func getListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
