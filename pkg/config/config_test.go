package config

import (
	"testing"
	"time"

	"github.com/nmoreno/poolarb/pkg/types"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	// Start from a clean environment for the keys we care about
	keys := []string{
		"LOG_LEVEL", "HTTP_PORT", "SCAN_INTERVAL", "MIN_PROFIT_USD",
		"MAX_RISK_SCORE", "EXECUTION_MODE", "MAX_CONCURRENT_EXECUTIONS",
		"AUTO_EXECUTE", "AUTO_EXECUTE_RISK_TOLERANCE", "STORAGE_MODE",
		"CAPITAL_USD", "RPC_URL", "POOLS",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.HTTPPort != "8080" {
		t.Errorf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.ScanInterval != 5*time.Second {
		t.Errorf("expected default scan interval 5s, got %s", cfg.ScanInterval)
	}

	if cfg.MinProfitUSD != 10.0 {
		t.Errorf("expected default min profit 10.0, got %f", cfg.MinProfitUSD)
	}

	if cfg.MaxRiskScore != 0.7 {
		t.Errorf("expected default max risk 0.7, got %f", cfg.MaxRiskScore)
	}

	if cfg.StalenessWindow != 30*time.Second {
		t.Errorf("expected default staleness window 30s, got %s", cfg.StalenessWindow)
	}

	if cfg.ExecutionMode != "paper" {
		t.Errorf("expected default execution mode paper, got %s", cfg.ExecutionMode)
	}

	if cfg.MaxConcurrentExecutions != 3 {
		t.Errorf("expected default concurrency cap 3, got %d", cfg.MaxConcurrentExecutions)
	}

	if cfg.AutoExecute {
		t.Error("expected auto-execute disabled by default")
	}

	if cfg.AutoExecuteRisk != types.RiskMedium {
		t.Errorf("expected default risk tolerance medium, got %s", cfg.AutoExecuteRisk)
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("SCAN_INTERVAL", "250ms")
	t.Setenv("MIN_PROFIT_USD", "25.5")
	t.Setenv("AUTO_EXECUTE", "true")
	t.Setenv("AUTO_EXECUTE_RISK_TOLERANCE", "high")
	t.Setenv("POOLS", "0x1111111111111111111111111111111111111111, 0x2222222222222222222222222222222222222222")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.ScanInterval != 250*time.Millisecond {
		t.Errorf("expected scan interval 250ms, got %s", cfg.ScanInterval)
	}

	if cfg.MinProfitUSD != 25.5 {
		t.Errorf("expected min profit 25.5, got %f", cfg.MinProfitUSD)
	}

	if !cfg.AutoExecute {
		t.Error("expected auto-execute enabled")
	}

	if cfg.AutoExecuteRisk != types.RiskHigh {
		t.Errorf("expected risk tolerance high, got %s", cfg.AutoExecuteRisk)
	}

	if len(cfg.Pools) != 2 {
		t.Fatalf("expected 2 pools, got %d", len(cfg.Pools))
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			HTTPPort:                "8080",
			ScanInterval:            5 * time.Second,
			MaxRiskScore:            0.7,
			ExecutionMode:           "paper",
			MaxConcurrentExecutions: 3,
			AutoExecuteRisk:         types.RiskMedium,
			CapitalUSD:              10_000,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}, wantErr: false},
		{name: "empty-port", mutate: func(c *Config) { c.HTTPPort = "" }, wantErr: true},
		{name: "zero-scan-interval", mutate: func(c *Config) { c.ScanInterval = 0 }, wantErr: true},
		{name: "risk-score-above-one", mutate: func(c *Config) { c.MaxRiskScore = 1.5 }, wantErr: true},
		{name: "bad-execution-mode", mutate: func(c *Config) { c.ExecutionMode = "turbo" }, wantErr: true},
		{name: "live-without-rpc", mutate: func(c *Config) { c.ExecutionMode = "live" }, wantErr: true},
		{name: "zero-concurrency", mutate: func(c *Config) { c.MaxConcurrentExecutions = 0 }, wantErr: true},
		{name: "bad-risk-tolerance", mutate: func(c *Config) { c.AutoExecuteRisk = "reckless" }, wantErr: true},
		{name: "zero-capital", mutate: func(c *Config) { c.CapitalUSD = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"", "debug", "info", "warn", "error"} {
		logger, err := NewLogger(level)
		if err != nil {
			t.Errorf("level %q: expected logger, got %v", level, err)
		}
		if logger != nil {
			_ = logger.Sync()
		}
	}

	_, err := NewLogger("loud")
	if err == nil {
		t.Error("expected error for unknown level")
	}
}
