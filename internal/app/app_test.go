package app

import (
	"testing"
	"time"

	"github.com/nmoreno/poolarb/pkg/config"
	"github.com/nmoreno/poolarb/pkg/types"
	"go.uber.org/zap"
)

func paperConfig() *config.Config {
	return &config.Config{
		LogLevel:                "info",
		HTTPPort:                "0",
		ScanInterval:            time.Second,
		MinProfitUSD:            10,
		MaxRiskScore:            0.7,
		StalenessWindow:         30 * time.Second,
		ExecutionMode:           config.ModePaper,
		MaxConcurrentExecutions: 3,
		StepTimeout:             5 * time.Second,
		CapitalUSD:              10_000,
		AutoExecuteRisk:         types.RiskMedium,
		BreakerEnabled:          true,
		BreakerMaxLosses:        3,
		BreakerMaxDrawdown:      500,
		BreakerCooldown:         time.Minute,
		StorageMode:             config.StorageConsole,
	}
}

func TestNew_PaperMode(t *testing.T) {
	a, err := New(paperConfig(), zap.NewNop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}

	if a.Manager() == nil || a.Registry() == nil {
		t.Fatal("expected wired manager and registry")
	}
	if a.chainClient != nil {
		t.Error("paper mode without indexer should not open a chain client")
	}
	if a.poolFeed != nil {
		t.Error("no feed URL configured, feed should be nil")
	}

	if err := a.Shutdown(); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestNew_LiveModeRequiresSigner(t *testing.T) {
	cfg := paperConfig()
	cfg.ExecutionMode = config.ModeLive
	cfg.RPCURL = "http://localhost:8899"
	cfg.IndexerURL = "http://localhost:8080"

	if _, err := New(cfg, zap.NewNop()); err == nil {
		t.Fatal("expected an error without SIGNER_KEY in live mode")
	}
}
