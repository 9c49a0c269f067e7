package storage

import (
	"context"
	"fmt"

	"github.com/nmoreno/poolarb/internal/detector"
	"github.com/nmoreno/poolarb/internal/planner"
	"go.uber.org/zap"
)

// ConsoleStorage implements Storage by pretty-printing to console.
type ConsoleStorage struct {
	logger *zap.Logger
}

// NewConsoleStorage creates a new console storage.
func NewConsoleStorage(logger *zap.Logger) *ConsoleStorage {
	logger.Info("console-storage-initialized")
	return &ConsoleStorage{
		logger: logger,
	}
}

// StoreOpportunity pretty-prints an arbitrage opportunity to console.
func (c *ConsoleStorage) StoreOpportunity(ctx context.Context, opp *detector.Opportunity) error {
	fmt.Println("\n" + "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("🎯 ARBITRAGE OPPORTUNITY DETECTED\n")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("ID:       %s\n", opp.ID[:8])
	fmt.Printf("Type:     %s\n", opp.Type)
	fmt.Printf("Token:    %s\n", opp.InputToken.Symbol)
	fmt.Printf("Time:     %s\n", opp.DetectedAt.Format("2006-01-02 15:04:05"))
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("🔀 ROUTE (%d hops)\n", len(opp.Route))
	for _, hop := range opp.Route {
		fmt.Printf("  %s -> %s  in=%.4f out=%.4f impact=%.4f%%\n",
			hop.TokenIn.Symbol, hop.TokenOut.Symbol, hop.AmountIn, hop.AmountOut, hop.PriceImpact*100)
	}
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("💰 PROFIT ANALYSIS\n")
	fmt.Printf("  Gross Profit:    $%.2f\n", opp.Profit.GrossProfit)
	fmt.Printf("  Gas + Priority:  $%.2f\n", opp.Profit.GasCosts+opp.Profit.PriorityFees)
	fmt.Printf("  Net Profit:      $%.2f (ROI %.2f%%)\n", opp.Profit.NetProfit, opp.Profit.ROI*100)
	fmt.Printf("  Risk:            %s (mean %.2f)  Confidence: %.2f\n",
		opp.Risk.Overall, opp.Risk.Mean(), opp.Confidence)
	if opp.Profit.NetProfit > 0 {
		fmt.Printf("  ✅ PROFITABLE after costs!\n")
	} else {
		fmt.Printf("  ❌ NOT profitable after costs\n")
	}
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	return nil
}

// StoreResult pretty-prints an execution result to console.
func (c *ConsoleStorage) StoreResult(ctx context.Context, planID string, result *planner.ExecutionResult) error {
	fmt.Println("\n" + "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	if result.Success {
		fmt.Printf("✅ EXECUTION COMPLETED\n")
	} else {
		fmt.Printf("❌ EXECUTION FAILED\n")
	}
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("Plan:             %s\n", planID[:8])
	fmt.Printf("Expected Profit:  $%.2f\n", result.ExpectedProfit)
	fmt.Printf("Actual Profit:    $%.2f (variance $%.2f)\n", result.ActualProfit, result.ProfitVariance)
	fmt.Printf("Elapsed:          %s\n", result.Elapsed)
	fmt.Printf("Slippage:         %.4f%%\n", result.SlippageEncountered*100)
	fmt.Printf("Steps:            %d\n", len(result.StepResults))
	for _, lesson := range result.Lessons {
		fmt.Printf("  📝 %s\n", lesson)
	}
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	return nil
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}
