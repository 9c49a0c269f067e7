package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "poolarb",
	Short: "Cross-pool arbitrage engine",
	Long: `Cross-pool arbitrage engine that monitors liquidity pools,
detects price discrepancies across pools sharing token pairs,
and plans and executes multi-step arbitrage trades.

The engine tracks pool state via an indexer or a live update feed,
scores every candidate route for profitability and risk, and runs
executions in paper or live mode behind a circuit breaker.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	// Flags can be added here if needed
}
