package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/nmoreno/poolarb/internal/app"
	"github.com/nmoreno/poolarb/pkg/config"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var poolsCmd = &cobra.Command{
	Use:   "pools [address...]",
	Short: "Fetch and display pool state",
	Long: `Fetches the current state of the given pool addresses (or the POOLS
configuration when no addresses are passed) and displays reserves,
prices and fees. Useful for verifying indexer connectivity and pool
configuration before starting the engine.`,
	RunE: runPools,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(poolsCmd)
}

func runPools(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Load .env
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found\n")
	}

	// Load config
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Create logger
	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	addresses := args
	if len(addresses) == 0 {
		addresses = cfg.Pools
	}
	if len(addresses) == 0 {
		return fmt.Errorf("no pools given: pass addresses or set POOLS")
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}
	defer func() {
		_ = application.Shutdown()
	}()

	reg := application.Registry()

	for _, addr := range addresses {
		_, err := reg.AddPool(ctx, common.HexToAddress(addr))
		if err != nil {
			fmt.Printf("✗ %s: %v\n", addr, err)
		}
	}

	pools := reg.Pools()
	if len(pools) == 0 {
		fmt.Println("No pools loaded.")
		return nil
	}

	// Display pools
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ADDRESS\tPAIR\tMID PRICE\tRESERVE X\tRESERVE Y\tFEE\t24H VOLUME\n")
	fmt.Fprintf(w, "-------\t----\t---------\t---------\t---------\t---\t----------\n")

	for _, pool := range pools {
		fmt.Fprintf(w, "%s\t%s/%s\t%.6f\t%.2f\t%.2f\t%.2f%%\t$%.0f\n",
			short(pool.Address.Hex(), 10), pool.TokenX.Symbol, pool.TokenY.Symbol,
			pool.MidPrice(), pool.ReserveX, pool.ReserveY,
			pool.FeeRate*100, pool.Volume24h)
	}

	w.Flush()

	fmt.Printf("\nTotal: %d pools\n", len(pools))

	return nil
}
