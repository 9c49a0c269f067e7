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
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a single detection pass and print the opportunities",
	Long: `Loads the configured pools, runs one detection pass over them and
prints the detected opportunities. Nothing is executed. Useful for
checking pool and threshold configuration before starting the engine.`,
	RunE: runScan,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringSliceP("pool", "p", nil, "Pool address to scan (repeatable, overrides POOLS)")
	scanCmd.Flags().BoolP("verbose", "v", false, "Show route and risk details per opportunity")
}

func runScan(cmd *cobra.Command, args []string) error {
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

	// Get flags
	pools, _ := cmd.Flags().GetStringSlice("pool")
	verbose, _ := cmd.Flags().GetBool("verbose")
	if len(pools) > 0 {
		cfg.Pools = pools
	}

	if len(cfg.Pools) == 0 {
		return fmt.Errorf("no pools configured: set POOLS or pass --pool")
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}
	defer func() {
		_ = application.Shutdown()
	}()

	mgr := application.Manager()

	fmt.Printf("Loading %d pools...\n", len(cfg.Pools))
	for _, addr := range cfg.Pools {
		_, err := mgr.AddPool(ctx, common.HexToAddress(addr))
		if err != nil {
			return fmt.Errorf("add pool %s: %w", addr, err)
		}
	}

	mgr.Scan(ctx)
	opps := mgr.ActiveOpportunities()

	if len(opps) == 0 {
		fmt.Println("No opportunities detected.")
		return nil
	}

	// Display opportunities
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tTYPE\tTOKEN\tHOPS\tNET PROFIT\tROI\tRISK\n")
	fmt.Fprintf(w, "--\t----\t-----\t----\t----------\t---\t----\n")

	for _, opp := range opps {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t$%.2f\t%.2f%%\t%s\n",
			short(opp.ID, 8), opp.Type, opp.InputToken.Symbol, len(opp.Route),
			opp.Profit.NetProfit, opp.Profit.ROI*100, opp.Risk.Overall)

		if verbose {
			for i, hop := range opp.Route {
				fmt.Fprintf(w, "\thop %d: %s -> %s via %s\n",
					i, hop.TokenIn.Symbol, hop.TokenOut.Symbol, short(hop.Pool.Hex(), 10))
			}
			fmt.Fprintf(w, "\tbreakeven: $%.2f, max profitable: $%.2f, confidence: %.2f\n",
				opp.Profit.BreakevenAmount, opp.Profit.MaxProfitableAmount, opp.Confidence)
			fmt.Fprintf(w, "\n")
		}
	}

	w.Flush()

	fmt.Printf("\nTotal: %d opportunities\n", len(opps))

	return nil
}
