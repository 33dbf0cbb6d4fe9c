package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var fullHistory bool

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Refresh constituents and load daily prices",
	Long: `Syncs the S&P 500 membership list, then pulls daily OHLCV bars
for every active security through the configured source fallback
chain. Incremental by default; --full rewrites the whole lookback
window.`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().BoolVar(&fullHistory, "full", false, "reload the full lookback window")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	loader, err := a.newLoader()
	if err != nil {
		return err
	}

	if err := loader.RefreshConstituents(ctx); err != nil {
		return err
	}

	report, err := loader.Ingest(ctx, !fullHistory)
	if err != nil {
		return err
	}

	ok, skipped, failed := report.Counts()
	fmt.Printf("Ingest complete: %d ok, %d skipped, %d failed\n", ok, skipped, failed)
	for ticker, ferr := range report.Failures() {
		fmt.Printf("  %s: %v\n", ticker, ferr)
	}
	return nil
}
