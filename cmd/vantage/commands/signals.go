package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vantage-quant/vantage/internal/indicator"
	"github.com/vantage-quant/vantage/internal/signals"
)

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "Compute indicator snapshots and trading signals",
	Long: `Runs the indicator engine over every active security's stored
price history, persists the day's indicator snapshot, and derives a
BUY/SELL/HOLD signal from the momentum score.`,
	RunE: runSignals,
}

func init() {
	rootCmd.AddCommand(signalsCmd)
}

func runSignals(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	gen := signals.NewGenerator(
		a.strategy,
		a.securities,
		a.prices,
		indicator.NewRepository(a.db.Pool),
		signals.NewRepository(a.db.Pool, a.strategy),
		a.cfg.Analytics.Workers,
		a.cfg.Analytics.DaysBack,
		a.log,
	)

	report, err := gen.Run(ctx)
	if err != nil {
		return err
	}

	ok, skipped, failed := report.Counts()
	fmt.Printf("Signals complete: %d ok, %d skipped, %d failed\n", ok, skipped, failed)
	return nil
}
