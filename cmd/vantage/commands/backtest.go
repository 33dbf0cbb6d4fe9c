package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vantage-quant/vantage/internal/backtest"
	"github.com/vantage-quant/vantage/internal/mlforecast"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay the ML momentum strategy over stored forecasts",
	Long: `Replays a long/flat strategy driven by stored forecast scores
against each security's price history and records ROI, alpha versus
buy-and-hold, Sharpe ratio, max drawdown, and win rate.`,
	RunE: runBacktest,
}

func init() {
	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	batch := backtest.NewBatch(
		a.strategy,
		a.securities,
		a.prices,
		mlforecast.NewRepository(a.db.Pool),
		backtest.NewRepository(a.db.Pool),
		a.cfg.Analytics.Workers,
		a.cfg.Analytics.DaysBack,
		a.log,
	)

	summary, report, err := batch.Run(ctx)
	if err != nil {
		return err
	}

	ok, skipped, failed := report.Counts()
	fmt.Printf("Backtest complete: %d ok, %d skipped, %d failed\n", ok, skipped, failed)
	if summary != nil && summary.Securities > 0 {
		fmt.Printf("  mean ROI %.2f%%, mean alpha %.2f%%, mean Sharpe %.2f, %d trades\n",
			summary.MeanROI, summary.MeanAlpha, summary.MeanSharpe, summary.TotalTrades)
	}
	return nil
}
