package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vantage-quant/vantage/internal/mlforecast"
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Train per-security models and predict prices",
	Long: `Fits a ridge regression per security over engineered features of
its price history and predicts closes at the 1-day and 5-day
horizons, with holdout-based directional confidence.`,
	RunE: runForecast,
}

func init() {
	rootCmd.AddCommand(forecastCmd)
}

func runForecast(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	batch := mlforecast.NewBatch(
		a.strategy,
		a.securities,
		a.prices,
		mlforecast.NewRepository(a.db.Pool),
		a.cfg.Analytics.Workers,
		a.cfg.Analytics.DaysBack,
		a.log,
	)

	report, err := batch.Run(ctx)
	if err != nil {
		return err
	}

	ok, skipped, failed := report.Counts()
	fmt.Printf("Forecast complete: %d ok, %d skipped, %d failed\n", ok, skipped, failed)
	return nil
}
