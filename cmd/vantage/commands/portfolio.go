package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vantage-quant/vantage/internal/backtest"
	"github.com/vantage-quant/vantage/internal/mlforecast"
	"github.com/vantage-quant/vantage/internal/portfolio"
)

var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Build the portfolio recommendation",
	Long: `Combines the latest forecasts and backtest results into a
Kelly-sized, sector-capped basket and stores it as the current
recommendation.`,
	RunE: runPortfolio,
}

func init() {
	rootCmd.AddCommand(portfolioCmd)
}

func runPortfolio(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	svc := portfolio.NewService(
		a.strategy,
		a.securities,
		mlforecast.NewRepository(a.db.Pool),
		backtest.NewRepository(a.db.Pool),
		portfolio.NewRepository(a.db.Pool),
		a.strategyHash,
		a.log,
	)

	rec, err := svc.Run(ctx)
	if err != nil {
		return err
	}
	if rec == nil {
		fmt.Println("No recommendation: too few qualifying signals")
		return nil
	}

	fmt.Printf("Recommendation #%d (%d positions, avg Kelly %.3f)\n", rec.ID, len(rec.Positions), rec.AvgKelly)
	for _, pos := range rec.Positions {
		fmt.Printf("  %-6s %-24s weight %.4f kelly %.3f score %.3f\n",
			pos.Ticker, pos.Sector, pos.Weight, pos.KellyFraction, pos.CombinedScore)
	}
	return nil
}
