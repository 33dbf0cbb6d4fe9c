package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vantage-quant/vantage/internal/indicator"
	"github.com/vantage-quant/vantage/internal/mlforecast"
	"github.com/vantage-quant/vantage/internal/portfolio"
	"github.com/vantage-quant/vantage/internal/signals"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pipeline coverage and the latest recommendation",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	fmt.Println("Database: ok")

	activeCount, err := a.securities.CountActive(ctx)
	if err != nil {
		return err
	}
	barCount, err := a.prices.Count(ctx)
	if err != nil {
		return err
	}
	forecastCount, err := mlforecast.NewRepository(a.db.Pool).Count(ctx)
	if err != nil {
		return err
	}
	signalCount, err := signals.NewRepository(a.db.Pool, a.strategy).Count(ctx)
	if err != nil {
		return err
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	snapshotCount, err := indicator.NewRepository(a.db.Pool).CountForDate(ctx, today)
	if err != nil {
		return err
	}

	fmt.Printf("Active securities:  %d\n", activeCount)
	fmt.Printf("Price bars:         %d\n", barCount)
	fmt.Printf("Forecasts:          %d\n", forecastCount)
	fmt.Printf("Trading signals:    %d\n", signalCount)
	fmt.Printf("Snapshots today:    %d\n", snapshotCount)

	rec, err := portfolio.NewRepository(a.db.Pool).GetLatest(ctx)
	if err != nil {
		return err
	}
	if rec == nil {
		fmt.Println("Latest recommendation: none")
		return nil
	}

	fmt.Printf("Latest recommendation: #%d at %s, %d positions, avg Kelly %.3f\n",
		rec.ID, rec.CreatedAt.Format("2006-01-02 15:04"), len(rec.Positions), rec.AvgKelly)
	return nil
}
