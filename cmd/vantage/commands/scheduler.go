package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vantage-quant/vantage/internal/backtest"
	"github.com/vantage-quant/vantage/internal/indicator"
	"github.com/vantage-quant/vantage/internal/mlforecast"
	"github.com/vantage-quant/vantage/internal/portfolio"
	"github.com/vantage-quant/vantage/internal/scheduler"
	"github.com/vantage-quant/vantage/internal/scheduler/jobs"
	"github.com/vantage-quant/vantage/internal/signals"
)

var runNow bool

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the daily pipeline on a schedule",
	Long: `Starts the long-running scheduler. The daily pipeline fires on
weekdays after the US close: ingest, signals, forecasts, backtests,
then the portfolio recommendation.`,
	RunE: runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.Flags().BoolVar(&runNow, "now", false, "trigger the pipeline immediately on startup")
}

func runScheduler(cmd *cobra.Command, args []string) error {
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

	forecastRepo := mlforecast.NewRepository(a.db.Pool)
	pipeline := jobs.NewDailyPipelineJob(
		loader,
		signals.NewGenerator(
			a.strategy,
			a.securities,
			a.prices,
			indicator.NewRepository(a.db.Pool),
			signals.NewRepository(a.db.Pool, a.strategy),
			a.cfg.Analytics.Workers,
			a.cfg.Analytics.DaysBack,
			a.log,
		),
		mlforecast.NewBatch(
			a.strategy,
			a.securities,
			a.prices,
			forecastRepo,
			a.cfg.Analytics.Workers,
			a.cfg.Analytics.DaysBack,
			a.log,
		),
		backtest.NewBatch(
			a.strategy,
			a.securities,
			a.prices,
			forecastRepo,
			backtest.NewRepository(a.db.Pool),
			a.cfg.Analytics.Workers,
			a.cfg.Analytics.DaysBack,
			a.log,
		),
		portfolio.NewService(
			a.strategy,
			a.securities,
			forecastRepo,
			backtest.NewRepository(a.db.Pool),
			portfolio.NewRepository(a.db.Pool),
			a.strategyHash,
			a.log,
		),
		a.log,
	)

	sched := scheduler.New(a.log,
		scheduler.WithMaxRetries(a.cfg.Analytics.JobMaxRetries),
		scheduler.WithRetryDelay(a.cfg.Analytics.JobRetryDelay),
	)
	if err := sched.AddJob(pipeline); err != nil {
		return err
	}

	sched.Start()
	defer sched.Stop()

	if runNow {
		if err := sched.RunNow(pipeline.Name()); err != nil {
			return err
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	a.log.WithField("signal", sig.String()).Info("Shutdown signal received")
	return nil
}
