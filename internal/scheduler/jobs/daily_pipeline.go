package jobs

import (
	"context"
	"fmt"

	"github.com/vantage-quant/vantage/internal/backtest"
	"github.com/vantage-quant/vantage/internal/marketdata"
	"github.com/vantage-quant/vantage/internal/mlforecast"
	"github.com/vantage-quant/vantage/internal/portfolio"
	"github.com/vantage-quant/vantage/internal/signals"
	"github.com/vantage-quant/vantage/pkg/logger"
)

// DailyPipelineJob runs the full analytics sequence after the US close:
// ingest, signals, forecasts, backtests, then the portfolio
// recommendation. Each stage tolerates per-security failures; only a
// stage-level error aborts the run.
type DailyPipelineJob struct {
	loader     *marketdata.Loader
	signals    *signals.Generator
	forecasts  *mlforecast.Batch
	backtests  *backtest.Batch
	portfolios *portfolio.Service
	logger     *logger.Logger
}

func NewDailyPipelineJob(
	loader *marketdata.Loader,
	sig *signals.Generator,
	forecasts *mlforecast.Batch,
	backtests *backtest.Batch,
	portfolios *portfolio.Service,
	log *logger.Logger,
) *DailyPipelineJob {
	return &DailyPipelineJob{
		loader:     loader,
		signals:    sig,
		forecasts:  forecasts,
		backtests:  backtests,
		portfolios: portfolios,
		logger:     log,
	}
}

func (j *DailyPipelineJob) Name() string {
	return "daily_pipeline"
}

// Schedule fires at 22:30 UTC on weekdays, after the 21:00 UTC NYSE
// close and vendor end-of-day publication.
func (j *DailyPipelineJob) Schedule() string {
	return "0 30 22 * * 1-5"
}

func (j *DailyPipelineJob) Run(ctx context.Context) error {
	j.logger.Info("Starting daily pipeline")

	if err := j.loader.RefreshConstituents(ctx); err != nil {
		return fmt.Errorf("refresh constituents: %w", err)
	}
	if _, err := j.loader.Ingest(ctx, true); err != nil {
		return fmt.Errorf("ingest prices: %w", err)
	}
	if _, err := j.signals.Run(ctx); err != nil {
		return fmt.Errorf("generate signals: %w", err)
	}
	if _, err := j.forecasts.Run(ctx); err != nil {
		return fmt.Errorf("run forecasts: %w", err)
	}
	if _, _, err := j.backtests.Run(ctx); err != nil {
		return fmt.Errorf("run backtests: %w", err)
	}
	if _, err := j.portfolios.Run(ctx); err != nil {
		return fmt.Errorf("build recommendation: %w", err)
	}

	j.logger.Info("Daily pipeline complete")
	return nil
}
