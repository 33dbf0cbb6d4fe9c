package backtest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vantage-quant/vantage/internal/contracts"
	"github.com/vantage-quant/vantage/internal/strategyconfig"
	"github.com/vantage-quant/vantage/pkg/logger"
)

// SecurityStore lists the active universe.
type SecurityStore interface {
	GetActive(ctx context.Context) ([]contracts.Security, error)
}

// PriceStore reads price history for one security.
type PriceStore interface {
	GetBars(ctx context.Context, ticker string, daysBack int) ([]contracts.PriceBar, error)
}

// ForecastStore reads stored forecast history.
type ForecastStore interface {
	GetHistory(ctx context.Context, ticker string) ([]*contracts.Forecast, error)
}

// ResultStore appends backtest results.
type ResultStore interface {
	Save(ctx context.Context, r *contracts.BacktestResult) error
}

// Summary aggregates a batch of per-security results. An empty batch
// is a valid outcome, not an error.
type Summary struct {
	Securities  int     `json:"securities"`
	MeanROI     float64 `json:"mean_roi"`
	MeanAlpha   float64 `json:"mean_alpha"`
	MeanSharpe  float64 `json:"mean_sharpe"`
	TotalTrades int     `json:"total_trades"`
}

// Batch runs the replay over the universe with a worker pool.
type Batch struct {
	runner     *Runner
	securities SecurityStore
	prices     PriceStore
	forecasts  ForecastStore
	results    ResultStore
	workers    int
	daysBack   int
	log        *logger.Logger
}

// NewBatch wires a batch backtester.
func NewBatch(
	cfg *strategyconfig.Config,
	securities SecurityStore,
	prices PriceStore,
	forecasts ForecastStore,
	results ResultStore,
	workers, daysBack int,
	log *logger.Logger,
) *Batch {
	if workers < 1 {
		workers = 1
	}
	return &Batch{
		runner:     NewRunner(cfg),
		securities: securities,
		prices:     prices,
		forecasts:  forecasts,
		results:    results,
		workers:    workers,
		daysBack:   daysBack,
		log:        log,
	}
}

type batchOutcome struct {
	ticker string
	result *contracts.BacktestResult
	skip   string
	err    error
}

// Run replays every active security and aggregates the survivors.
func (b *Batch) Run(ctx context.Context) (*Summary, *contracts.BatchReport, error) {
	securities, err := b.securities.GetActive(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("backtest: list active securities: %w", err)
	}

	b.log.WithFields(map[string]interface{}{
		"securities": len(securities),
		"workers":    b.workers,
	}).Info("Starting backtest batch")

	report := contracts.NewBatchReport("backtest")
	secCh := make(chan contracts.Security, len(securities))
	outCh := make(chan batchOutcome, len(securities))

	var wg sync.WaitGroup
	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sec := range secCh {
				select {
				case <-ctx.Done():
					outCh <- batchOutcome{ticker: sec.Ticker, err: ctx.Err()}
					return
				default:
				}
				outCh <- b.process(ctx, sec)
			}
		}()
	}

	for _, sec := range securities {
		secCh <- sec
	}
	close(secCh)

	go func() {
		wg.Wait()
		close(outCh)
	}()

	summary := &Summary{}
	sumROI, sumAlpha, sumSharpe := 0.0, 0.0, 0.0
	for out := range outCh {
		switch {
		case out.err != nil:
			report.Fail(out.ticker, out.err)
		case out.skip != "":
			report.Skip(out.ticker, out.skip)
		default:
			report.Success(out.ticker)
			summary.Securities++
			summary.TotalTrades += out.result.TradeCount
			sumROI += out.result.ROI
			sumAlpha += out.result.Alpha
			sumSharpe += out.result.SharpeRatio
		}
	}

	if summary.Securities > 0 {
		n := float64(summary.Securities)
		summary.MeanROI = sumROI / n
		summary.MeanAlpha = sumAlpha / n
		summary.MeanSharpe = sumSharpe / n
	}

	b.log.WithFields(map[string]interface{}{
		"mean_roi":    fmt.Sprintf("%.2f", summary.MeanROI),
		"mean_alpha":  fmt.Sprintf("%.2f", summary.MeanAlpha),
		"mean_sharpe": fmt.Sprintf("%.2f", summary.MeanSharpe),
		"trades":      summary.TotalTrades,
	}).Info(report.Summary())

	return summary, report, nil
}

func (b *Batch) process(ctx context.Context, sec contracts.Security) batchOutcome {
	bars, err := b.prices.GetBars(ctx, sec.Ticker, b.daysBack)
	if err != nil {
		return batchOutcome{ticker: sec.Ticker, err: fmt.Errorf("load bars: %w", err)}
	}

	forecasts, err := b.forecasts.GetHistory(ctx, sec.Ticker)
	if err != nil {
		return batchOutcome{ticker: sec.Ticker, err: fmt.Errorf("load forecasts: %w", err)}
	}
	if len(forecasts) == 0 {
		return batchOutcome{ticker: sec.Ticker, skip: "no forecasts"}
	}

	result, err := b.runner.Replay(sec.Ticker, bars, forecasts)
	if err != nil {
		if errors.Is(err, contracts.ErrInsufficientHistory) || errors.Is(err, contracts.ErrMissingUpstreamData) {
			return batchOutcome{ticker: sec.Ticker, skip: err.Error()}
		}
		return batchOutcome{ticker: sec.Ticker, err: err}
	}

	if err := b.results.Save(ctx, result); err != nil {
		return batchOutcome{ticker: sec.Ticker, err: err}
	}
	return batchOutcome{ticker: sec.Ticker, result: result}
}
