package mlforecast

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

// ForecastStore persists forecasts.
type ForecastStore interface {
	Save(ctx context.Context, f *contracts.Forecast) error
}

// Batch trains and predicts per security across the active universe.
type Batch struct {
	forecaster *Forecaster
	securities SecurityStore
	prices     PriceStore
	forecasts  ForecastStore
	workers    int
	daysBack   int
	log        *logger.Logger
}

// NewBatch wires a forecast batch runner.
func NewBatch(
	cfg *strategyconfig.Config,
	securities SecurityStore,
	prices PriceStore,
	forecasts ForecastStore,
	workers, daysBack int,
	log *logger.Logger,
) *Batch {
	if workers < 1 {
		workers = 1
	}
	return &Batch{
		forecaster: NewForecaster(cfg, log),
		securities: securities,
		prices:     prices,
		forecasts:  forecasts,
		workers:    workers,
		daysBack:   daysBack,
		log:        log,
	}
}

type outcome struct {
	ticker string
	skip   string
	err    error
}

// Run forecasts every active security with a worker pool. Model
// training is CPU bound, so per-security work stays independent and a
// thin universe never aborts the rest.
func (b *Batch) Run(ctx context.Context) (*contracts.BatchReport, error) {
	securities, err := b.securities.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("mlforecast: list active securities: %w", err)
	}

	b.log.WithFields(map[string]interface{}{
		"securities": len(securities),
		"workers":    b.workers,
	}).Info("Starting forecast batch")

	report := contracts.NewBatchReport("forecast")
	secCh := make(chan contracts.Security, len(securities))
	outCh := make(chan outcome, len(securities))

	var wg sync.WaitGroup
	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sec := range secCh {
				select {
				case <-ctx.Done():
					outCh <- outcome{ticker: sec.Ticker, err: ctx.Err()}
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

	for out := range outCh {
		switch {
		case out.err != nil:
			report.Fail(out.ticker, out.err)
		case out.skip != "":
			report.Skip(out.ticker, out.skip)
		default:
			report.Success(out.ticker)
		}
	}

	b.log.Info(report.Summary())
	return report, nil
}

func (b *Batch) process(ctx context.Context, sec contracts.Security) outcome {
	bars, err := b.prices.GetBars(ctx, sec.Ticker, b.daysBack)
	if err != nil {
		return outcome{ticker: sec.Ticker, err: fmt.Errorf("load bars: %w", err)}
	}
	if len(bars) == 0 {
		return outcome{ticker: sec.Ticker, skip: "no price history"}
	}

	fc, err := b.forecaster.Forecast(sec.Ticker, bars)
	if err != nil {
		if errors.Is(err, contracts.ErrInsufficientHistory) {
			return outcome{ticker: sec.Ticker, skip: "insufficient history"}
		}
		return outcome{ticker: sec.Ticker, err: err}
	}

	if err := b.forecasts.Save(ctx, fc); err != nil {
		return outcome{ticker: sec.Ticker, err: err}
	}

	b.log.WithFields(map[string]interface{}{
		"ticker":   sec.Ticker,
		"ml_score": fmt.Sprintf("%.3f", fc.MLScore),
	}).Debug("forecast stored")

	return outcome{ticker: sec.Ticker}
}
