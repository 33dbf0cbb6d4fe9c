package marketdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vantage-quant/vantage/internal/contracts"
	"github.com/vantage-quant/vantage/internal/provider"
	"github.com/vantage-quant/vantage/pkg/logger"
)

// ConstituentSource lists current index membership.
type ConstituentSource interface {
	Fetch(ctx context.Context) ([]contracts.Security, error)
}

// SecurityWriter persists the membership list.
type SecurityWriter interface {
	GetActive(ctx context.Context) ([]contracts.Security, error)
	UpsertAll(ctx context.Context, securities []contracts.Security) error
	DeactivateMissing(ctx context.Context, tickers []string) (int64, error)
}

// PriceWriter persists daily bars.
type PriceWriter interface {
	MaxDate(ctx context.Context, ticker string) (time.Time, error)
	SaveBars(ctx context.Context, bars []contracts.PriceBar) error
}

// Loader refreshes the universe and ingests daily price history.
type Loader struct {
	constituents ConstituentSource
	prices       *provider.Provider
	securities   SecurityWriter
	store        PriceWriter
	workers      int
	daysBack     int
	log          *logger.Logger
}

// NewLoader wires a market data loader.
func NewLoader(
	constituents ConstituentSource,
	prices *provider.Provider,
	securities SecurityWriter,
	store PriceWriter,
	workers, daysBack int,
	log *logger.Logger,
) *Loader {
	if workers < 1 {
		workers = 1
	}
	return &Loader{
		constituents: constituents,
		prices:       prices,
		securities:   securities,
		store:        store,
		workers:      workers,
		daysBack:     daysBack,
		log:          log,
	}
}

// RefreshConstituents syncs the securities table with the live index
// membership. Departed tickers are deactivated, never deleted.
func (l *Loader) RefreshConstituents(ctx context.Context) error {
	securities, err := l.constituents.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("marketdata: fetch constituents: %w", err)
	}

	if err := l.securities.UpsertAll(ctx, securities); err != nil {
		return fmt.Errorf("marketdata: upsert constituents: %w", err)
	}

	tickers := make([]string, len(securities))
	for i, s := range securities {
		tickers[i] = s.Ticker
	}
	deactivated, err := l.securities.DeactivateMissing(ctx, tickers)
	if err != nil {
		return fmt.Errorf("marketdata: deactivate departed: %w", err)
	}

	l.log.WithFields(map[string]interface{}{
		"constituents": len(securities),
		"deactivated":  deactivated,
	}).Info("Constituent refresh complete")
	return nil
}

type ingestOutcome struct {
	ticker string
	skip   string
	bars   int
	err    error
}

// Ingest pulls daily bars for the active universe with a worker pool.
// Incremental mode only writes bars newer than each ticker's stored
// max date; a full run rewrites the whole lookback window.
func (l *Loader) Ingest(ctx context.Context, incremental bool) (*contracts.BatchReport, error) {
	securities, err := l.securities.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("marketdata: list active securities: %w", err)
	}

	l.log.WithFields(map[string]interface{}{
		"securities":  len(securities),
		"workers":     l.workers,
		"incremental": incremental,
	}).Info("Starting price ingestion")

	report := contracts.NewBatchReport("ingest")
	secCh := make(chan contracts.Security, len(securities))
	outCh := make(chan ingestOutcome, len(securities))

	var wg sync.WaitGroup
	for i := 0; i < l.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sec := range secCh {
				select {
				case <-ctx.Done():
					outCh <- ingestOutcome{ticker: sec.Ticker, err: ctx.Err()}
					return
				default:
				}
				outCh <- l.ingestOne(ctx, sec, incremental)
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

	totalBars := 0
	for out := range outCh {
		switch {
		case out.err != nil:
			report.Fail(out.ticker, out.err)
		case out.skip != "":
			report.Skip(out.ticker, out.skip)
		default:
			report.Success(out.ticker)
			totalBars += out.bars
		}
	}

	l.log.WithField("bars", totalBars).Info(report.Summary())
	return report, nil
}

// ingestOne commits one security's bars independently so a bad ticker
// never poisons the batch.
func (l *Loader) ingestOne(ctx context.Context, sec contracts.Security, incremental bool) ingestOutcome {
	daysBack := l.daysBack
	var since time.Time

	if incremental {
		maxDate, err := l.store.MaxDate(ctx, sec.Ticker)
		if err != nil {
			return ingestOutcome{ticker: sec.Ticker, err: fmt.Errorf("max bar date: %w", err)}
		}
		if !maxDate.IsZero() {
			since = maxDate
			gap := int(time.Since(maxDate).Hours()/24) + 1
			if gap < daysBack {
				daysBack = gap
			}
		}
	}

	bars, err := l.prices.FetchOne(ctx, sec.Ticker, daysBack)
	if err != nil {
		return ingestOutcome{ticker: sec.Ticker, err: fmt.Errorf("fetch bars: %w", err)}
	}
	if len(bars) == 0 {
		return ingestOutcome{ticker: sec.Ticker, skip: "no source could resolve"}
	}

	if !since.IsZero() {
		fresh := bars[:0]
		for _, b := range bars {
			if b.Date.After(since) {
				fresh = append(fresh, b)
			}
		}
		bars = fresh
		if len(bars) == 0 {
			return ingestOutcome{ticker: sec.Ticker, skip: "already up to date"}
		}
	}

	if err := l.store.SaveBars(ctx, bars); err != nil {
		return ingestOutcome{ticker: sec.Ticker, err: fmt.Errorf("save bars: %w", err)}
	}

	l.log.WithFields(map[string]interface{}{
		"ticker": sec.Ticker,
		"bars":   len(bars),
	}).Debug("bars stored")

	return ingestOutcome{ticker: sec.Ticker, bars: len(bars)}
}
