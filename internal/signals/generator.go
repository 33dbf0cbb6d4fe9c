package signals

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vantage-quant/vantage/internal/contracts"
	"github.com/vantage-quant/vantage/internal/indicator"
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

// SnapshotStore persists indicator snapshots.
type SnapshotStore interface {
	Save(ctx context.Context, s *contracts.IndicatorSnapshot) error
}

// SignalStore persists trading signals.
type SignalStore interface {
	Save(ctx context.Context, s *contracts.TradingSignal) error
}

// Generator runs the indicator engine over the active universe and
// derives trading signals from the momentum scores.
type Generator struct {
	cfg        *strategyconfig.Config
	engine     *indicator.Engine
	securities SecurityStore
	prices     PriceStore
	snapshots  SnapshotStore
	signals    SignalStore
	workers    int
	daysBack   int
	log        *logger.Logger
}

// NewGenerator wires a signal generator.
func NewGenerator(
	cfg *strategyconfig.Config,
	securities SecurityStore,
	prices PriceStore,
	snapshots SnapshotStore,
	signals SignalStore,
	workers, daysBack int,
	log *logger.Logger,
) *Generator {
	if workers < 1 {
		workers = 1
	}
	return &Generator{
		cfg:        cfg,
		engine:     indicator.NewEngine(cfg),
		securities: securities,
		prices:     prices,
		snapshots:  snapshots,
		signals:    signals,
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

// Run processes every active security with a worker pool. Per-security
// failures are collected into the batch report, never aborting the
// rest of the universe.
func (g *Generator) Run(ctx context.Context) (*contracts.BatchReport, error) {
	securities, err := g.securities.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("signals: list active securities: %w", err)
	}

	g.log.WithFields(map[string]interface{}{
		"securities": len(securities),
		"workers":    g.workers,
	}).Info("Starting signal generation")

	report := contracts.NewBatchReport("signals")
	secCh := make(chan contracts.Security, len(securities))
	outCh := make(chan outcome, len(securities))

	var wg sync.WaitGroup
	for i := 0; i < g.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.worker(ctx, secCh, outCh)
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

	g.log.Info(report.Summary())
	return report, nil
}

func (g *Generator) worker(ctx context.Context, secCh <-chan contracts.Security, outCh chan<- outcome) {
	for sec := range secCh {
		select {
		case <-ctx.Done():
			outCh <- outcome{ticker: sec.Ticker, err: ctx.Err()}
			return
		default:
		}
		outCh <- g.process(ctx, sec)
	}
}

// process computes and persists one security's snapshot and signal.
func (g *Generator) process(ctx context.Context, sec contracts.Security) outcome {
	bars, err := g.prices.GetBars(ctx, sec.Ticker, g.daysBack)
	if err != nil {
		return outcome{ticker: sec.Ticker, err: fmt.Errorf("load bars: %w", err)}
	}
	if len(bars) == 0 {
		return outcome{ticker: sec.Ticker, skip: "no price history"}
	}

	snap, err := g.engine.ComputeSnapshot(sec.Ticker, bars)
	if err != nil {
		if errors.Is(err, contracts.ErrInsufficientHistory) {
			return outcome{ticker: sec.Ticker, skip: "insufficient history"}
		}
		return outcome{ticker: sec.Ticker, err: err}
	}

	if err := g.snapshots.Save(ctx, snap); err != nil {
		return outcome{ticker: sec.Ticker, err: err}
	}

	sig := &contracts.TradingSignal{
		Ticker:     sec.Ticker,
		Date:       snap.Date,
		Action:     g.action(snap.MomentumScore),
		Score:      snap.MomentumScore,
		Confidence: g.cfg.Momentum.SignalConfidence,
	}
	if err := g.signals.Save(ctx, sig); err != nil {
		return outcome{ticker: sec.Ticker, err: err}
	}

	g.log.WithFields(map[string]interface{}{
		"ticker": sec.Ticker,
		"score":  fmt.Sprintf("%.3f", snap.MomentumScore),
		"action": sig.Action,
	}).Debug("signal generated")

	return outcome{ticker: sec.Ticker}
}

func (g *Generator) action(score float64) contracts.SignalAction {
	switch {
	case score > g.cfg.Momentum.BuyThreshold:
		return contracts.ActionBuy
	case score < g.cfg.Momentum.SellThreshold:
		return contracts.ActionSell
	default:
		return contracts.ActionHold
	}
}
