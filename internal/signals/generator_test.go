package signals

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantage-quant/vantage/internal/contracts"
	"github.com/vantage-quant/vantage/internal/strategyconfig"
	"github.com/vantage-quant/vantage/pkg/logger"
)

type fakeSecurityStore struct {
	securities []contracts.Security
}

func (f *fakeSecurityStore) GetActive(ctx context.Context) ([]contracts.Security, error) {
	return f.securities, nil
}

type fakePriceStore struct {
	bars map[string][]contracts.PriceBar
	errs map[string]error
}

func (f *fakePriceStore) GetBars(ctx context.Context, ticker string, daysBack int) ([]contracts.PriceBar, error) {
	if err, ok := f.errs[ticker]; ok {
		return nil, err
	}
	return f.bars[ticker], nil
}

type fakeSnapshotStore struct {
	mu    sync.Mutex
	saved []*contracts.IndicatorSnapshot
}

func (f *fakeSnapshotStore) Save(ctx context.Context, s *contracts.IndicatorSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, s)
	return nil
}

type fakeSignalStore struct {
	mu    sync.Mutex
	saved []*contracts.TradingSignal
}

func (f *fakeSignalStore) Save(ctx context.Context, s *contracts.TradingSignal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, s)
	return nil
}

func generatorConfig() *strategyconfig.Config {
	return &strategyconfig.Config{
		Momentum: strategyconfig.Momentum{
			RSIOversold: 30, RSIOverbought: 70,
			WeightRSI: 0.30, WeightMACD: 0.25, WeightSMA20: 0.20,
			WeightSMA50: 0.15, WeightLowVol: 0.10,
			LowVolThreshold: 30, BuyThreshold: 0.7, SellThreshold: 0.3,
			MinHistoryBars: 30, SignalConfidence: 0.75,
		},
	}
}

func barsFor(ticker string, closes []float64) []contracts.PriceBar {
	start := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]contracts.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = contracts.PriceBar{
			Ticker: ticker, Date: start.AddDate(0, 0, i),
			Open: c, High: c * 1.01, Low: c * 0.99, Close: c,
			Volume: 1_000_000,
		}
	}
	return bars
}

func TestGenerator_Run(t *testing.T) {
	flat := make([]float64, 60)
	for i := range flat {
		flat[i] = 100
	}
	short := []float64{100, 101, 102}

	securities := &fakeSecurityStore{securities: []contracts.Security{
		{Ticker: "OK", Active: true},
		{Ticker: "SHORT", Active: true},
		{Ticker: "BROKEN", Active: true},
		{Ticker: "EMPTY", Active: true},
	}}
	prices := &fakePriceStore{
		bars: map[string][]contracts.PriceBar{
			"OK":    barsFor("OK", flat),
			"SHORT": barsFor("SHORT", short),
		},
		errs: map[string]error{"BROKEN": errors.New("connection reset")},
	}
	snapshots := &fakeSnapshotStore{}
	sigs := &fakeSignalStore{}

	g := NewGenerator(generatorConfig(), securities, prices, snapshots, sigs, 3, 365, logger.NewNop())

	report, err := g.Run(context.Background())
	require.NoError(t, err)

	ok, skipped, failed := report.Counts()
	assert.Equal(t, 1, ok)
	assert.Equal(t, 2, skipped)
	assert.Equal(t, 1, failed)

	require.Len(t, snapshots.saved, 1)
	require.Len(t, sigs.saved, 1)

	sig := sigs.saved[0]
	assert.Equal(t, "OK", sig.Ticker)
	// A flat series scores only the low-volatility weight: SELL.
	assert.Equal(t, contracts.ActionSell, sig.Action)
	assert.InDelta(t, 0.10, sig.Score, 1e-9)
	assert.Equal(t, 0.75, sig.Confidence)
}

func TestGenerator_ActionThresholds(t *testing.T) {
	g := NewGenerator(generatorConfig(), nil, nil, nil, nil, 1, 365, logger.NewNop())

	assert.Equal(t, contracts.ActionBuy, g.action(0.75))
	assert.Equal(t, contracts.ActionHold, g.action(0.7))
	assert.Equal(t, contracts.ActionHold, g.action(0.5))
	assert.Equal(t, contracts.ActionHold, g.action(0.3))
	assert.Equal(t, contracts.ActionSell, g.action(0.25))
}

func TestGenerator_CancelledContext(t *testing.T) {
	securities := &fakeSecurityStore{securities: []contracts.Security{
		{Ticker: "A", Active: true},
		{Ticker: "B", Active: true},
	}}
	prices := &fakePriceStore{bars: map[string][]contracts.PriceBar{}}

	g := NewGenerator(generatorConfig(), securities, prices, &fakeSnapshotStore{}, &fakeSignalStore{}, 1, 365, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := g.Run(ctx)
	require.NoError(t, err)
	_, _, failed := report.Counts()
	assert.GreaterOrEqual(t, failed, 1)
}
