package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantage-quant/vantage/internal/contracts"
	"github.com/vantage-quant/vantage/internal/strategyconfig"
)

func testConfig() *strategyconfig.Config {
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

func makeBars(closes []float64) []contracts.PriceBar {
	start := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]contracts.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = contracts.PriceBar{
			Ticker: "TEST",
			Date:   start.AddDate(0, 0, i),
			Open:   c, High: c * 1.01, Low: c * 0.99, Close: c,
			Volume: 1_000_000,
		}
	}
	return bars
}

func constantSeries(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func risingSeries(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func TestComputeSnapshot_InsufficientHistory(t *testing.T) {
	e := NewEngine(testConfig())

	_, err := e.ComputeSnapshot("TEST", makeBars(constantSeries(29, 100)))
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrInsufficientHistory)

	_, err = e.ComputeSnapshot("TEST", nil)
	assert.ErrorIs(t, err, contracts.ErrInsufficientHistory)
}

func TestComputeSnapshot_RisingSeries(t *testing.T) {
	e := NewEngine(testConfig())

	snap, err := e.ComputeSnapshot("TEST", makeBars(risingSeries(60, 100, 1)))
	require.NoError(t, err)

	require.NotNil(t, snap.RSI14)
	assert.InDelta(t, 100.0, *snap.RSI14, 1e-9)

	require.NotNil(t, snap.MACD)
	require.NotNil(t, snap.MACDSignal)
	assert.Greater(t, *snap.MACD, *snap.MACDSignal)

	require.NotNil(t, snap.SMA20)
	require.NotNil(t, snap.SMA50)
	assert.Greater(t, snap.Close, *snap.SMA20)
	assert.Greater(t, snap.Close, *snap.SMA50)

	assert.GreaterOrEqual(t, snap.MomentumScore, 0.0)
	assert.LessOrEqual(t, snap.MomentumScore, 1.0)
}

func TestComputeSnapshot_FallingSeriesRSIZero(t *testing.T) {
	e := NewEngine(testConfig())

	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 500 - float64(i)
	}

	snap, err := e.ComputeSnapshot("TEST", makeBars(closes))
	require.NoError(t, err)
	require.NotNil(t, snap.RSI14)
	assert.InDelta(t, 0.0, *snap.RSI14, 1e-9)
}

func TestComputeSnapshot_FlatSeries(t *testing.T) {
	e := NewEngine(testConfig())

	snap, err := e.ComputeSnapshot("TEST", makeBars(constantSeries(60, 100)))
	require.NoError(t, err)

	// No movement: RSI is undefined, volatility is zero.
	assert.Nil(t, snap.RSI14)
	require.NotNil(t, snap.Volatility)
	assert.InDelta(t, 0.0, *snap.Volatility, 1e-9)

	// Only the low-volatility weight fires.
	assert.InDelta(t, 0.10, snap.MomentumScore, 1e-9)
	assert.False(t, snap.BuySignal)
	assert.True(t, snap.SellSignal)
}

func TestComputeSnapshot_ShortHistoryNilsSMA50(t *testing.T) {
	e := NewEngine(testConfig())

	snap, err := e.ComputeSnapshot("TEST", makeBars(risingSeries(30, 100, 0.5)))
	require.NoError(t, err)

	assert.NotNil(t, snap.SMA20)
	assert.Nil(t, snap.SMA50)
}

func TestComputeSnapshot_FlagsExclusive(t *testing.T) {
	e := NewEngine(testConfig())

	series := [][]float64{
		constantSeries(60, 100),
		risingSeries(60, 100, 1),
		risingSeries(60, 500, -1),
		risingSeries(120, 50, 2),
	}
	for _, closes := range series {
		snap, err := e.ComputeSnapshot("TEST", makeBars(closes))
		require.NoError(t, err)
		assert.False(t, snap.BuySignal && snap.SellSignal)
		assert.GreaterOrEqual(t, snap.MomentumScore, 0.0)
		assert.LessOrEqual(t, snap.MomentumScore, 1.0)
	}
}

func TestRSI_Bounds(t *testing.T) {
	// Alternating gains and losses keep RSI strictly inside (0, 100).
	closes := make([]float64, 40)
	closes[0] = 100
	for i := 1; i < len(closes); i++ {
		if i%2 == 0 {
			closes[i] = closes[i-1] + 2
		} else {
			closes[i] = closes[i-1] - 1
		}
	}

	v := rsi(closes, 14)
	require.False(t, math.IsNaN(v))
	assert.Greater(t, v, 0.0)
	assert.Less(t, v, 100.0)
}

