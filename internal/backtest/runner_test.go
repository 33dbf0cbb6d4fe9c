package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantage-quant/vantage/internal/contracts"
	"github.com/vantage-quant/vantage/internal/strategyconfig"
)

func backtestConfig() *strategyconfig.Config {
	return &strategyconfig.Config{
		Backtest: strategyconfig.Backtest{
			InitialCapital: 10000,
			EntryThreshold: 0.7,
			ExitThreshold:  0.3,
			MinBars:        50,
		},
	}
}

var barStart = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

func priceBars(closes []float64) []contracts.PriceBar {
	bars := make([]contracts.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = contracts.PriceBar{
			Ticker: "TEST", Date: barStart.AddDate(0, 0, i),
			Open: c, High: c, Low: c, Close: c, Volume: 1000,
		}
	}
	return bars
}

func forecastAt(barIndex int, mlScore float64) *contracts.Forecast {
	return &contracts.Forecast{
		Ticker:  "TEST",
		Date:    barStart.AddDate(0, 0, barIndex),
		MLScore: mlScore,
	}
}

func TestReplay_InsufficientBars(t *testing.T) {
	r := NewRunner(backtestConfig())

	_, err := r.Replay("TEST", priceBars(make([]float64, 49)), []*contracts.Forecast{forecastAt(0, 0.8)})
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrInsufficientHistory)
}

func TestReplay_NoOverlappingForecasts(t *testing.T) {
	r := NewRunner(backtestConfig())

	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}

	// Forecast dated far outside the price window.
	f := &contracts.Forecast{Ticker: "TEST", Date: barStart.AddDate(1, 0, 0), MLScore: 0.9}
	_, err := r.Replay("TEST", priceBars(closes), []*contracts.Forecast{f})
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrMissingUpstreamData)
}

func TestReplay_FlatSeriesNoTrades(t *testing.T) {
	r := NewRunner(backtestConfig())

	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}
	forecasts := []*contracts.Forecast{
		forecastAt(10, 0.5),
		forecastAt(20, 0.6),
		forecastAt(30, 0.4),
	}

	res, err := r.Replay("TEST", priceBars(closes), forecasts)
	require.NoError(t, err)

	assert.Equal(t, 0, res.TradeCount)
	assert.InDelta(t, 0.0, res.ROI, 1e-9)
	assert.Equal(t, 0.0, res.SharpeRatio)
	assert.Equal(t, 0.0, res.MaxDrawdown)
	assert.Equal(t, 0.0, res.WinRate)
	assert.Equal(t, 3, res.BarsSimulated)
	assert.Equal(t, StrategyName, res.Strategy)
}

func TestReplay_RoundTrip(t *testing.T) {
	r := NewRunner(backtestConfig())

	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	forecasts := []*contracts.Forecast{
		forecastAt(5, 0.8),  // enter at 105
		forecastAt(20, 0.2), // exit at 120
	}

	res, err := r.Replay("TEST", priceBars(closes), forecasts)
	require.NoError(t, err)

	assert.Equal(t, 2, res.TradeCount)
	assert.InDelta(t, (120.0/105.0-1)*100, res.ROI, 1e-9)
	assert.InDelta(t, 10000*120.0/105.0, res.FinalValue, 1e-6)
	assert.InDelta(t, 59.0, res.BuyHoldROI, 1e-9)
	assert.InDelta(t, res.ROI-59.0, res.Alpha, 1e-9)
	// One exit over one round trip.
	assert.InDelta(t, 1.0, res.WinRate, 1e-9)
	assert.Greater(t, res.SharpeRatio, 0.0)
}

func TestReplay_OpenPositionMarkedToMarket(t *testing.T) {
	r := NewRunner(backtestConfig())

	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	forecasts := []*contracts.Forecast{forecastAt(5, 0.9)}

	res, err := r.Replay("TEST", priceBars(closes), forecasts)
	require.NoError(t, err)

	assert.Equal(t, 1, res.TradeCount)
	// Entered at 105, final close 159.
	assert.InDelta(t, (159.0/105.0-1)*100, res.ROI, 1e-9)
	// No exit events yet.
	assert.Equal(t, 0.0, res.WinRate)
}

func TestReplay_DrawdownTracksTrough(t *testing.T) {
	r := NewRunner(backtestConfig())

	// Rise then halve while holding.
	closes := make([]float64, 60)
	for i := range closes {
		switch {
		case i < 20:
			closes[i] = 100 + float64(i)
		default:
			closes[i] = 60
		}
	}
	forecasts := []*contracts.Forecast{
		forecastAt(0, 0.9),
		forecastAt(19, 0.5),
		forecastAt(30, 0.5),
	}

	res, err := r.Replay("TEST", priceBars(closes), forecasts)
	require.NoError(t, err)

	// Peak equity at close 119, trough at 60.
	assert.InDelta(t, (119.0-60.0)/119.0*100, res.MaxDrawdown, 1e-9)
}
