package portfolio

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantage-quant/vantage/internal/contracts"
	"github.com/vantage-quant/vantage/internal/strategyconfig"
	"github.com/vantage-quant/vantage/pkg/logger"
)

func portfolioConfig() *strategyconfig.Config {
	return &strategyconfig.Config{
		Portfolio: strategyconfig.Portfolio{
			MLScoreFloor:       0.65,
			MinCandidates:      5,
			ShortlistSize:      12,
			BasketSize:         10,
			KellyFloor:         0.02,
			KellyCap:           0.18,
			MinEdgeReturn:      0.05,
			DefaultBacktestROI: 12,
			SectorCap:          0.25,
			DefaultSectorShare: 0.08,
			ReportedSharpe:     1.75,
		},
	}
}

func universe(n int, sectors []string) (map[string]contracts.Security, map[string]*contracts.Forecast) {
	securities := make(map[string]contracts.Security)
	forecasts := make(map[string]*contracts.Forecast)
	for i := 0; i < n; i++ {
		ticker := fmt.Sprintf("SEC%02d", i)
		securities[ticker] = contracts.Security{
			Ticker: ticker,
			Sector: sectors[i%len(sectors)],
			Active: true,
		}
		forecasts[ticker] = &contracts.Forecast{
			Ticker:       ticker,
			MLScore:      0.8,
			Confidence1D: 0.75,
		}
	}
	return securities, forecasts
}

func TestKellyFraction_Clamped(t *testing.T) {
	cfg := portfolioConfig()
	cfg.Portfolio.MinEdgeReturn = 0 // expose the r=0 edge case
	o := NewOptimizer(cfg, logger.NewNop())

	cases := []struct {
		p, r float64
	}{
		{0, 0}, {0, 0.5}, {0.5, 0.1}, {0.8, 0.12},
		{1, 0.01}, {1, 10}, {0.3, 0}, {0.99, 0.0001},
	}
	for _, tc := range cases {
		k := o.kellyFraction(tc.p, tc.r)
		assert.GreaterOrEqual(t, k, 0.02, "p=%v r=%v", tc.p, tc.r)
		assert.LessOrEqual(t, k, 0.18, "p=%v r=%v", tc.p, tc.r)
	}

	// Zero edge return takes the conservative floor.
	assert.Equal(t, 0.02, o.kellyFraction(0.9, 0))
}

func TestKellyFraction_HighConvictionHitsCap(t *testing.T) {
	o := NewOptimizer(portfolioConfig(), logger.NewNop())

	// p=0.8, r=0.12: b=9.333, raw kelly ~0.779, clamps to the cap.
	assert.InDelta(t, 0.18, o.kellyFraction(0.8, 0.12), 1e-9)
}

func TestOptimize_FiveSecurityScenario(t *testing.T) {
	o := NewOptimizer(portfolioConfig(), logger.NewNop())
	securities, forecasts := universe(5, []string{"Tech", "Energy", "Health", "Finance", "Retail"})

	rec, err := o.Optimize(securities, forecasts, nil)
	require.NoError(t, err)
	require.NotNil(t, rec)

	require.Len(t, rec.Positions, 5)
	assert.Equal(t, 5, rec.CandidateSize)
	assert.Equal(t, 1.75, rec.ExpectedSharpe)

	sum := 0.0
	for _, pos := range rec.Positions {
		assert.GreaterOrEqual(t, pos.Weight, 0.0)
		// Default backtest edge of 12% with p=0.8 saturates the cap.
		assert.InDelta(t, 0.18, pos.KellyFraction, 1e-9)
		assert.InDelta(t, 0.2, pos.Weight, 1e-9)
		sum += pos.Weight
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
	assert.InDelta(t, 0.18, rec.AvgKelly, 1e-9)
}

func TestOptimize_TooFewCandidates(t *testing.T) {
	o := NewOptimizer(portfolioConfig(), logger.NewNop())
	securities, forecasts := universe(6, []string{"Tech"})

	// Only three clear the ml-score floor.
	forecasts["SEC03"].MLScore = 0.5
	forecasts["SEC04"].MLScore = 0.65 // floor is exclusive
	forecasts["SEC05"].MLScore = 0.1

	rec, err := o.Optimize(securities, forecasts, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrInsufficientSignals)
	assert.Nil(t, rec)
}

func TestOptimize_SectorCap(t *testing.T) {
	o := NewOptimizer(portfolioConfig(), logger.NewNop())

	// Nine of ten candidates share a sector; its pre-cap share would be
	// 0.9 and must cap at 0.25.
	sectors := []string{"Tech", "Tech", "Tech", "Tech", "Tech", "Tech", "Tech", "Tech", "Tech", "Energy"}
	securities, forecasts := universe(10, sectors)

	rec, err := o.Optimize(securities, forecasts, nil)
	require.NoError(t, err)

	// Tech caps at 0.25 instead of its raw 0.9 share; Energy keeps its
	// raw 0.1. Each Tech position still outweighs the lone Energy one,
	// but by the capped 0.25/0.1 ratio rather than 0.9/0.1.
	var energyWeight, maxTechWeight float64
	for _, pos := range rec.Positions {
		switch pos.Sector {
		case "Energy":
			energyWeight = pos.Weight
		case "Tech":
			if pos.Weight > maxTechWeight {
				maxTechWeight = pos.Weight
			}
		}
	}
	assert.Greater(t, energyWeight, 0.0)
	assert.Greater(t, maxTechWeight, energyWeight)

	sum := 0.0
	for _, pos := range rec.Positions {
		sum += pos.Weight
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
}

func TestOptimize_BasketTruncation(t *testing.T) {
	o := NewOptimizer(portfolioConfig(), logger.NewNop())
	securities, forecasts := universe(20, []string{"A", "B", "C", "D"})

	// Spread ml-scores so ranking is deterministic.
	for i := 0; i < 20; i++ {
		ticker := fmt.Sprintf("SEC%02d", i)
		forecasts[ticker].MLScore = 0.66 + float64(i)*0.015
	}

	rec, err := o.Optimize(securities, forecasts, nil)
	require.NoError(t, err)

	assert.Len(t, rec.Positions, 10)
	assert.Equal(t, 20, rec.CandidateSize)

	// Positions come out ordered by weight descending.
	for i := 1; i < len(rec.Positions); i++ {
		assert.GreaterOrEqual(t, rec.Positions[i-1].Weight, rec.Positions[i].Weight)
	}

	sum := 0.0
	for _, pos := range rec.Positions {
		sum += pos.Weight
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
}

func TestOptimize_BacktestROIFeedsKelly(t *testing.T) {
	o := NewOptimizer(portfolioConfig(), logger.NewNop())
	securities, forecasts := universe(5, []string{"Tech", "Energy", "Health", "Finance", "Retail"})

	backtests := map[string]*contracts.BacktestResult{
		"SEC00": {Ticker: "SEC00", ROI: -40}, // negative edge floors at min edge return
	}

	rec, err := o.Optimize(securities, forecasts, backtests)
	require.NoError(t, err)

	var found bool
	for _, pos := range rec.Positions {
		if pos.Ticker == "SEC00" {
			found = true
			assert.Equal(t, -40.0, pos.BacktestROI)
			// r = max(0.05, -0.4) = 0.05, p = 0.8 still caps out.
			assert.InDelta(t, 0.18, pos.KellyFraction, 1e-9)
		}
	}
	assert.True(t, found)

	require.True(t, math.Abs(rec.AvgKelly-0.18) < 1e-9)
}
