package backtest

import (
	"fmt"
	"math"
	"time"

	"github.com/vantage-quant/vantage/internal/contracts"
	"github.com/vantage-quant/vantage/internal/numeric"
	"github.com/vantage-quant/vantage/internal/strategyconfig"
)

// StrategyName labels stored results from the ml-score replay.
const StrategyName = "ML_Momentum"

const tradingDaysYear = 252

// Runner replays the long/flat ml-score strategy for one security.
type Runner struct {
	cfg *strategyconfig.Config
}

// NewRunner creates a backtest runner.
func NewRunner(cfg *strategyconfig.Config) *Runner {
	return &Runner{cfg: cfg}
}

// Replay simulates the strategy over the security's forecast history.
// The position is binary: all cash or all shares. Entry when ml-score
// crosses above the entry threshold while flat, exit when it drops
// below the exit threshold while holding. One equity point is recorded
// per forecast date; the final equity is marked to the last close.
//
// Fewer than the minimum bars fails with ErrInsufficientHistory, no
// matching forecast dates with ErrMissingUpstreamData. Both are skip
// conditions for the batch, not failures.
func (r *Runner) Replay(ticker string, bars []contracts.PriceBar, forecasts []*contracts.Forecast) (*contracts.BacktestResult, error) {
	bt := r.cfg.Backtest
	if len(bars) < bt.MinBars {
		return nil, fmt.Errorf("backtest: %s has %d bars, need %d: %w",
			ticker, len(bars), bt.MinBars, contracts.ErrInsufficientHistory)
	}

	closes := make(map[string]float64, len(bars))
	for _, b := range bars {
		if b.Close > 0 {
			closes[dateKey(b.Date)] = b.Close
		}
	}

	capital := bt.InitialCapital
	shares := 0.0
	trades := 0
	exits := 0
	equity := []float64{bt.InitialCapital}
	matched := 0

	for _, f := range forecasts {
		price, ok := closes[dateKey(f.Date)]
		if !ok {
			continue
		}
		matched++

		switch {
		case f.MLScore > bt.EntryThreshold && shares == 0:
			shares = capital / price
			trades++
		case f.MLScore < bt.ExitThreshold && shares > 0:
			capital = shares * price
			shares = 0
			trades++
			exits++
		}

		if shares > 0 {
			equity = append(equity, shares*price)
		} else {
			equity = append(equity, capital)
		}
	}

	if matched == 0 {
		return nil, fmt.Errorf("backtest: %s has no forecasts overlapping prices: %w",
			ticker, contracts.ErrMissingUpstreamData)
	}

	firstClose := bars[0].Close
	lastClose := bars[len(bars)-1].Close

	finalEquity := capital
	if shares > 0 {
		finalEquity = shares * lastClose
	}

	roi := (finalEquity/bt.InitialCapital - 1) * 100
	buyHold := 0.0
	if firstClose > 0 {
		buyHold = (lastClose/firstClose - 1) * 100
	}

	// Win rate divides exits by half the trade count, floored at 1.
	winDenom := math.Max(1, float64(trades)/2)

	return &contracts.BacktestResult{
		Strategy:      StrategyName,
		Ticker:        ticker,
		RunDate:       time.Now().UTC(),
		StartDate:     bars[0].Date,
		EndDate:       bars[len(bars)-1].Date,
		InitialValue:  bt.InitialCapital,
		FinalValue:    finalEquity,
		ROI:           roi,
		BuyHoldROI:    buyHold,
		Alpha:         roi - buyHold,
		SharpeRatio:   sharpe(equity),
		MaxDrawdown:   maxDrawdown(equity),
		WinRate:       float64(exits) / winDenom,
		TradeCount:    trades,
		BarsSimulated: matched,
	}, nil
}

// sharpe annualizes mean/stddev of the equity curve's daily returns,
// reporting 0 when the curve has no variance.
func sharpe(equity []float64) float64 {
	returns := numeric.PctChanges(equity)
	if len(returns) < 2 {
		return 0
	}
	std := numeric.SampleStd(returns)
	if std == 0 || math.IsNaN(std) {
		return 0
	}
	return numeric.Mean(returns) / std * math.Sqrt(tradingDaysYear)
}

// maxDrawdown is the largest peak-to-trough decline in percent.
func maxDrawdown(equity []float64) float64 {
	peak := math.Inf(-1)
	maxDD := 0.0
	for _, v := range equity {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd := (peak - v) / peak * 100
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
