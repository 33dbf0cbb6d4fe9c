package indicator

import (
	"fmt"
	"math"

	"github.com/vantage-quant/vantage/internal/contracts"
	"github.com/vantage-quant/vantage/internal/numeric"
	"github.com/vantage-quant/vantage/internal/strategyconfig"
)

const (
	rsiPeriod        = 14
	macdFastPeriod   = 12
	macdSlowPeriod   = 26
	macdSignalPeriod = 9
	smaShortPeriod   = 20
	smaLongPeriod    = 50
	bollingerPeriod  = 20
	bollingerWidth   = 2.0
	volatilityWindow = 20
	tradingDaysYear  = 252
)

// Engine computes technical indicator snapshots from daily price bars.
type Engine struct {
	cfg *strategyconfig.Config
}

// NewEngine creates an indicator engine with the given strategy config.
func NewEngine(cfg *strategyconfig.Config) *Engine {
	return &Engine{cfg: cfg}
}

// ComputeSnapshot computes the latest indicator snapshot for one
// security. Bars must be sorted ascending by date. Securities with
// fewer bars than the minimum history fail with ErrInsufficientHistory.
// Indicators whose lookback exceeds the available history come back nil
// and do not contribute to the momentum score.
func (e *Engine) ComputeSnapshot(ticker string, bars []contracts.PriceBar) (*contracts.IndicatorSnapshot, error) {
	if len(bars) < e.cfg.Momentum.MinHistoryBars {
		return nil, fmt.Errorf("indicator: %s has %d bars, need %d: %w",
			ticker, len(bars), e.cfg.Momentum.MinHistoryBars, contracts.ErrInsufficientHistory)
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	last := bars[len(bars)-1]
	snap := &contracts.IndicatorSnapshot{
		Ticker: ticker,
		Date:   last.Date,
		Close:  last.Close,
	}

	snap.RSI14 = floatPtr(rsi(closes, rsiPeriod))

	macdLine, signalLine := macd(closes)
	snap.MACD = floatPtr(macdLine)
	snap.MACDSignal = floatPtr(signalLine)

	snap.SMA20 = floatPtr(numeric.SMA(closes, smaShortPeriod))
	snap.SMA50 = floatPtr(numeric.SMA(closes, smaLongPeriod))

	mid := numeric.SMA(closes, bollingerPeriod)
	if !math.IsNaN(mid) {
		std := numeric.SampleStd(closes[len(closes)-bollingerPeriod:])
		snap.BollingerUp = floatPtr(mid + bollingerWidth*std)
		snap.BollingerDown = floatPtr(mid - bollingerWidth*std)
	}

	snap.Volatility = floatPtr(annualizedVolatility(closes))

	snap.MomentumScore = e.momentumScore(snap)
	snap.BuySignal = snap.MomentumScore > e.cfg.Momentum.BuyThreshold
	snap.SellSignal = snap.MomentumScore < e.cfg.Momentum.SellThreshold

	return snap, nil
}

// momentumScore combines the indicator readings into a [0, 1] score.
// Nil indicators are skipped, so a security with limited history is
// scored on whatever is available.
func (e *Engine) momentumScore(s *contracts.IndicatorSnapshot) float64 {
	m := e.cfg.Momentum
	score := 0.0

	if s.RSI14 != nil {
		switch {
		case *s.RSI14 < m.RSIOversold:
			score += m.WeightRSI
		case *s.RSI14 > m.RSIOverbought:
			score -= m.WeightRSI
		}
	}
	if s.MACD != nil && s.MACDSignal != nil && *s.MACD > *s.MACDSignal {
		score += m.WeightMACD
	}
	if s.SMA20 != nil && s.Close > *s.SMA20 {
		score += m.WeightSMA20
	}
	if s.SMA50 != nil && s.Close > *s.SMA50 {
		score += m.WeightSMA50
	}
	if s.Volatility != nil && *s.Volatility < m.LowVolThreshold {
		score += m.WeightLowVol
	}

	return numeric.Clamp(score, 0, 1)
}

// rsi returns the relative strength index over the trailing period,
// using simple rolling means of gains and losses. A window with zero
// losses saturates to 100, and zero gains to 0.
func rsi(closes []float64, period int) float64 {
	if len(closes) < period+1 {
		return math.NaN()
	}

	window := closes[len(closes)-period-1:]
	gainSum, lossSum := 0.0, 0.0
	for i := 1; i < len(window); i++ {
		delta := window[i] - window[i-1]
		if delta > 0 {
			gainSum += delta
		} else {
			lossSum -= delta
		}
	}

	if lossSum == 0 {
		if gainSum == 0 {
			return math.NaN()
		}
		return 100
	}
	rs := gainSum / lossSum
	return 100 - 100/(1+rs)
}

// macd returns the MACD line (EMA12 - EMA26) and its 9-period signal
// line. Either may be NaN when history does not cover the lookback.
func macd(closes []float64) (line, signal float64) {
	fast := numeric.EMASeries(closes, macdFastPeriod)
	slow := numeric.EMASeries(closes, macdSlowPeriod)

	var macdSeries []float64
	for i := range closes {
		if !math.IsNaN(fast[i]) && !math.IsNaN(slow[i]) {
			macdSeries = append(macdSeries, fast[i]-slow[i])
		}
	}
	if len(macdSeries) == 0 {
		return math.NaN(), math.NaN()
	}

	line = macdSeries[len(macdSeries)-1]
	signalSeries := numeric.EMASeries(macdSeries, macdSignalPeriod)
	signal = signalSeries[len(signalSeries)-1]
	return line, signal
}

// annualizedVolatility is the sample stddev of the trailing window of
// daily returns, annualized and expressed in percent.
func annualizedVolatility(closes []float64) float64 {
	returns := numeric.PctChanges(closes)
	if len(returns) < volatilityWindow {
		return math.NaN()
	}
	std := numeric.SampleStd(returns[len(returns)-volatilityWindow:])
	return std * 100 * math.Sqrt(tradingDaysYear)
}
