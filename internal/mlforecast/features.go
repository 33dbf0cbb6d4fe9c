package mlforecast

import (
	"math"

	"github.com/vantage-quant/vantage/internal/contracts"
	"github.com/vantage-quant/vantage/internal/numeric"
)

// FeatureCount is the width of the model input vector.
const FeatureCount = 20

// buildFeatures derives one feature row per price bar. Every feature is
// causal: row i only sees bars 0..i. Features whose lookback is not yet
// covered fall back to a neutral value (0, 1, 50, or 0.5 depending on
// the feature's natural scale) instead of poisoning the row with NaN.
func buildFeatures(bars []contracts.PriceBar) [][]float64 {
	n := len(bars)
	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i, b := range bars {
		closes[i] = b.Close
		volumes[i] = float64(b.Volume)
	}

	returns1 := changeSeries(closes, 1)
	returns5 := changeSeries(closes, 5)
	vol5 := rollingStdSeries(returns1, 5)
	vol20 := rollingStdSeries(returns1, 20)
	rsi14 := rsiSeries(closes, 14)
	rsi7 := rsiSeries(closes, 7)

	ema12 := numeric.EMASeries(closes, 12)
	ema26 := numeric.EMASeries(closes, 26)
	macdNorm := make([]float64, n)
	macdRaw := make([]float64, n)
	for i := 0; i < n; i++ {
		macdRaw[i] = ema12[i] - ema26[i]
		if closes[i] != 0 {
			macdNorm[i] = macdRaw[i] / closes[i]
		} else {
			macdNorm[i] = math.NaN()
		}
	}
	signalRaw := emaOverDefined(macdRaw, 9)
	signalNorm := make([]float64, n)
	for i := 0; i < n; i++ {
		if closes[i] != 0 {
			signalNorm[i] = signalRaw[i] / closes[i]
		} else {
			signalNorm[i] = math.NaN()
		}
	}

	sma5 := rollingMeanSeries(closes, 5)
	sma10 := rollingMeanSeries(closes, 10)
	sma20 := rollingMeanSeries(closes, 20)
	sma50 := rollingMeanSeries(closes, 50)
	std20 := rollingStdSeries(closes, 20)
	volSMA20 := rollingMeanSeries(volumes, 20)

	hlRange := make([]float64, n)
	for i, b := range bars {
		if b.Close != 0 {
			hlRange[i] = (b.High - b.Low) / b.Close
		}
	}
	hlPct := rollingMeanSeries(hlRange, 20)

	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, FeatureCount)
		row[0] = closes[i]
		row[1] = orDefault(returns1[i], 0)
		row[2] = orDefault(returns5[i], 0)
		row[3] = orDefault(vol5[i], 0)
		row[4] = orDefault(vol20[i], 0)
		row[5] = orDefault(rsi14[i], 50)
		row[6] = orDefault(rsi7[i], 50)
		row[7] = orDefault(macdNorm[i], 0)
		row[8] = orDefault(signalNorm[i], 0)
		row[9] = row[7] - row[8]
		row[10] = ratioOrOne(closes[i], sma5[i])
		row[11] = ratioOrOne(closes[i], sma10[i])
		row[12] = ratioOrOne(closes[i], sma20[i])
		row[13] = ratioOrOne(closes[i], sma50[i])
		row[14] = bollingerPosition(closes[i], sma20[i], std20[i])
		row[15] = ratioOrOne(volumes[i], volSMA20[i])
		row[16] = shiftRatio(closes, i, 5)
		row[17] = shiftRatio(closes, i, 20)
		row[18] = hlRange[i]
		row[19] = orDefault(hlPct[i], 0)
		rows[i] = row
	}
	return rows
}

// changeSeries is the fractional change over lag days, NaN until
// covered.
func changeSeries(values []float64, lag int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i < lag || values[i-lag] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = values[i]/values[i-lag] - 1
	}
	return out
}

// rollingMeanSeries is the trailing mean per index, NaN until covered.
func rollingMeanSeries(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = numeric.Mean(values[i-window+1 : i+1])
	}
	return out
}

// rollingStdSeries is the trailing sample stddev per index. NaN inputs
// inside the window make the output NaN.
func rollingStdSeries(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = numeric.SampleStd(values[i-window+1 : i+1])
	}
	return out
}

// rsiSeries is the rolling-mean RSI per index, NaN until covered and
// when the window has no movement.
func rsiSeries(closes []float64, window int) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		out[i] = math.NaN()
		if i < window {
			continue
		}
		gainSum, lossSum := 0.0, 0.0
		for j := i - window + 1; j <= i; j++ {
			delta := closes[j] - closes[j-1]
			if delta > 0 {
				gainSum += delta
			} else {
				lossSum -= delta
			}
		}
		if lossSum == 0 {
			if gainSum > 0 {
				out[i] = 100
			}
			continue
		}
		out[i] = 100 - 100/(1+gainSum/lossSum)
	}
	return out
}

// emaOverDefined applies an EMA to the defined suffix of a series that
// starts with NaNs, keeping the output aligned with the input.
func emaOverDefined(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}

	start := -1
	for i, v := range values {
		if !math.IsNaN(v) {
			start = i
			break
		}
	}
	if start < 0 {
		return out
	}

	ema := numeric.EMASeries(values[start:], period)
	copy(out[start:], ema)
	return out
}

func orDefault(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

func ratioOrOne(num, den float64) float64 {
	if math.IsNaN(den) || den == 0 {
		return 1
	}
	return num / den
}

func bollingerPosition(close, mid, std float64) float64 {
	if math.IsNaN(mid) || math.IsNaN(std) {
		return 0.5
	}
	lower := mid - 2*std
	width := 4 * std
	if width == 0 {
		return 0.5
	}
	return (close - lower) / width
}

func shiftRatio(values []float64, i, lag int) float64 {
	if i < lag || values[i-lag] == 0 {
		return 1
	}
	return values[i] / values[i-lag]
}
