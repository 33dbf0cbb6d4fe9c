// Package numeric holds the rolling-window math shared by the
// indicator engine and the forecast feature builder.
package numeric

import "math"

// Mean returns the arithmetic mean of values, NaN when empty.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// SampleStd returns the sample standard deviation (n-1 denominator),
// NaN when fewer than two values.
func SampleStd(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return math.NaN()
	}
	m := Mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(n-1))
}

// SMA returns the simple moving average of the trailing window ending
// at the last element, NaN when the window is not covered.
func SMA(values []float64, window int) float64 {
	if len(values) < window {
		return math.NaN()
	}
	return Mean(values[len(values)-window:])
}

// EMASeries returns the exponential moving average series. The first
// period-1 entries are NaN; the value at period-1 is seeded with the
// SMA of the first period values.
func EMASeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if len(values) < period {
		return out
	}

	out[period-1] = Mean(values[:period])
	k := 2.0 / float64(period+1)
	for i := period; i < len(values); i++ {
		out[i] = out[i-1] + k*(values[i]-out[i-1])
	}
	return out
}

// PctChanges returns the day-over-day fractional returns, one shorter
// than the input. Entries with a zero prior value are NaN.
func PctChanges(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			out[i-1] = math.NaN()
			continue
		}
		out[i-1] = values[i]/values[i-1] - 1
	}
	return out
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
