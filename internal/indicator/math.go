package indicator

import "math"

// floatPtr converts a value to a nullable pointer, mapping NaN and Inf
// to nil.
func floatPtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
