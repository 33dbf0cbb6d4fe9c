package numeric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampleStd(t *testing.T) {
	// Sample stddev of {2,4,4,4,5,5,7,9} is ~2.138.
	v := SampleStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 2.138089935, v, 1e-6)

	assert.True(t, math.IsNaN(SampleStd([]float64{1})))
	assert.InDelta(t, 0.0, SampleStd([]float64{3, 3, 3}), 1e-12)
}

func TestEMASeries_SeededWithSMA(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6}
	out := EMASeries(values, 3)

	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	assert.InDelta(t, 2.0, out[2], 1e-9)
	// k = 0.5: 2 + 0.5*(4-2) = 3, then 4, then 5.
	assert.InDelta(t, 3.0, out[3], 1e-9)
	assert.InDelta(t, 4.0, out[4], 1e-9)
	assert.InDelta(t, 5.0, out[5], 1e-9)
}

func TestPctChanges(t *testing.T) {
	out := PctChanges([]float64{100, 110, 99})
	assert.Len(t, out, 2)
	assert.InDelta(t, 0.10, out[0], 1e-9)
	assert.InDelta(t, -0.10, out[1], 1e-9)

	assert.True(t, math.IsNaN(PctChanges([]float64{0, 5})[0]))
	assert.Nil(t, PctChanges([]float64{1}))
}

func TestSMA_WindowNotCovered(t *testing.T) {
	assert.True(t, math.IsNaN(SMA([]float64{1, 2}, 3)))
	assert.InDelta(t, 2.0, SMA([]float64{1, 2, 3}, 3), 1e-9)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-1, 0, 1))
	assert.Equal(t, 1.0, Clamp(2, 0, 1))
	assert.Equal(t, 0.5, Clamp(0.5, 0, 1))
}
