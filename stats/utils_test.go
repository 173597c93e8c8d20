package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBinIndex(t *testing.T) {
	edges := []float64{0, 1, 2, 3}

	check := func(value float64, expected int, expectedOk bool) {
		bin, ok := BinIndex(edges, value)
		assert.Equal(t, expectedOk, ok, "value %v", value)
		if expectedOk {
			assert.Equal(t, expected, bin, "value %v", value)
		}
	}

	check(0, 0, true)
	check(0.5, 0, true)
	// internal edges go to the upper bin
	check(1, 1, true)
	check(2, 2, true)
	// the last bin is closed on the right
	check(3, 2, true)
	check(-0.1, 0, false)
	check(3.1, 0, false)
	check(math.NaN(), 0, false)

	_, ok := BinIndex([]float64{1}, 1)
	assert.False(t, ok)
}

func TestHistogram(t *testing.T) {
	counts := Histogram([]float64{0, 0.5, 1, 1.5, 2, 2, 5}, []float64{0, 1, 2})
	assert.Equal(t, []int{2, 4}, counts)
	assert.Equal(t, []int{}, Histogram([]float64{1}, []float64{0}))

	// NaN and out of range values are dropped, unsorted input is fine
	counts = Histogram([]float64{2.5, math.NaN(), -3, 0.25, 3, 9, 1.75}, []float64{0, 1, 2, 3})
	assert.Equal(t, []int{1, 1, 2}, counts)
	assert.Equal(t, []int{0, 0}, Histogram(nil, []float64{0, 1, 2}))
}

func TestIsMonotonic(t *testing.T) {
	assert.True(t, IsMonotonic([]float64{0, 0.1, 5}))
	assert.False(t, IsMonotonic([]float64{0, 0, 1}))
	assert.False(t, IsMonotonic([]float64{0, 2, 1}))
	assert.True(t, IsMonotonic([]float64{}))
}

func TestFreedmanDiaconisWidth(t *testing.T) {
	assert.Equal(t, 0.0, FreedmanDiaconisWidth([]float64{1}))
	assert.Equal(t, 0.0, FreedmanDiaconisWidth([]float64{2, 2, 2, 2, 2}))

	values := make([]float64, 1000)
	for i := range values {
		values[i] = float64(i) / 1000
	}
	width := FreedmanDiaconisWidth(values)
	assert.InDelta(t, 0.1, width, 0.01)
}

func TestSturgesBins(t *testing.T) {
	assert.Equal(t, 1, SturgesBins(0))
	assert.Equal(t, 1, SturgesBins(1))
	assert.Equal(t, 11, SturgesBins(1000))
}

func TestMinMax(t *testing.T) {
	lo, hi, ok := MinMax([]float64{3, math.NaN(), -1, 7})
	assert.True(t, ok)
	assert.Equal(t, -1.0, lo)
	assert.Equal(t, 7.0, hi)

	_, _, ok = MinMax([]float64{math.NaN()})
	assert.False(t, ok)
}
