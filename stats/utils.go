package stats

import (
	"math"
	"sort"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// BinIndex returns the bin of value for monotonically increasing edges. Bins
// are half open [edges[i], edges[i+1]) except the last, which also includes
// its right edge. Values outside the edges, and NaN, fall in no bin.
func BinIndex(edges []float64, value float64) (int, bool) {
	nbins := len(edges) - 1
	if nbins < 1 || math.IsNaN(value) {
		return -1, false
	}
	if value < edges[0] || value > edges[nbins] {
		return -1, false
	}
	if value == edges[nbins] {
		return nbins - 1, true
	}
	// first edge strictly greater than value
	upper := sort.Search(len(edges), func(i int) bool {
		return edges[i] > value
	})
	return upper - 1, true
}

// Histogram counts values per bin using the BinIndex rule. Edges must be
// monotonic. Values on the right edge are counted in the last bin; values
// outside the edges and NaN are dropped.
func Histogram(values, edges []float64) []int {
	if len(edges) < 2 {
		return make([]int, 0)
	}
	last := edges[len(edges)-1]
	inside := make([]float64, 0, len(values))
	onEdge := 0
	for _, value := range values {
		switch {
		case value == last:
			onEdge++
		case value >= edges[0] && value < last:
			inside = append(inside, value)
		}
	}
	sort.Float64s(inside)
	weights := stat.Histogram(nil, edges, inside, nil)
	counts := make([]int, len(weights))
	for i, w := range weights {
		counts[i] = int(w)
	}
	counts[len(counts)-1] += onEdge
	return counts
}

func IsMonotonic(edges []float64) bool {
	for i := 1; i < len(edges); i++ {
		if !(edges[i] > edges[i-1]) {
			return false
		}
	}
	return true
}

// FreedmanDiaconisWidth returns 2*IQR*n^(-1/3), or 0 when it is undefined.
func FreedmanDiaconisWidth(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	iqr, err := mstats.InterQuartileRange(values)
	if err != nil || math.IsNaN(iqr) {
		return 0
	}
	return 2 * iqr / math.Cbrt(float64(len(values)))
}

func SturgesBins(n int) int {
	if n < 1 {
		return 1
	}
	return int(math.Ceil(math.Log2(float64(n)))) + 1
}

// MinMax returns the smallest and largest non-NaN value.
func MinMax(values []float64) (float64, float64, bool) {
	valid := make([]float64, 0, len(values))
	for _, value := range values {
		if !math.IsNaN(value) {
			valid = append(valid, value)
		}
	}
	if len(valid) == 0 {
		return math.Inf(1), math.Inf(-1), false
	}
	return floats.Min(valid), floats.Max(valid), true
}
