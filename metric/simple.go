package metric

import (
	"math"
	"strconv"
	"strings"

	mstats "github.com/montanaflynn/stats"

	"maf/stats"
	"maf/table"
)

// SimpleMetric reduces the values of one numeric column to a scalar.
type SimpleMetric struct {
	name   string
	col    string
	badval float64
	reduce func(values []float64) (float64, bool)
}

func newSimple(prefix, col string, reduce func([]float64) (float64, bool)) *SimpleMetric {
	return &SimpleMetric{
		name:   strings.TrimSpace(prefix + " " + col),
		col:    col,
		badval: DefaultBadValue,
		reduce: reduce,
	}
}

func (m *SimpleMetric) SetName(name string) *SimpleMetric {
	m.name = name
	return m
}

func (m *SimpleMetric) SetBadValue(badval float64) *SimpleMetric {
	m.badval = badval
	return m
}

func (m *SimpleMetric) Name() string {
	return m.name
}

func (m *SimpleMetric) Columns() []string {
	return []string{m.col}
}

func (m *SimpleMetric) Kind() Kind {
	return Float
}

func (m *SimpleMetric) BadValue() float64 {
	return m.badval
}

func (m *SimpleMetric) Run(s *table.Slice) Value {
	values, err := s.Floats(m.col)
	if err != nil || len(values) == 0 {
		return Masked()
	}
	result, ok := m.reduce(values)
	if !ok || math.IsNaN(result) || math.IsInf(result, 0) {
		return Masked()
	}
	return Scalar(result)
}

func fromLibrary(f func(mstats.Float64Data) (float64, error)) func([]float64) (float64, bool) {
	return func(values []float64) (float64, bool) {
		result, err := f(values)
		return result, err == nil
	}
}

func NewCountMetric(col string) *SimpleMetric {
	return newSimple("Count", col, func(values []float64) (float64, bool) {
		return float64(len(values)), true
	})
}

func NewSumMetric(col string) *SimpleMetric {
	return newSimple("Sum", col, fromLibrary(mstats.Sum))
}

func NewMeanMetric(col string) *SimpleMetric {
	return newSimple("Mean", col, func(values []float64) (float64, bool) {
		return stats.NewWelford().UpdateAll(values).GetMean(), true
	})
}

func NewMedianMetric(col string) *SimpleMetric {
	return newSimple("Median", col, fromLibrary(mstats.Median))
}

// NewRmsMetric is the population standard deviation of the column.
func NewRmsMetric(col string) *SimpleMetric {
	return newSimple("Rms", col, func(values []float64) (float64, bool) {
		return stats.NewWelford().UpdateAll(values).GetRMS(), true
	})
}

// NewRobustRmsMetric estimates sigma from the interquartile range.
func NewRobustRmsMetric(col string) *SimpleMetric {
	return newSimple("RobustRms", col, func(values []float64) (float64, bool) {
		if len(values) < 2 {
			return 0, false
		}
		iqr, err := mstats.InterQuartileRange(values)
		return iqr / 1.349, err == nil
	})
}

func NewMinMetric(col string) *SimpleMetric {
	return newSimple("Min", col, fromLibrary(mstats.Min))
}

func NewMaxMetric(col string) *SimpleMetric {
	return newSimple("Max", col, fromLibrary(mstats.Max))
}

func NewFullRangeMetric(col string) *SimpleMetric {
	return newSimple("FullRange", col, func(values []float64) (float64, bool) {
		lo, hi, ok := stats.MinMax(values)
		return hi - lo, ok
	})
}

// NewPercentileMetric returns the pct-th percentile, pct in (0, 100]. The
// percentile is part of the name so several of one column can coexist.
func NewPercentileMetric(col string, pct float64) *SimpleMetric {
	return newSimple(strconv.FormatFloat(pct, 'g', -1, 64)+"th Percentile", col, func(values []float64) (float64, bool) {
		result, err := mstats.Percentile(values, pct)
		return result, err == nil
	})
}

// NewFracAboveMetric is the fraction of rows with value >= cutoff.
func NewFracAboveMetric(col string, cutoff float64) *SimpleMetric {
	return newSimple("FracAbove", col, func(values []float64) (float64, bool) {
		n := 0
		for _, value := range values {
			if value >= cutoff {
				n++
			}
		}
		return float64(n) / float64(len(values)), true
	})
}

// NewFracBelowMetric is the fraction of rows with value <= cutoff.
func NewFracBelowMetric(col string, cutoff float64) *SimpleMetric {
	return newSimple("FracBelow", col, func(values []float64) (float64, bool) {
		n := 0
		for _, value := range values {
			if value <= cutoff {
				n++
			}
		}
		return float64(n) / float64(len(values)), true
	})
}

// NewCountRatioMetric divides the row count by normVal.
func NewCountRatioMetric(col string, normVal float64) *SimpleMetric {
	return newSimple("CountRatio", col, func(values []float64) (float64, bool) {
		if normVal == 0 {
			return 0, false
		}
		return float64(len(values)) / normVal, true
	})
}

// NewCoaddm5Metric combines single-visit five-sigma depths into the coadded
// depth: 1.25 log10(sum 10^(0.8 m5)).
func NewCoaddm5Metric(m5Col string) *SimpleMetric {
	return newSimple("CoaddM5", m5Col, func(values []float64) (float64, bool) {
		sum := 0.0
		for _, m5 := range values {
			sum += math.Pow(10, 0.8*m5)
		}
		return 1.25 * math.Log10(sum), sum > 0
	})
}

// NewIdentityMetric passes a single value through unchanged; slices with more
// than one row are masked. Used as the default summary of a single-point run.
func NewIdentityMetric(col string) *SimpleMetric {
	return newSimple("Identity", col, func(values []float64) (float64, bool) {
		if len(values) != 1 {
			return 0, false
		}
		return values[0], true
	})
}
