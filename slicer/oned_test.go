package slicer

import (
	"bytes"
	"errors"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"maf/errs"
	"maf/table"
)

func floatPtr(v float64) *float64 {
	return &v
}

func newOneD(t *testing.T, cfg OneDConfig) *OneDSlicer {
	t.Helper()
	s, err := NewOneDSlicer(cfg, nil)
	require.NoError(t, err)
	return s
}

func counts(t *testing.T, s Slicer) []float64 {
	t.Helper()
	out := make([]float64, s.Len())
	for i := range out {
		point, err := s.SliceAt(i)
		require.NoError(t, err)
		out[i] = float64(len(point.Indices))
	}
	return out
}

func TestOneDSlicer_ExplicitBins(t *testing.T) {
	s := newOneD(t, OneDConfig{SliceColName: "x", Bins: []float64{0, 1, 2, 3}})
	data := table.FromFloats("x", []float64{0, 0.5, 1, 2, 3, -1, 4, math.NaN()})
	require.NoError(t, s.Setup(data))

	assert.Equal(t, 3, s.Len())
	expected := [][]int{{0, 1}, {2}, {3, 4}}
	for i, rows := range expected {
		point, err := s.SliceAt(i)
		require.NoError(t, err)
		assert.Equal(t, i, point.ID)
		assert.Equal(t, rows, point.Indices)
	}
	assert.Equal(t, []float64{0, 1, 2, 3}, s.Points().Bins)
}

func TestOneDSlicer_InternalEdgeGoesRight(t *testing.T) {
	s := newOneD(t, OneDConfig{SliceColName: "x", Bins: []float64{0, 0.5, 1}})
	require.NoError(t, s.Setup(table.FromFloats("x", []float64{0.5, 1, 0})))

	first, _ := s.SliceAt(0)
	last, _ := s.SliceAt(1)
	assert.Equal(t, []int{2}, first.Indices)
	assert.Equal(t, []int{0, 1}, last.Indices)
}

func TestOneDSlicer_NBinsYieldsNPoints(t *testing.T) {
	for _, nbins := range []int{1, 2, 7, 50} {
		s := newOneD(t, OneDConfig{SliceColName: "x", NBins: nbins})
		require.NoError(t, s.Setup(table.FromFloats("x", []float64{3, 1, 4, 1, 5, 9, 2, 6})))
		assert.Equal(t, nbins, s.Len())
		assert.Len(t, s.Edges(), nbins+1)
		assert.Equal(t, 1.0, s.Edges()[0])
		assert.Equal(t, 9.0, s.Edges()[nbins])
	}
}

func TestOneDSlicer_UniformMatchesHistogram(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	values := make([]float64, 1000)
	for i := range values {
		values[i] = rng.Float64()
	}
	s := newOneD(t, OneDConfig{SliceColName: "x", NBins: 10, BinMin: floatPtr(0), BinMax: floatPtr(1)})
	require.NoError(t, s.Setup(table.FromFloats("x", values)))
	require.Equal(t, 10, s.Len())

	got := counts(t, s)
	total := 0.0
	for _, c := range got {
		total += c
	}
	assert.Equal(t, 1000.0, total)

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	dividers := append([]float64(nil), s.Edges()...)
	dividers[len(dividers)-1] = math.Nextafter(dividers[len(dividers)-1], math.Inf(1))
	assert.Equal(t, stat.Histogram(nil, dividers, sorted, nil), got)
}

func TestOneDSlicer_EvenlySpacedMatchesHistogram(t *testing.T) {
	values := make([]float64, 101)
	for i := range values {
		values[i] = float64(i) / 4
	}
	s := newOneD(t, OneDConfig{SliceColName: "x", NBins: 8})
	require.NoError(t, s.Setup(table.FromFloats("x", values)))

	dividers := append([]float64(nil), s.Edges()...)
	dividers[len(dividers)-1] = math.Nextafter(dividers[len(dividers)-1], math.Inf(1))
	assert.Equal(t, stat.Histogram(nil, dividers, values, nil), counts(t, s))
}

func TestOneDSlicer_BinSize(t *testing.T) {
	values := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	s := newOneD(t, OneDConfig{SliceColName: "x", BinSize: 2})
	require.NoError(t, s.Setup(table.FromFloats("x", values)))

	assert.Equal(t, []float64{0, 2, 4, 6, 8, 10}, s.Edges())
	assert.Equal(t, []float64{2, 2, 2, 2, 2}, counts(t, s))
}

func TestOneDSlicer_BinSizeOverridesBinsWithWarning(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewOneDSlicer(OneDConfig{SliceColName: "x", BinSize: 5, NBins: 3}, log.NewLogfmtLogger(&buf))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "binsize takes precedence")
	assert.Contains(t, buf.String(), "level=warn")

	require.NoError(t, s.Setup(table.FromFloats("x", []float64{0, 10})))
	assert.Equal(t, []float64{0, 5, 10}, s.Edges())
}

func TestOneDSlicer_ZeroVariance(t *testing.T) {
	s := newOneD(t, OneDConfig{SliceColName: "x"})
	require.NoError(t, s.Setup(table.FromFloats("x", []float64{3, 3, 3, 3, 3})))

	assert.GreaterOrEqual(t, s.Len(), 1)
	assert.Equal(t, 2.5, s.Edges()[0])
	assert.Equal(t, 3.5, s.Edges()[s.Len()])
	total := 0.0
	for _, c := range counts(t, s) {
		total += c
	}
	assert.Equal(t, 5.0, total)

	s = newOneD(t, OneDConfig{SliceColName: "x", BinSize: 1})
	require.NoError(t, s.Setup(table.FromFloats("x", []float64{7})))
	assert.Equal(t, 1, s.Len())
}

func TestOneDSlicer_DefaultBinCount(t *testing.T) {
	values := make([]float64, 1000)
	for i := range values {
		values[i] = float64(i)
	}
	s := newOneD(t, OneDConfig{SliceColName: "x"})
	require.NoError(t, s.Setup(table.FromFloats("x", values)))
	// IQR ~ 500, width = 2*500/10 = 100
	assert.InDelta(t, 10, s.Len(), 1)
}

func TestOneDSlicer_ConfigurationErrors(t *testing.T) {
	cases := []OneDConfig{
		{},
		{SliceColName: "x", Bins: []float64{0, 2, 1}},
		{SliceColName: "x", Bins: []float64{1}},
		{SliceColName: "x", Bins: []float64{0, 1}, NBins: 4},
		{SliceColName: "x", NBins: -1},
		{SliceColName: "x", BinSize: -1},
		{SliceColName: "x", BinMin: floatPtr(2), BinMax: floatPtr(1)},
	}
	for _, cfg := range cases {
		_, err := NewOneDSlicer(cfg, nil)
		assert.True(t, errors.Is(err, errs.ErrConfiguration), "%+v", cfg)
	}

	s := newOneD(t, OneDConfig{SliceColName: "x"})
	err := s.Setup(table.FromFloats("x", []float64{}))
	assert.True(t, errors.Is(err, errs.ErrConfiguration))
}

func TestOneDSlicer_MissingColumn(t *testing.T) {
	s := newOneD(t, OneDConfig{SliceColName: "airmass", NBins: 2})
	err := s.Setup(table.FromFloats("x", []float64{1, 2}))
	assert.True(t, errors.Is(err, errs.ErrColumnMismatch))
	assert.Contains(t, err.Error(), "airmass")
	assert.False(t, s.IsSetup())
}

func TestOneDSlicer_NotSetUp(t *testing.T) {
	s := newOneD(t, OneDConfig{SliceColName: "x", NBins: 2})
	_, err := s.SliceAt(0)
	assert.True(t, errors.Is(err, errs.ErrState))
}

func TestOneDSlicer_SetupIdempotent(t *testing.T) {
	data := table.FromFloats("x", []float64{0.1, 0.7, 0.3, 0.9, 0.5})
	s := newOneD(t, OneDConfig{SliceColName: "x", NBins: 3})
	require.NoError(t, s.Setup(data))
	first := make([]Point, s.Len())
	for i := range first {
		first[i], _ = s.SliceAt(i)
	}
	require.NoError(t, s.Setup(data))
	for i := range first {
		point, _ := s.SliceAt(i)
		assert.Equal(t, first[i], point)
	}
}

func TestOneDSlicer_Equal(t *testing.T) {
	a := newOneD(t, OneDConfig{SliceColName: "x", Bins: []float64{0, 1, 2}})
	b := newOneD(t, OneDConfig{SliceColName: "x", Bins: []float64{0, 1, 2}})
	require.NoError(t, a.Setup(table.FromFloats("x", []float64{0.5})))
	require.NoError(t, b.Setup(table.FromFloats("x", []float64{1.5, 1.7, 0.2})))
	assert.True(t, a.Equal(b))

	c := newOneD(t, OneDConfig{SliceColName: "x", Bins: []float64{0, 1, 3}})
	assert.False(t, a.Equal(c))
	d := newOneD(t, OneDConfig{SliceColName: "y", Bins: []float64{0, 1, 2}})
	assert.False(t, a.Equal(d))
	assert.False(t, a.Equal(NewUniSlicer()))
}
