package core

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maf/slicer"
	"maf/utils"
)

func testResult() *Result {
	return &Result{
		ID:         OutputID("Median airmass", "filter = 'r'", "HealpixSlicer"),
		MetricName: "Median airmass",
		SlicerName: "HealpixSlicer",
		Metadata:   "filter = 'r'",
		Values:     []float64{1.2, slicer.UNSEEN, 1.05, 1.9},
		Mask:       []bool{false, true, false, false},
		BadValue:   slicer.UNSEEN,
		Points: slicer.SlicePoints{
			Kind:  "HealpixSlicer",
			IDs:   []int{0, 1, 2, 3},
			RA:    []float64{0.1, 0.2, 0.3, 0.4},
			Dec:   []float64{-0.1, -0.2, -0.3, -0.4},
			Nside: 1,
		},
		Summaries: []Summary{
			{Name: "Mean metricdata", Value: 1.3833},
			{Name: "RobustRms metricdata", Masked: true},
		},
	}
}

func TestResultSerialization(t *testing.T) {
	for _, compress := range []bool{false, true} {
		result := testResult()
		buf, err := ResultToBytes(result, compress)
		require.NoError(t, err)
		decoded, err := BytesToResult(buf)
		require.NoError(t, err)
		utils.AssertTrue(t, cmp.Equal(result, decoded, cmpopts.EquateEmpty()))
		assert.Equal(t, "Median airmass_filter = 'r'_HealpixSlicer", decoded.ID)
	}
}

func TestResultSerialization_OneD(t *testing.T) {
	result := &Result{
		ID:         "Count night_OneDSlicer",
		MetricName: "Count night",
		SlicerName: "OneDSlicer",
		Values:     []float64{3, -666},
		Mask:       []bool{false, true},
		BadValue:   -666,
		Points:     slicer.SlicePoints{Kind: "OneDSlicer", IDs: []int{0, 1}, Bins: []float64{0, 0.5, 1}},
	}
	buf, err := ResultToBytes(result, true)
	require.NoError(t, err)
	decoded, err := BytesToResult(buf)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(result, decoded, cmpopts.EquateEmpty()))
	assert.Equal(t, []float64{3}, decoded.Valid())
}

func TestResultSerialization_Compresses(t *testing.T) {
	result := testResult()
	result.Values = make([]float64, 10000)
	result.Mask = make([]bool, 10000)
	plain, err := ResultToBytes(result, false)
	require.NoError(t, err)
	compressed, err := ResultToBytes(result, true)
	require.NoError(t, err)
	assert.Equal(t, formatPlain, plain[0])
	assert.Equal(t, formatZstd, compressed[0])
	assert.Less(t, len(compressed), len(plain))
}

func TestBytesToResult_Invalid(t *testing.T) {
	_, err := BytesToResult(nil)
	assert.Error(t, err)
	_, err = BytesToResult([]byte{7, 1, 2})
	assert.Error(t, err)
	_, err = BytesToResult([]byte{formatZstd, 1, 2, 3})
	assert.Error(t, err)

	result := testResult()
	result.Mask = result.Mask[:2]
	buf, err := ResultToBytes(result, false)
	require.NoError(t, err)
	_, err = BytesToResult(buf)
	assert.Error(t, err)
}

func TestResultSerialization_NaN(t *testing.T) {
	result := testResult()
	result.Summaries = []Summary{{Name: "Mean metricdata", Value: math.NaN(), Masked: true}}
	buf, err := ResultToBytes(result, false)
	require.NoError(t, err)
	decoded, err := BytesToResult(buf)
	require.NoError(t, err)
	require.Len(t, decoded.Summaries, 1)
	assert.True(t, math.IsNaN(decoded.Summaries[0].Value))
	assert.True(t, decoded.Summaries[0].Masked)
}
