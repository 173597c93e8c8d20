package slicer

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maf/errs"
	"maf/params"
	"maf/table"
	"maf/utils"
)

func deg(d float64) float64 {
	return d * math.Pi / 180
}

func visits(t *testing.T, ra, dec []float64) *table.Table {
	t.Helper()
	data, err := table.New(table.NewFloat(DefaultLonCol, ra), table.NewFloat(DefaultLatCol, dec))
	require.NoError(t, err)
	return data
}

func TestUniSlicer(t *testing.T) {
	s := NewUniSlicer()
	_, err := s.SliceAt(0)
	assert.True(t, errors.Is(err, errs.ErrState))

	data := table.FromFloats("x", make([]float64, 17))
	require.NoError(t, s.Setup(data))
	assert.Equal(t, 1, s.Len())
	point, err := s.SliceAt(0)
	require.NoError(t, err)
	assert.Equal(t, data.All().Indices(), point.Indices)

	_, err = s.SliceAt(1)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
	assert.True(t, s.Equal(NewUniSlicer()))
	assert.Empty(t, s.Columns())
}

func TestPix2Ang(t *testing.T) {
	theta, phi := Pix2Ang(1, 0)
	utils.AssertClose(t, math.Acos(2.0/3.0), theta, 1e-12)
	utils.AssertClose(t, math.Pi/4, phi, 1e-12)

	theta, phi = Pix2Ang(1, 11)
	utils.AssertClose(t, math.Acos(-2.0/3.0), theta, 1e-12)
	utils.AssertClose(t, 7*math.Pi/4, phi, 1e-12)

	for _, nside := range []int{1, 2, 4, 16} {
		npix := Nside2Npix(nside)
		for pix := 0; pix < npix; pix++ {
			theta, phi := Pix2Ang(nside, pix)
			assert.True(t, theta > 0 && theta < math.Pi, "nside %d pix %d", nside, pix)
			assert.True(t, phi >= 0 && phi < 2*math.Pi, "nside %d pix %d", nside, pix)
			mirror, _ := Pix2Ang(nside, npix-1-pix)
			utils.AssertClose(t, math.Pi, theta+mirror, 1e-9)
		}
	}
}

func TestIsNsideOK(t *testing.T) {
	assert.True(t, IsNsideOK(1))
	assert.True(t, IsNsideOK(64))
	assert.True(t, IsNsideOK(1<<29))
	assert.False(t, IsNsideOK(0))
	assert.False(t, IsNsideOK(3))
	assert.False(t, IsNsideOK(-4))
	assert.False(t, IsNsideOK(1<<30))
	assert.Equal(t, 48, Nside2Npix(2))
}

func TestHealpixSlicer_ExactCentre(t *testing.T) {
	cfg := DefaultHealpixConfig()
	cfg.Nside = 2
	s, err := NewHealpixSlicer(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 48, s.Len())

	ra, dec := Pix2RaDec(2, 5)
	data := visits(t,
		[]float64{ra, ra, ra + deg(0.5)},
		[]float64{dec, dec + deg(3), dec})

	_, err = s.SliceAt(5)
	assert.True(t, errors.Is(err, errs.ErrState))

	require.NoError(t, s.Setup(data))
	point, err := s.SliceAt(5)
	require.NoError(t, err)
	assert.Equal(t, 5, point.ID)
	assert.Contains(t, point.Indices, 0)
	assert.Contains(t, point.Indices, 2)
	assert.NotContains(t, point.Indices, 1)

	points := s.Points()
	assert.Equal(t, 48, points.Len())
	assert.Equal(t, 2, points.Nside)
	assert.Equal(t, ra, points.RA[5])
	assert.Equal(t, UNSEEN, s.BadValue())
}

func TestHealpixSlicer_NoVisits(t *testing.T) {
	cfg := DefaultHealpixConfig()
	cfg.Nside = 1
	s, err := NewHealpixSlicer(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, s.Setup(visits(t, []float64{}, []float64{})))
	for i := 0; i < s.Len(); i++ {
		point, err := s.SliceAt(i)
		require.NoError(t, err)
		assert.Empty(t, point.Indices)
	}
}

func TestHealpixSlicer_Config(t *testing.T) {
	cfg := DefaultHealpixConfig()
	cfg.Nside = 12
	_, err := NewHealpixSlicer(cfg, nil)
	assert.True(t, errors.Is(err, errs.ErrConfiguration))

	cfg = DefaultHealpixConfig()
	cfg.Radius = -1
	_, err = NewHealpixSlicer(cfg, nil)
	assert.True(t, errors.Is(err, errs.ErrConfiguration))

	cfg = DefaultHealpixConfig()
	cfg.Nside = 2
	s, err := NewHealpixSlicer(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 25, s.CacheSize())
	cfg.UseCache = false
	s, err = NewHealpixSlicer(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, s.CacheSize())

	err = s.Setup(table.FromFloats("x", []float64{1}))
	assert.True(t, errors.Is(err, errs.ErrColumnMismatch))
}

func TestHealpixSlicer_Equal(t *testing.T) {
	cfg := DefaultHealpixConfig()
	cfg.Nside = 4
	a, _ := NewHealpixSlicer(cfg, nil)
	b, _ := NewHealpixSlicer(cfg, nil)
	require.NoError(t, a.Setup(visits(t, []float64{0}, []float64{0})))
	require.NoError(t, b.Setup(visits(t, []float64{1, 2}, []float64{0.1, 0.2})))
	assert.True(t, a.Equal(b))

	cfg.Nside = 8
	c, _ := NewHealpixSlicer(cfg, nil)
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(NewUniSlicer()))
}

func TestUserPointsSlicer(t *testing.T) {
	s, err := NewUserPointsSlicer(UserPointsConfig{
		RA:  []float64{deg(10), deg(100)},
		Dec: []float64{deg(-30), deg(20)},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{DefaultLonCol, DefaultLatCol}, s.Columns())

	data := visits(t,
		[]float64{deg(10), deg(10.5), deg(100), deg(50)},
		[]float64{deg(-30), deg(-30), deg(21), deg(0)})
	require.NoError(t, s.Setup(data))

	first, _ := s.SliceAt(0)
	second, _ := s.SliceAt(1)
	assert.Equal(t, []int{0, 1}, first.Indices)
	assert.Equal(t, []int{2}, second.Indices)

	_, err = NewUserPointsSlicer(UserPointsConfig{RA: []float64{1}}, nil)
	assert.True(t, errors.Is(err, errs.ErrConfiguration))

	other, _ := NewUserPointsSlicer(UserPointsConfig{
		RA:  []float64{deg(10), deg(100)},
		Dec: []float64{deg(-30), deg(20)},
	}, nil)
	assert.True(t, s.Equal(other))
}

func TestOpsimFieldSlicer_DerivedCatalog(t *testing.T) {
	data, err := table.New(
		table.NewInt("fieldID", []int64{7, 3, 7, 9, 3, 7}),
		table.NewFloat(DefaultLonCol, []float64{0.7, 0.3, 0.7, 0.9, 0.3, 0.7}),
		table.NewFloat(DefaultLatCol, []float64{-0.7, -0.3, -0.7, -0.9, -0.3, -0.7}))
	require.NoError(t, err)

	s, err := NewOpsimFieldSlicer(DefaultOpsimFieldConfig(), nil)
	require.NoError(t, err)
	require.NoError(t, s.Setup(data))

	assert.Equal(t, 3, s.Len())
	points := s.Points()
	assert.Equal(t, []int{3, 7, 9}, points.IDs)
	assert.Equal(t, []float64{0.3, 0.7, 0.9}, points.RA)

	expected := [][]int{{1, 4}, {0, 2, 5}, {3}}
	for i, rows := range expected {
		point, err := s.SliceAt(i)
		require.NoError(t, err)
		assert.Equal(t, rows, point.Indices)
	}
}

func TestOpsimFieldSlicer_SuppliedCatalog(t *testing.T) {
	cfg := DefaultOpsimFieldConfig()
	cfg.Fields = []Field{{ID: 9, RA: 1, Dec: 0}, {ID: 5, RA: 2, Dec: 0}}
	s, err := NewOpsimFieldSlicer(cfg, nil)
	require.NoError(t, err)

	data, err := table.New(table.NewInt("fieldID", []int64{5, 5, 1}))
	require.NoError(t, err)
	require.NoError(t, s.Setup(data))

	first, _ := s.SliceAt(0)
	second, _ := s.SliceAt(1)
	assert.Empty(t, first.Indices)
	assert.Equal(t, []int{0, 1}, second.Indices)

	cfg.Fields = append(cfg.Fields, Field{ID: 9})
	_, err = NewOpsimFieldSlicer(cfg, nil)
	assert.True(t, errors.Is(err, errs.ErrConfiguration))
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"HealpixSlicer", "OneDSlicer", "OpsimFieldSlicer", "UniSlicer", "UserPointsSlicer"}, Names())

	s, err := New("OneDSlicer", params.Params{"sliceColName": "airmass", "bins": []interface{}{1, 1.5, 2.0}}, nil)
	require.NoError(t, err)
	expected, _ := NewOneDSlicer(OneDConfig{SliceColName: "airmass", Bins: []float64{1, 1.5, 2}}, nil)
	assert.True(t, s.Equal(expected))

	s, err = New("HealpixSlicer", params.Params{"nside": 4}, nil)
	require.NoError(t, err)
	assert.Equal(t, 192, s.Len())

	_, err = New("HealpixSlicer", params.Params{"nside": 6}, nil)
	assert.True(t, errors.Is(err, errs.ErrConfiguration))
	_, err = New("OneDSlicer", params.Params{"sliceColName": "x", "nbinz": 3}, nil)
	assert.True(t, errors.Is(err, errs.ErrConfiguration))
	_, err = New("FancySlicer", nil, nil)
	assert.True(t, errors.Is(err, errs.ErrConfiguration))
}
