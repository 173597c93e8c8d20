package params

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maf/errs"
)

func TestParams_Getters(t *testing.T) {
	p := Params{
		"col":    "expMJD",
		"nside":  64,
		"radius": 2,
		"bins":   []interface{}{0, 0.5, 1.0},
		"cache":  false,
	}

	col, err := p.String("col", "")
	require.NoError(t, err)
	assert.Equal(t, "expMJD", col)

	nside, err := p.Int("nside", 128)
	require.NoError(t, err)
	assert.Equal(t, 64, nside)

	radius, err := p.Float("radius", 1.75)
	require.NoError(t, err)
	assert.Equal(t, 2.0, radius)

	bins, err := p.Floats("bins")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.5, 1}, bins)

	cache, err := p.Bool("cache", true)
	require.NoError(t, err)
	assert.False(t, cache)

	missing, err := p.OptionalFloat("binMin")
	require.NoError(t, err)
	assert.Nil(t, missing)

	def, err := p.Float("binsize", 0.25)
	require.NoError(t, err)
	assert.Equal(t, 0.25, def)
}

func TestParams_TypeErrors(t *testing.T) {
	p := Params{"nside": 1.5, "col": 3, "bins": "x"}

	_, err := p.Int("nside", 0)
	assert.True(t, errors.Is(err, errs.ErrConfiguration))
	_, err = p.String("col", "")
	assert.True(t, errors.Is(err, errs.ErrConfiguration))
	_, err = p.Floats("bins")
	assert.True(t, errors.Is(err, errs.ErrConfiguration))
}

func TestParams_Check(t *testing.T) {
	p := Params{"nside": 64, "nsdie": 32}
	err := p.Check("HealpixSlicer", "nside", "radius")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nsdie")
	assert.NoError(t, Params{"nside": 1}.Check("HealpixSlicer", "nside"))
}
