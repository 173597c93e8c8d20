package slicer

import (
	"math"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"maf/errs"
	"maf/utils"
)

type HealpixConfig struct {
	Nside    int
	LonCol   string
	LatCol   string
	Radius   float64 // degrees
	UseCache bool
}

func DefaultHealpixConfig() HealpixConfig {
	return HealpixConfig{
		Nside:    128,
		LonCol:   DefaultLonCol,
		LatCol:   DefaultLatCol,
		Radius:   DefaultRadius,
		UseCache: true,
	}
}

// HealpixSlicer uses the centres of an equal-area HEALPix grid as slice points.
// Visit positions are read in radians.
type HealpixSlicer struct {
	spatialSlicer
	cfg HealpixConfig
}

func NewHealpixSlicer(cfg HealpixConfig, logger log.Logger) (*HealpixSlicer, error) {
	s := &HealpixSlicer{
		spatialSlicer: spatialSlicer{
			name:   "HealpixSlicer",
			lonCol: cfg.LonCol,
			latCol: cfg.LatCol,
			radius: cfg.Radius,
			logger: utils.OrNop(logger),
		},
		cfg: cfg,
	}
	if !IsNsideOK(cfg.Nside) {
		return nil, errs.Configuration(s.name, "valid values of nside are powers of 2, got %d", cfg.Nside)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}

	npix := Nside2Npix(cfg.Nside)
	s.ra = make([]float64, npix)
	s.dec = make([]float64, npix)
	for pix := 0; pix < npix; pix++ {
		s.ra[pix], s.dec[pix] = Pix2RaDec(cfg.Nside, pix)
	}
	level.Debug(s.logger).Log("msg", "healpix slicer", "nside", cfg.Nside,
		"resolution_arcmin", Nside2Resol(cfg.Nside)*180*60/math.Pi)
	return s, nil
}

func (s *HealpixSlicer) Name() string {
	return s.name
}

func (s *HealpixSlicer) Nside() int {
	return s.cfg.Nside
}

func (s *HealpixSlicer) Points() SlicePoints {
	return SlicePoints{
		Kind:  s.name,
		IDs:   sequence(len(s.ra)),
		RA:    s.ra,
		Dec:   s.dec,
		Nside: s.cfg.Nside,
	}
}

func (s *HealpixSlicer) Equal(other Slicer) bool {
	o, ok := other.(*HealpixSlicer)
	if !ok {
		return false
	}
	return s.cfg.Nside == o.cfg.Nside &&
		s.cfg.LonCol == o.cfg.LonCol &&
		s.cfg.LatCol == o.cfg.LatCol &&
		s.cfg.Radius == o.cfg.Radius
}

// CacheSize is roughly twice the number of pixels around the equator.
func (s *HealpixSlicer) CacheSize() int {
	if !s.cfg.UseCache {
		return 0
	}
	return int(math.Round(4 * math.Pi / Nside2Resol(s.cfg.Nside)))
}

func (s *HealpixSlicer) BadValue() float64 {
	return UNSEEN
}
