package slicer

import (
	"reflect"

	"github.com/go-kit/log"

	"maf/errs"
	"maf/utils"
)

type UserPointsConfig struct {
	RA     []float64 // radians
	Dec    []float64 // radians
	LonCol string
	LatCol string
	Radius float64 // degrees
}

// UserPointsSlicer uses an arbitrary list of sky positions as slice points.
type UserPointsSlicer struct {
	spatialSlicer
	cfg UserPointsConfig
}

func NewUserPointsSlicer(cfg UserPointsConfig, logger log.Logger) (*UserPointsSlicer, error) {
	if cfg.LonCol == "" {
		cfg.LonCol = DefaultLonCol
	}
	if cfg.LatCol == "" {
		cfg.LatCol = DefaultLatCol
	}
	if cfg.Radius == 0 {
		cfg.Radius = DefaultRadius
	}
	s := &UserPointsSlicer{
		spatialSlicer: spatialSlicer{
			name:   "UserPointsSlicer",
			lonCol: cfg.LonCol,
			latCol: cfg.LatCol,
			radius: cfg.Radius,
			logger: utils.OrNop(logger),
		},
		cfg: cfg,
	}
	if len(cfg.RA) != len(cfg.Dec) {
		return nil, errs.Configuration(s.name, "ra and dec lengths differ (%d != %d)", len(cfg.RA), len(cfg.Dec))
	}
	if len(cfg.RA) == 0 {
		return nil, errs.Configuration(s.name, "at least one point is required")
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	s.ra = append([]float64(nil), cfg.RA...)
	s.dec = append([]float64(nil), cfg.Dec...)
	return s, nil
}

func (s *UserPointsSlicer) Name() string {
	return s.name
}

func (s *UserPointsSlicer) Points() SlicePoints {
	return SlicePoints{Kind: s.name, IDs: sequence(len(s.ra)), RA: s.ra, Dec: s.dec}
}

func (s *UserPointsSlicer) Equal(other Slicer) bool {
	o, ok := other.(*UserPointsSlicer)
	if !ok {
		return false
	}
	return reflect.DeepEqual(s.cfg, o.cfg)
}

func (s *UserPointsSlicer) CacheSize() int {
	return 0
}

func (s *UserPointsSlicer) BadValue() float64 {
	return DefaultBadValue
}
