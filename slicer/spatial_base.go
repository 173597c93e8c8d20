package slicer

import (
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"maf/errs"
	"maf/spatial"
	"maf/table"
)

const (
	DefaultLonCol = "fieldRA"
	DefaultLatCol = "fieldDec"
	DefaultRadius = 1.75
)

// spatialSlicer is shared by slicers whose slice points are sky positions:
// the index set of a point is every visit within radius of it.
type spatialSlicer struct {
	name   string
	lonCol string
	latCol string
	radius float64
	ra     []float64
	dec    []float64
	logger log.Logger

	index *spatial.Index
	setup bool
}

func (s *spatialSlicer) validate() error {
	if s.lonCol == "" || s.latCol == "" {
		return errs.Configuration(s.name, "spatial column names are required")
	}
	if !(s.radius > 0) || s.radius > 180 {
		return errs.Configuration(s.name, "radius must be in (0, 180] degrees, got %v", s.radius)
	}
	return nil
}

func (s *spatialSlicer) Columns() []string {
	return []string{s.lonCol, s.latCol}
}

func (s *spatialSlicer) Setup(t *table.Table) error {
	if err := t.Require(s.name, s.lonCol, s.latCol); err != nil {
		return err
	}
	lon, err := t.Floats(s.lonCol)
	if err != nil {
		return errs.Wrap(errs.ErrColumnMismatch, s.name, err)
	}
	lat, err := t.Floats(s.latCol)
	if err != nil {
		return errs.Wrap(errs.ErrColumnMismatch, s.name, err)
	}
	s.index = spatial.NewIndex(lon, lat, s.radius)
	s.setup = true
	level.Debug(s.logger).Log("msg", "spatial index built", "slicer", s.name,
		"visits", s.index.Len(), "radius", s.radius)
	return nil
}

func (s *spatialSlicer) IsSetup() bool {
	return s.setup
}

func (s *spatialSlicer) Len() int {
	return len(s.ra)
}

func (s *spatialSlicer) SliceAt(i int) (Point, error) {
	if err := checkSliceAt(s.name, s.setup, i, len(s.ra)); err != nil {
		return Point{}, err
	}
	return Point{ID: i, Indices: s.index.Query(s.ra[i], s.dec[i])}, nil
}
