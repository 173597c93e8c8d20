package slicer

import (
	"maf/table"
)

// UniSlicer groups every row into a single slice point.
type UniSlicer struct {
	indices []int
	setup   bool
}

func NewUniSlicer() *UniSlicer {
	return &UniSlicer{}
}

func (s *UniSlicer) Name() string {
	return "UniSlicer"
}

func (s *UniSlicer) Columns() []string {
	return make([]string, 0)
}

func (s *UniSlicer) Setup(t *table.Table) error {
	s.indices = sequence(t.Len())
	s.setup = true
	return nil
}

func (s *UniSlicer) IsSetup() bool {
	return s.setup
}

func (s *UniSlicer) Len() int {
	return 1
}

func (s *UniSlicer) SliceAt(i int) (Point, error) {
	if err := checkSliceAt(s.Name(), s.setup, i, 1); err != nil {
		return Point{}, err
	}
	return Point{ID: 0, Indices: s.indices}, nil
}

func (s *UniSlicer) Points() SlicePoints {
	return SlicePoints{Kind: s.Name(), IDs: []int{0}}
}

func (s *UniSlicer) Equal(other Slicer) bool {
	_, ok := other.(*UniSlicer)
	return ok
}

func (s *UniSlicer) CacheSize() int {
	return 0
}

func (s *UniSlicer) BadValue() float64 {
	return DefaultBadValue
}
