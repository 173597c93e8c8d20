package slicer

import (
	"maf/errs"
	"maf/table"
)

// DefaultBadValue marks masked slice points for slicers that do not define
// their own sentinel.
const DefaultBadValue = -666.0

// Point is one slice point: its position in the slicer's sequence and the
// table rows that belong to it.
type Point struct {
	ID      int
	Indices []int
}

// SlicePoints is the metadata handed to plotting and persistence alongside a
// metric value array. Only the fields relevant to the slicer kind are set.
type SlicePoints struct {
	Kind  string
	IDs   []int
	RA    []float64
	Dec   []float64
	Bins  []float64
	Nside int
}

func (sp SlicePoints) Len() int {
	return len(sp.IDs)
}

// Slicer partitions a table into an ordered sequence of slice points.
//
// Setup must be called once per table before SliceAt; calling it again with
// another table replaces everything derived from the previous one. Equal
// compares kind and partition parameters only, never the data.
type Slicer interface {
	Name() string
	Columns() []string
	Setup(t *table.Table) error
	IsSetup() bool
	Len() int
	SliceAt(i int) (Point, error)
	Points() SlicePoints
	Equal(other Slicer) bool
	// CacheSize suggests how many distinct index subsets are worth memoizing.
	// Zero means the slicer does not benefit from caching.
	CacheSize() int
	BadValue() float64
}

func sequence(n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i
	}
	return ids
}

func checkSliceAt(name string, setup bool, i, n int) error {
	if !setup {
		return errs.State(name, "slicer not yet set up")
	}
	if i < 0 || i >= n {
		return errs.NotFound(name, "slice point %d out of range [0, %d)", i, n)
	}
	return nil
}
