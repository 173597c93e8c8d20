package slicer

import (
	"math"
	"reflect"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"gonum.org/v1/gonum/floats"

	"maf/errs"
	"maf/stats"
	"maf/table"
	"maf/utils"
)

// OneDConfig selects how bin edges are chosen for OneDSlicer. Precedence:
// BinSize, then explicit Bins, then NBins, then a Freedman-Diaconis default.
// BinMin and BinMax override the data range for BinSize, NBins and the default.
type OneDConfig struct {
	SliceColName string
	Bins         []float64
	NBins        int
	BinSize      float64
	BinMin       *float64
	BinMax       *float64
}

// OneDSlicer bins rows on the value of one numeric column.
type OneDSlicer struct {
	cfg    OneDConfig
	logger log.Logger

	edges []float64
	bins  [][]int
	setup bool
}

func NewOneDSlicer(cfg OneDConfig, logger log.Logger) (*OneDSlicer, error) {
	s := &OneDSlicer{cfg: cfg, logger: utils.OrNop(logger)}
	if err := s.validate(); err != nil {
		return nil, err
	}
	if cfg.BinSize > 0 && (cfg.NBins > 0 || len(cfg.Bins) > 0) {
		level.Warn(s.logger).Log(
			"msg", "both binsize and bins specified, binsize takes precedence",
			"slicer", s.Name(),
			"col", cfg.SliceColName,
			"binsize", cfg.BinSize)
	}
	return s, nil
}

func (s *OneDSlicer) validate() error {
	cfg := s.cfg
	if cfg.SliceColName == "" {
		return errs.Configuration(s.Name(), "slice column name is required")
	}
	if cfg.NBins < 0 {
		return errs.Configuration(s.Name(), "number of bins must be positive, got %d", cfg.NBins)
	}
	if cfg.BinSize < 0 || math.IsNaN(cfg.BinSize) {
		return errs.Configuration(s.Name(), "binsize must be positive, got %v", cfg.BinSize)
	}
	if len(cfg.Bins) > 0 && cfg.NBins > 0 {
		return errs.Configuration(s.Name(), "explicit bin edges and a bin count are mutually exclusive")
	}
	if len(cfg.Bins) == 1 {
		return errs.Configuration(s.Name(), "explicit bins need at least two edges")
	}
	if len(cfg.Bins) > 0 && !stats.IsMonotonic(cfg.Bins) {
		return errs.Configuration(s.Name(), "bin edges must be monotonically increasing")
	}
	if cfg.BinMin != nil && cfg.BinMax != nil && !(*cfg.BinMin < *cfg.BinMax) {
		return errs.Configuration(s.Name(), "binMin %v must be below binMax %v", *cfg.BinMin, *cfg.BinMax)
	}
	return nil
}

func (s *OneDSlicer) Name() string {
	return "OneDSlicer"
}

func (s *OneDSlicer) Columns() []string {
	return []string{s.cfg.SliceColName}
}

func (s *OneDSlicer) Setup(t *table.Table) error {
	if err := t.Require(s.Name(), s.cfg.SliceColName); err != nil {
		return err
	}
	values, err := t.Floats(s.cfg.SliceColName)
	if err != nil {
		return errs.Wrap(errs.ErrColumnMismatch, s.Name(), err)
	}
	edges, err := s.makeEdges(values)
	if err != nil {
		return err
	}

	bins := make([][]int, len(edges)-1)
	for i := range bins {
		bins[i] = make([]int, 0)
	}
	for row, value := range values {
		if bin, ok := stats.BinIndex(edges, value); ok {
			bins[bin] = append(bins[bin], row)
		}
	}

	s.edges = edges
	s.bins = bins
	s.setup = true
	level.Debug(s.logger).Log("msg", "slicer set up", "slicer", s.Name(),
		"col", s.cfg.SliceColName, "nbins", len(bins))
	return nil
}

func (s *OneDSlicer) dataRange(values []float64) (float64, float64, error) {
	lo, hi, ok := stats.MinMax(values)
	if s.cfg.BinMin != nil {
		lo = *s.cfg.BinMin
	}
	if s.cfg.BinMax != nil {
		hi = *s.cfg.BinMax
	}
	if !ok && (s.cfg.BinMin == nil || s.cfg.BinMax == nil) {
		return 0, 0, errs.Configuration(s.Name(),
			"cannot derive bin range for %q from an empty column", s.cfg.SliceColName)
	}
	if !(lo < hi) {
		if lo > hi {
			return 0, 0, errs.Configuration(s.Name(), "bin range [%v, %v] is empty", lo, hi)
		}
		// zero variance: widen so a single value still lands in a bin
		lo -= 0.5
		hi += 0.5
	}
	return lo, hi, nil
}

func (s *OneDSlicer) makeEdges(values []float64) ([]float64, error) {
	cfg := s.cfg
	if cfg.BinSize == 0 && len(cfg.Bins) > 0 {
		edges := make([]float64, len(cfg.Bins))
		copy(edges, cfg.Bins)
		return edges, nil
	}

	lo, hi, err := s.dataRange(values)
	if err != nil {
		return nil, err
	}

	if cfg.BinSize > 0 {
		nbins := int(math.Ceil((hi-lo)/cfg.BinSize - 1e-9))
		if nbins < 1 {
			nbins = 1
		}
		edges := make([]float64, nbins+1)
		for i := range edges {
			edges[i] = lo + float64(i)*cfg.BinSize
		}
		return edges, nil
	}

	nbins := cfg.NBins
	if nbins == 0 {
		nbins = defaultBinCount(values, lo, hi)
	}
	return floats.Span(make([]float64, nbins+1), lo, hi), nil
}

func defaultBinCount(values []float64, lo, hi float64) int {
	inRange := make([]float64, 0, len(values))
	for _, value := range values {
		if value >= lo && value <= hi {
			inRange = append(inRange, value)
		}
	}
	width := stats.FreedmanDiaconisWidth(inRange)
	if width <= 0 {
		return stats.SturgesBins(len(inRange))
	}
	nbins := int(math.Ceil((hi - lo) / width))
	if nbins < 1 {
		nbins = 1
	}
	return nbins
}

func (s *OneDSlicer) IsSetup() bool {
	return s.setup
}

func (s *OneDSlicer) Len() int {
	return len(s.bins)
}

func (s *OneDSlicer) SliceAt(i int) (Point, error) {
	if err := checkSliceAt(s.Name(), s.setup, i, len(s.bins)); err != nil {
		return Point{}, err
	}
	return Point{ID: i, Indices: s.bins[i]}, nil
}

// Edges returns the bin edges derived at setup; there is one more edge than
// slice points.
func (s *OneDSlicer) Edges() []float64 {
	return s.edges
}

func (s *OneDSlicer) Points() SlicePoints {
	return SlicePoints{Kind: s.Name(), IDs: sequence(len(s.bins)), Bins: s.edges}
}

func (s *OneDSlicer) Equal(other Slicer) bool {
	o, ok := other.(*OneDSlicer)
	if !ok {
		return false
	}
	return reflect.DeepEqual(s.cfg, o.cfg)
}

func (s *OneDSlicer) CacheSize() int {
	return 0
}

func (s *OneDSlicer) BadValue() float64 {
	return DefaultBadValue
}
