package slicer

import (
	"reflect"
	"sort"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"maf/errs"
	"maf/table"
	"maf/utils"
)

// Field is one entry of a survey pointing catalog. RA and Dec are radians.
type Field struct {
	ID  int64
	RA  float64
	Dec float64
}

type OpsimFieldConfig struct {
	FieldIDCol  string
	FieldRACol  string
	FieldDecCol string
	// Fields is the pointing catalog. When empty, it is derived at setup from
	// the first visit of every distinct field ID.
	Fields []Field
}

func DefaultOpsimFieldConfig() OpsimFieldConfig {
	return OpsimFieldConfig{
		FieldIDCol:  "fieldID",
		FieldRACol:  DefaultLonCol,
		FieldDecCol: DefaultLatCol,
	}
}

// OpsimFieldSlicer groups visits by survey field: slice point i holds every
// visit whose field ID equals the i-th catalog entry.
type OpsimFieldSlicer struct {
	cfg    OpsimFieldConfig
	logger log.Logger

	fields []Field
	groups [][]int
	setup  bool
}

func NewOpsimFieldSlicer(cfg OpsimFieldConfig, logger log.Logger) (*OpsimFieldSlicer, error) {
	s := &OpsimFieldSlicer{cfg: cfg, logger: utils.OrNop(logger)}
	if cfg.FieldIDCol == "" || cfg.FieldRACol == "" || cfg.FieldDecCol == "" {
		return nil, errs.Configuration(s.Name(), "field id, ra and dec column names are required")
	}
	seen := make(map[int64]bool, len(cfg.Fields))
	for _, field := range cfg.Fields {
		if seen[field.ID] {
			return nil, errs.Configuration(s.Name(), "duplicate field id %d in catalog", field.ID)
		}
		seen[field.ID] = true
	}
	return s, nil
}

func (s *OpsimFieldSlicer) Name() string {
	return "OpsimFieldSlicer"
}

func (s *OpsimFieldSlicer) Columns() []string {
	return []string{s.cfg.FieldIDCol, s.cfg.FieldRACol, s.cfg.FieldDecCol}
}

func (s *OpsimFieldSlicer) Setup(t *table.Table) error {
	if err := t.Require(s.Name(), s.cfg.FieldIDCol); err != nil {
		return err
	}
	ids, err := t.Ints(s.cfg.FieldIDCol)
	if err != nil {
		return errs.Wrap(errs.ErrColumnMismatch, s.Name(), err)
	}

	fields := s.cfg.Fields
	if len(fields) == 0 {
		if fields, err = deriveFields(t, ids, s.cfg); err != nil {
			return err
		}
		level.Debug(s.logger).Log("msg", "derived field catalog from visits", "fields", len(fields))
	}

	position := make(map[int64]int, len(fields))
	for i, field := range fields {
		position[field.ID] = i
	}
	groups := make([][]int, len(fields))
	for i := range groups {
		groups[i] = make([]int, 0)
	}
	unmatched := 0
	for row, id := range ids {
		if i, ok := position[id]; ok {
			groups[i] = append(groups[i], row)
		} else {
			unmatched++
		}
	}
	if unmatched > 0 {
		level.Info(s.logger).Log("msg", "visits outside field catalog", "visits", unmatched)
	}

	s.fields = fields
	s.groups = groups
	s.setup = true
	return nil
}

func deriveFields(t *table.Table, ids []int64, cfg OpsimFieldConfig) ([]Field, error) {
	if err := t.Require("OpsimFieldSlicer", cfg.FieldRACol, cfg.FieldDecCol); err != nil {
		return nil, err
	}
	ra, err := t.Floats(cfg.FieldRACol)
	if err != nil {
		return nil, err
	}
	dec, err := t.Floats(cfg.FieldDecCol)
	if err != nil {
		return nil, err
	}
	first := make(map[int64]int)
	for row, id := range ids {
		if _, ok := first[id]; !ok {
			first[id] = row
		}
	}
	fields := make([]Field, 0, len(first))
	for id, row := range first {
		fields = append(fields, Field{ID: id, RA: ra[row], Dec: dec[row]})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].ID < fields[j].ID })
	return fields, nil
}

func (s *OpsimFieldSlicer) IsSetup() bool {
	return s.setup
}

func (s *OpsimFieldSlicer) Len() int {
	if !s.setup {
		return len(s.cfg.Fields)
	}
	return len(s.fields)
}

func (s *OpsimFieldSlicer) SliceAt(i int) (Point, error) {
	if err := checkSliceAt(s.Name(), s.setup, i, len(s.groups)); err != nil {
		return Point{}, err
	}
	return Point{ID: i, Indices: s.groups[i]}, nil
}

func (s *OpsimFieldSlicer) Fields() []Field {
	return s.fields
}

func (s *OpsimFieldSlicer) Points() SlicePoints {
	points := SlicePoints{
		Kind: s.Name(),
		IDs:  make([]int, len(s.fields)),
		RA:   make([]float64, len(s.fields)),
		Dec:  make([]float64, len(s.fields)),
	}
	for i, field := range s.fields {
		points.IDs[i] = int(field.ID)
		points.RA[i] = field.RA
		points.Dec[i] = field.Dec
	}
	return points
}

func (s *OpsimFieldSlicer) Equal(other Slicer) bool {
	o, ok := other.(*OpsimFieldSlicer)
	if !ok {
		return false
	}
	return reflect.DeepEqual(s.cfg, o.cfg)
}

func (s *OpsimFieldSlicer) CacheSize() int {
	return 0
}

func (s *OpsimFieldSlicer) BadValue() float64 {
	return DefaultBadValue
}
