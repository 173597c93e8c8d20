package table

import (
	"fmt"
	"sort"
	"strings"

	"maf/errs"
)

type Kind int

const (
	Float Kind = iota
	Int
	String
)

func (k Kind) String() string {
	switch k {
	case Float:
		return "float"
	case Int:
		return "int"
	case String:
		return "string"
	default:
		return "unknown"
	}
}

// Column holds one named, typed column. Exactly one of the value slices is
// populated, selected by Kind.
type Column struct {
	Name    string
	Kind    Kind
	Floats  []float64
	Ints    []int64
	Strings []string
}

func NewFloat(name string, values []float64) *Column {
	return &Column{Name: name, Kind: Float, Floats: values}
}

func NewInt(name string, values []int64) *Column {
	return &Column{Name: name, Kind: Int, Ints: values}
}

func NewString(name string, values []string) *Column {
	return &Column{Name: name, Kind: String, Strings: values}
}

func (col *Column) Len() int {
	switch col.Kind {
	case Float:
		return len(col.Floats)
	case Int:
		return len(col.Ints)
	default:
		return len(col.Strings)
	}
}

// Table is a column-oriented set of visit records. It is never mutated once
// handed to a slicer or coordinator.
type Table struct {
	columns map[string]*Column
	order   []string
	rows    int
}

func New(columns ...*Column) (*Table, error) {
	t := &Table{
		columns: make(map[string]*Column, len(columns)),
		order:   make([]string, 0, len(columns)),
		rows:    -1,
	}
	for _, col := range columns {
		if err := t.add(col); err != nil {
			return nil, err
		}
	}
	if t.rows < 0 {
		t.rows = 0
	}
	return t, nil
}

// FromFloats builds a single float column table, used for summary statistics
// over a metric value array.
func FromFloats(name string, values []float64) *Table {
	t, _ := New(NewFloat(name, values))
	return t
}

func (t *Table) add(col *Column) error {
	if _, ok := t.columns[col.Name]; ok {
		return errs.Configuration("table", "duplicate column %q", col.Name)
	}
	if t.rows >= 0 && col.Len() != t.rows {
		return errs.Configuration("table",
			"column %q has %d rows, expected %d", col.Name, col.Len(), t.rows)
	}
	t.rows = col.Len()
	t.columns[col.Name] = col
	t.order = append(t.order, col.Name)
	return nil
}

func (t *Table) Len() int {
	return t.rows
}

func (t *Table) Names() []string {
	names := make([]string, len(t.order))
	copy(names, t.order)
	return names
}

func (t *Table) Has(name string) bool {
	_, ok := t.columns[name]
	return ok
}

func (t *Table) Column(name string) (*Column, bool) {
	col, ok := t.columns[name]
	return col, ok
}

// Require fails with a column mismatch error naming every absent column.
func (t *Table) Require(component string, names ...string) error {
	missing := make([]string, 0)
	for _, name := range names {
		if !t.Has(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return errs.Column(component, "missing columns [%s]", strings.Join(missing, ", "))
}

// Floats returns the column as float64. Int columns are widened; the returned
// slice is shared with the table for float columns and must not be modified.
func (t *Table) Floats(name string) ([]float64, error) {
	col, ok := t.columns[name]
	if !ok {
		return nil, errs.Column("table", "missing column %q", name)
	}
	switch col.Kind {
	case Float:
		return col.Floats, nil
	case Int:
		values := make([]float64, len(col.Ints))
		for i, v := range col.Ints {
			values[i] = float64(v)
		}
		return values, nil
	default:
		return nil, errs.Column("table", "column %q is %s, not numeric", name, col.Kind)
	}
}

func (t *Table) Ints(name string) ([]int64, error) {
	col, ok := t.columns[name]
	if !ok {
		return nil, errs.Column("table", "missing column %q", name)
	}
	switch col.Kind {
	case Int:
		return col.Ints, nil
	case Float:
		values := make([]int64, len(col.Floats))
		for i, v := range col.Floats {
			values[i] = int64(v)
		}
		return values, nil
	default:
		return nil, errs.Column("table", "column %q is %s, not numeric", name, col.Kind)
	}
}

func (t *Table) Strings(name string) ([]string, error) {
	col, ok := t.columns[name]
	if !ok {
		return nil, errs.Column("table", "missing column %q", name)
	}
	if col.Kind == String {
		return col.Strings, nil
	}
	values := make([]string, col.Len())
	for i := range values {
		if col.Kind == Float {
			values[i] = fmt.Sprint(col.Floats[i])
		} else {
			values[i] = fmt.Sprint(col.Ints[i])
		}
	}
	return values, nil
}

func (t *Table) Slice(indices []int) *Slice {
	return &Slice{table: t, indices: indices}
}

func (t *Table) All() *Slice {
	indices := make([]int, t.rows)
	for i := range indices {
		indices[i] = i
	}
	return t.Slice(indices)
}
