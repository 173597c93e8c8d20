package table

import (
	"fmt"

	"maf/errs"
)

// Slice is a read-only view of the rows of a Table that belong to one slice
// point. Accessors gather copies, so metrics cannot write through to the table.
type Slice struct {
	table   *Table
	indices []int
}

func (s *Slice) Len() int {
	return len(s.indices)
}

func (s *Slice) Indices() []int {
	return s.indices
}

func (s *Slice) Has(name string) bool {
	return s.table.Has(name)
}

func (s *Slice) column(name string) (*Column, error) {
	col, ok := s.table.columns[name]
	if !ok {
		return nil, errs.Column("table", "missing column %q", name)
	}
	return col, nil
}

// Floats gathers the slice rows of a numeric column; int columns are widened
// row by row, never the whole column.
func (s *Slice) Floats(name string) ([]float64, error) {
	col, err := s.column(name)
	if err != nil {
		return nil, err
	}
	values := make([]float64, len(s.indices))
	switch col.Kind {
	case Float:
		for i, idx := range s.indices {
			values[i] = col.Floats[idx]
		}
	case Int:
		for i, idx := range s.indices {
			values[i] = float64(col.Ints[idx])
		}
	default:
		return nil, errs.Column("table", "column %q is %s, not numeric", name, col.Kind)
	}
	return values, nil
}

func (s *Slice) Ints(name string) ([]int64, error) {
	col, err := s.column(name)
	if err != nil {
		return nil, err
	}
	values := make([]int64, len(s.indices))
	switch col.Kind {
	case Int:
		for i, idx := range s.indices {
			values[i] = col.Ints[idx]
		}
	case Float:
		for i, idx := range s.indices {
			values[i] = int64(col.Floats[idx])
		}
	default:
		return nil, errs.Column("table", "column %q is %s, not numeric", name, col.Kind)
	}
	return values, nil
}

func (s *Slice) Strings(name string) ([]string, error) {
	col, err := s.column(name)
	if err != nil {
		return nil, err
	}
	values := make([]string, len(s.indices))
	for i, idx := range s.indices {
		switch col.Kind {
		case String:
			values[i] = col.Strings[idx]
		case Float:
			values[i] = fmt.Sprint(col.Floats[idx])
		default:
			values[i] = fmt.Sprint(col.Ints[idx])
		}
	}
	return values, nil
}
