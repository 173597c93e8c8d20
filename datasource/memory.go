package datasource

import (
	"context"
	"strings"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"maf/errs"
	"maf/table"
	"maf/utils"
)

// Filter selects the rows of a table that satisfy a predicate.
type Filter func(t *table.Table) ([]int, error)

// MemorySource serves fetches from a table held in memory. Predicates are
// resolved through filters registered under the predicate string; the empty
// predicate, and any predicate without a filter, selects every row.
type MemorySource struct {
	data   *table.Table
	logger log.Logger

	mtx     sync.RWMutex
	filters map[string]Filter
}

func NewMemorySource(data *table.Table, logger log.Logger) *MemorySource {
	return &MemorySource{
		data:    data,
		logger:  utils.OrNop(logger),
		filters: make(map[string]Filter),
	}
}

func (s *MemorySource) RegisterFilter(predicate string, filter Filter) *MemorySource {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.filters[strings.TrimSpace(predicate)] = filter
	return s
}

// ColumnFilter is a Filter keeping rows whose numeric column satisfies keep.
func ColumnFilter(col string, keep func(v float64) bool) Filter {
	return func(t *table.Table) ([]int, error) {
		values, err := t.Floats(col)
		if err != nil {
			return nil, err
		}
		rows := make([]int, 0)
		for row, value := range values {
			if keep(value) {
				rows = append(rows, row)
			}
		}
		return rows, nil
	}
}

func (s *MemorySource) Fetch(ctx context.Context, columns []string, predicate string) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	columns = normalizeColumns(columns)
	if err := s.data.Require("MemorySource", columns...); err != nil {
		return nil, err
	}

	predicate = strings.TrimSpace(predicate)
	s.mtx.RLock()
	filter, ok := s.filters[predicate]
	s.mtx.RUnlock()

	var rows []int
	if ok {
		var err error
		if rows, err = filter(s.data); err != nil {
			return nil, errs.Wrap(errs.ErrColumnMismatch, "MemorySource", err)
		}
	} else {
		if predicate != "" {
			level.Debug(s.logger).Log("msg", "no filter registered for predicate, selecting all rows", "predicate", predicate)
		}
		rows = s.data.All().Indices()
	}
	if len(rows) == 0 {
		level.Warn(s.logger).Log("msg", "predicate selected no rows", "predicate", predicate)
	}
	return project(s.data, columns, rows)
}

// project gathers the given rows of the given columns into a new table.
func project(data *table.Table, columns []string, rows []int) (*table.Table, error) {
	view := data.Slice(rows)
	out := make([]*table.Column, 0, len(columns))
	for _, name := range columns {
		col, _ := data.Column(name)
		switch col.Kind {
		case table.Int:
			values, err := view.Ints(name)
			if err != nil {
				return nil, err
			}
			out = append(out, table.NewInt(name, values))
		case table.String:
			values, err := view.Strings(name)
			if err != nil {
				return nil, err
			}
			out = append(out, table.NewString(name, values))
		default:
			values, err := view.Floats(name)
			if err != nil {
				return nil, err
			}
			out = append(out, table.NewFloat(name, values))
		}
	}
	return table.New(out...)
}
