package datasource

import (
	"context"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/sync/singleflight"

	"maf/table"
	"maf/utils"
)

// Memoized wraps a Source so each distinct (columns, predicate) request
// reaches it at most once. Concurrent identical requests share one fetch.
type Memoized struct {
	source Source
	logger log.Logger

	group singleflight.Group
	mtx   sync.RWMutex
	cache map[string]*table.Table
}

func NewMemoized(source Source, logger log.Logger) *Memoized {
	return &Memoized{
		source: source,
		logger: utils.OrNop(logger),
		cache:  make(map[string]*table.Table),
	}
}

func (m *Memoized) Fetch(ctx context.Context, columns []string, predicate string) (*table.Table, error) {
	columns = normalizeColumns(columns)
	key := fetchKey(columns, predicate)

	m.mtx.RLock()
	cached, ok := m.cache[key]
	m.mtx.RUnlock()
	if ok {
		return cached, nil
	}

	result, err, _ := m.group.Do(key, func() (interface{}, error) {
		m.mtx.RLock()
		cached, ok := m.cache[key]
		m.mtx.RUnlock()
		if ok {
			return cached, nil
		}
		level.Debug(m.logger).Log("msg", "fetching", "columns", len(columns), "predicate", predicate)
		data, err := m.source.Fetch(ctx, columns, predicate)
		if err != nil {
			return nil, err
		}
		m.mtx.Lock()
		m.cache[key] = data
		m.mtx.Unlock()
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*table.Table), nil
}

// Forget drops every memoized table.
func (m *Memoized) Forget() {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.cache = make(map[string]*table.Table)
}
