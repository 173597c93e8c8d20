package datasource

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"maf/errs"
	"maf/table"
	"maf/utils"
)

// DefaultDriver is registered by this package. Callers using another database
// register its driver themselves and pass the name to Open.
const DefaultDriver = "postgres"

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func Open(driver, dsn string) (*sqlx.DB, error) {
	if driver == "" {
		driver = DefaultDriver
	}
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to visit database: %w", err)
	}
	return db, nil
}

// SQLSource fetches visits from one table of a survey-simulation database.
// The predicate is a trusted SQL boolean expression placed in the WHERE clause.
type SQLSource struct {
	db     *sqlx.DB
	table  string
	logger log.Logger
}

func NewSQLSource(db *sqlx.DB, tableName string, logger log.Logger) (*SQLSource, error) {
	if !identifier.MatchString(tableName) {
		return nil, errs.Configuration("SQLSource", "invalid table name %q", tableName)
	}
	return &SQLSource{db: db, table: tableName, logger: utils.OrNop(logger)}, nil
}

func (s *SQLSource) Fetch(ctx context.Context, columns []string, predicate string) (*table.Table, error) {
	columns = normalizeColumns(columns)
	for _, col := range columns {
		if !identifier.MatchString(col) {
			return nil, errs.Configuration("SQLSource", "invalid column name %q", col)
		}
	}
	if err := s.checkColumns(ctx, columns); err != nil {
		return nil, err
	}

	query := buildQuery(s.table, columns, predicate)
	level.Debug(s.logger).Log("msg", "querying visits", "query", query)
	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query visits: %w", err)
	}
	defer rows.Close()

	records := make([][]interface{}, 0)
	for rows.Next() {
		record, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read visits: %w", err)
	}
	if len(records) == 0 {
		level.Warn(s.logger).Log("msg", "predicate selected no rows", "predicate", predicate)
	}
	return collect(columns, records)
}

func (s *SQLSource) checkColumns(ctx context.Context, columns []string) error {
	rows, err := s.db.QueryxContext(ctx, fmt.Sprintf("SELECT * FROM %s WHERE 1=0", s.table))
	if err != nil {
		return fmt.Errorf("failed to describe %s: %w", s.table, err)
	}
	defer rows.Close()
	available, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("failed to describe %s: %w", s.table, err)
	}
	have := make(map[string]bool, len(available))
	for _, name := range available {
		have[name] = true
	}
	missing := make([]string, 0)
	for _, col := range columns {
		if !have[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return errs.Column("SQLSource", "table %s lacks columns [%s]", s.table, strings.Join(missing, ", "))
	}
	return nil
}

func buildQuery(tableName string, columns []string, predicate string) string {
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(columns, ", "), tableName)
	if predicate = strings.TrimSpace(predicate); predicate != "" {
		query += " WHERE " + predicate
	}
	return query
}

// collect turns scanned rows into typed columns. A column is int when every
// value is a non-null integer, float when every value is numeric or null,
// string otherwise. Nulls become NaN in float columns.
func collect(columns []string, records [][]interface{}) (*table.Table, error) {
	out := make([]*table.Column, len(columns))
	for c, name := range columns {
		kind := table.Int
		for _, record := range records {
			kind = widen(kind, record[c])
		}
		switch kind {
		case table.Int:
			values := make([]int64, len(records))
			for r, record := range records {
				values[r], _ = asInt(record[c])
			}
			out[c] = table.NewInt(name, values)
		case table.Float:
			values := make([]float64, len(records))
			for r, record := range records {
				values[r] = asFloat(record[c])
			}
			out[c] = table.NewFloat(name, values)
		default:
			values := make([]string, len(records))
			for r, record := range records {
				values[r] = asString(record[c])
			}
			out[c] = table.NewString(name, values)
		}
	}
	return table.New(out...)
}

func widen(kind table.Kind, value interface{}) table.Kind {
	if kind == table.String {
		return kind
	}
	if value == nil {
		return table.Float
	}
	if _, ok := asInt(value); ok {
		return kind
	}
	if !math.IsNaN(asFloat(value)) {
		return table.Float
	}
	return table.String
}

func asInt(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case int:
		return int64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func asFloat(value interface{}) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case []byte:
		if f, err := strconv.ParseFloat(string(v), 64); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	if i, ok := asInt(value); ok {
		return float64(i)
	}
	return math.NaN()
}

func asString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case []byte:
		return string(v)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
