package datasource

import (
	"context"
	"sort"
	"strings"

	"maf/table"
)

// Source fetches visit records. The returned table holds exactly the requested
// columns; a requested column the source does not carry is a column mismatch
// error.
type Source interface {
	Fetch(ctx context.Context, columns []string, predicate string) (*table.Table, error)
}

// normalizeColumns sorts and de-duplicates a column list so equal requests
// produce equal fetch keys.
func normalizeColumns(columns []string) []string {
	seen := make(map[string]bool, len(columns))
	out := make([]string, 0, len(columns))
	for _, col := range columns {
		if col == "" || seen[col] {
			continue
		}
		seen[col] = true
		out = append(out, col)
	}
	sort.Strings(out)
	return out
}

func fetchKey(columns []string, predicate string) string {
	return strings.Join(columns, ",") + "|" + strings.TrimSpace(predicate)
}
