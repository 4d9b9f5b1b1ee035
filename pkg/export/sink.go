package export

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/David-Botos/olist-features/pkg/table"
)

// Sink persists computed tables
type Sink interface {
	// Name identifies the sink in logs and reports
	Name() string
	// Write replaces the sink's copy of the dataset and returns the number
	// of rows (or keys) stored
	Write(ctx context.Context, ds Dataset) (int64, error)
	// Count returns how many rows (or keys) the sink holds for a table
	Count(ctx context.Context, tableName string) (int64, error)
	Close() error
}

// valueRows lays out the rows of t as positional values in column order
func valueRows(t *table.Table) [][]interface{} {
	columns := t.Columns()
	out := make([][]interface{}, 0, t.Len())
	t.Each(func(_ int, r table.Row) {
		values := make([]interface{}, len(columns))
		for i, c := range columns {
			values[i] = r[c]
		}
		out = append(out, values)
	})
	return out
}

// formatValue renders a typed value as text for key-value sinks
func formatValue(v interface{}) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano), true
	default:
		return fmt.Sprintf("%v", x), true
	}
}
