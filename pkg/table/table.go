// Package table implements an immutable in-memory relational table and the
// operators the feature engines are built from: filter, projection, rename,
// distinct, derive, inner join, group-by aggregation and null dropping.
//
// Every operator returns a new Table. Row maps are shared between tables only
// when an operator leaves them untouched, and are never written after a table
// is built; exported accessors hand out copies.
package table

import (
	"fmt"
	"time"

	"github.com/David-Botos/olist-features/pkg/model"
)

// Row maps column names to typed values: string, int64, float64, time.Time or nil
type Row map[string]interface{}

// Clone returns a shallow copy of the row
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// IsNull reports whether the column is absent or nil
func (r Row) IsNull(col string) bool {
	return r[col] == nil
}

// String returns the string value of a column
func (r Row) String(col string) (string, bool) {
	v, ok := r[col].(string)
	return v, ok
}

// Int returns the integer value of a column
func (r Row) Int(col string) (int64, bool) {
	v, ok := r[col].(int64)
	return v, ok
}

// Float returns the numeric value of a column, widening integers
func (r Row) Float(col string) (float64, bool) {
	switch v := r[col].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Time returns the timestamp value of a column
func (r Row) Time(col string) (time.Time, bool) {
	v, ok := r[col].(time.Time)
	return v, ok
}

// Table is an ordered collection of rows sharing typed columns
type Table struct {
	meta model.TableMetadata
	rows []Row
}

// New builds a table from metadata and rows. Values are checked against the
// column types; columns missing from a row are stored as null and keys that
// are not declared columns are dropped.
func New(meta model.TableMetadata, rows []Row) (*Table, error) {
	seen := make(map[string]bool, len(meta.Columns))
	for _, col := range meta.Columns {
		if seen[col.Name] {
			return nil, &model.SchemaError{Table: meta.Name, Column: col.Name, Err: model.ErrDuplicateColumn}
		}
		seen[col.Name] = true
	}

	out := make([]Row, 0, len(rows))
	for i, row := range rows {
		clean := make(Row, len(meta.Columns))
		for _, col := range meta.Columns {
			v := row[col.Name]
			if err := checkValue(col, v); err != nil {
				return nil, fmt.Errorf("table %s row %d: %w", meta.Name, i, err)
			}
			clean[col.Name] = v
		}
		out = append(out, clean)
	}

	return &Table{meta: meta.Clone(), rows: out}, nil
}

// MustNew is New for statically known inputs; it panics on error
func MustNew(meta model.TableMetadata, rows []Row) *Table {
	t, err := New(meta, rows)
	if err != nil {
		panic(err)
	}
	return t
}

// Empty returns a table with the given metadata and no rows
func Empty(meta model.TableMetadata) *Table {
	return &Table{meta: meta.Clone()}
}

// Name returns the table name
func (t *Table) Name() string {
	return t.meta.Name
}

// WithName returns the same rows under a different table name
func (t *Table) WithName(name string) *Table {
	meta := t.meta.Clone()
	meta.Name = name
	return &Table{meta: meta, rows: t.rows}
}

// Metadata returns a copy of the table metadata
func (t *Table) Metadata() model.TableMetadata {
	return t.meta.Clone()
}

// Columns returns the column names in order
func (t *Table) Columns() []string {
	return t.meta.ColumnNames()
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.rows)
}

// Row returns a copy of the i-th row
func (t *Table) Row(i int) Row {
	return t.rows[i].Clone()
}

// Rows returns copies of all rows
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.Clone()
	}
	return out
}

// Each calls fn for every row in order; fn must not retain or modify the row
func (t *Table) Each(fn func(i int, r Row)) {
	for i, r := range t.rows {
		fn(i, r)
	}
}

// Column returns the values of one column in row order
func (t *Table) Column(name string) ([]interface{}, error) {
	if err := t.Require(name); err != nil {
		return nil, err
	}
	out := make([]interface{}, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[name]
	}
	return out, nil
}

// Require returns a SchemaError naming the first missing column
func (t *Table) Require(columns ...string) error {
	return t.meta.Require(columns...)
}

// Head returns the first n rows as a new table
func (t *Table) Head(n int) *Table {
	if n > len(t.rows) {
		n = len(t.rows)
	}
	if n < 0 {
		n = 0
	}
	return &Table{meta: t.meta.Clone(), rows: t.rows[:n:n]}
}

// checkValue verifies that v may be stored in col
func checkValue(col model.Column, v interface{}) error {
	if v == nil {
		return nil
	}
	ok := false
	switch col.Type {
	case model.TypeString:
		_, ok = v.(string)
	case model.TypeInt:
		_, ok = v.(int64)
	case model.TypeFloat:
		_, ok = v.(float64)
	case model.TypeTimestamp:
		_, ok = v.(time.Time)
	}
	if !ok {
		return fmt.Errorf("column %s expects %s, got %T: %w", col.Name, col.Type, v, model.ErrTypeMismatch)
	}
	return nil
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
