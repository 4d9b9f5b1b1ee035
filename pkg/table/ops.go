package table

import (
	"fmt"

	"github.com/David-Botos/olist-features/pkg/model"
)

// Filter keeps the rows for which pred returns true
func (t *Table) Filter(pred func(Row) bool) *Table {
	rows := make([]Row, 0, len(t.rows))
	for _, r := range t.rows {
		if pred(r) {
			rows = append(rows, r)
		}
	}
	return &Table{meta: t.meta.Clone(), rows: rows}
}

// Select projects the table onto the named columns, in the given order
func (t *Table) Select(columns ...string) (*Table, error) {
	if err := t.Require(columns...); err != nil {
		return nil, err
	}

	meta := model.TableMetadata{Name: t.meta.Name}
	for _, name := range columns {
		if meta.HasColumn(name) {
			return nil, &model.SchemaError{Table: t.meta.Name, Column: name, Err: model.ErrDuplicateColumn}
		}
		meta.Columns = append(meta.Columns, *t.meta.GetColumnByName(name))
	}
	for _, pk := range t.meta.PrimaryKeys {
		if contains(columns, pk) {
			meta.PrimaryKeys = append(meta.PrimaryKeys, pk)
		}
	}

	rows := make([]Row, len(t.rows))
	for i, r := range t.rows {
		out := make(Row, len(columns))
		for _, name := range columns {
			out[name] = r[name]
		}
		rows[i] = out
	}
	return &Table{meta: meta, rows: rows}, nil
}

// Drop removes the named columns
func (t *Table) Drop(columns ...string) (*Table, error) {
	if err := t.Require(columns...); err != nil {
		return nil, err
	}
	keep := make([]string, 0, len(t.meta.Columns))
	for _, col := range t.meta.Columns {
		if !contains(columns, col.Name) {
			keep = append(keep, col.Name)
		}
	}
	return t.Select(keep...)
}

// Rename returns the table with columns renamed according to mapping (old -> new)
func (t *Table) Rename(mapping map[string]string) (*Table, error) {
	for old := range mapping {
		if err := t.Require(old); err != nil {
			return nil, err
		}
	}

	meta := t.meta.Clone()
	seen := make(map[string]bool, len(meta.Columns))
	for i, col := range meta.Columns {
		if renamed, ok := mapping[col.Name]; ok {
			meta.Columns[i].Name = renamed
		}
		if seen[meta.Columns[i].Name] {
			return nil, &model.SchemaError{Table: meta.Name, Column: meta.Columns[i].Name, Err: model.ErrDuplicateColumn}
		}
		seen[meta.Columns[i].Name] = true
	}
	for i, pk := range meta.PrimaryKeys {
		if renamed, ok := mapping[pk]; ok {
			meta.PrimaryKeys[i] = renamed
		}
	}

	rows := make([]Row, len(t.rows))
	for i, r := range t.rows {
		out := make(Row, len(r))
		for k, v := range r {
			if renamed, ok := mapping[k]; ok {
				k = renamed
			}
			out[k] = v
		}
		rows[i] = out
	}
	return &Table{meta: meta, rows: rows}, nil
}

// Distinct removes duplicate rows. With no subset every column takes part in
// the comparison. The first occurrence (lowest row index) of each key is kept.
// Rows whose subset contains a null are compared like any other value.
func (t *Table) Distinct(subset ...string) (*Table, error) {
	if len(subset) == 0 {
		subset = t.meta.ColumnNames()
	}
	if err := t.Require(subset...); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(t.rows))
	rows := make([]Row, 0, len(t.rows))
	for _, r := range t.rows {
		k := rowKey(r, subset, true)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		rows = append(rows, r)
	}
	return &Table{meta: t.meta.Clone(), rows: rows}, nil
}

// DropNulls removes every row holding a null in any column
func (t *Table) DropNulls() *Table {
	return t.Filter(func(r Row) bool {
		for _, col := range t.meta.Columns {
			if r[col.Name] == nil {
				return false
			}
		}
		return true
	})
}

// Derive adds (or replaces) a column computed from each row
func (t *Table) Derive(col model.Column, fn func(Row) interface{}) (*Table, error) {
	meta := t.meta.Clone()
	if existing := meta.GetColumnByName(col.Name); existing != nil {
		*existing = col
	} else {
		meta.Columns = append(meta.Columns, col)
	}

	rows := make([]Row, len(t.rows))
	for i, r := range t.rows {
		v := fn(r)
		if err := checkValue(col, v); err != nil {
			return nil, fmt.Errorf("derive %s.%s row %d: %w", meta.Name, col.Name, i, err)
		}
		out := r.Clone()
		out[col.Name] = v
		rows[i] = out
	}
	return &Table{meta: meta, rows: rows}, nil
}

// Conform projects the table onto schema's columns, in schema order, and
// re-types it under schema. Each column type must match the schema.
func (t *Table) Conform(schema model.TableMetadata) (*Table, error) {
	selected, err := t.Select(schema.ColumnNames()...)
	if err != nil {
		return nil, err
	}
	for _, want := range schema.Columns {
		got := selected.meta.GetColumnByName(want.Name)
		if got.Type != want.Type {
			return nil, &model.SchemaError{
				Table:  schema.Name,
				Column: want.Name,
				Err:    fmt.Errorf("%s, want %s: %w", got.Type, want.Type, model.ErrTypeMismatch),
			}
		}
	}
	return &Table{meta: schema.Clone(), rows: selected.rows}, nil
}
