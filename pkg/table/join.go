package table

import (
	"github.com/David-Botos/olist-features/pkg/model"
)

// InnerJoin joins t with right on equal values of the key columns.
//
// Output columns are t's columns followed by right's non-key columns. Output
// rows follow t's row order, and for each left row the matching right rows in
// their own order, so fan-out on duplicate keys is preserved. Rows with a null
// key never match. Key columns must share a type on both sides, and right's
// non-key columns must not collide with t's columns.
func (t *Table) InnerJoin(right *Table, on ...string) (*Table, error) {
	if err := t.Require(on...); err != nil {
		return nil, err
	}
	if err := right.Require(on...); err != nil {
		return nil, err
	}

	meta := t.meta.Clone()
	meta.Name = t.meta.Name + "_" + right.meta.Name
	meta.PrimaryKeys = nil
	for _, key := range on {
		l, r := t.meta.GetColumnByName(key), right.meta.GetColumnByName(key)
		if l.Type != r.Type {
			return nil, &model.SchemaError{Table: meta.Name, Column: key, Err: model.ErrTypeMismatch}
		}
	}

	extra := make([]string, 0, len(right.meta.Columns))
	for _, col := range right.meta.Columns {
		if contains(on, col.Name) {
			continue
		}
		if meta.HasColumn(col.Name) {
			return nil, &model.SchemaError{Table: meta.Name, Column: col.Name, Err: model.ErrDuplicateColumn}
		}
		meta.Columns = append(meta.Columns, col)
		extra = append(extra, col.Name)
	}

	index := make(map[string][]int, len(right.rows))
	for i, r := range right.rows {
		k := rowKey(r, on, false)
		if k == "" {
			continue
		}
		index[k] = append(index[k], i)
	}

	rows := make([]Row, 0, len(t.rows))
	for _, l := range t.rows {
		k := rowKey(l, on, false)
		if k == "" {
			continue
		}
		for _, ri := range index[k] {
			out := make(Row, len(meta.Columns))
			for col, v := range l {
				out[col] = v
			}
			r := right.rows[ri]
			for _, col := range extra {
				out[col] = r[col]
			}
			rows = append(rows, out)
		}
	}

	return &Table{meta: meta, rows: rows}, nil
}
