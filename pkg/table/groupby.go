package table

import (
	"fmt"
	"strings"
	"time"

	"github.com/David-Botos/olist-features/pkg/model"
)

// AggFunc selects how a group's values are reduced
type AggFunc int

const (
	// AggCount counts non-null values
	AggCount AggFunc = iota
	// AggCountDistinct counts distinct non-null values
	AggCountDistinct
	// AggSum adds non-null numeric values; an all-null group sums to zero
	AggSum
	// AggMean averages non-null numeric values; an all-null group is null
	AggMean
	// AggMin keeps the smallest non-null value
	AggMin
	// AggMax keeps the largest non-null value
	AggMax
)

// String returns the aggregation name
func (f AggFunc) String() string {
	switch f {
	case AggCount:
		return "count"
	case AggCountDistinct:
		return "count_distinct"
	case AggSum:
		return "sum"
	case AggMean:
		return "mean"
	case AggMin:
		return "min"
	case AggMax:
		return "max"
	default:
		return fmt.Sprintf("agg(%d)", int(f))
	}
}

// Aggregation reduces Column with Func into the output column As
type Aggregation struct {
	Column string
	Func   AggFunc
	As     string
}

// Count counts non-null values of column into as
func Count(column, as string) Aggregation { return Aggregation{Column: column, Func: AggCount, As: as} }

// CountDistinct counts distinct non-null values of column into as
func CountDistinct(column, as string) Aggregation {
	return Aggregation{Column: column, Func: AggCountDistinct, As: as}
}

// Sum adds column into as
func Sum(column, as string) Aggregation { return Aggregation{Column: column, Func: AggSum, As: as} }

// Mean averages column into as
func Mean(column, as string) Aggregation { return Aggregation{Column: column, Func: AggMean, As: as} }

// Min keeps the minimum of column in as
func Min(column, as string) Aggregation { return Aggregation{Column: column, Func: AggMin, As: as} }

// Max keeps the maximum of column in as
func Max(column, as string) Aggregation { return Aggregation{Column: column, Func: AggMax, As: as} }

// Grouping is a table partitioned by key columns, awaiting aggregation
type Grouping struct {
	table *Table
	keys  []string
}

// GroupBy partitions the table by the key columns. Rows with a null key are
// skipped. Groups are emitted in order of first appearance.
func (t *Table) GroupBy(keys ...string) *Grouping {
	return &Grouping{table: t, keys: keys}
}

// Aggregate reduces every group to one row holding the keys and the aggregates
func (g *Grouping) Aggregate(aggs ...Aggregation) (*Table, error) {
	src := g.table
	if err := src.Require(g.keys...); err != nil {
		return nil, err
	}

	meta := model.TableMetadata{Name: src.meta.Name, PrimaryKeys: append([]string(nil), g.keys...)}
	for _, key := range g.keys {
		col := *src.meta.GetColumnByName(key)
		col.IsPrimaryKey = true
		meta.Columns = append(meta.Columns, col)
	}
	for _, agg := range aggs {
		if err := src.Require(agg.Column); err != nil {
			return nil, err
		}
		outType, err := aggregateType(agg, src.meta.GetColumnByName(agg.Column).Type)
		if err != nil {
			return nil, &model.SchemaError{Table: src.meta.Name, Column: agg.Column, Err: err}
		}
		if meta.HasColumn(agg.As) {
			return nil, &model.SchemaError{Table: src.meta.Name, Column: agg.As, Err: model.ErrDuplicateColumn}
		}
		meta.Columns = append(meta.Columns, model.Column{Name: agg.As, Type: outType, Nullable: true})
	}

	order := make([]string, 0)
	groups := make(map[string][]Row)
	for _, r := range src.rows {
		k := rowKey(r, g.keys, false)
		if k == "" {
			continue
		}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r)
	}

	rows := make([]Row, 0, len(order))
	for _, k := range order {
		members := groups[k]
		out := make(Row, len(meta.Columns))
		for _, key := range g.keys {
			out[key] = members[0][key]
		}
		for i, agg := range aggs {
			out[agg.As] = reduce(agg, meta.Columns[len(g.keys)+i].Type, members)
		}
		rows = append(rows, out)
	}

	return &Table{meta: meta, rows: rows}, nil
}

// aggregateType derives the output type of an aggregation over a source type
func aggregateType(agg Aggregation, src model.DataType) (model.DataType, error) {
	switch agg.Func {
	case AggCount, AggCountDistinct:
		return model.TypeInt, nil
	case AggSum:
		switch src {
		case model.TypeInt, model.TypeFloat:
			return src, nil
		}
	case AggMean:
		switch src {
		case model.TypeInt, model.TypeFloat:
			return model.TypeFloat, nil
		}
	case AggMin, AggMax:
		return src, nil
	}
	return 0, fmt.Errorf("%s over %s column: %w", agg.Func, src, model.ErrTypeMismatch)
}

// reduce applies one aggregation to the members of a group
func reduce(agg Aggregation, outType model.DataType, members []Row) interface{} {
	switch agg.Func {
	case AggCount:
		var n int64
		for _, r := range members {
			if r[agg.Column] != nil {
				n++
			}
		}
		return n

	case AggCountDistinct:
		seen := make(map[string]struct{}, len(members))
		for _, r := range members {
			if k, ok := encodeValue(r[agg.Column]); ok {
				seen[k] = struct{}{}
			}
		}
		return int64(len(seen))

	case AggSum:
		if outType == model.TypeInt {
			var total int64
			for _, r := range members {
				if v, ok := r.Int(agg.Column); ok {
					total += v
				}
			}
			return total
		}
		var total float64
		for _, r := range members {
			if v, ok := r.Float(agg.Column); ok {
				total += v
			}
		}
		return total

	case AggMean:
		var total float64
		var n int
		for _, r := range members {
			if v, ok := r.Float(agg.Column); ok {
				total += v
				n++
			}
		}
		if n == 0 {
			return nil
		}
		return total / float64(n)

	case AggMin, AggMax:
		var best interface{}
		for _, r := range members {
			v := r[agg.Column]
			if v == nil {
				continue
			}
			if best == nil {
				best = v
				continue
			}
			c := compareValues(v, best)
			if (agg.Func == AggMin && c < 0) || (agg.Func == AggMax && c > 0) {
				best = v
			}
		}
		return best
	}
	return nil
}

// compareValues orders two non-null values of the same type
func compareValues(a, b interface{}) int {
	switch av := a.(type) {
	case string:
		return strings.Compare(av, b.(string))
	case int64:
		bv := b.(int64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case time.Time:
		return av.Compare(b.(time.Time))
	}
	return 0
}
