package table

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/olist-features/pkg/model"
)

func itemsTable(t *testing.T) *Table {
	t.Helper()
	meta := model.TableMetadata{
		Name: "order_items",
		Columns: []model.Column{
			{Name: "order_id", Type: model.TypeString},
			{Name: "seller_id", Type: model.TypeString},
			{Name: "price", Type: model.TypeFloat, Nullable: true},
			{Name: "qty", Type: model.TypeInt, Nullable: true},
		},
	}
	tbl, err := New(meta, []Row{
		{"order_id": "o1", "seller_id": "s1", "price": 10.0, "qty": int64(1)},
		{"order_id": "o1", "seller_id": "s2", "price": 20.0, "qty": int64(2)},
		{"order_id": "o2", "seller_id": "s1", "price": nil, "qty": int64(3)},
		{"order_id": "o3", "seller_id": nil, "price": 5.0, "qty": nil},
	})
	require.NoError(t, err)
	return tbl
}

func TestNew(t *testing.T) {
	t.Run("rejects wrong value types", func(t *testing.T) {
		meta := model.TableMetadata{Name: "x", Columns: []model.Column{{Name: "n", Type: model.TypeInt}}}
		_, err := New(meta, []Row{{"n": 1.5}})
		require.ErrorIs(t, err, model.ErrTypeMismatch)
	})

	t.Run("rejects duplicate columns", func(t *testing.T) {
		meta := model.TableMetadata{Name: "x", Columns: []model.Column{
			{Name: "a", Type: model.TypeInt},
			{Name: "a", Type: model.TypeString},
		}}
		_, err := New(meta, nil)
		require.ErrorIs(t, err, model.ErrDuplicateColumn)
	})

	t.Run("fills missing and drops undeclared values", func(t *testing.T) {
		meta := model.TableMetadata{Name: "x", Columns: []model.Column{{Name: "a", Type: model.TypeString}}}
		tbl, err := New(meta, []Row{{"b": "ignored"}})
		require.NoError(t, err)
		assert.Equal(t, Row{"a": nil}, tbl.Row(0))
	})

	t.Run("rows are copies", func(t *testing.T) {
		tbl := itemsTable(t)
		r := tbl.Row(0)
		r["price"] = 999.0
		v, _ := tbl.Row(0).Float("price")
		assert.Equal(t, 10.0, v)
	})
}

func TestFilterSelectRename(t *testing.T) {
	tbl := itemsTable(t)

	cheap := tbl.Filter(func(r Row) bool {
		p, ok := r.Float("price")
		return ok && p < 15
	})
	assert.Equal(t, 2, cheap.Len())
	assert.Equal(t, 4, tbl.Len())

	sel, err := tbl.Select("seller_id", "order_id")
	require.NoError(t, err)
	assert.Equal(t, []string{"seller_id", "order_id"}, sel.Columns())

	_, err = tbl.Select("missing")
	var schemaErr *model.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "missing", schemaErr.Column)
	assert.True(t, errors.Is(err, model.ErrMissingColumn))

	renamed, err := tbl.Rename(map[string]string{"price": "amount"})
	require.NoError(t, err)
	assert.Equal(t, []string{"order_id", "seller_id", "amount", "qty"}, renamed.Columns())
	v, _ := renamed.Row(1).Float("amount")
	assert.Equal(t, 20.0, v)

	_, err = tbl.Rename(map[string]string{"price": "qty"})
	require.ErrorIs(t, err, model.ErrDuplicateColumn)

	dropped, err := tbl.Drop("qty", "price")
	require.NoError(t, err)
	assert.Equal(t, []string{"order_id", "seller_id"}, dropped.Columns())
}

func TestDistinct(t *testing.T) {
	tbl := itemsTable(t)

	byOrder, err := tbl.Distinct("order_id")
	require.NoError(t, err)
	require.Equal(t, 3, byOrder.Len())
	s, _ := byOrder.Row(0).String("seller_id")
	assert.Equal(t, "s1", s, "first occurrence wins")

	all, err := tbl.Distinct()
	require.NoError(t, err)
	assert.Equal(t, 4, all.Len())

	meta := model.TableMetadata{Name: "x", Columns: []model.Column{{Name: "a", Type: model.TypeString, Nullable: true}}}
	nulls := MustNew(meta, []Row{{"a": nil}, {"a": nil}, {"a": "v"}})
	d, err := nulls.Distinct()
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())
}

func TestDropNullsAndDerive(t *testing.T) {
	tbl := itemsTable(t)
	assert.Equal(t, 2, tbl.DropNulls().Len())

	derived, err := tbl.Derive(model.Column{Name: "total", Type: model.TypeFloat, Nullable: true}, func(r Row) interface{} {
		p, ok := r.Float("price")
		q, ok2 := r.Float("qty")
		if !ok || !ok2 {
			return nil
		}
		return p * q
	})
	require.NoError(t, err)
	vals, err := derived.Column("total")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{10.0, 40.0, nil, nil}, vals)

	_, err = tbl.Derive(model.Column{Name: "bad", Type: model.TypeInt}, func(Row) interface{} { return "x" })
	require.ErrorIs(t, err, model.ErrTypeMismatch)
}

func TestInnerJoin(t *testing.T) {
	items := itemsTable(t)
	sellers := MustNew(model.TableMetadata{
		Name: "sellers",
		Columns: []model.Column{
			{Name: "seller_id", Type: model.TypeString},
			{Name: "state", Type: model.TypeString},
		},
	}, []Row{
		{"seller_id": "s1", "state": "SP"},
		{"seller_id": "s1", "state": "RJ"},
		{"seller_id": "s2", "state": "MG"},
	})

	joined, err := items.InnerJoin(sellers, "seller_id")
	require.NoError(t, err)
	assert.Equal(t, "order_items_sellers", joined.Name())
	assert.Equal(t, []string{"order_id", "seller_id", "price", "qty", "state"}, joined.Columns())

	// o1/s1 fans out to two rows, o1/s2 to one, o2/s1 to two; the null seller never matches
	require.Equal(t, 5, joined.Len())
	states, _ := joined.Column("state")
	assert.Equal(t, []interface{}{"SP", "RJ", "MG", "SP", "RJ"}, states)

	t.Run("key type mismatch", func(t *testing.T) {
		other := MustNew(model.TableMetadata{Name: "o", Columns: []model.Column{{Name: "seller_id", Type: model.TypeInt}}}, nil)
		_, err := items.InnerJoin(other, "seller_id")
		require.ErrorIs(t, err, model.ErrTypeMismatch)
	})

	t.Run("column collision", func(t *testing.T) {
		other := MustNew(model.TableMetadata{Name: "o", Columns: []model.Column{
			{Name: "seller_id", Type: model.TypeString},
			{Name: "price", Type: model.TypeFloat},
		}}, nil)
		_, err := items.InnerJoin(other, "seller_id")
		require.ErrorIs(t, err, model.ErrDuplicateColumn)
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := items.InnerJoin(sellers, "order_id")
		require.ErrorIs(t, err, model.ErrMissingColumn)
	})
}

func TestGroupBy(t *testing.T) {
	items := itemsTable(t)

	agg, err := items.GroupBy("seller_id").Aggregate(
		Count("price", "n_prices"),
		CountDistinct("order_id", "n_orders"),
		Sum("price", "sales"),
		Mean("price", "avg_price"),
		Sum("qty", "qty"),
		Max("price", "max_price"),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"seller_id"}, agg.Metadata().PrimaryKeys)
	require.Equal(t, 2, agg.Len(), "null keys are skipped")

	s1 := agg.Row(0)
	assert.Equal(t, "s1", s1["seller_id"])
	assert.Equal(t, int64(1), s1["n_prices"])
	assert.Equal(t, int64(2), s1["n_orders"])
	assert.Equal(t, 10.0, s1["sales"])
	assert.Equal(t, 10.0, s1["avg_price"])
	assert.Equal(t, int64(4), s1["qty"])
	assert.Equal(t, 10.0, s1["max_price"])

	t.Run("all null group", func(t *testing.T) {
		only := items.Filter(func(r Row) bool { return r["order_id"] == "o2" })
		out, err := only.GroupBy("order_id").Aggregate(Sum("price", "s"), Mean("price", "m"), Min("price", "lo"))
		require.NoError(t, err)
		r := out.Row(0)
		assert.Equal(t, 0.0, r["s"])
		assert.Nil(t, r["m"])
		assert.Nil(t, r["lo"])
	})

	t.Run("timestamps", func(t *testing.T) {
		t0 := time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)
		tbl := MustNew(model.TableMetadata{Name: "x", Columns: []model.Column{
			{Name: "k", Type: model.TypeString},
			{Name: "ts", Type: model.TypeTimestamp},
		}}, []Row{
			{"k": "a", "ts": t0.Add(48 * time.Hour)},
			{"k": "a", "ts": t0},
		})
		out, err := tbl.GroupBy("k").Aggregate(Min("ts", "first"), Max("ts", "last"))
		require.NoError(t, err)
		assert.Equal(t, t0, out.Row(0)["first"])
		assert.Equal(t, t0.Add(48*time.Hour), out.Row(0)["last"])
	})

	t.Run("sum of strings is rejected", func(t *testing.T) {
		_, err := items.GroupBy("seller_id").Aggregate(Sum("order_id", "x"))
		require.ErrorIs(t, err, model.ErrTypeMismatch)
	})
}

func TestHead(t *testing.T) {
	tbl := itemsTable(t)
	assert.Equal(t, 2, tbl.Head(2).Len())
	assert.Equal(t, 4, tbl.Head(10).Len())
	assert.Equal(t, 0, tbl.Head(-1).Len())
}

func TestConform(t *testing.T) {
	schema := model.TableMetadata{
		Name: "prices",
		Columns: []model.Column{
			{Name: "price", Type: model.TypeFloat, Nullable: true},
			{Name: "order_id", Type: model.TypeString, IsPrimaryKey: true},
		},
		PrimaryKeys: []string{"order_id"},
	}

	out, err := itemsTable(t).Conform(schema)
	require.NoError(t, err)
	assert.Equal(t, "prices", out.Name())
	assert.Equal(t, []string{"price", "order_id"}, out.Columns())
	assert.Equal(t, []string{"order_id"}, out.Metadata().PrimaryKeys)
	assert.Equal(t, 4, out.Len())

	schema.Columns[0].Type = model.TypeInt
	_, err = itemsTable(t).Conform(schema)
	var schemaErr *model.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "price", schemaErr.Column)
	assert.ErrorIs(t, err, model.ErrTypeMismatch)

	_, err = itemsTable(t).Conform(model.TableMetadata{Columns: []model.Column{{Name: "missing"}}})
	require.ErrorIs(t, err, model.ErrMissingColumn)
}
