package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/olist-features/pkg/model"
	"github.com/David-Botos/olist-features/pkg/table"
)

type mapSource map[string]*table.Table

func (m mapSource) Table(name string) (*table.Table, error) {
	t, ok := m[name]
	if !ok {
		return nil, model.MissingTable(name)
	}
	return t, nil
}

func ts(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		panic(err)
	}
	return t
}

func meta(name string, cols ...model.Column) model.TableMetadata {
	return model.TableMetadata{Name: name, Columns: cols}
}

func str(name string) model.Column { return model.Column{Name: name, Type: model.TypeString, Nullable: true} }
func num(name string) model.Column { return model.Column{Name: name, Type: model.TypeFloat, Nullable: true} }
func cnt(name string) model.Column { return model.Column{Name: name, Type: model.TypeInt, Nullable: true} }
func when(name string) model.Column { return model.Column{Name: name, Type: model.TypeTimestamp, Nullable: true} }

const (
	londonLng, londonLat = -0.1278, 51.5074
	parisLng, parisLat   = 2.3522, 48.8566
	londonParisKm        = 344.0
)

// fixture builds four orders:
//
//	o1 delivered in 4 days, expected 9, one item, one 5 star review
//	o2 delivered in 11 days, two items from two sellers, reviewed twice (1 and 3)
//	o3 canceled, customer zip has no location
//	o4 delivered without a delivery date, unreviewed
func fixture() mapSource {
	orders := table.MustNew(meta(model.TableOrders,
		str("order_id"), str("customer_id"), str("order_status"),
		when("order_purchase_timestamp"), when("order_approved_at"),
		when("order_delivered_carrier_date"), when("order_delivered_customer_date"),
		when("order_estimated_delivery_date"),
	), []table.Row{
		{"order_id": "o1", "customer_id": "c1", "order_status": "delivered",
			"order_purchase_timestamp": ts("2020-01-01 00:00:00"), "order_delivered_customer_date": ts("2020-01-05 00:00:00"),
			"order_estimated_delivery_date": ts("2020-01-10 00:00:00")},
		{"order_id": "o2", "customer_id": "c2", "order_status": "delivered",
			"order_purchase_timestamp": ts("2020-01-01 00:00:00"), "order_delivered_customer_date": ts("2020-01-12 00:00:00"),
			"order_estimated_delivery_date": ts("2020-01-10 00:00:00")},
		{"order_id": "o3", "customer_id": "c3", "order_status": "canceled",
			"order_purchase_timestamp": ts("2020-01-01 00:00:00"), "order_delivered_customer_date": ts("2020-01-03 00:00:00"),
			"order_estimated_delivery_date": ts("2020-01-10 00:00:00")},
		{"order_id": "o4", "customer_id": "c1", "order_status": "delivered",
			"order_purchase_timestamp":      ts("2020-01-01 00:00:00"),
			"order_estimated_delivery_date": ts("2020-01-10 00:00:00")},
	})

	items := table.MustNew(meta(model.TableOrderItems,
		str("order_id"), cnt("order_item_id"), str("product_id"), str("seller_id"),
		when("shipping_limit_date"), num("price"), num("freight_value"),
	), []table.Row{
		{"order_id": "o1", "order_item_id": int64(1), "product_id": "p1", "seller_id": "s1", "price": 100.0, "freight_value": 10.0},
		{"order_id": "o2", "order_item_id": int64(1), "product_id": "p2", "seller_id": "s1", "price": 50.0, "freight_value": 5.0},
		{"order_id": "o2", "order_item_id": int64(2), "product_id": "p3", "seller_id": "s2", "price": 30.0, "freight_value": 3.0},
		{"order_id": "o3", "order_item_id": int64(1), "product_id": "p1", "seller_id": "s2", "price": 20.0, "freight_value": 2.0},
		{"order_id": "o4", "order_item_id": int64(1), "product_id": "p1", "seller_id": "s1", "price": 10.0, "freight_value": 1.0},
	})

	sellers := table.MustNew(meta(model.TableSellers,
		str("seller_id"), cnt("seller_zip_code_prefix"), str("seller_city"), str("seller_state"),
	), []table.Row{
		{"seller_id": "s1", "seller_zip_code_prefix": int64(1000), "seller_city": "london", "seller_state": "LD"},
		{"seller_id": "s2", "seller_zip_code_prefix": int64(2000), "seller_city": "paris", "seller_state": "PA"},
	})

	customers := table.MustNew(meta(model.TableCustomers,
		str("customer_id"), cnt("customer_zip_code_prefix"),
	), []table.Row{
		{"customer_id": "c1", "customer_zip_code_prefix": int64(3000)},
		{"customer_id": "c2", "customer_zip_code_prefix": int64(4000)},
		{"customer_id": "c3", "customer_zip_code_prefix": int64(9999)},
	})

	geolocation := table.MustNew(meta(model.TableGeolocation,
		cnt("geolocation_zip_code_prefix"), num("geolocation_lat"), num("geolocation_lng"),
	), []table.Row{
		{"geolocation_zip_code_prefix": int64(1000), "geolocation_lat": londonLat, "geolocation_lng": londonLng},
		{"geolocation_zip_code_prefix": int64(1000), "geolocation_lat": 0.0, "geolocation_lng": 0.0},
		{"geolocation_zip_code_prefix": int64(2000), "geolocation_lat": parisLat, "geolocation_lng": parisLng},
		{"geolocation_zip_code_prefix": int64(3000), "geolocation_lat": parisLat, "geolocation_lng": parisLng},
		{"geolocation_zip_code_prefix": int64(4000), "geolocation_lat": londonLat, "geolocation_lng": londonLng},
	})

	reviews := table.MustNew(meta(model.TableOrderReviews,
		str("order_id"), cnt("review_score"),
	), []table.Row{
		{"order_id": "o1", "review_score": int64(5)},
		{"order_id": "o2", "review_score": int64(1)},
		{"order_id": "o2", "review_score": int64(3)},
		{"order_id": "o3", "review_score": int64(4)},
		{"order_id": "o4", "review_score": nil},
	})

	return mapSource{
		model.TableOrders:       orders,
		model.TableOrderItems:   items,
		model.TableSellers:      sellers,
		model.TableCustomers:    customers,
		model.TableGeolocation:  geolocation,
		model.TableOrderReviews: reviews,
	}
}

func column(t *testing.T, tbl *table.Table, name string) []interface{} {
	t.Helper()
	values, err := tbl.Column(name)
	require.NoError(t, err)
	return values
}

// byOrder indexes rows of a table keyed by order_id
func byOrder(t *testing.T, tbl *table.Table) map[string]table.Row {
	t.Helper()
	out := make(map[string]table.Row, tbl.Len())
	for _, r := range tbl.Rows() {
		id, ok := r.String("order_id")
		require.True(t, ok)
		out[id] = r
	}
	return out
}

func TestWaitTime(t *testing.T) {
	out, err := New(fixture()).WaitTime()
	require.NoError(t, err)

	assert.Equal(t, WaitTimeSchema.ColumnNames(), out.Columns())
	assert.Equal(t, []interface{}{"o1", "o2", "o4"}, column(t, out, "order_id"))

	rows := byOrder(t, out)
	assert.Equal(t, 4.0, rows["o1"]["wait_time"])
	assert.Equal(t, 9.0, rows["o1"]["expected_wait_time"])
	assert.Equal(t, 0.0, rows["o1"]["delay_vs_expected"])

	assert.Equal(t, 11.0, rows["o2"]["wait_time"])
	assert.Equal(t, 2.0, rows["o2"]["delay_vs_expected"])

	assert.Nil(t, rows["o4"]["wait_time"])
	assert.Equal(t, 9.0, rows["o4"]["expected_wait_time"])
	assert.Nil(t, rows["o4"]["delay_vs_expected"])
}

func TestWaitTimeFractionalDays(t *testing.T) {
	src := fixture()
	src[model.TableOrders] = table.MustNew(src[model.TableOrders].Metadata(), []table.Row{
		{"order_id": "o1", "customer_id": "c1", "order_status": "delivered",
			"order_purchase_timestamp":      ts("2020-01-01 00:00:00"),
			"order_delivered_customer_date": ts("2020-01-02 12:00:00"),
			"order_estimated_delivery_date": ts("2020-01-01 06:00:00")},
	})

	out, err := New(src).WaitTime()
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	row := out.Row(0)
	assert.Equal(t, 1.5, row["wait_time"])
	assert.Equal(t, 0.25, row["expected_wait_time"])
	assert.Equal(t, 1.25, row["delay_vs_expected"])
}

func TestWaitTimeAllStatuses(t *testing.T) {
	out, err := New(fixture(), WithDeliveredOnly(false)).WaitTime()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"o1", "o2", "o3", "o4"}, column(t, out, "order_id"))
	assert.Equal(t, "canceled", byOrder(t, out)["o3"]["order_status"])
}

func TestReviewScore(t *testing.T) {
	out, err := New(fixture()).ReviewScore()
	require.NoError(t, err)

	assert.Equal(t, []string{"order_id", "dim_is_five_star", "dim_is_one_star", "review_score"}, out.Columns())
	assert.Equal(t, []interface{}{"o1", "o2", "o2", "o3", "o4"}, column(t, out, "order_id"))
	assert.Equal(t, []interface{}{int64(1), int64(0), int64(0), int64(0), int64(0)}, column(t, out, "dim_is_five_star"))
	assert.Equal(t, []interface{}{int64(0), int64(1), int64(0), int64(0), int64(0)}, column(t, out, "dim_is_one_star"))
	assert.Nil(t, out.Row(4)["review_score"])
}

func TestItemCounts(t *testing.T) {
	e := New(fixture())

	products, err := e.NumberOfProducts()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(1), int64(2), int64(1), int64(1)}, column(t, products, "number_of_products"))

	sellers, err := e.NumberOfSellers()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(1), int64(2), int64(1), int64(1)}, column(t, sellers, "number_of_sellers"))

	price, err := e.PriceAndFreight()
	require.NoError(t, err)
	rows := byOrder(t, price)
	assert.Equal(t, 80.0, rows["o2"]["price"])
	assert.Equal(t, 8.0, rows["o2"]["freight_value"])
	assert.Equal(t, 100.0, rows["o1"]["price"])
}

func TestNumberOfSellersCountsEntries(t *testing.T) {
	src := fixture()
	src[model.TableOrderItems] = table.MustNew(src[model.TableOrderItems].Metadata(), []table.Row{
		{"order_id": "o1", "order_item_id": int64(1), "product_id": "p1", "seller_id": "s1"},
		{"order_id": "o1", "order_item_id": int64(2), "product_id": "p1", "seller_id": "s1"},
		{"order_id": "o1", "order_item_id": int64(3), "product_id": "p2", "seller_id": nil},
	})

	out, err := New(src).NumberOfSellers()
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, int64(2), out.Row(0)["number_of_sellers"])
}

func TestDistanceSellerCustomer(t *testing.T) {
	out, err := New(fixture()).DistanceSellerCustomer()
	require.NoError(t, err)

	rows := byOrder(t, out)
	require.Len(t, rows, 3)
	assert.NotContains(t, rows, "o3")

	d1, ok := rows["o1"].Float("distance_seller_customer")
	require.True(t, ok)
	assert.InDelta(t, londonParisKm, d1, 5)

	d2, ok := rows["o2"].Float("distance_seller_customer")
	require.True(t, ok)
	assert.InDelta(t, londonParisKm/2, d2, 3)
}

func TestTrainingData(t *testing.T) {
	out, err := New(fixture()).TrainingData()
	require.NoError(t, err)

	assert.Equal(t, TrainingSchema.ColumnNames(), out.Columns())
	assert.Equal(t, []interface{}{"o1", "o2", "o2"}, column(t, out, "order_id"))
	assert.Equal(t, []interface{}{int64(5), int64(1), int64(3)}, column(t, out, "review_score"))

	first := out.Row(0)
	assert.Equal(t, 4.0, first["wait_time"])
	assert.Equal(t, 9.0, first["expected_wait_time"])
	assert.Equal(t, 0.0, first["delay_vs_expected"])
	assert.Equal(t, int64(1), first["dim_is_five_star"])
	assert.Equal(t, int64(0), first["dim_is_one_star"])
	assert.Equal(t, int64(1), first["number_of_products"])
	assert.Equal(t, 100.0, first["price"])
	assert.Equal(t, 10.0, first["freight_value"])
	assert.InDelta(t, londonParisKm, first["distance_seller_customer"], 5)

	for _, r := range out.Rows() {
		for _, c := range out.Columns() {
			assert.NotNil(t, r[c], c)
		}
	}
}

func TestTrainingDataOptions(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		orders  []interface{}
		columns int
	}{
		{"defaults", nil, []interface{}{"o1", "o2", "o2"}, 13},
		{"all statuses with distance", []Option{WithDeliveredOnly(false)}, []interface{}{"o1", "o2", "o2"}, 13},
		{"all statuses without distance", []Option{WithDeliveredOnly(false), WithDistance(false)}, []interface{}{"o1", "o2", "o2", "o3"}, 12},
		{"options struct", []Option{WithOptions(Options{DeliveredOnly: true, WithDistance: false})}, []interface{}{"o1", "o2", "o2"}, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := New(fixture(), tt.opts...).TrainingData()
			require.NoError(t, err)
			assert.Equal(t, tt.orders, column(t, out, "order_id"))
			assert.Len(t, out.Columns(), tt.columns)
		})
	}
}

func TestMissingInputs(t *testing.T) {
	t.Run("missing table", func(t *testing.T) {
		src := fixture()
		delete(src, model.TableOrderReviews)
		e := New(src)

		_, err := e.ReviewScore()
		require.ErrorIs(t, err, model.ErrMissingTable)
		_, err = e.TrainingData()
		require.ErrorIs(t, err, model.ErrMissingTable)
	})

	t.Run("missing column", func(t *testing.T) {
		src := fixture()
		dropped, err := src[model.TableOrders].Drop("order_status")
		require.NoError(t, err)
		src[model.TableOrders] = dropped

		_, err = New(src).WaitTime()
		var schemaErr *model.SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, "order_status", schemaErr.Column)
		assert.ErrorIs(t, err, model.ErrMissingColumn)
	})

	t.Run("wrong column type", func(t *testing.T) {
		src := fixture()
		src[model.TableOrderReviews] = table.MustNew(meta(model.TableOrderReviews,
			str("order_id"), num("review_score"),
		), []table.Row{{"order_id": "o1", "review_score": 5.0}})

		_, err := New(src).ReviewScore()
		require.ErrorIs(t, err, model.ErrTypeMismatch)
	})
}

func TestEmptyInputs(t *testing.T) {
	src := fixture()
	src[model.TableOrders] = table.Empty(src[model.TableOrders].Metadata())

	out, err := New(src).TrainingData()
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())
	assert.Equal(t, TrainingSchema.ColumnNames(), out.Columns())
}
