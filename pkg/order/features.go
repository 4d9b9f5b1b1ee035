package order

import (
	"math"

	"github.com/David-Botos/olist-features/pkg/model"
	"github.com/David-Botos/olist-features/pkg/table"
)

// WaitTime computes wait_time and expected_wait_time in fractional days from
// purchase, and delay_vs_expected = max(0, wait_time - expected_wait_time).
// With DeliveredOnly, orders in any other status are dropped first.
func (e *Engine) WaitTime() (*table.Table, error) {
	orders, err := e.source(model.TableOrders,
		orderIDColumn,
		orderStatusColumn,
		"order_purchase_timestamp",
		"order_delivered_customer_date",
		"order_estimated_delivery_date",
	)
	if err != nil {
		return nil, err
	}

	if e.opts.DeliveredOnly {
		orders = orders.Filter(func(r table.Row) bool {
			status, _ := r.String(orderStatusColumn)
			return status == StatusDelivered
		})
	}

	out, err := orders.Derive(float(waitTimeColumn), func(r table.Row) interface{} {
		return daysBetween(r, "order_purchase_timestamp", "order_delivered_customer_date")
	})
	if err != nil {
		return nil, err
	}
	out, err = out.Derive(float(expectedWaitColumn), func(r table.Row) interface{} {
		return daysBetween(r, "order_purchase_timestamp", "order_estimated_delivery_date")
	})
	if err != nil {
		return nil, err
	}
	out, err = out.Derive(float(delayVsExpectedCol), func(r table.Row) interface{} {
		wait, ok := r.Float(waitTimeColumn)
		if !ok {
			return nil
		}
		expected, ok := r.Float(expectedWaitColumn)
		if !ok {
			return nil
		}
		return math.Max(0, wait-expected)
	})
	if err != nil {
		return nil, err
	}

	out, err = out.Conform(WaitTimeSchema)
	if err != nil {
		return nil, err
	}
	return e.done(out)
}

// ReviewScore keeps every review with two indicator columns: dim_is_five_star
// and dim_is_one_star. A null score has both indicators at 0.
func (e *Engine) ReviewScore() (*table.Table, error) {
	reviews, err := e.source(model.TableOrderReviews, orderIDColumn, reviewScoreColumn)
	if err != nil {
		return nil, err
	}

	out := reviews
	for _, ind := range []struct {
		column string
		score  int64
	}{
		{fiveStarColumn, 5},
		{oneStarColumn, 1},
	} {
		ind := ind
		out, err = out.Derive(integer(ind.column), func(r table.Row) interface{} {
			if score, ok := r.Int(reviewScoreColumn); ok && score == ind.score {
				return int64(1)
			}
			return int64(0)
		})
		if err != nil {
			return nil, err
		}
	}

	out, err = out.Conform(ReviewScoreSchema)
	if err != nil {
		return nil, err
	}
	return e.done(out)
}

// NumberOfProducts counts item rows per order
func (e *Engine) NumberOfProducts() (*table.Table, error) {
	items, err := e.source(model.TableOrderItems, orderIDColumn, "order_item_id")
	if err != nil {
		return nil, err
	}
	out, err := items.GroupBy(orderIDColumn).Aggregate(table.Count("order_item_id", numberOfProductsCol))
	if err != nil {
		return nil, err
	}
	out, err = out.Conform(ProductCountSchema)
	if err != nil {
		return nil, err
	}
	return e.done(out)
}

// NumberOfSellers counts the non-null seller entries of an order's items.
// A seller listed on several items of one order is counted once per item.
func (e *Engine) NumberOfSellers() (*table.Table, error) {
	items, err := e.source(model.TableOrderItems, orderIDColumn, "seller_id")
	if err != nil {
		return nil, err
	}
	out, err := items.GroupBy(orderIDColumn).Aggregate(table.Count("seller_id", numberOfSellersCol))
	if err != nil {
		return nil, err
	}
	out, err = out.Conform(SellerCountSchema)
	if err != nil {
		return nil, err
	}
	return e.done(out)
}

// PriceAndFreight sums item price and freight_value per order
func (e *Engine) PriceAndFreight() (*table.Table, error) {
	items, err := e.source(model.TableOrderItems, orderIDColumn, priceColumn, freightValueColumn)
	if err != nil {
		return nil, err
	}
	out, err := items.GroupBy(orderIDColumn).Aggregate(
		table.Sum(priceColumn, priceColumn),
		table.Sum(freightValueColumn, freightValueColumn),
	)
	if err != nil {
		return nil, err
	}
	out, err = out.Conform(PriceFreightSchema)
	if err != nil {
		return nil, err
	}
	return e.done(out)
}
