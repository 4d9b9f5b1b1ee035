package seller

import (
	"math"

	"github.com/David-Botos/olist-features/pkg/model"
	"github.com/David-Botos/olist-features/pkg/order"
	"github.com/David-Botos/olist-features/pkg/table"
)

// daysPerMonth is the mean Gregorian month length
const daysPerMonth = 30.436875

// SellerFeatures lists seller_id, seller_city and seller_state once per
// seller. A seller listed under several locations keeps the first one.
func (e *Engine) SellerFeatures() (*table.Table, error) {
	sellers, err := e.projected(model.TableSellers, sellerIDColumn, "seller_city", "seller_state")
	if err != nil {
		return nil, err
	}
	out, err := sellers.Distinct(sellerIDColumn)
	if err != nil {
		return nil, err
	}
	out, err = out.Conform(FeaturesSchema)
	if err != nil {
		return nil, err
	}
	return e.done(out)
}

// DelayWaitTime averages, over the items of delivered orders, how many days
// the carrier handover came after the shipping limit (delay_to_carrier,
// floored at zero) and how long the customer waited (wait_time). A seller
// with no known handover delay gets a delay of zero.
func (e *Engine) DelayWaitTime() (*table.Table, error) {
	items, err := e.projected(model.TableOrderItems, orderIDColumn, sellerIDColumn, "shipping_limit_date")
	if err != nil {
		return nil, err
	}
	orders, err := e.source(model.TableOrders,
		orderIDColumn,
		"order_status",
		"order_purchase_timestamp",
		"order_delivered_carrier_date",
		"order_delivered_customer_date",
	)
	if err != nil {
		return nil, err
	}
	orders = orders.Filter(func(r table.Row) bool {
		status, _ := r.String("order_status")
		return status == order.StatusDelivered
	})
	orders, err = orders.Select(orderIDColumn,
		"order_purchase_timestamp",
		"order_delivered_carrier_date",
		"order_delivered_customer_date",
	)
	if err != nil {
		return nil, err
	}

	ship, err := items.InnerJoin(orders, orderIDColumn)
	if err != nil {
		return nil, err
	}
	ship, err = ship.Derive(float("carrier_days", true), func(r table.Row) interface{} {
		return daysBetween(r, "shipping_limit_date", "order_delivered_carrier_date")
	})
	if err != nil {
		return nil, err
	}
	ship, err = ship.Derive(float("customer_days", true), func(r table.Row) interface{} {
		return daysBetween(r, "order_purchase_timestamp", "order_delivered_customer_date")
	})
	if err != nil {
		return nil, err
	}

	out, err := ship.GroupBy(sellerIDColumn).Aggregate(
		table.Mean("carrier_days", delayColumn),
		table.Mean("customer_days", waitTimeColumn),
	)
	if err != nil {
		return nil, err
	}
	out, err = out.Derive(float(delayColumn, false), func(r table.Row) interface{} {
		if d, ok := r.Float(delayColumn); ok && d > 0 {
			return d
		}
		return 0.0
	})
	if err != nil {
		return nil, err
	}

	out, err = out.Conform(DelayWaitTimeSchema)
	if err != nil {
		return nil, err
	}
	return e.done(out)
}

// ActiveDates finds, over approved orders, each seller's first and last sale
// and the whole number of months between them, rounded half to even. A
// seller appearing several times in one order counts that sale once.
func (e *Engine) ActiveDates() (*table.Table, error) {
	orders, err := e.projected(model.TableOrders, orderIDColumn, "order_approved_at")
	if err != nil {
		return nil, err
	}
	items, err := e.projected(model.TableOrderItems, orderIDColumn, sellerIDColumn)
	if err != nil {
		return nil, err
	}

	sales, err := orders.DropNulls().InnerJoin(items, orderIDColumn)
	if err != nil {
		return nil, err
	}
	sales, err = sales.Distinct(orderIDColumn, sellerIDColumn, "order_approved_at")
	if err != nil {
		return nil, err
	}

	out, err := sales.GroupBy(sellerIDColumn).Aggregate(
		table.Min("order_approved_at", firstSaleColumn),
		table.Max("order_approved_at", lastSaleColumn),
	)
	if err != nil {
		return nil, err
	}
	out, err = out.Derive(integer(monthsColumn), func(r table.Row) interface{} {
		first, _ := r.Time(firstSaleColumn)
		last, _ := r.Time(lastSaleColumn)
		return int64(math.RoundToEven(days(first, last) / daysPerMonth))
	})
	if err != nil {
		return nil, err
	}

	out, err = out.Conform(ActiveDatesSchema)
	if err != nil {
		return nil, err
	}
	return e.done(out)
}

// Quantity counts each seller's distinct orders (n_orders) and item rows
// (quantity). quantity_per_order is null for a seller without orders.
func (e *Engine) Quantity() (*table.Table, error) {
	items, err := e.projected(model.TableOrderItems, orderIDColumn, sellerIDColumn)
	if err != nil {
		return nil, err
	}
	out, err := items.GroupBy(sellerIDColumn).Aggregate(
		table.CountDistinct(orderIDColumn, nOrdersColumn),
		table.Count(orderIDColumn, quantityColumn),
	)
	if err != nil {
		return nil, err
	}
	out, err = out.Derive(float(perOrderColumn, true), func(r table.Row) interface{} {
		n, _ := r.Int(nOrdersColumn)
		if n < 1 {
			return nil
		}
		q, _ := r.Int(quantityColumn)
		return float64(q) / float64(n)
	})
	if err != nil {
		return nil, err
	}

	out, err = out.Conform(QuantitySchema)
	if err != nil {
		return nil, err
	}
	return e.done(out)
}

// Sales sums item prices per seller
func (e *Engine) Sales() (*table.Table, error) {
	items, err := e.projected(model.TableOrderItems, sellerIDColumn, "price")
	if err != nil {
		return nil, err
	}
	out, err := items.GroupBy(sellerIDColumn).Aggregate(table.Sum("price", salesColumn))
	if err != nil {
		return nil, err
	}
	out, err = out.Conform(SalesSchema)
	if err != nil {
		return nil, err
	}
	return e.done(out)
}
