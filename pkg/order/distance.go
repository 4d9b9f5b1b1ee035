package order

import (
	"github.com/David-Botos/olist-features/pkg/geo"
	"github.com/David-Botos/olist-features/pkg/model"
	"github.com/David-Botos/olist-features/pkg/table"
)

const (
	geoZipColumn      = "geolocation_zip_code_prefix"
	sellerZipColumn   = "seller_zip_code_prefix"
	customerZipColumn = "customer_zip_code_prefix"
)

// DistanceSellerCustomer averages, per order, the great-circle distance in km
// between each item's seller and the order's customer. Locations come from
// the first geolocation row of each zip prefix. Items whose seller or
// customer zip has no location drop out of the join.
func (e *Engine) DistanceSellerCustomer() (*table.Table, error) {
	items, err := e.projected(model.TableOrderItems, orderIDColumn, "seller_id")
	if err != nil {
		return nil, err
	}
	orders, err := e.projected(model.TableOrders, orderIDColumn, "customer_id")
	if err != nil {
		return nil, err
	}
	sellers, err := e.projected(model.TableSellers, "seller_id", sellerZipColumn)
	if err != nil {
		return nil, err
	}
	customers, err := e.projected(model.TableCustomers, "customer_id", customerZipColumn)
	if err != nil {
		return nil, err
	}
	sellerGeo, err := e.locations(sellerZipColumn, "seller_lat", "seller_lng")
	if err != nil {
		return nil, err
	}
	customerGeo, err := e.locations(customerZipColumn, "customer_lat", "customer_lng")
	if err != nil {
		return nil, err
	}

	joined, err := items.InnerJoin(orders, orderIDColumn)
	if err != nil {
		return nil, err
	}
	for _, step := range []struct {
		right *table.Table
		on    string
	}{
		{sellers, "seller_id"},
		{sellerGeo, sellerZipColumn},
		{customers, "customer_id"},
		{customerGeo, customerZipColumn},
	} {
		joined, err = joined.InnerJoin(step.right, step.on)
		if err != nil {
			return nil, err
		}
	}

	joined, err = joined.Derive(float(distanceColumn), func(r table.Row) interface{} {
		cLng, ok1 := r.Float("customer_lng")
		cLat, ok2 := r.Float("customer_lat")
		sLng, ok3 := r.Float("seller_lng")
		sLat, ok4 := r.Float("seller_lat")
		if !ok1 || !ok2 || !ok3 || !ok4 {
			return nil
		}
		return geo.Haversine(cLng, cLat, sLng, sLat)
	})
	if err != nil {
		return nil, err
	}

	out, err := joined.GroupBy(orderIDColumn).Aggregate(table.Mean(distanceColumn, distanceColumn))
	if err != nil {
		return nil, err
	}
	out, err = out.Conform(DistanceSchema)
	if err != nil {
		return nil, err
	}
	return e.done(out)
}

// projected fetches a raw table reduced to the given columns
func (e *Engine) projected(name string, columns ...string) (*table.Table, error) {
	t, err := e.source(name, columns...)
	if err != nil {
		return nil, err
	}
	return t.Select(columns...)
}

// locations returns one row per zip prefix with its coordinates under the
// given column names
func (e *Engine) locations(zip, lat, lng string) (*table.Table, error) {
	g, err := e.projected(model.TableGeolocation, geoZipColumn, "geolocation_lat", "geolocation_lng")
	if err != nil {
		return nil, err
	}
	g, err = g.Distinct(geoZipColumn)
	if err != nil {
		return nil, err
	}
	return g.Rename(map[string]string{
		geoZipColumn:      zip,
		"geolocation_lat": lat,
		"geolocation_lng": lng,
	})
}
