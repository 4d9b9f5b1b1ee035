// pkg/model/tables.go
package model

// Raw table names as exposed by the table store
const (
	TableOrders       = "orders"
	TableOrderItems   = "order_items"
	TableSellers      = "sellers"
	TableCustomers    = "customers"
	TableGeolocation  = "geolocation"
	TableOrderReviews = "order_reviews"
)
