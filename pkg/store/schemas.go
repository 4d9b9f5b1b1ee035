// Package store loads the raw marketplace tables once into an immutable
// Snapshot shared by the feature engines.
package store

import (
	"path/filepath"
	"strings"

	"github.com/David-Botos/olist-features/pkg/model"
)

// Canonical raw table names
const (
	TableOrders       = model.TableOrders
	TableOrderItems   = model.TableOrderItems
	TableSellers      = model.TableSellers
	TableCustomers    = model.TableCustomers
	TableGeolocation  = model.TableGeolocation
	TableOrderReviews = model.TableOrderReviews
)

func col(name string, t model.DataType, nullable bool) model.Column {
	return model.Column{Name: name, Type: t, Nullable: nullable}
}

func key(name string) model.Column {
	return model.Column{Name: name, Type: model.TypeString, IsPrimaryKey: true}
}

// RawSchemas declares the columns and types the pipeline reads from each
// known table. Loaders keep only these columns for known tables.
var RawSchemas = map[string]model.TableMetadata{
	TableOrders: {
		Name: TableOrders,
		Columns: []model.Column{
			key("order_id"),
			col("customer_id", model.TypeString, false),
			col("order_status", model.TypeString, false),
			col("order_purchase_timestamp", model.TypeTimestamp, true),
			col("order_approved_at", model.TypeTimestamp, true),
			col("order_delivered_carrier_date", model.TypeTimestamp, true),
			col("order_delivered_customer_date", model.TypeTimestamp, true),
			col("order_estimated_delivery_date", model.TypeTimestamp, true),
		},
		PrimaryKeys: []string{"order_id"},
	},
	TableOrderItems: {
		Name: TableOrderItems,
		Columns: []model.Column{
			col("order_id", model.TypeString, false),
			col("order_item_id", model.TypeInt, false),
			col("product_id", model.TypeString, false),
			col("seller_id", model.TypeString, false),
			col("shipping_limit_date", model.TypeTimestamp, true),
			col("price", model.TypeFloat, true),
			col("freight_value", model.TypeFloat, true),
		},
	},
	TableSellers: {
		Name: TableSellers,
		Columns: []model.Column{
			key("seller_id"),
			col("seller_zip_code_prefix", model.TypeInt, true),
			col("seller_city", model.TypeString, true),
			col("seller_state", model.TypeString, true),
		},
		PrimaryKeys: []string{"seller_id"},
	},
	TableCustomers: {
		Name: TableCustomers,
		Columns: []model.Column{
			key("customer_id"),
			col("customer_zip_code_prefix", model.TypeInt, true),
		},
		PrimaryKeys: []string{"customer_id"},
	},
	TableGeolocation: {
		Name: TableGeolocation,
		Columns: []model.Column{
			col("geolocation_zip_code_prefix", model.TypeInt, false),
			col("geolocation_lat", model.TypeFloat, true),
			col("geolocation_lng", model.TypeFloat, true),
		},
	},
	TableOrderReviews: {
		Name: TableOrderReviews,
		Columns: []model.Column{
			col("order_id", model.TypeString, false),
			col("review_score", model.TypeInt, true),
		},
	},
}

// CanonicalTables lists the known table names in load order
func CanonicalTables() []string {
	return []string{
		TableOrders,
		TableOrderItems,
		TableSellers,
		TableCustomers,
		TableGeolocation,
		TableOrderReviews,
	}
}

// NormalizeTableName maps a file or warehouse table name to its table key:
// "olist_order_items_dataset.csv" becomes "order_items".
func NormalizeTableName(name string) string {
	name = strings.ToLower(strings.TrimSpace(filepath.Base(name)))
	name = strings.TrimSuffix(name, ".csv")
	name = strings.TrimPrefix(name, "olist_")
	name = strings.TrimSuffix(name, "_dataset")
	return name
}

// schemaFor returns the metadata a loaded table is typed with. Known tables
// use their raw schema and must provide all of its columns; unknown tables
// keep every header column as a nullable string.
func schemaFor(name string, header []string) (model.TableMetadata, error) {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[model.NormalizeColumnName(h)] = true
	}

	if meta, ok := RawSchemas[name]; ok {
		for _, c := range meta.Columns {
			if !present[c.Name] {
				return model.TableMetadata{}, &model.SchemaError{Table: name, Column: c.Name, Err: model.ErrMissingColumn}
			}
		}
		return meta.Clone(), nil
	}

	meta := model.TableMetadata{Name: name}
	seen := make(map[string]bool, len(header))
	for _, h := range header {
		n := model.NormalizeColumnName(h)
		if seen[n] {
			return model.TableMetadata{}, &model.SchemaError{Table: name, Column: n, Err: model.ErrDuplicateColumn}
		}
		seen[n] = true
		meta.Columns = append(meta.Columns, col(n, model.TypeString, true))
	}
	return meta, nil
}
