package seller

import "github.com/David-Botos/olist-features/pkg/model"

// Output table names
const (
	TableFeatures        = "seller_features"
	TableDelayWaitTime   = "seller_delay_wait_time"
	TableActiveDates     = "seller_active_dates"
	TableQuantity        = "seller_quantity"
	TableSales           = "seller_sales"
	TableReviewScore     = "seller_review_score"
	TableRevenueAndCosts = "seller_revenue_and_costs"
	TableTrainingData    = "seller_training_data"
)

const (
	orderIDColumn    = "order_id"
	sellerIDColumn   = "seller_id"
	reviewScoreCol   = "review_score"
	fiveStarColumn   = "dim_is_five_star"
	oneStarColumn    = "dim_is_one_star"
	delayColumn      = "delay_to_carrier"
	waitTimeColumn   = "wait_time"
	firstSaleColumn  = "date_first_sale"
	lastSaleColumn   = "date_last_sale"
	monthsColumn     = "months_on_olist"
	nOrdersColumn    = "n_orders"
	quantityColumn   = "quantity"
	perOrderColumn   = "quantity_per_order"
	salesColumn      = "sales"
	oneStarsShareCol = "share_of_one_stars"
	fiveStarShareCol = "share_of_five_stars"
	revenueColumn    = "revenue"
	costsColumn      = "review_costs"
	profitsColumn    = "profits"
)

func key() model.Column {
	return model.Column{Name: sellerIDColumn, Type: model.TypeString, IsPrimaryKey: true}
}

func float(name string, nullable bool) model.Column {
	return model.Column{Name: name, Type: model.TypeFloat, Nullable: nullable}
}

func integer(name string) model.Column {
	return model.Column{Name: name, Type: model.TypeInt}
}

func timestamp(name string) model.Column {
	return model.Column{Name: name, Type: model.TypeTimestamp}
}

func text(name string) model.Column {
	return model.Column{Name: name, Type: model.TypeString, Nullable: true}
}

func keyed(name string, cols ...model.Column) model.TableMetadata {
	return model.TableMetadata{
		Name:        name,
		Columns:     append([]model.Column{key()}, cols...),
		PrimaryKeys: []string{sellerIDColumn},
	}
}

var (
	// FeaturesSchema is the output of Engine.SellerFeatures
	FeaturesSchema = model.TableMetadata{
		Name:    TableFeatures,
		Columns: []model.Column{{Name: sellerIDColumn, Type: model.TypeString}, text("seller_city"), text("seller_state")},
	}

	// DelayWaitTimeSchema is the output of Engine.DelayWaitTime
	DelayWaitTimeSchema = keyed(TableDelayWaitTime,
		float(delayColumn, false),
		float(waitTimeColumn, true),
	)

	// ActiveDatesSchema is the output of Engine.ActiveDates
	ActiveDatesSchema = keyed(TableActiveDates,
		timestamp(firstSaleColumn),
		timestamp(lastSaleColumn),
		integer(monthsColumn),
	)

	// QuantitySchema is the output of Engine.Quantity
	QuantitySchema = keyed(TableQuantity,
		integer(nOrdersColumn),
		integer(quantityColumn),
		float(perOrderColumn, true),
	)

	// SalesSchema is the output of Engine.Sales
	SalesSchema = keyed(TableSales, float(salesColumn, false))

	// ReviewScoreSchema is the output of Engine.ReviewScore
	ReviewScoreSchema = keyed(TableReviewScore,
		float(oneStarsShareCol, true),
		float(fiveStarShareCol, true),
		float(reviewScoreCol, true),
	)

	// RevenueAndCostsSchema is the output of Engine.RevenueAndCosts
	RevenueAndCostsSchema = keyed(TableRevenueAndCosts,
		float(revenueColumn, false),
		float(costsColumn, false),
		float(profitsColumn, false),
	)

	// TrainingSchema is the output of Engine.TrainingData
	TrainingSchema = model.TableMetadata{
		Name: TableTrainingData,
		Columns: concat(
			FeaturesSchema.Columns,
			DelayWaitTimeSchema.Columns[1:],
			ActiveDatesSchema.Columns[1:],
			QuantitySchema.Columns[1:],
			SalesSchema.Columns[1:],
			RevenueAndCostsSchema.Columns[1:],
			ReviewScoreSchema.Columns[1:],
		),
	}
)

func concat(parts ...[]model.Column) []model.Column {
	var out []model.Column
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
