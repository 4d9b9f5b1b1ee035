package order

import "github.com/David-Botos/olist-features/pkg/model"

// Output table names
const (
	TableWaitTime     = "order_wait_time"
	TableReviewScore  = "order_review_score"
	TableProductCount = "order_product_count"
	TableSellerCount  = "order_seller_count"
	TablePriceFreight = "order_price_freight"
	TableDistance     = "order_distance"
	TableTrainingData = "order_training_data"
)

const (
	orderIDColumn       = "order_id"
	orderStatusColumn   = "order_status"
	waitTimeColumn      = "wait_time"
	expectedWaitColumn  = "expected_wait_time"
	delayVsExpectedCol  = "delay_vs_expected"
	reviewScoreColumn   = "review_score"
	fiveStarColumn      = "dim_is_five_star"
	oneStarColumn       = "dim_is_one_star"
	numberOfProductsCol = "number_of_products"
	numberOfSellersCol  = "number_of_sellers"
	priceColumn         = "price"
	freightValueColumn  = "freight_value"
	distanceColumn      = "distance_seller_customer"
)

func key() model.Column {
	return model.Column{Name: orderIDColumn, Type: model.TypeString, IsPrimaryKey: true}
}

func float(name string) model.Column {
	return model.Column{Name: name, Type: model.TypeFloat, Nullable: true}
}

func integer(name string) model.Column {
	return model.Column{Name: name, Type: model.TypeInt}
}

var (
	// WaitTimeSchema is the output of Engine.WaitTime
	WaitTimeSchema = model.TableMetadata{
		Name: TableWaitTime,
		Columns: []model.Column{
			key(),
			float(waitTimeColumn),
			float(expectedWaitColumn),
			float(delayVsExpectedCol),
			{Name: orderStatusColumn, Type: model.TypeString},
		},
		PrimaryKeys: []string{orderIDColumn},
	}

	// ReviewScoreSchema is the output of Engine.ReviewScore. An order with
	// several reviews has several rows.
	ReviewScoreSchema = model.TableMetadata{
		Name: TableReviewScore,
		Columns: []model.Column{
			{Name: orderIDColumn, Type: model.TypeString},
			integer(fiveStarColumn),
			integer(oneStarColumn),
			{Name: reviewScoreColumn, Type: model.TypeInt, Nullable: true},
		},
	}

	// ProductCountSchema is the output of Engine.NumberOfProducts
	ProductCountSchema = model.TableMetadata{
		Name:        TableProductCount,
		Columns:     []model.Column{key(), integer(numberOfProductsCol)},
		PrimaryKeys: []string{orderIDColumn},
	}

	// SellerCountSchema is the output of Engine.NumberOfSellers
	SellerCountSchema = model.TableMetadata{
		Name:        TableSellerCount,
		Columns:     []model.Column{key(), integer(numberOfSellersCol)},
		PrimaryKeys: []string{orderIDColumn},
	}

	// PriceFreightSchema is the output of Engine.PriceAndFreight
	PriceFreightSchema = model.TableMetadata{
		Name: TablePriceFreight,
		Columns: []model.Column{
			key(),
			{Name: priceColumn, Type: model.TypeFloat},
			{Name: freightValueColumn, Type: model.TypeFloat},
		},
		PrimaryKeys: []string{orderIDColumn},
	}

	// DistanceSchema is the output of Engine.DistanceSellerCustomer
	DistanceSchema = model.TableMetadata{
		Name:        TableDistance,
		Columns:     []model.Column{key(), float(distanceColumn)},
		PrimaryKeys: []string{orderIDColumn},
	}

	// TrainingSchema is the output of Engine.TrainingData with the distance
	// feature. Without it the last column is absent.
	TrainingSchema = model.TableMetadata{
		Name: TableTrainingData,
		Columns: []model.Column{
			{Name: orderIDColumn, Type: model.TypeString},
			{Name: waitTimeColumn, Type: model.TypeFloat},
			{Name: expectedWaitColumn, Type: model.TypeFloat},
			{Name: delayVsExpectedCol, Type: model.TypeFloat},
			{Name: orderStatusColumn, Type: model.TypeString},
			integer(fiveStarColumn),
			integer(oneStarColumn),
			integer(reviewScoreColumn),
			integer(numberOfProductsCol),
			integer(numberOfSellersCol),
			{Name: priceColumn, Type: model.TypeFloat},
			{Name: freightValueColumn, Type: model.TypeFloat},
			{Name: distanceColumn, Type: model.TypeFloat},
		},
	}
)

// trainingSchema returns TrainingSchema trimmed to the enabled features
func trainingSchema(withDistance bool) model.TableMetadata {
	meta := TrainingSchema.Clone()
	if !withDistance {
		meta.Columns = meta.Columns[:len(meta.Columns)-1]
	}
	return meta
}
