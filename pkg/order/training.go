package order

import (
	"go.uber.org/zap"

	"github.com/David-Botos/olist-features/pkg/table"
)

// TrainingData inner-joins every order feature on order_id and drops rows
// holding any null. The distance feature is joined only with WithDistance.
// Orders with several reviews keep one row per review.
func (e *Engine) TrainingData() (*table.Table, error) {
	parts := []func() (*table.Table, error){
		e.WaitTime,
		e.ReviewScore,
		e.NumberOfProducts,
		e.NumberOfSellers,
		e.PriceAndFreight,
	}
	if e.opts.WithDistance {
		parts = append(parts, e.DistanceSellerCustomer)
	}

	var out *table.Table
	for _, part := range parts {
		t, err := part()
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = t
			continue
		}
		out, err = out.InnerJoin(t, orderIDColumn)
		if err != nil {
			return nil, err
		}
	}

	joined := out.Len()
	out, err := out.DropNulls().Conform(trainingSchema(e.opts.WithDistance))
	if err != nil {
		return nil, err
	}

	e.logger.Debug("Assembled order training data",
		zap.Int("joinedRows", joined),
		zap.Int("rows", out.Len()),
		zap.Bool("deliveredOnly", e.opts.DeliveredOnly),
		zap.Bool("withDistance", e.opts.WithDistance))
	return out, nil
}
