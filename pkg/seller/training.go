package seller

import (
	"go.uber.org/zap"

	"github.com/David-Botos/olist-features/pkg/table"
)

// TrainingData inner-joins every seller feature on seller_id. A seller
// missing from any part, such as one without delivered orders, is absent.
func (e *Engine) TrainingData() (*table.Table, error) {
	parts := []func() (*table.Table, error){
		e.SellerFeatures,
		e.DelayWaitTime,
		e.ActiveDates,
		e.Quantity,
		e.Sales,
		e.RevenueAndCosts,
		e.ReviewScore,
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
		out, err = out.InnerJoin(t, sellerIDColumn)
		if err != nil {
			return nil, err
		}
	}

	out, err := out.Conform(TrainingSchema)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("Assembled seller training data",
		zap.Int("rows", out.Len()),
		zap.Stringer("reviewPolicy", e.opts.ReviewPolicy))
	return out, nil
}
