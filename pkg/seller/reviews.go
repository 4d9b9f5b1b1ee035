package seller

import (
	"go.uber.org/zap"

	"github.com/David-Botos/olist-features/pkg/table"
)

// ReviewScore averages the order review indicators and scores of each
// seller's orders into share_of_one_stars, share_of_five_stars and
// review_score. How orders with several reviews weigh depends on the
// ReviewPolicy.
func (e *Engine) ReviewScore() (*table.Table, error) {
	reviews, err := e.orders.ReviewScore()
	reviews, err = fromOrders(reviews, err, "order review score",
		orderIDColumn, oneStarColumn, fiveStarColumn, reviewScoreCol)
	if err != nil {
		return nil, err
	}

	if e.opts.ReviewPolicy == ReviewsPerOrder {
		reviews, err = reviews.GroupBy(orderIDColumn).Aggregate(
			table.Mean(oneStarColumn, oneStarColumn),
			table.Mean(fiveStarColumn, fiveStarColumn),
			table.Mean(reviewScoreCol, reviewScoreCol),
		)
		if err != nil {
			return nil, err
		}
	}

	pairs, err := e.orderSellers()
	if err != nil {
		return nil, err
	}
	joined, err := pairs.InnerJoin(reviews, orderIDColumn)
	if err != nil {
		return nil, err
	}

	out, err := joined.GroupBy(sellerIDColumn).Aggregate(
		table.Mean(oneStarColumn, oneStarsShareCol),
		table.Mean(fiveStarColumn, fiveStarShareCol),
		table.Mean(reviewScoreCol, reviewScoreCol),
	)
	if err != nil {
		return nil, err
	}
	out, err = out.Conform(ReviewScoreSchema)
	if err != nil {
		return nil, err
	}
	return e.done(out)
}

// RevenueAndCosts prices every seller: revenue is commission on sales plus
// the monthly fee over months_on_olist, review_costs charges each review of
// a seller's orders in the order training data by its star cost, and
// profits is their difference. Sellers missing from either side drop out.
func (e *Engine) RevenueAndCosts() (*table.Table, error) {
	revenue, err := e.revenue()
	if err != nil {
		return nil, err
	}
	costs, err := e.reviewCosts()
	if err != nil {
		return nil, err
	}

	out, err := revenue.InnerJoin(costs, sellerIDColumn)
	if err != nil {
		return nil, err
	}
	out, err = out.Derive(float(profitsColumn, false), func(r table.Row) interface{} {
		rev, _ := r.Float(revenueColumn)
		cost, _ := r.Float(costsColumn)
		return rev - cost
	})
	if err != nil {
		return nil, err
	}

	out, err = out.Conform(RevenueAndCostsSchema)
	if err != nil {
		return nil, err
	}
	return e.done(out)
}

// revenue returns seller_id and revenue for sellers with sales and an
// approved order
func (e *Engine) revenue() (*table.Table, error) {
	sales, err := e.Sales()
	if err != nil {
		return nil, err
	}
	dates, err := e.ActiveDates()
	if err != nil {
		return nil, err
	}
	joined, err := sales.InnerJoin(dates, sellerIDColumn)
	if err != nil {
		return nil, err
	}

	cm := e.opts.CostModel
	joined, err = joined.Derive(float(revenueColumn, false), func(r table.Row) interface{} {
		s, _ := r.Float(salesColumn)
		m, _ := r.Float(monthsColumn)
		return s*cm.CommissionRate + m*cm.MonthlyFee
	})
	if err != nil {
		return nil, err
	}
	return joined.Select(sellerIDColumn, revenueColumn)
}

// reviewCosts returns seller_id and review_costs
func (e *Engine) reviewCosts() (*table.Table, error) {
	training, err := e.orders.TrainingData()
	training, err = fromOrders(training, err, "order training data", orderIDColumn, reviewScoreCol)
	if err != nil {
		return nil, err
	}

	if e.opts.ReviewPolicy == ReviewsPerOrder {
		training, err = training.Distinct(orderIDColumn)
		if err != nil {
			return nil, err
		}
	}

	pairs, err := e.orderSellers()
	if err != nil {
		return nil, err
	}
	joined, err := pairs.InnerJoin(training, orderIDColumn)
	if err != nil {
		return nil, err
	}

	starCosts := e.opts.CostModel.StarCosts
	joined, err = joined.Derive(float("review_cost", false), func(r table.Row) interface{} {
		score, ok := r.Float(reviewScoreCol)
		if !ok || score != float64(int(score)) {
			return 0.0
		}
		return starCosts[int(score)]
	})
	if err != nil {
		return nil, err
	}

	out, err := joined.GroupBy(sellerIDColumn).Aggregate(table.Sum("review_cost", costsColumn))
	if err != nil {
		return nil, err
	}

	e.logger.Debug("Computed review costs",
		zap.Int("sellers", out.Len()),
		zap.Int("reviews", joined.Len()),
		zap.Stringer("reviewPolicy", e.opts.ReviewPolicy))
	return out, nil
}
