// Package seller computes per-seller features. Order-level review data is
// taken from the order engine through the OrderFeatures contract rather than
// recomputed.
package seller

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/olist-features/pkg/model"
	"github.com/David-Botos/olist-features/pkg/table"
)

// Source hands out the raw tables by name
type Source interface {
	Table(name string) (*table.Table, error)
}

// OrderFeatures is the part of the order engine the seller engine consumes.
// ReviewScore must carry order_id, review_score, dim_is_one_star and
// dim_is_five_star; TrainingData must carry order_id and an integer
// review_score.
type OrderFeatures interface {
	ReviewScore() (*table.Table, error)
	TrainingData() (*table.Table, error)
}

// ReviewPolicy decides how orders with several reviews are weighted
type ReviewPolicy int

const (
	// ReviewsPerRow keeps one joined row per review, so orders reviewed
	// several times weigh more in seller averages and costs
	ReviewsPerRow ReviewPolicy = iota
	// ReviewsPerOrder averages an order's reviews before seller averaging
	// and bills only its first review
	ReviewsPerOrder
)

// String returns the configuration name of the policy
func (p ReviewPolicy) String() string {
	switch p {
	case ReviewsPerRow:
		return "per_row"
	case ReviewsPerOrder:
		return "per_order"
	default:
		return fmt.Sprintf("ReviewPolicy(%d)", int(p))
	}
}

// ParseReviewPolicy maps a configuration name to a ReviewPolicy
func ParseReviewPolicy(s string) (ReviewPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "per_row":
		return ReviewsPerRow, nil
	case "per_order":
		return ReviewsPerOrder, nil
	default:
		return ReviewsPerRow, fmt.Errorf("unknown review policy: %s", s)
	}
}

// CostModel prices the marketplace side of a seller
type CostModel struct {
	// CommissionRate is the share of sales kept as revenue
	CommissionRate float64
	// MonthlyFee is charged for every month on the marketplace
	MonthlyFee float64
	// StarCosts maps a review score to what one such review costs.
	// Scores without an entry cost nothing.
	StarCosts map[int]float64
}

// DefaultCostModel returns 10% commission, 80 per month and
// 100/50/40 for one, two and three star reviews
func DefaultCostModel() CostModel {
	return CostModel{
		CommissionRate: 0.10,
		MonthlyFee:     80,
		StarCosts:      map[int]float64{1: 100, 2: 50, 3: 40, 4: 0, 5: 0},
	}
}

// Options configures the seller engine
type Options struct {
	ReviewPolicy ReviewPolicy
	CostModel    CostModel
}

// DefaultOptions returns per-row reviews and the default cost model
func DefaultOptions() Options {
	return Options{ReviewPolicy: ReviewsPerRow, CostModel: DefaultCostModel()}
}

// Option adjusts Options
type Option func(*Options)

// WithReviewPolicy sets Options.ReviewPolicy
func WithReviewPolicy(p ReviewPolicy) Option {
	return func(o *Options) { o.ReviewPolicy = p }
}

// WithCostModel sets Options.CostModel
func WithCostModel(m CostModel) Option {
	return func(o *Options) { o.CostModel = m }
}

// WithOptions replaces all options at once
func WithOptions(opts Options) Option {
	return func(o *Options) { *o = opts }
}

// Engine computes seller features over one Source
type Engine struct {
	src    Source
	orders OrderFeatures
	opts   Options
	logger *zap.Logger
}

// New creates a seller feature engine
func New(src Source, orders OrderFeatures, opts ...Option) *Engine {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{
		src:    src,
		orders: orders,
		opts:   o,
		logger: zap.L().Named("seller-engine"),
	}
}

// Options returns the options the engine runs with
func (e *Engine) Options() Options {
	return e.opts
}

// source fetches a raw table and checks that it carries the given columns
func (e *Engine) source(name string, columns ...string) (*table.Table, error) {
	t, err := e.src.Table(name)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, model.MissingTable(name)
	}
	if err := t.Require(columns...); err != nil {
		return nil, err
	}
	return t, nil
}

// projected fetches a raw table reduced to the given columns
func (e *Engine) projected(name string, columns ...string) (*table.Table, error) {
	t, err := e.source(name, columns...)
	if err != nil {
		return nil, err
	}
	return t.Select(columns...)
}

// orderSellers returns the distinct (order_id, seller_id) pairs of the items
func (e *Engine) orderSellers() (*table.Table, error) {
	pairs, err := e.projected(model.TableOrderItems, orderIDColumn, sellerIDColumn)
	if err != nil {
		return nil, err
	}
	return pairs.Distinct()
}

// fromOrders validates a table received from the order engine and reduces it
// to the consumed columns
func fromOrders(t *table.Table, err error, name string, columns ...string) (*table.Table, error) {
	if err != nil {
		return nil, fmt.Errorf("order features %s: %w", name, err)
	}
	if t == nil {
		return nil, model.MissingTable(name)
	}
	meta := t.Metadata()
	for _, c := range columns {
		col := meta.GetColumnByName(c)
		if col == nil {
			return nil, &model.SchemaError{Table: name, Column: c, Err: model.ErrMissingColumn}
		}
		if col.Type != model.TypeInt && col.Type != model.TypeFloat && c != orderIDColumn {
			return nil, &model.SchemaError{Table: name, Column: c, Err: model.ErrTypeMismatch}
		}
	}
	return t.Select(columns...)
}

// done logs a finished feature table
func (e *Engine) done(t *table.Table) (*table.Table, error) {
	e.logger.Debug("Computed seller features",
		zap.String("table", t.Name()),
		zap.Int("rows", t.Len()))
	return t, nil
}

// days returns the fractional number of days from a to b
func days(a, b time.Time) float64 {
	return float64(b.Sub(a)) / float64(24*time.Hour)
}

// daysBetween is days over two timestamp columns, null when either is null
func daysBetween(r table.Row, from, to string) interface{} {
	a, ok := r.Time(from)
	if !ok {
		return nil
	}
	b, ok := r.Time(to)
	if !ok {
		return nil
	}
	return days(a, b)
}
