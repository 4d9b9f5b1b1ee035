// Package order computes per-order features from the raw marketplace tables
// and assembles them into the order training table.
package order

import (
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/olist-features/pkg/model"
	"github.com/David-Botos/olist-features/pkg/table"
)

// StatusDelivered is the order_status value kept by the delivered filter
const StatusDelivered = "delivered"

// Source hands out the raw tables by name
type Source interface {
	Table(name string) (*table.Table, error)
}

// Options selects which features TrainingData includes
type Options struct {
	// DeliveredOnly keeps only delivered orders before computing wait times
	DeliveredOnly bool
	// WithDistance joins the seller-customer distance into the training table
	WithDistance bool
}

// DefaultOptions returns the options used when none are given
func DefaultOptions() Options {
	return Options{DeliveredOnly: true, WithDistance: true}
}

// Option adjusts Options
type Option func(*Options)

// WithDeliveredOnly sets Options.DeliveredOnly
func WithDeliveredOnly(v bool) Option {
	return func(o *Options) { o.DeliveredOnly = v }
}

// WithDistance sets Options.WithDistance
func WithDistance(v bool) Option {
	return func(o *Options) { o.WithDistance = v }
}

// WithOptions replaces all options at once
func WithOptions(opts Options) Option {
	return func(o *Options) { *o = opts }
}

// Engine computes order features over one Source
type Engine struct {
	src    Source
	opts   Options
	logger *zap.Logger
}

// New creates an order feature engine
func New(src Source, opts ...Option) *Engine {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{
		src:    src,
		opts:   o,
		logger: zap.L().Named("order-engine"),
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

// done logs a finished feature table
func (e *Engine) done(t *table.Table) (*table.Table, error) {
	e.logger.Debug("Computed order features",
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
