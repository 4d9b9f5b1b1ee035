// Package pipeline runs the feature pipeline end to end: one snapshot load,
// both feature engines over it, then export to every configured sink.
package pipeline

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/David-Botos/olist-features/pkg/cleaner"
	"github.com/David-Botos/olist-features/pkg/config"
	"github.com/David-Botos/olist-features/pkg/connector"
	"github.com/David-Botos/olist-features/pkg/converter"
	"github.com/David-Botos/olist-features/pkg/export"
	"github.com/David-Botos/olist-features/pkg/order"
	"github.com/David-Botos/olist-features/pkg/seller"
	"github.com/David-Botos/olist-features/pkg/store"
	"github.com/David-Botos/olist-features/pkg/table"
)

// Engines pairs the two feature engines built over one snapshot
type Engines struct {
	Orders  *order.Engine
	Sellers *seller.Engine
}

// Runner wires configuration, connectors, engines and sinks
type Runner struct {
	cfg     *config.Config
	factory *connector.ConnectorFactory
	logger  *zap.Logger
}

// NewRunner creates a runner for cfg
func NewRunner(cfg *config.Config, logger *zap.Logger) *Runner {
	return &Runner{
		cfg:     cfg,
		factory: connector.NewConnectorFactory(cfg, logger),
		logger:  logger.Named("pipeline"),
	}
}

// LoadSnapshot opens the configured source, reads every known table once and
// closes the source again
func (r *Runner) LoadSnapshot(ctx context.Context) (*store.Snapshot, error) {
	dc, err := cleaner.NewDataCleaner(converter.NewTypeConverter(r.logger), r.logger, cleaner.Options{})
	if err != nil {
		return nil, err
	}

	var loader store.Loader
	switch r.cfg.Source {
	case config.SourceCSV:
		conn, err := r.factory.CreateDuckDBConnector(ctx)
		if err != nil {
			return nil, err
		}
		defer conn.Close()
		loader = store.NewCSVLoader(conn, r.cfg.CSVDir, dc, r.logger)
	default:
		conn, err := r.factory.CreateSourceConnector(ctx)
		if err != nil {
			return nil, err
		}
		defer conn.Close()
		loader = store.NewSQLLoader(conn, r.cfg.SourceSchema, dc, r.logger)
	}

	snap, err := store.Load(ctx, loader)
	if err != nil {
		return nil, err
	}

	r.logger.Info("Snapshot loaded",
		zap.String("source", string(r.cfg.Source)),
		zap.Strings("tables", snap.Names()))
	return snap, nil
}

// NewEngines builds the order engine and the seller engine over snap. The
// seller engine reads order features from its own order engine with default
// options, so seller costs do not move with the configured order options.
func NewEngines(snap *store.Snapshot, features *config.FeatureConfig) (*Engines, error) {
	orderOpts, sellerOpts, err := engineOptions(features)
	if err != nil {
		return nil, err
	}

	return &Engines{
		Orders:  order.New(snap, order.WithOptions(orderOpts)),
		Sellers: seller.New(snap, order.New(snap), seller.WithOptions(sellerOpts)),
	}, nil
}

// engineOptions maps the feature file onto engine options. A nil config
// yields the defaults.
func engineOptions(f *config.FeatureConfig) (order.Options, seller.Options, error) {
	if f == nil {
		f = config.DefaultFeatureConfig()
	}

	policy, err := seller.ParseReviewPolicy(f.Seller.ReviewPolicy)
	if err != nil {
		return order.Options{}, seller.Options{}, err
	}

	costs := make(map[int]float64, len(f.Seller.CostModel.StarCosts))
	for star, cost := range f.Seller.CostModel.StarCosts {
		costs[star] = cost
	}

	return order.Options{
			DeliveredOnly: f.Order.DeliveredOnly,
			WithDistance:  f.Order.WithDistance,
		}, seller.Options{
			ReviewPolicy: policy,
			CostModel: seller.CostModel{
				CommissionRate: f.Seller.CostModel.CommissionRate,
				MonthlyFee:     f.Seller.CostModel.MonthlyFee,
				StarCosts:      costs,
			},
		}, nil
}

// Datasets computes both training tables, keyed for key-value sinks by
// order_id and seller_id
func (e *Engines) Datasets() ([]export.Dataset, error) {
	orders, err := e.Orders.TrainingData()
	if err != nil {
		return nil, fmt.Errorf("order training data: %w", err)
	}

	sellers, err := e.Sellers.TrainingData()
	if err != nil {
		return nil, fmt.Errorf("seller training data: %w", err)
	}

	return []export.Dataset{
		{Table: orders, Key: []string{"order_id"}},
		{Table: sellers, Key: []string{"seller_id"}},
	}, nil
}

// Preview returns the first n rows of the named training table
func (e *Engines) Preview(which string, n int) (*table.Table, error) {
	var (
		t   *table.Table
		err error
	)
	switch which {
	case "orders":
		t, err = e.Orders.TrainingData()
	case "sellers":
		t, err = e.Sellers.TrainingData()
	default:
		return nil, fmt.Errorf("unknown training table %q, want orders or sellers", which)
	}
	if err != nil {
		return nil, err
	}
	return t.Head(n), nil
}

// OpenSinks connects every configured sink. Sinks opened before a failure
// are closed again.
func (r *Runner) OpenSinks(ctx context.Context) ([]export.Sink, error) {
	var sinks []export.Sink
	fail := func(err error) ([]export.Sink, error) {
		CloseSinks(sinks, r.logger)
		return nil, err
	}

	for _, kind := range r.cfg.Sinks {
		switch kind {
		case config.SinkPostgres:
			conn, err := r.factory.CreatePostgresConnector(ctx)
			if err != nil {
				return fail(err)
			}
			sinks = append(sinks, export.NewPostgresSink(conn, r.cfg.ExportSchema, r.cfg.BatchSize, r.logger))

		case config.SinkDuckDB:
			conn, err := r.factory.CreateDuckDBConnector(ctx)
			if err != nil {
				return fail(err)
			}
			sinks = append(sinks, export.NewDuckDBSink(conn, r.cfg.ExportSchema, r.cfg.CopyPath, r.logger))

		case config.SinkRedis:
			if r.cfg.Redis == nil {
				return fail(fmt.Errorf("redis is not configured"))
			}
			client := redis.NewClient(&redis.Options{
				Addr:     r.cfg.Redis.Addr,
				Password: r.cfg.Redis.Password,
				DB:       r.cfg.Redis.DB,
			})
			if err := client.Ping(ctx).Err(); err != nil {
				client.Close()
				return fail(fmt.Errorf("failed to connect to redis at %s: %w", r.cfg.Redis.Addr, err))
			}
			sinks = append(sinks, export.NewRedisSink(client, r.cfg.Redis.KeyPrefix, r.cfg.BatchSize, r.logger))

		default:
			return fail(fmt.Errorf("unknown sink %q", kind))
		}
	}

	return sinks, nil
}

// CloseSinks closes every sink, logging failures
func CloseSinks(sinks []export.Sink, logger *zap.Logger) {
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			logger.Warn("Failed to close sink",
				zap.String("sink", s.Name()),
				zap.Error(err))
		}
	}
}

// Run loads, computes and exports. With no sinks configured the training
// tables are still computed and an empty summary is returned.
func (r *Runner) Run(ctx context.Context) (*export.Summary, error) {
	snap, err := r.LoadSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	engines, err := NewEngines(snap, r.cfg.Features)
	if err != nil {
		return nil, err
	}

	datasets, err := engines.Datasets()
	if err != nil {
		return nil, err
	}
	for _, ds := range datasets {
		r.logger.Info("Computed training table",
			zap.String("table", ds.Table.Name()),
			zap.Int("rows", ds.Table.Len()),
			zap.Int("columns", len(ds.Table.Columns())))
	}

	if len(r.cfg.Sinks) == 0 {
		r.logger.Warn("No sinks configured, skipping export")
	}

	sinks, err := r.OpenSinks(ctx)
	if err != nil {
		return nil, err
	}
	defer CloseSinks(sinks, r.logger)

	exporter := export.NewExporter(sinks, r.logger, export.WithWorkers(r.cfg.WorkerPoolSize))
	return exporter.Export(ctx, datasets)
}
