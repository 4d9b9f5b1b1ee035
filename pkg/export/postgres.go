package export

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/David-Botos/olist-features/pkg/converter"
)

// TableWriter is the part of the Postgres connector the sink writes through
type TableWriter interface {
	EnsureSchema(ctx context.Context, schema string) error
	RecreateTable(ctx context.Context, schema, table string, columnDefs, primaryKeys []string) error
	BatchInsert(ctx context.Context, schema, table string, columns []string, valueRows [][]interface{}, batchSize int) (int64, error)
	CountRows(ctx context.Context, schema, table string) (int64, error)
	Close() error
}

// PostgresSink recreates each dataset as a table in one schema
type PostgresSink struct {
	conn      TableWriter
	schema    string
	batchSize int
	logger    *zap.Logger
}

// NewPostgresSink creates a sink writing into schema
func NewPostgresSink(conn TableWriter, schema string, batchSize int, logger *zap.Logger) *PostgresSink {
	return &PostgresSink{
		conn:      conn,
		schema:    schema,
		batchSize: batchSize,
		logger:    logger.Named("postgres-sink"),
	}
}

// Name implements Sink
func (s *PostgresSink) Name() string {
	return "postgres"
}

// Write drops and recreates the table, then inserts every row in batches
func (s *PostgresSink) Write(ctx context.Context, ds Dataset) (int64, error) {
	meta := ds.Table.Metadata()

	if err := s.conn.EnsureSchema(ctx, s.schema); err != nil {
		return 0, err
	}

	defs := converter.GenerateColumnDefinitions(meta, converter.DialectPostgres, pq.QuoteIdentifier)
	if err := s.conn.RecreateTable(ctx, s.schema, meta.Name, defs, meta.PrimaryKeys); err != nil {
		return 0, err
	}

	n, err := s.conn.BatchInsert(ctx, s.schema, meta.Name, meta.ColumnNames(), valueRows(ds.Table), s.batchSize)
	if err != nil {
		return n, fmt.Errorf("failed to insert into %s.%s: %w", s.schema, meta.Name, err)
	}

	s.logger.Debug("Wrote table",
		zap.String("schema", s.schema),
		zap.String("table", meta.Name),
		zap.Int64("rows", n))
	return n, nil
}

// Count implements Sink
func (s *PostgresSink) Count(ctx context.Context, tableName string) (int64, error) {
	return s.conn.CountRows(ctx, s.schema, tableName)
}

// Close implements Sink
func (s *PostgresSink) Close() error {
	return s.conn.Close()
}
