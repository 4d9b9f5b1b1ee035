package export

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/David-Botos/olist-features/pkg/connector"
	"github.com/David-Botos/olist-features/pkg/converter"
)

const duckDBTimeout = 5 * time.Minute

// DuckDBSink writes datasets into a DuckDB database through the appender,
// optionally copying each table out to a CSV or Parquet file
type DuckDBSink struct {
	conn     *connector.DuckDBConnector
	schema   string
	copyPath string
	logger   *zap.Logger
}

// NewDuckDBSink creates a sink writing into schema. copyPath, when set, is
// either a directory or a file pattern containing {table}; its extension
// (.csv or .parquet, default .parquet) selects the file format.
func NewDuckDBSink(conn *connector.DuckDBConnector, schema, copyPath string, logger *zap.Logger) *DuckDBSink {
	return &DuckDBSink{
		conn:     conn,
		schema:   schema,
		copyPath: copyPath,
		logger:   logger.Named("duckdb-sink"),
	}
}

// Name implements Sink
func (s *DuckDBSink) Name() string {
	return "duckdb"
}

// Write recreates the table, appends every row and runs the optional copy
func (s *DuckDBSink) Write(ctx context.Context, ds Dataset) (int64, error) {
	meta := ds.Table.Metadata()
	qualified := connector.QualifiedName(s.schema, meta.Name)

	defs := converter.GenerateColumnDefinitions(meta, converter.DialectDuckDB, pq.QuoteIdentifier)
	if len(meta.PrimaryKeys) > 0 {
		quoted := make([]string, len(meta.PrimaryKeys))
		for i, pk := range meta.PrimaryKeys {
			quoted[i] = pq.QuoteIdentifier(pk)
		}
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(quoted, ", ")))
	}

	for _, stmt := range []string{
		"CREATE SCHEMA IF NOT EXISTS " + pq.QuoteIdentifier(s.schema),
		"DROP TABLE IF EXISTS " + qualified,
		fmt.Sprintf("CREATE TABLE %s (%s)", qualified, strings.Join(defs, ", ")),
	} {
		if _, err := s.conn.ExecWithTimeout(ctx, stmt, duckDBTimeout); err != nil {
			return 0, fmt.Errorf("failed to prepare %s: %w", qualified, err)
		}
	}

	var written int64
	err := s.conn.WithAppender(ctx, s.schema, meta.Name, func(a *duckdb.Appender) error {
		for i, values := range valueRows(ds.Table) {
			args := make([]driver.Value, len(values))
			for j, v := range values {
				args[j] = v
			}
			if err := a.AppendRow(args...); err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to append into %s: %w", qualified, err)
	}

	if s.copyPath != "" {
		target, err := s.copyTable(ctx, qualified, meta.Name)
		if err != nil {
			return written, err
		}
		s.logger.Info("Copied table to file",
			zap.String("table", meta.Name),
			zap.String("path", target))
	}

	s.logger.Debug("Wrote table",
		zap.String("table", qualified),
		zap.Int64("rows", written))
	return written, nil
}

// copyTable runs COPY ... TO for one table and returns the file written
func (s *DuckDBSink) copyTable(ctx context.Context, qualified, name string) (string, error) {
	target, format := copyTarget(s.copyPath, name)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", filepath.Dir(target), err)
	}

	stmt := fmt.Sprintf("COPY %s TO '%s' (%s)", qualified, strings.ReplaceAll(target, "'", "''"), format)
	if _, err := s.conn.ExecWithTimeout(ctx, stmt, duckDBTimeout); err != nil {
		return "", fmt.Errorf("failed to copy %s to %s: %w", qualified, target, err)
	}
	return target, nil
}

// copyTarget resolves the copy path for a table and the COPY options
func copyTarget(copyPath, name string) (string, string) {
	var target string
	switch {
	case strings.Contains(copyPath, "{table}"):
		target = strings.ReplaceAll(copyPath, "{table}", name)
	case filepath.Ext(copyPath) == "":
		target = filepath.Join(copyPath, name+".parquet")
	default:
		dir, file := filepath.Split(copyPath)
		target = filepath.Join(dir, name+"_"+file)
	}

	if strings.EqualFold(filepath.Ext(target), ".csv") {
		return target, "FORMAT CSV, HEADER"
	}
	return target, "FORMAT PARQUET"
}

// Count implements Sink
func (s *DuckDBSink) Count(ctx context.Context, tableName string) (int64, error) {
	var n int64
	query := "SELECT COUNT(*) FROM " + connector.QualifiedName(s.schema, tableName)
	err := s.conn.QueryWithTimeout(ctx, query, duckDBTimeout, func(rows *sql.Rows) error {
		if !rows.Next() {
			return fmt.Errorf("no results returned from count query")
		}
		return rows.Scan(&n)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", tableName, err)
	}
	return n, nil
}

// Close implements Sink
func (s *DuckDBSink) Close() error {
	return s.conn.Close()
}
