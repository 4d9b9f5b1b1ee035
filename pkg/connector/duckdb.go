// pkg/connector/duckdb.go
package connector

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"
)

// DuckDBConnector implements the DatabaseConnector interface for an embedded DuckDB
type DuckDBConnector struct {
	db     *sql.DB
	logger *zap.Logger
	path   string
}

// NewDuckDBConnector opens a DuckDB database file. An empty path opens an
// in-memory database shared by every connection of the pool.
func NewDuckDBConnector(ctx context.Context, path string) (*DuckDBConnector, error) {
	logger := zap.L().Named("duckdb-connector")

	name := path
	if name == "" {
		name = ":memory:"
	}
	logger.Info("Opening DuckDB", zap.String("path", name))

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}

	if err := PingWithTimeout(ctx, db, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}

	return &DuckDBConnector{db: db, logger: logger, path: name}, nil
}

// DB returns the underlying database connection
func (c *DuckDBConnector) DB() *sql.DB {
	return c.db
}

// Engine returns "duckdb"
func (c *DuckDBConnector) Engine() string {
	return "duckdb"
}

// Validate checks the database answers queries
func (c *DuckDBConnector) Validate(ctx context.Context) error {
	var version string
	if err := c.db.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return fmt.Errorf("failed to query duckdb version: %w", err)
	}
	c.logger.Info("Connected to DuckDB", zap.String("version", version), zap.String("path", c.path))
	return nil
}

// Close closes the database connection
func (c *DuckDBConnector) Close() error {
	c.logger.Info("Closing DuckDB", zap.String("path", c.path))
	return c.db.Close()
}

// QueryWithTimeout executes a query with a timeout
func (c *DuckDBConnector) QueryWithTimeout(
	ctx context.Context,
	query string,
	timeout time.Duration,
	scan func(*sql.Rows) error,
	args ...interface{},
) error {
	return queryWithTimeout(ctx, c.db, query, timeout, scan, args...)
}

// ExecWithTimeout executes a statement with a timeout
func (c *DuckDBConnector) ExecWithTimeout(
	ctx context.Context,
	query string,
	timeout time.Duration,
	args ...interface{},
) (sql.Result, error) {
	return execWithTimeout(ctx, c.db, query, timeout, args...)
}

// WithAppender runs fn with an appender on table, flushing it on success.
// The appender holds one pooled connection for the duration of fn.
func (c *DuckDBConnector) WithAppender(ctx context.Context, schema, table string, fn func(*duckdb.Appender) error) error {
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	var appender *duckdb.Appender
	err = conn.Raw(func(driverConn any) error {
		duckConn, ok := driverConn.(*duckdb.Conn)
		if !ok {
			return fmt.Errorf("unexpected connection type: %T", driverConn)
		}
		var appErr error
		appender, appErr = duckdb.NewAppenderFromConn(duckConn, schema, table)
		return appErr
	})
	if err != nil {
		return fmt.Errorf("failed to create appender for %s: %w", table, err)
	}
	defer appender.Close()

	if err := fn(appender); err != nil {
		return err
	}
	if err := appender.Flush(); err != nil {
		return fmt.Errorf("failed to flush appender for %s: %w", table, err)
	}
	return nil
}
