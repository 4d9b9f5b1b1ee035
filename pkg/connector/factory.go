// pkg/connector/factory.go
package connector

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/olist-features/pkg/config"
)

// ConnectorFactory creates database connectors
type ConnectorFactory struct {
	cfg    *config.Config
	logger *zap.Logger
	retry  RetryPolicy
}

// NewConnectorFactory creates a new connector factory
func NewConnectorFactory(cfg *config.Config, logger *zap.Logger) *ConnectorFactory {
	return &ConnectorFactory{
		cfg:    cfg,
		logger: logger,
		retry:  RetryPolicy{Attempts: cfg.RetryAttempts, Delay: cfg.RetryDelay},
	}
}

// CreateSnowflakeConnector creates a new Snowflake connector
func (f *ConnectorFactory) CreateSnowflakeConnector(ctx context.Context) (*SnowflakeConnector, error) {
	if f.cfg.Snowflake == nil {
		return nil, errors.New("snowflake is not configured")
	}
	f.logger.Info("Creating Snowflake connector")

	connector, err := NewSnowflakeConnector(ctx, f.cfg.Snowflake, f.retry)
	if err != nil {
		return nil, fmt.Errorf("failed to create Snowflake connector: %w", err)
	}

	return connector, nil
}

// CreatePostgresConnector creates a new PostgreSQL connector
func (f *ConnectorFactory) CreatePostgresConnector(ctx context.Context) (*PostgresConnector, error) {
	if f.cfg.Postgres == nil {
		return nil, errors.New("postgreSQL is not configured")
	}
	f.logger.Info("Creating PostgreSQL connector")

	connector, err := NewPostgresConnector(ctx, f.cfg.Postgres, f.retry)
	if err != nil {
		return nil, fmt.Errorf("failed to create PostgreSQL connector: %w", err)
	}

	return connector, nil
}

// CreateDuckDBConnector opens the configured DuckDB database
func (f *ConnectorFactory) CreateDuckDBConnector(ctx context.Context) (*DuckDBConnector, error) {
	f.logger.Info("Creating DuckDB connector", zap.String("path", f.cfg.DuckDBPath))

	connector, err := NewDuckDBConnector(ctx, f.cfg.DuckDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	return connector, nil
}

// CreateSourceConnector creates the connector raw tables are read from:
// DuckDB for the csv source, otherwise the configured warehouse
func (f *ConnectorFactory) CreateSourceConnector(ctx context.Context) (DatabaseConnector, error) {
	switch f.cfg.Source {
	case config.SourceCSV:
		return f.CreateDuckDBConnector(ctx)
	case config.SourcePostgres:
		return f.CreatePostgresConnector(ctx)
	case config.SourceSnowflake:
		return f.CreateSnowflakeConnector(ctx)
	default:
		return nil, fmt.Errorf("unknown source %q", f.cfg.Source)
	}
}
