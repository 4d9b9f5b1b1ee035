// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// SourceKind selects where raw tables are read from
type SourceKind string

const (
	SourceCSV       SourceKind = "csv"
	SourcePostgres  SourceKind = "postgres"
	SourceSnowflake SourceKind = "snowflake"
)

// SinkKind names an export destination
type SinkKind string

const (
	SinkPostgres SinkKind = "postgres"
	SinkDuckDB   SinkKind = "duckdb"
	SinkRedis    SinkKind = "redis"
)

// Config represents the application configuration
type Config struct {
	// Raw table source
	Source       SourceKind
	CSVDir       string
	DuckDBPath   string // DuckDB database used for CSV reads and the duckdb sink; empty means in-memory
	SourceSchema string

	// Database connections, loaded only when the source or a sink needs them
	Snowflake *SnowflakeConfig
	Postgres  *PostgresConfig
	Redis     *RedisConfig

	// Export settings
	Sinks          []SinkKind
	ExportSchema   string
	BatchSize      int
	WorkerPoolSize int
	CopyPath       string // Optional csv/parquet file the duckdb sink copies each table to

	// Retry settings for connects
	RetryAttempts int
	RetryDelay    time.Duration

	// Feature engine options
	FeaturesPath string
	Features     *FeatureConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from environment variables. A .env file in
// the working directory is read first when present; real environment
// variables take precedence over it.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	cfg := &Config{
		// Default values
		Source:         SourceKind(strings.ToLower(getEnv("SOURCE", string(SourceCSV)))),
		CSVDir:         getEnv("CSV_DIR", "data"),
		DuckDBPath:     getEnv("DUCKDB_PATH", ""),
		SourceSchema:   getEnv("SOURCE_SCHEMA", "public"),
		ExportSchema:   getEnv("EXPORT_SCHEMA", "features"),
		BatchSize:      getEnvAsInt("EXPORT_BATCH_SIZE", 1000),
		WorkerPoolSize: getEnvAsInt("EXPORT_WORKERS", 2),
		CopyPath:       getEnv("EXPORT_COPY_PATH", ""),
		RetryAttempts:  getEnvAsInt("RETRY_ATTEMPTS", 3),
		RetryDelay:     time.Duration(getEnvAsInt("RETRY_DELAY_MS", 1000)) * time.Millisecond,
		FeaturesPath:   getEnv("FEATURES_CONFIG", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
	}

	for _, s := range getEnvAsStringSlice("SINKS", nil) {
		cfg.Sinks = append(cfg.Sinks, SinkKind(strings.ToLower(s)))
	}

	features, err := LoadFeatureConfig(cfg.FeaturesPath)
	if err != nil {
		return nil, err
	}
	cfg.Features = features

	// Load database configurations
	if cfg.Source == SourceSnowflake {
		snowConfig, err := LoadSnowflakeConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load Snowflake configuration: %w", err)
		}
		cfg.Snowflake = snowConfig
	}

	if cfg.Source == SourcePostgres || cfg.HasSink(SinkPostgres) {
		pgConfig, err := LoadPostgresConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load PostgreSQL configuration: %w", err)
		}
		cfg.Postgres = pgConfig
	}

	if cfg.HasSink(SinkRedis) {
		cfg.Redis = LoadRedisConfig()
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// HasSink reports whether kind is among the configured sinks
func (c *Config) HasSink(kind SinkKind) bool {
	for _, s := range c.Sinks {
		if s == kind {
			return true
		}
	}
	return false
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	switch c.Source {
	case SourceCSV:
		if c.CSVDir == "" {
			return errors.New("CSV_DIR is required for the csv source")
		}
	case SourcePostgres:
		if c.Postgres == nil {
			return errors.New("postgreSQL configuration is required")
		}
	case SourceSnowflake:
		if c.Snowflake == nil {
			return errors.New("snowflake configuration is required")
		}
	default:
		return fmt.Errorf("unknown source %q", c.Source)
	}

	for _, s := range c.Sinks {
		switch s {
		case SinkPostgres, SinkDuckDB, SinkRedis:
		default:
			return fmt.Errorf("unknown sink %q", s)
		}
	}

	if c.BatchSize <= 0 {
		return errors.New("batch size must be positive")
	}

	if c.WorkerPoolSize <= 0 {
		return errors.New("export workers must be positive")
	}

	if c.RetryAttempts < 0 {
		return errors.New("retry attempts cannot be negative")
	}

	return c.Features.Validate()
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsStringSlice parses a comma-separated variable, dropping empty entries
func getEnvAsStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result []string
	for _, v := range strings.Split(value, ",") {
		v = strings.Trim(strings.TrimSpace(v), `"`)
		if v != "" {
			result = append(result, v)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}
