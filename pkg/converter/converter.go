// pkg/converter/converter.go
package converter

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/olist-features/pkg/model"
)

// Dialect names a SQL engine that tables are written to
type Dialect string

const (
	// DialectPostgres targets PostgreSQL DDL
	DialectPostgres Dialect = "postgres"
	// DialectDuckDB targets DuckDB DDL
	DialectDuckDB Dialect = "duckdb"
)

// TypeConverter handles mapping and conversion of data types and values
type TypeConverter struct {
	logger *zap.Logger
	// Configuration options
	config   TypeConverterConfig
	location *time.Location
}

// TypeConverterConfig provides configuration options for type conversion
type TypeConverterConfig struct {
	// Timezone applied to timestamps without an offset
	DefaultTimezone string
	// Whether to treat empty strings as NULL
	EmptyStringAsNull bool
	// Accept floats with a zero fraction ("12.0") for integer columns
	AllowIntegralFloats bool
}

// DefaultConfig returns the default configuration
func DefaultConfig() TypeConverterConfig {
	return TypeConverterConfig{
		DefaultTimezone:     "UTC",
		EmptyStringAsNull:   true,
		AllowIntegralFloats: true,
	}
}

// NewTypeConverter creates a new TypeConverter with default configuration
func NewTypeConverter(logger *zap.Logger) *TypeConverter {
	return NewTypeConverterWithConfig(logger, DefaultConfig())
}

// NewTypeConverterWithConfig creates a TypeConverter with custom configuration
func NewTypeConverterWithConfig(logger *zap.Logger, config TypeConverterConfig) *TypeConverter {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc, err := time.LoadLocation(config.DefaultTimezone)
	if err != nil {
		logger.Warn("Unknown timezone, falling back to UTC",
			zap.String("timezone", config.DefaultTimezone),
			zap.Error(err))
		loc = time.UTC
	}
	return &TypeConverter{
		logger:   logger,
		config:   config,
		location: loc,
	}
}

// MapSQLType converts a source column type (Postgres, Snowflake or DuckDB) to a model type
func (c *TypeConverter) MapSQLType(sqlType string) model.DataType {
	sqlType = strings.ToUpper(strings.TrimSpace(sqlType))
	baseType := getBaseType(sqlType)

	switch baseType {
	case "SMALLINT", "INTEGER", "INT", "INT2", "INT4", "INT8", "BIGINT", "TINYINT",
		"HUGEINT", "UTINYINT", "USMALLINT", "UINTEGER", "UBIGINT":
		return model.TypeInt
	case "REAL", "FLOAT", "FLOAT4", "FLOAT8", "DOUBLE", "DOUBLE PRECISION", "DECIMAL", "NUMERIC":
		if baseType == "DECIMAL" || baseType == "NUMERIC" {
			return c.handleNumberType(sqlType)
		}
		return model.TypeFloat
	case "NUMBER":
		return c.handleNumberType(sqlType)
	case "DATE", "TIMESTAMP", "TIMESTAMPTZ", "DATETIME",
		"TIMESTAMP_NTZ", "TIMESTAMP_TZ", "TIMESTAMP_LTZ",
		"TIMESTAMP WITH TIME ZONE", "TIMESTAMP WITHOUT TIME ZONE":
		return model.TypeTimestamp
	case "VARCHAR", "TEXT", "CHAR", "STRING", "CHARACTER VARYING", "BPCHAR", "UUID", "":
		return model.TypeString
	default:
		c.logger.Debug("Unknown SQL type, treating as string",
			zap.String("sqlType", sqlType))
		return model.TypeString
	}
}

// TargetType returns the column type used when writing a model type to dialect
func TargetType(dt model.DataType, dialect Dialect) string {
	switch dt {
	case model.TypeInt:
		return "BIGINT"
	case model.TypeFloat:
		if dialect == DialectDuckDB {
			return "DOUBLE"
		}
		return "DOUBLE PRECISION"
	case model.TypeTimestamp:
		if dialect == DialectDuckDB {
			return "TIMESTAMP"
		}
		return "TIMESTAMP WITH TIME ZONE"
	default:
		if dialect == DialectDuckDB {
			return "VARCHAR"
		}
		return "TEXT"
	}
}

// GenerateColumnDefinitions creates column definitions for a CREATE TABLE
// statement. quote renders identifiers for the target engine.
func GenerateColumnDefinitions(metadata model.TableMetadata, dialect Dialect, quote func(string) string) []string {
	definitions := make([]string, 0, len(metadata.Columns))

	for _, col := range metadata.Columns {
		nullability := "NULL"
		if col.IsPrimaryKey {
			nullability = "NOT NULL"
		}

		def := fmt.Sprintf("%s %s %s",
			quote(col.Name),
			TargetType(col.Type, dialect),
			nullability)

		definitions = append(definitions, def)
	}

	return definitions
}
