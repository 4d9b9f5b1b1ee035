package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/David-Botos/olist-features/pkg/cleaner"
	"github.com/David-Botos/olist-features/pkg/connector"
	"github.com/David-Botos/olist-features/pkg/converter"
	"github.com/David-Botos/olist-features/pkg/table"
)

// SQLLoader reads the known tables from a warehouse schema
type SQLLoader struct {
	db      *sqlx.DB
	engine  string
	schema  string
	cleaner *cleaner.DataCleaner
	types   *converter.TypeConverter
	logger  *zap.Logger
}

// NewSQLLoader creates a loader over a Postgres or Snowflake connector
func NewSQLLoader(conn connector.DatabaseConnector, schema string, dc *cleaner.DataCleaner, logger *zap.Logger) *SQLLoader {
	driver := conn.Engine()
	if driver == "postgres" {
		driver = "pgx"
	}
	return &SQLLoader{
		db:      sqlx.NewDb(conn.DB(), driver),
		engine:  conn.Engine(),
		schema:  schema,
		cleaner: dc,
		types:   converter.NewTypeConverter(logger),
		logger:  logger.Named("sql-loader"),
	}
}

// Load lists the schema, matches table names after normalization and reads
// every known table found. Unknown warehouse tables are ignored.
func (l *SQLLoader) Load(ctx context.Context) (map[string]*table.Table, error) {
	available, err := l.listTables(ctx)
	if err != nil {
		return nil, err
	}

	tables := make(map[string]*table.Table)
	for _, name := range CanonicalTables() {
		source, ok := available[name]
		if !ok {
			l.logger.Warn("Table not found in source schema",
				zap.String("schema", l.schema),
				zap.String("table", name))
			continue
		}

		mismatched, err := l.typeMismatches(ctx, name, source)
		if err != nil {
			l.logger.Warn("Could not read source column types",
				zap.String("table", source),
				zap.Error(err))
		}
		for _, m := range mismatched {
			l.logger.Warn("Source column type differs from raw schema, values will be converted",
				zap.String("table", name),
				zap.String("column", m))
		}

		query := "SELECT * FROM " + l.qualified(source)
		tbl, err := scanTable(ctx, l.db, l.cleaner, l.logger, name, query)
		if err != nil {
			return nil, err
		}
		tables[name] = tbl
	}

	return tables, nil
}

// listTables maps normalized names to the table names used in the source
func (l *SQLLoader) listTables(ctx context.Context) (map[string]string, error) {
	query := l.db.Rebind(`
		SELECT table_name FROM information_schema.tables
		WHERE UPPER(table_schema) = UPPER(?)
	`)

	var names []string
	if err := l.db.SelectContext(ctx, &names, query, l.schema); err != nil {
		return nil, fmt.Errorf("failed to list tables in %s: %w", l.schema, err)
	}

	out := make(map[string]string, len(names))
	for _, n := range names {
		out[NormalizeTableName(n)] = n
	}
	return out, nil
}

// typeMismatches lists the raw schema columns of name whose declared type in
// the source maps to a different model type
func (l *SQLLoader) typeMismatches(ctx context.Context, name, source string) ([]string, error) {
	meta, ok := RawSchemas[name]
	if !ok {
		return nil, nil
	}

	query := l.db.Rebind(`
		SELECT column_name, data_type FROM information_schema.columns
		WHERE UPPER(table_schema) = UPPER(?) AND table_name = ?
		ORDER BY ordinal_position
	`)
	rows, err := l.db.QueryxContext(ctx, query, l.schema, source)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", source, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var column, sqlType string
		if err := rows.Scan(&column, &sqlType); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", source, err)
		}
		want := meta.GetColumnByName(column)
		if want == nil {
			continue
		}
		if l.types.MapSQLType(sqlType) != want.Type {
			out = append(out, want.Name)
		}
	}
	return out, rows.Err()
}

// qualified renders schema.table for the source engine. Table names are
// quoted exactly as listed. Snowflake resolves the configured schema like an
// unquoted identifier, so it is upper-cased before quoting.
func (l *SQLLoader) qualified(table string) string {
	schema := l.schema
	if l.engine == "snowflake" {
		schema = strings.ToUpper(schema)
	}
	return pq.QuoteIdentifier(schema) + "." + pq.QuoteIdentifier(table)
}
