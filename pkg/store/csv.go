package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/David-Botos/olist-features/pkg/cleaner"
	"github.com/David-Botos/olist-features/pkg/connector"
	"github.com/David-Botos/olist-features/pkg/table"
)

// CSVLoader reads every *.csv file of a directory through DuckDB
type CSVLoader struct {
	db      *sqlx.DB
	dir     string
	cleaner *cleaner.DataCleaner
	logger  *zap.Logger
}

// NewCSVLoader creates a loader reading dir with the given DuckDB connection
func NewCSVLoader(conn *connector.DuckDBConnector, dir string, dc *cleaner.DataCleaner, logger *zap.Logger) *CSVLoader {
	return &CSVLoader{
		db:      sqlx.NewDb(conn.DB(), "duckdb"),
		dir:     dir,
		cleaner: dc,
		logger:  logger.Named("csv-loader"),
	}
}

// Load reads each CSV file as text and types it. Table keys are the
// normalized file names; two files normalizing to one key is an error.
func (l *CSVLoader) Load(ctx context.Context) (map[string]*table.Table, error) {
	files, err := filepath.Glob(filepath.Join(l.dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", l.dir, err)
	}
	sort.Strings(files)

	l.logger.Info("Reading CSV directory",
		zap.String("dir", l.dir),
		zap.Int("files", len(files)))

	tables := make(map[string]*table.Table, len(files))
	sources := make(map[string]string, len(files))
	for _, file := range files {
		name := NormalizeTableName(file)
		if prev, dup := sources[name]; dup {
			return nil, fmt.Errorf("files %s and %s both map to table %s", prev, file, name)
		}
		sources[name] = file

		tbl, err := scanTable(ctx, l.db, l.cleaner, l.logger, name, readCSVQuery(file))
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
		tables[name] = tbl
	}

	return tables, nil
}

// readCSVQuery builds the DuckDB scan of one file. Every column is read as
// text so typing stays with the cleaner.
func readCSVQuery(path string) string {
	quoted := "'" + strings.ReplaceAll(path, "'", "''") + "'"
	return fmt.Sprintf("SELECT * FROM read_csv_auto(%s, header=true, all_varchar=true)", quoted)
}
