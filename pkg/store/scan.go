package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/David-Botos/olist-features/pkg/cleaner"
	"github.com/David-Botos/olist-features/pkg/table"
)

// scanTable runs query, collects every row with MapScan and types the result
// through the cleaner under the schema chosen for name
func scanTable(
	ctx context.Context,
	db *sqlx.DB,
	dc *cleaner.DataCleaner,
	logger *zap.Logger,
	name, query string,
	args ...interface{},
) (*table.Table, error) {
	rows, err := db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", name, err)
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", name, err)
	}

	meta, err := schemaFor(name, header)
	if err != nil {
		return nil, err
	}

	var raw []map[string]interface{}
	for rows.Next() {
		m := make(map[string]interface{}, len(header))
		if err := rows.MapScan(m); err != nil {
			return nil, fmt.Errorf("failed to scan %s row %d: %w", name, len(raw), err)
		}
		raw = append(raw, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", name, err)
	}

	tbl, ops, err := dc.CleanTable(raw, &meta)
	if err != nil {
		return nil, err
	}

	logger.Info("Loaded table",
		zap.String("table", name),
		zap.Int("rows", tbl.Len()),
		zap.Int("columns", len(meta.Columns)),
		zap.Int("cleaningOperations", len(ops)))
	return tbl, nil
}
