// pkg/cleaner/cleaner.go
package cleaner

import (
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/David-Botos/olist-features/pkg/converter"
	"github.com/David-Botos/olist-features/pkg/model"
	"github.com/David-Botos/olist-features/pkg/table"
)

// Options tunes which checks the cleaner performs besides type standardization
type Options struct {
	// CheckIdentifiers records string *_id values that are not 32-digit hex or UUID shaped.
	// Values are kept either way.
	CheckIdentifiers bool
}

// DataCleaner turns raw loader rows into typed table rows
type DataCleaner struct {
	converter *converter.TypeConverter
	logger    *zap.Logger
	clock     clockwork.Clock
	opts      Options
}

// NewDataCleaner creates a new DataCleaner instance
func NewDataCleaner(conv *converter.TypeConverter, logger *zap.Logger, opts Options) (*DataCleaner, error) {
	if conv == nil {
		return nil, errors.New("type converter cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &DataCleaner{
		converter: conv,
		logger:    logger,
		clock:     clockwork.NewRealClock(),
		opts:      opts,
	}, nil
}

// WithClock replaces the clock used to stamp cleaning operations
func (c *DataCleaner) WithClock(clock clockwork.Clock) *DataCleaner {
	cp := *c
	cp.clock = clock
	return &cp
}

// CleanRows standardizes a batch of raw rows against metadata. Raw column
// names are matched case-insensitively. Values that cannot be converted to the
// column type become null and are reported as cleaning operations.
func (c *DataCleaner) CleanRows(
	rows []map[string]interface{},
	metadata *model.TableMetadata,
) ([]table.Row, []model.CleaningOperation, error) {
	if metadata == nil {
		return nil, nil, errors.New("table metadata cannot be nil")
	}

	cleanedRows := make([]table.Row, 0, len(rows))
	var allOperations []model.CleaningOperation

	for i, row := range rows {
		cleanedRow, operations := c.cleanSingleRow(i, row, metadata)
		cleanedRows = append(cleanedRows, cleanedRow)
		allOperations = append(allOperations, operations...)
	}

	if len(allOperations) > 0 {
		c.logger.Info("Cleaned raw values",
			zap.String("table", metadata.Name),
			zap.Int("rows", len(rows)),
			zap.Int("operations", len(allOperations)))
	}

	return cleanedRows, allOperations, nil
}

// CleanTable cleans rows and builds the typed table in one step
func (c *DataCleaner) CleanTable(
	rows []map[string]interface{},
	metadata *model.TableMetadata,
) (*table.Table, []model.CleaningOperation, error) {
	cleaned, ops, err := c.CleanRows(rows, metadata)
	if err != nil {
		return nil, nil, err
	}
	tbl, err := table.New(*metadata, cleaned)
	if err != nil {
		return nil, ops, fmt.Errorf("failed to build table %s: %w", metadata.Name, err)
	}
	return tbl, ops, nil
}

// cleanSingleRow validates and cleans a single data row
func (c *DataCleaner) cleanSingleRow(
	index int,
	row map[string]interface{},
	metadata *model.TableMetadata,
) (table.Row, []model.CleaningOperation) {
	byName := make(map[string]interface{}, len(row))
	for k, v := range row {
		byName[model.NormalizeColumnName(k)] = v
	}

	cleanedRow := make(table.Row, len(metadata.Columns))
	var operations []model.CleaningOperation

	for _, col := range metadata.Columns {
		ctx := model.CleaningContext{
			TableName:  metadata.Name,
			ColumnName: col.Name,
			RowIndex:   index,
			DataType:   col.Type,
		}

		value, op := c.standardizeValue(byName[model.NormalizeColumnName(col.Name)], ctx)
		if op != nil {
			operations = append(operations, *op)
		}

		if c.opts.CheckIdentifiers && isIdentifierColumn(col) {
			if idOp := c.checkIdentifier(value, ctx); idOp != nil {
				operations = append(operations, *idOp)
			}
		}

		cleanedRow[col.Name] = value
	}

	return cleanedRow, operations
}
