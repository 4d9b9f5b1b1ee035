// pkg/model/cleaning.go
package model

import (
	"time"
)

// CleaningOperation represents a single value coercion performed while loading a raw table
type CleaningOperation struct {
	TableName         string      // Table name
	ColumnName        string      // Column that was cleaned
	RowIndex          int         // Position of the row in the source
	OriginalValue     interface{} // Original value (may be nil)
	NewValue          interface{} // Value after cleaning (nil when nulled)
	CleaningOperation string      // Type of cleaning performed (e.g., "null_coercion")
	CleaningReason    string      // Reason for cleaning (e.g., "invalid_timestamp")
	CleanedAt         time.Time   // When the cleaning occurred
}

// CleaningContext contains information needed for cleaning a value
type CleaningContext struct {
	TableName  string
	ColumnName string
	RowIndex   int
	DataType   DataType
}
