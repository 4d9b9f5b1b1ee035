// pkg/model/metadata.go
package model

import "strings"

// DataType is the logical type of a table column
type DataType int

const (
	// TypeString holds Go string values
	TypeString DataType = iota
	// TypeInt holds int64 values
	TypeInt
	// TypeFloat holds float64 values
	TypeFloat
	// TypeTimestamp holds time.Time values
	TypeTimestamp
)

// String returns the lower-case name of the type
func (t DataType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeTimestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// TableMetadata contains the structure information for an in-memory table
type TableMetadata struct {
	Name        string   // Table name
	Columns     []Column // Column definitions, in output order
	PrimaryKeys []string // Columns that identify a row
}

// Column represents metadata about a table column
type Column struct {
	Name         string   // Column name
	Type         DataType // Logical type of the values
	Nullable     bool     // Whether column allows NULL values
	IsPrimaryKey bool     // Whether column is part of primary key
}

// GetColumnByName returns a column by name (case-insensitive)
// Returns nil if column not found
func (tm *TableMetadata) GetColumnByName(name string) *Column {
	normalizedName := NormalizeColumnName(name)
	for i, col := range tm.Columns {
		if NormalizeColumnName(col.Name) == normalizedName {
			return &tm.Columns[i]
		}
	}
	return nil
}

// HasColumn reports whether the table declares the column
func (tm *TableMetadata) HasColumn(name string) bool {
	return tm.GetColumnByName(name) != nil
}

// ColumnNames returns the column names in declaration order
func (tm *TableMetadata) ColumnNames() []string {
	names := make([]string, len(tm.Columns))
	for i, col := range tm.Columns {
		names[i] = col.Name
	}
	return names
}

// Require returns a SchemaError for the first missing column
func (tm *TableMetadata) Require(columns ...string) error {
	for _, name := range columns {
		if !tm.HasColumn(name) {
			return &SchemaError{Table: tm.Name, Column: name, Err: ErrMissingColumn}
		}
	}
	return nil
}

// Clone returns a deep copy of the metadata
func (tm TableMetadata) Clone() TableMetadata {
	out := TableMetadata{Name: tm.Name}
	out.Columns = append([]Column(nil), tm.Columns...)
	out.PrimaryKeys = append([]string(nil), tm.PrimaryKeys...)
	return out
}

// NormalizeColumnName lower-cases and trims a column name.
// Snowflake returns upper-case identifiers, CSV headers may carry spaces.
func NormalizeColumnName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
