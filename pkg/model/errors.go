// pkg/model/errors.go
package model

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingTable is returned when a required table is absent from the store
	ErrMissingTable = errors.New("missing table")
	// ErrMissingColumn is returned when a required column is absent from a table
	ErrMissingColumn = errors.New("missing column")
	// ErrTypeMismatch is returned when columns that must agree on type do not
	ErrTypeMismatch = errors.New("column type mismatch")
	// ErrDuplicateColumn is returned when an operation would produce two columns with one name
	ErrDuplicateColumn = errors.New("duplicate column")
)

// SchemaError ties a schema failure to the table and column it was found on
type SchemaError struct {
	Table  string
	Column string
	Err    error
}

func (e *SchemaError) Error() string {
	switch {
	case e.Column == "":
		return fmt.Sprintf("%v: %s", e.Err, e.Table)
	case e.Table == "":
		return fmt.Sprintf("%v: %s", e.Err, e.Column)
	default:
		return fmt.Sprintf("%v: %s.%s", e.Err, e.Table, e.Column)
	}
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// MissingTable builds the error returned for an absent table
func MissingTable(name string) error {
	return &SchemaError{Table: name, Err: ErrMissingTable}
}
