// pkg/cleaner/operations.go
package cleaner

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/David-Botos/olist-features/pkg/model"
)

// Cleaning operation names
const (
	OpNullCoercion      = "null_coercion"
	OpTrim              = "whitespace_trim"
	OpIdentifierInvalid = "identifier_check"
)

// standardizeValue converts value to the column type. Failures are nulled.
func (c *DataCleaner) standardizeValue(
	value interface{},
	ctx model.CleaningContext,
) (interface{}, *model.CleaningOperation) {
	converted, err := c.converter.ConvertValue(value, ctx.DataType)
	if err != nil {
		return nil, c.operation(ctx, value, nil, OpNullCoercion,
			fmt.Sprintf("cannot_convert_to_%s: %v", ctx.DataType, err))
	}

	// Strings keep their content but lose surrounding whitespace
	if s, ok := converted.(string); ok {
		trimmed := strings.TrimSpace(s)
		if trimmed != s {
			return trimmed, c.operation(ctx, s, trimmed, OpTrim, "surrounding_whitespace")
		}
	}

	return converted, nil
}

// checkIdentifier records identifiers that are neither UUIDs nor 32-digit hex
// hashes. The value itself is never replaced.
func (c *DataCleaner) checkIdentifier(
	value interface{},
	ctx model.CleaningContext,
) *model.CleaningOperation {
	s, ok := value.(string)
	if !ok {
		return nil
	}
	if isValidIdentifier(s) {
		return nil
	}
	return c.operation(ctx, s, s, OpIdentifierInvalid, "malformed_identifier")
}

func (c *DataCleaner) operation(
	ctx model.CleaningContext,
	original, replacement interface{},
	operation, reason string,
) *model.CleaningOperation {
	return &model.CleaningOperation{
		TableName:         ctx.TableName,
		ColumnName:        ctx.ColumnName,
		RowIndex:          ctx.RowIndex,
		OriginalValue:     toNullableString(original),
		NewValue:          replacement,
		CleaningOperation: operation,
		CleaningReason:    reason,
		CleanedAt:         c.clock.Now(),
	}
}

// Helper functions

// isIdentifierColumn determines if a column holds hashed identifiers
func isIdentifierColumn(col model.Column) bool {
	if col.Type != model.TypeString {
		return false
	}
	name := strings.ToLower(col.Name)
	return name == "id" || strings.HasSuffix(name, "_id")
}

// isValidIdentifier accepts canonical UUIDs and the 32-digit hex form olist uses
func isValidIdentifier(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// toString converts an interface to string
func toString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// toNullableString keeps nil as nil and renders everything else as text
func toNullableString(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	return toString(v)
}
