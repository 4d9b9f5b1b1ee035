// pkg/converter/mapping.go
package converter

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/olist-features/pkg/model"
)

// Patterns for type extraction
var (
	precisionScalePattern = regexp.MustCompile(`(?:NUMBER|NUMERIC|DECIMAL)\((\d+)(?:,\s*(\d+))?\)`)
)

// getBaseType extracts the base type from a complex type definition
func getBaseType(fullType string) string {
	parts := strings.Split(fullType, "(")
	return strings.TrimSpace(parts[0])
}

// handleNumberType processes NUMBER/NUMERIC types with precision/scale.
// Scale 0 maps to an integer, anything else (or no precision) to a float.
func (c *TypeConverter) handleNumberType(fullType string) model.DataType {
	matches := precisionScalePattern.FindStringSubmatch(fullType)

	// No precision/scale specified
	if len(matches) < 2 {
		return model.TypeFloat
	}

	// Scale defaults to 0 if not specified
	scale := 0
	if len(matches) > 2 && matches[2] != "" {
		var err error
		scale, err = strconv.Atoi(matches[2])
		if err != nil {
			c.logger.Debug("Unparsable numeric scale",
				zap.String("type", fullType))
			return model.TypeFloat
		}
	}

	if scale == 0 {
		return model.TypeInt
	}
	return model.TypeFloat
}

// timestampLayouts are tried in order when parsing timestamp strings
var timestampLayouts = []string{
	"2006-01-02 15:04:05",              // SQL timestamp (olist exports)
	"2006-01-02T15:04:05Z07:00",        // ISO8601 with timezone
	"2006-01-02T15:04:05",              // ISO8601 without zone
	"2006-01-02 15:04:05.999999",       // SQL timestamp with fraction
	"2006-01-02T15:04:05.999999Z07:00", // ISO8601 with fraction and timezone
	"2006-01-02 15:04:05-07",           // Postgres text output
	"2006-01-02",                       // Date only
	"20060102T150405Z",                 // Compact ISO8601
	time.RFC1123,
	time.RFC1123Z,
}

// DetectTimeFormat analyzes a value to determine its timestamp format
func DetectTimeFormat(value string) string {
	for _, format := range timestampLayouts {
		_, err := time.Parse(format, value)
		if err == nil {
			return format
		}
	}

	return ""
}
