// pkg/converter/values.go
package converter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/David-Botos/olist-features/pkg/model"
)

// ConvertValue converts a raw driver or CSV value to the Go type backing target
func (c *TypeConverter) ConvertValue(value interface{}, target model.DataType) (interface{}, error) {
	// Handle NULL values
	if c.isNull(value) {
		return nil, nil
	}

	switch target {
	case model.TypeString:
		return c.convertToText(value)
	case model.TypeInt:
		return c.convertToInt(value)
	case model.TypeFloat:
		return c.convertToFloat(value)
	case model.TypeTimestamp:
		return c.convertToTimestamp(value)
	default:
		return nil, fmt.Errorf("unsupported target type %s", target)
	}
}

// isNull determines if a value should be treated as NULL
func (c *TypeConverter) isNull(value interface{}) bool {
	if value == nil {
		return true
	}

	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return false
	}

	// Check string representations of NULL
	switch strings.TrimSpace(s) {
	case "null", "NULL", "nil", "NIL", "NaN", "nan":
		return true
	case "":
		return c.config.EmptyStringAsNull
	}
	return false
}

// convertToText converts a value to text/string
func (c *TypeConverter) convertToText(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, bool:
		return fmt.Sprintf("%v", v), nil
	case float32, float64:
		return strconv.FormatFloat(toFloat64(v), 'f', -1, 64), nil
	case time.Time:
		return v.Format(time.RFC3339), nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

// convertToInt converts a value to int64
func (c *TypeConverter) convertToInt(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("value %d overflows int64", v)
		}
		return int64(v), nil
	case float32, float64:
		return c.integralFloat(toFloat64(v))
	case []byte:
		return c.convertToInt(string(v))
	case string:
		s := strings.TrimSpace(v)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return c.integralFloat(f)
		}
		return nil, fmt.Errorf("cannot convert string '%s' to integer", v)
	default:
		return nil, fmt.Errorf("cannot convert %T to integer", value)
	}
}

// integralFloat accepts floats without a fractional part as integers
func (c *TypeConverter) integralFloat(f float64) (interface{}, error) {
	if !c.config.AllowIntegralFloats || f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, fmt.Errorf("cannot convert %v to integer", f)
	}
	return int64(f), nil
}

// convertToFloat converts a value to float64
func (c *TypeConverter) convertToFloat(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return toFloat64(v), nil
	case []byte:
		return c.convertToFloat(string(v))
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("cannot convert string '%s' to float", v)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("cannot convert %T to float", value)
	}
}

// convertToTimestamp converts a value to time.Time
func (c *TypeConverter) convertToTimestamp(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case []byte:
		return c.convertToTimestamp(string(v))
	case string:
		s := strings.TrimSpace(v)

		// Detect format (if possible)
		format := DetectTimeFormat(s)
		if format != "" {
			parsedTime, err := time.ParseInLocation(format, s, c.location)
			if err == nil {
				return parsedTime, nil
			}
		}

		return nil, fmt.Errorf("cannot parse '%s' as timestamp", v)
	case int64:
		// Assume Unix timestamp (seconds since epoch)
		return time.Unix(v, 0).In(c.location), nil
	case float64:
		// Assume Unix timestamp with possible fractional seconds
		sec := int64(v)
		nsec := int64((v - float64(sec)) * 1e9)
		return time.Unix(sec, nsec).In(c.location), nil
	default:
		return nil, fmt.Errorf("cannot convert %T to timestamp", value)
	}
}

func toFloat64(v interface{}) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	}
	return math.NaN()
}
