package table

import (
	"strconv"
	"strings"
	"time"
)

const keySeparator = "\x1f"

// encodeValue renders a typed value as a map key fragment. Type tags keep
// "1" (string) and 1 (int64) apart. ok is false for nulls.
func encodeValue(v interface{}) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return "s:" + val, true
	case int64:
		return "i:" + strconv.FormatInt(val, 10), true
	case float64:
		return "f:" + strconv.FormatFloat(val, 'g', -1, 64), true
	case time.Time:
		return "t:" + strconv.FormatInt(val.UnixNano(), 10), true
	default:
		return "", false
	}
}

// rowKey builds a composite key over columns. When nullsEqual is false a
// null in any column yields the empty key, which callers treat as "no key".
func rowKey(r Row, columns []string, nullsEqual bool) string {
	var sb strings.Builder
	for i, col := range columns {
		if i > 0 {
			sb.WriteString(keySeparator)
		}
		enc, ok := encodeValue(r[col])
		if !ok {
			if !nullsEqual {
				return ""
			}
			enc = "n:"
		}
		sb.WriteString(enc)
	}
	return sb.String()
}
