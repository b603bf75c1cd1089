package util

import (
	"math"
	"strconv"
	"strings"
)

// ParseDecimal parses a percent-like numeric string that may use either a dot
// or a comma as the decimal separator. Surrounding whitespace is ignored.
// Non-finite results are rejected.
func ParseDecimal(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// FloatCell extracts an optional float from a decoded JSON table cell.
// Exchange tables mix raw numbers, numeric strings (sometimes with a comma
// separator), empty strings, and nulls; anything unusable maps to nil.
func FloatCell(v interface{}) *float64 {
	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		return &x
	case int:
		f := float64(x)
		return &f
	case int64:
		f := float64(x)
		return &f
	case string:
		low := strings.ToLower(strings.TrimSpace(x))
		switch low {
		case "", "nan", "none", "null", "n/a":
			return nil
		}
		if f, ok := ParseDecimal(x); ok {
			return &f
		}
		return nil
	default:
		return nil
	}
}

// IntCell extracts an optional int from a decoded JSON table cell.
func IntCell(v interface{}) *int {
	f := FloatCell(v)
	if f == nil {
		return nil
	}
	n := int(*f)
	return &n
}

// StringCell extracts a trimmed non-empty string from a decoded JSON table cell.
func StringCell(v interface{}) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
