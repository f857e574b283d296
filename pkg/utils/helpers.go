package utils

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// ParseValue turns a raw cell into an int, a float64 or a trimmed string.
// Empty cells become nil.
func ParseValue(s string) interface{} {
	// Trim whitespace first
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	// try int
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	// try float
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	return s
}

// Numeric converts supported numeric types to float64. The boolean is false
// for anything that is not a number.
func Numeric(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case float64:
		return val, !math.IsNaN(val)
	case float32:
		return float64(val), true
	case nil, string, bool:
		return 0, false
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() >= reflect.Int && rv.Kind() <= reflect.Float64 {
			return rv.Convert(reflect.TypeOf(float64(0))).Float(), true
		}
		return 0, false
	}
}

// IsMissing reports whether a cell carries no value.
func IsMissing(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case float64:
		return math.IsNaN(val)
	}
	return false
}

// Stringify renders a cell the way filters and exports compare and print it.
func Stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	}
	if f, ok := Numeric(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
