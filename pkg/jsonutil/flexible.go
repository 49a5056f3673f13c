// Package jsonutil coerces loosely-typed JSON values into canonical Go types.
// LLM-produced tool arguments frequently arrive as the wrong JSON type
// (numbers as strings, booleans as "true", integers as floats); every tool
// boundary normalizes through these helpers instead of type-asserting inline.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// StringValue converts an arbitrary JSON-decoded value to a string.
// Returns empty string for nil.
func StringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

// IntValue converts an arbitrary JSON-decoded value to an int.
// The second return reports whether a usable value was present.
func IntValue(v any) (int, bool) {
	switch val := v.(type) {
	case nil:
		return 0, false
	case float64:
		return int(val), true
	case int:
		return val, true
	case int64:
		return int(val), true
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return int(n), true
		}
		return 0, false
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return n, true
		}
		return 0, false
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// BoolValue converts an arbitrary JSON-decoded value to a bool.
// Accepts "true"/"false"/"1"/"0" strings and numeric 0/1.
func BoolValue(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "1", "yes":
			return true
		}
		return false
	case float64:
		return val != 0
	default:
		return false
	}
}

// FirstPresent returns the value for the first key present in args.
// Tool argument shapes have accumulated aliases over time (table vs
// table_name, sql vs query); the boundary resolves them here once.
func FirstPresent(args map[string]any, keys ...string) (any, bool) {
	for _, key := range keys {
		if v, ok := args[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}
