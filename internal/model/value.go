package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Coercion converts the loosely typed values that arrive from JSON form
// data, YAML rule bundles and sqlite round-trips into the parameter's
// declared type. Failures are reported as errors so callers can turn them
// into indeterminate outcomes or validation rejections; coercion itself
// never panics.

// CoerceNumber converts a value to float64.
func CoerceNumber(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", n.String())
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%v (%T) is not a number", v, v)
	}
}

// CoerceString converts a value to a string. Only genuinely string-like
// values qualify; numbers and booleans are not silently stringified.
func CoerceString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case json.Number:
		return s.String(), nil
	default:
		return "", fmt.Errorf("%v (%T) is not a string", v, v)
	}
}

// CoerceBool converts a value to a bool, accepting the textual forms that
// show up in extracted documents.
func CoerceBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes":
			return true, nil
		case "false", "no":
			return false, nil
		}
		return false, fmt.Errorf("%q is not a boolean", b)
	default:
		return false, fmt.Errorf("%v (%T) is not a boolean", v, v)
	}
}

// CoerceStringSet converts a value to a normalized, sorted string set.
// Accepts slices of strings, heterogeneous JSON arrays of strings, and a
// single string treated as a one-element set.
func CoerceStringSet(v any) ([]string, error) {
	var members []string
	switch set := v.(type) {
	case []string:
		members = append(members, set...)
	case []any:
		for _, item := range set {
			s, err := CoerceString(item)
			if err != nil {
				return nil, fmt.Errorf("set member %v (%T) is not a string", item, item)
			}
			members = append(members, s)
		}
	case string:
		members = []string{set}
	default:
		return nil, fmt.Errorf("%v (%T) is not a set of strings", v, v)
	}

	seen := make(map[string]bool, len(members))
	out := make([]string, 0, len(members))
	for _, m := range members {
		m = strings.TrimSpace(m)
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

// CoerceValue converts a value to the declared type, returning the
// normalized representation (float64, string, bool, or []string).
func CoerceValue(t DataType, v any) (any, error) {
	switch t {
	case TypeNumber:
		return CoerceNumber(v)
	case TypeString, TypeEnum:
		return CoerceString(v)
	case TypeBoolean:
		return CoerceBool(v)
	case TypeStringSet:
		return CoerceStringSet(v)
	default:
		return nil, fmt.Errorf("unsupported data type %q", t)
	}
}
