package loader

import "strconv"

// toInt coerces a decoded YAML scalar to int, used for structural fields
// like max_retries and instances.deploy. Unlike the property-schema
// package's coercion (pkg/schema), this never fails: a value of the wrong
// shape quietly becomes 0, and downstream schema validation is what
// surfaces a real error to the caller for user-facing property values.
func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	default:
		return 0
	}
}

// toFloat coerces a decoded YAML scalar to float64.
func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	default:
		return 0
	}
}

// toBool coerces a decoded YAML scalar to bool, accepting native booleans
// plus the canonical truthy/falsy token set (spec.md §4.4).
func toBool(v any) bool {
	switch n := v.(type) {
	case bool:
		return n
	case string:
		switch n {
		case "true", "yes", "on", "True", "Yes", "On", "TRUE", "YES", "ON":
			return true
		default:
			return false
		}
	default:
		return false
	}
}
