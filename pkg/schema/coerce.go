// Package schema validates node/data-type properties against their
// declared schemas and applies defaults (spec.md §4.4). It sits above
// pkg/types: callers pass it an already-derivation-resolved property
// schema and the concrete values declared on a node template.
package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bpforge/blueprint/pkg/dslerrors"
)

// truthy/falsy token set, case-insensitive, per spec.md §4.4.
var truthyTokens = map[string]bool{"true": true, "yes": true, "on": true}
var falsyTokens = map[string]bool{"false": true, "no": true, "off": true}

// coerceScalar validates and coerces value against a built-in scalar kind.
// path is the dotted breadcrumb used in any resulting error.
func coerceScalar(path, kind string, value any) (any, error) {
	switch kind {
	case "", "string":
		return coerceString(path, value)
	case "boolean":
		return coerceBoolean(path, value)
	case "integer":
		return coerceInteger(path, value)
	case "float":
		return coerceFloat(path, value)
	case "list":
		return coerceList(path, value)
	case "dict":
		return coerceDict(path, value)
	case "regex":
		// Stored verbatim; spec.md §4.4: "regex is stored verbatim as a string".
		return coerceString(path, value)
	default:
		return nil, fmt.Errorf("unhandled scalar kind %q", kind)
	}
}

func coerceString(path string, value any) (any, error) {
	switch value.(type) {
	case string, bool, int, int64, uint64, float64, nil:
		return value, nil
	default:
		return nil, &dslerrors.FormatError{Path: path, Message: fmt.Sprintf("expected a scalar value for type string, got %T", value)}
	}
}

func coerceBoolean(path string, value any) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		lower := strings.ToLower(v)
		if truthyTokens[lower] {
			return true, nil
		}
		if falsyTokens[lower] {
			return false, nil
		}
		return nil, &dslerrors.FormatError{Path: path, Message: fmt.Sprintf("%q is not a valid boolean token", v)}
	default:
		return nil, &dslerrors.FormatError{Path: path, Message: fmt.Sprintf("expected a boolean, got %T", value)}
	}
}

func coerceInteger(path string, value any) (any, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return nil, &dslerrors.FormatError{Path: path, Message: fmt.Sprintf("expected an integer, got non-integral float %v", v)}
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, &dslerrors.FormatError{Path: path, Message: fmt.Sprintf("%q is not a valid integer", v)}
		}
		return n, nil
	default:
		return nil, &dslerrors.FormatError{Path: path, Message: fmt.Sprintf("expected an integer, got %T", value)}
	}
}

func coerceFloat(path string, value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, &dslerrors.FormatError{Path: path, Message: fmt.Sprintf("%q is not a valid float", v)}
		}
		return f, nil
	default:
		return nil, &dslerrors.FormatError{Path: path, Message: fmt.Sprintf("expected a float, got %T", value)}
	}
}

func coerceList(path string, value any) (any, error) {
	l, ok := value.([]any)
	if !ok {
		return nil, &dslerrors.FormatError{Path: path, Message: fmt.Sprintf("expected a list, got %T", value)}
	}
	return l, nil
}

func coerceDict(path string, value any) (any, error) {
	d, ok := value.(map[string]any)
	if !ok {
		return nil, &dslerrors.FormatError{Path: path, Message: fmt.Sprintf("expected a mapping, got %T", value)}
	}
	return d, nil
}

// builtinKinds is the set of built-in scalar/structural type names; any
// other Type string names a user data type.
var builtinKinds = map[string]bool{
	"string": true, "boolean": true, "integer": true, "float": true,
	"list": true, "dict": true, "regex": true, "": true,
}

func isBuiltin(kind string) bool {
	return builtinKinds[kind]
}
