package schema

import (
	"fmt"

	"github.com/bpforge/blueprint/pkg/dslerrors"
	"github.com/bpforge/blueprint/pkg/functions"
	"github.com/bpforge/blueprint/pkg/logger"
	"github.com/bpforge/blueprint/pkg/model"
)

var log = logger.New("schema:validator")

// DataTypeLookup resolves a user-defined data type's merged property
// schema, for recursive validation of nested dict-typed properties.
type DataTypeLookup func(name string) (map[string]*model.PropertyDef, bool)

// ApplyProperties validates declared against schema, filling in defaults
// for properties declared missing and enforcing required (spec.md §4.4).
// Values that are themselves (or contain) an unresolved intrinsic
// function are passed through unvalidated and uncoerced — schema
// validation only applies to values known at this point, per spec.md §9
// design note on functions-vs-schema interaction.
func ApplyProperties(path string, schema map[string]*model.PropertyDef, declared map[string]any, lookup DataTypeLookup) (map[string]any, error) {
	out := make(map[string]any, len(schema))
	for name, def := range schema {
		propPath := fmt.Sprintf("%s.%s", path, name)
		val, present := declared[name]
		if !present {
			if def.IsRequired() && def.Default == nil {
				return nil, &dslerrors.FormatError{Path: propPath, Message: "required property is not set and has no default"}
			}
			if def.Default != nil {
				out[name] = def.Default
			}
			continue
		}

		if _, isLiteral := functions.IsFunctionLiteral(val); isLiteral || functions.ContainsFunction(val) {
			out[name] = val
			continue
		}

		coerced, err := coerceProperty(propPath, def.Type, val, lookup)
		if err != nil {
			return nil, err
		}
		out[name] = coerced
	}

	for name, val := range declared {
		if _, known := schema[name]; known {
			continue
		}
		log.Debugf("%s.%s: property not declared in schema, carried through verbatim", path, name)
		out[name] = val
	}
	return out, nil
}

func coerceProperty(path, typeName string, value any, lookup DataTypeLookup) (any, error) {
	if isBuiltin(typeName) {
		return coerceScalar(path, typeName, value)
	}
	nested, ok := lookup(typeName)
	if !ok {
		return nil, &dslerrors.FormatError{Path: path, Message: fmt.Sprintf("unknown property type %q", typeName)}
	}
	m, ok := value.(map[string]any)
	if !ok {
		return nil, &dslerrors.FormatError{Path: path, Message: fmt.Sprintf("expected a mapping for data type %q, got %T", typeName, value)}
	}
	return ApplyProperties(path, nested, m, lookup)
}
