package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpforge/blueprint/pkg/functions"
	"github.com/bpforge/blueprint/pkg/model"
)

func boolPtr(b bool) *bool { return &b }

func noLookup(string) (map[string]*model.PropertyDef, bool) { return nil, false }

func TestApplyPropertiesFillsDefaults(t *testing.T) {
	schemaDef := map[string]*model.PropertyDef{
		"port": {Type: "integer", Default: 8080},
	}
	out, err := ApplyProperties("node_templates.n.properties", schemaDef, map[string]any{}, noLookup)
	require.NoError(t, err)
	assert.Equal(t, 8080, out["port"])
}

func TestApplyPropertiesRequiredWithoutDefaultErrors(t *testing.T) {
	schemaDef := map[string]*model.PropertyDef{
		"name": {Type: "string", Required: boolPtr(true)},
	}
	_, err := ApplyProperties("node_templates.n.properties", schemaDef, map[string]any{}, noLookup)
	assert.Error(t, err)
}

func TestApplyPropertiesCoercesScalars(t *testing.T) {
	schemaDef := map[string]*model.PropertyDef{
		"port":    {Type: "integer"},
		"enabled": {Type: "boolean"},
	}
	out, err := ApplyProperties("p", schemaDef, map[string]any{"port": "8080", "enabled": "yes"}, noLookup)
	require.NoError(t, err)
	assert.Equal(t, 8080, out["port"])
	assert.Equal(t, true, out["enabled"])
}

func TestApplyPropertiesPassesThroughFunctions(t *testing.T) {
	schemaDef := map[string]*model.PropertyDef{
		"port": {Type: "integer"},
	}
	fn := &functions.Function{Kind: functions.KindGetInput, Args: []any{"port"}}
	out, err := ApplyProperties("p", schemaDef, map[string]any{"port": fn}, noLookup)
	require.NoError(t, err)
	assert.Same(t, fn, out["port"])
}

func TestApplyPropertiesUndeclaredCarriedThrough(t *testing.T) {
	out, err := ApplyProperties("p", map[string]*model.PropertyDef{}, map[string]any{"extra": "x"}, noLookup)
	require.NoError(t, err)
	assert.Equal(t, "x", out["extra"])
}

func TestApplyPropertiesNestedDataType(t *testing.T) {
	nested := map[string]*model.PropertyDef{"host": {Type: "string"}}
	lookup := func(name string) (map[string]*model.PropertyDef, bool) {
		if name == "endpoint" {
			return nested, true
		}
		return nil, false
	}
	schemaDef := map[string]*model.PropertyDef{
		"conn": {Type: "endpoint"},
	}
	out, err := ApplyProperties("p", schemaDef, map[string]any{"conn": map[string]any{"host": "db"}}, lookup)
	require.NoError(t, err)
	conn := out["conn"].(map[string]any)
	assert.Equal(t, "db", conn["host"])
}
