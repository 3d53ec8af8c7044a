package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateDocumentShapeAcceptsWellFormedSections(t *testing.T) {
	sections := map[string]any{
		"tosca_definitions_version": "cloudify_dsl_1_3",
		"node_templates":            map[string]any{"a": map[string]any{}},
		"outputs":                   map[string]any{},
	}
	assert.NoError(t, ValidateDocumentShape(sections))
}

func TestValidateDocumentShapeRejectsWrongKind(t *testing.T) {
	sections := map[string]any{
		"node_templates": []any{"not", "a", "mapping"},
	}
	assert.Error(t, ValidateDocumentShape(sections))
}
