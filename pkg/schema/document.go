package schema

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/bpforge/blueprint/pkg/dslerrors"
)

// documentSchemaJSON constrains the top-level shape of a merged blueprint
// document: every section must be a mapping (or, for imports, a list),
// catching a misauthored document — e.g. `node_types: []` — before type
// derivation ever runs.
const documentSchemaJSON = `{
  "type": "object",
  "properties": {
    "tosca_definitions_version": {"type": "string"},
    "description": {"type": "string"},
    "imports": {"type": "array"},
    "inputs": {"type": "object"},
    "dsl_definitions": {"type": "object"},
    "plugins": {"type": "object"},
    "data_types": {"type": "object"},
    "node_types": {"type": "object"},
    "relationships": {"type": "object"},
    "node_templates": {"type": "object"},
    "workflows": {"type": "object"},
    "policy_types": {"type": "object"},
    "policy_triggers": {"type": "object"},
    "groups": {"type": "object"},
    "policies": {"type": "object"},
    "outputs": {"type": "object"},
    "capabilities": {"type": "object"},
    "deployment_settings": {"type": "object"}
  }
}`

var (
	documentSchemaOnce  sync.Once
	compiledDocSchema   *jsonschema.Schema
	documentSchemaSetup error
)

func compiledDocumentSchema() (*jsonschema.Schema, error) {
	documentSchemaOnce.Do(func() {
		const url = "https://bpforge.dev/schema/blueprint-document.json"
		compiler := jsonschema.NewCompiler()
		var doc any
		if err := json.Unmarshal([]byte(documentSchemaJSON), &doc); err != nil {
			documentSchemaSetup = fmt.Errorf("parse document schema: %w", err)
			return
		}
		if err := compiler.AddResource(url, doc); err != nil {
			documentSchemaSetup = fmt.Errorf("add document schema resource: %w", err)
			return
		}
		compiledDocSchema, documentSchemaSetup = compiler.Compile(url)
	})
	return compiledDocSchema, documentSchemaSetup
}

// ValidateDocumentShape checks that every top-level section of a merged
// blueprint document has the expected structural kind, before any
// section-specific decoding is attempted.
func ValidateDocumentShape(sections map[string]any) error {
	schema, err := compiledDocumentSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(sections); err != nil {
		return &dslerrors.FormatError{Message: "blueprint document shape is invalid", Cause: err}
	}
	return nil
}
