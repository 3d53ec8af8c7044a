package loader

import (
	"fmt"

	"github.com/bpforge/blueprint/pkg/dslerrors"
	"github.com/bpforge/blueprint/pkg/version"
)

// keyedSection describes one map-keyed top-level section's merge policy
// (spec.md §4.2).
type keyedSection struct {
	name   string
	gated  bool // requires DSL >= version.ImportMergeExtra to appear in a non-root doc at all
}

var keyedSections = []keyedSection{
	{name: "node_types"},
	{name: "relationships"},
	{name: "data_types"},
	{name: "plugins"},
	{name: "workflows"},
	{name: "policy_types", gated: true},
	{name: "policy_triggers", gated: true},
	{name: "inputs", gated: true},
	{name: "node_templates", gated: true},
	{name: "outputs", gated: true},
	{name: "groups", gated: true},
	{name: "policies", gated: true},
	{name: "capabilities", gated: true},
	{name: "deployment_settings", gated: true},
}

// mergedDocument is the result of merging every section across the import
// graph, still in raw map[string]any form per section (the loader decodes
// these into model types in decode.go).
type mergedDocument struct {
	scalars  map[string]any   // description, tosca_definitions_version
	sections map[string]any   // one entry per keyedSection name, each map[string]any
	dsl      map[string]any   // dsl_definitions, merged permissively
}

// documentShape flattens a mergedDocument back into one map for the
// top-level document-shape check (schema.ValidateDocumentShape): scalars,
// keyed sections, and dsl_definitions all live at the same nesting level a
// raw blueprint document would present them at. imports is not included.
func documentShape(merged *mergedDocument) map[string]any {
	out := make(map[string]any, len(merged.scalars)+len(merged.sections)+1)
	for k, v := range merged.scalars {
		out[k] = v
	}
	for k, v := range merged.sections {
		out[k] = v
	}
	if len(merged.dsl) > 0 {
		out["dsl_definitions"] = merged.dsl
	}
	return out
}

// mergeDocuments merges root and its imports (root must be last in docs, so
// its scalar values win over any import's) per the rules of spec.md §4.2.
func mergeDocuments(docs []*rawDoc, blueprintVersion version.Version, validateVersion bool) (*mergedDocument, error) {
	merged := &mergedDocument{
		scalars:  map[string]any{},
		sections: map[string]any{},
		dsl:      map[string]any{},
	}

	root := docs[len(docs)-1]

	// Scalar/singleton sections: imported value used only if root omits it.
	for _, key := range []string{"description", "tosca_definitions_version"} {
		var chosen any
		for _, doc := range docs {
			if v, ok := doc.Sections[key]; ok && v != nil {
				chosen = v
				if doc == root {
					break
				}
			}
		}
		if chosen != nil {
			merged.scalars[key] = chosen
		}
	}

	// dsl_definitions: permissive union, root wins on key collision. Not a
	// semantic section (only used for YAML anchor convenience upstream),
	// so it is not subject to the mergeable/non-mergeable gate.
	for _, doc := range docs {
		m, err := asMap(doc.URI+".dsl_definitions", doc.Sections["dsl_definitions"])
		if err != nil {
			return nil, err
		}
		for k, v := range m {
			merged.dsl[k] = v
		}
	}

	for _, ks := range keyedSections {
		sectionMerged, err := mergeKeyedSection(ks, docs, root, blueprintVersion, validateVersion)
		if err != nil {
			return nil, err
		}
		merged.sections[ks.name] = sectionMerged
	}

	return merged, nil
}

// mergeKeyedSection unions one map-keyed section across every document in
// the import graph. A key defined in more than one document is a fatal
// collision (spec.md §4.2: "union with duplicate-key collision = error").
// Gated sections additionally require blueprintVersion >= 1.3 to appear in
// any document other than root; below that they are non-mergeable and any
// occurrence in an import is itself an error.
func mergeKeyedSection(ks keyedSection, docs []*rawDoc, root *rawDoc, blueprintVersion version.Version, validateVersion bool) (map[string]any, error) {
	out := map[string]any{}
	owner := map[string]string{} // key -> URI that defined it, for collision messages

	for _, doc := range docs {
		raw, present := doc.Sections[ks.name]
		if !present || raw == nil {
			continue
		}
		if doc != root && ks.gated && validateVersion && !version.AtLeast(blueprintVersion, version.ImportMergeExtra) {
			return nil, &dslerrors.LogicError{
				Path:    ks.name,
				Message: fmt.Sprintf("non-mergeable field %q found in import %s (requires tosca_definitions_version >= %s)", ks.name, doc.URI, version.ImportMergeExtra),
			}
		}
		m, err := asMap(doc.URI+"."+ks.name, raw)
		if err != nil {
			return nil, err
		}
		for k, v := range m {
			if prevOwner, exists := owner[k]; exists {
				return nil, &dslerrors.LogicError{
					Path:    fmt.Sprintf("%s.%s", ks.name, k),
					Message: fmt.Sprintf("duplicate %s %q defined in both %s and %s", ks.name, k, prevOwner, doc.URI),
				}
			}
			owner[k] = doc.URI
			out[k] = v
		}
	}
	return out, nil
}
