package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpforge/blueprint/pkg/version"
)

func TestMergeDocumentsRootScalarsWinOverImports(t *testing.T) {
	imported := &rawDoc{URI: "imported.yaml", Sections: map[string]any{
		"description": "from import",
	}}
	root := &rawDoc{URI: "root.yaml", Sections: map[string]any{
		"description": "from root",
	}}
	merged, err := mergeDocuments([]*rawDoc{imported, root}, version.Version{Major: 1, Minor: 3}, true)
	require.NoError(t, err)
	assert.Equal(t, "from root", merged.scalars["description"])
}

func TestMergeDocumentsDuplicateKeyCollision(t *testing.T) {
	a := &rawDoc{URI: "a.yaml", Sections: map[string]any{
		"node_types": map[string]any{"x.Type": map[string]any{}},
	}}
	root := &rawDoc{URI: "root.yaml", Sections: map[string]any{
		"node_types": map[string]any{"x.Type": map[string]any{}},
	}}
	_, err := mergeDocuments([]*rawDoc{a, root}, version.Version{Major: 1, Minor: 3}, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestMergeDocumentsGatedSectionRejectedBelowVersion(t *testing.T) {
	a := &rawDoc{URI: "a.yaml", Sections: map[string]any{
		"inputs": map[string]any{"x": map[string]any{}},
	}}
	root := &rawDoc{URI: "root.yaml", Sections: map[string]any{}}
	_, err := mergeDocuments([]*rawDoc{a, root}, version.Version{Major: 1, Minor: 0}, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-mergeable field")
}

func TestMergeDocumentsGatedSectionSkippedWhenValidationDisabled(t *testing.T) {
	a := &rawDoc{URI: "a.yaml", Sections: map[string]any{
		"inputs": map[string]any{"x": map[string]any{}},
	}}
	root := &rawDoc{URI: "root.yaml", Sections: map[string]any{}}
	merged, err := mergeDocuments([]*rawDoc{a, root}, version.Version{Major: 1, Minor: 0}, false)
	require.NoError(t, err)
	assert.Contains(t, merged.sections["inputs"], "x")
}

func TestDocumentShapeFlattensSections(t *testing.T) {
	merged := &mergedDocument{
		scalars:  map[string]any{"description": "d"},
		sections: map[string]any{"node_types": map[string]any{}},
		dsl:      map[string]any{"anchor": 1},
	}
	shape := documentShape(merged)
	assert.Equal(t, "d", shape["description"])
	assert.Contains(t, shape, "node_types")
	assert.Contains(t, shape, "dsl_definitions")
}

func TestDocumentShapeOmitsEmptyDSL(t *testing.T) {
	merged := &mergedDocument{scalars: map[string]any{}, sections: map[string]any{}, dsl: map[string]any{}}
	shape := documentShape(merged)
	assert.NotContains(t, shape, "dsl_definitions")
}
