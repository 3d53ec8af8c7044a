package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildImportGraphToleratesCycles(t *testing.T) {
	dir := t.TempDir()
	aPath := filepath.Join(dir, "a.yaml")
	bPath := filepath.Join(dir, "b.yaml")
	require.NoError(t, os.WriteFile(aPath, []byte("imports:\n  - b.yaml\nnode_types:\n  a.Type: {}\n"), 0o644))
	require.NoError(t, os.WriteFile(bPath, []byte("imports:\n  - a.yaml\nnode_types:\n  b.Type: {}\n"), 0o644))

	root := &rawDoc{URI: aPath, Dir: dir, Sections: map[string]any{
		"imports": []any{"b.yaml"},
	}}
	docs, err := buildImportGraph(root, "", 0)
	require.NoError(t, err)
	// b.yaml is read once; its self-import back to a.yaml is skipped because
	// a.yaml (the root) is pre-marked visited.
	assert.Len(t, docs, 1)
	assert.Equal(t, bPath, docs[0].URI)
}

func TestBuildImportGraphDiamondYieldsSingleRead(t *testing.T) {
	dir := t.TempDir()
	shared := filepath.Join(dir, "shared.yaml")
	left := filepath.Join(dir, "left.yaml")
	right := filepath.Join(dir, "right.yaml")
	require.NoError(t, os.WriteFile(shared, []byte("node_types:\n  shared.Type: {}\n"), 0o644))
	require.NoError(t, os.WriteFile(left, []byte("imports:\n  - shared.yaml\n"), 0o644))
	require.NoError(t, os.WriteFile(right, []byte("imports:\n  - shared.yaml\n"), 0o644))

	root := &rawDoc{Dir: dir, Sections: map[string]any{
		"imports": []any{"left.yaml", "right.yaml"},
	}}
	docs, err := buildImportGraph(root, "", 0)
	require.NoError(t, err)

	var sharedCount int
	for _, d := range docs {
		if d.URI == shared {
			sharedCount++
		}
	}
	assert.Equal(t, 1, sharedCount)
}

func TestBuildImportGraphExceedsMaxDepth(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("imports:\n  - b.yaml\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte("imports:\n  - c.yaml\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.yaml"), []byte("description: leaf\n"), 0o644))

	root := &rawDoc{Dir: dir, Sections: map[string]any{"imports": []any{"a.yaml"}}}
	_, err := buildImportGraph(root, "", 1)
	assert.Error(t, err)
}
