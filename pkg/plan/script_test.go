package plan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpforge/blueprint/pkg/model"
)

func TestRewriteScriptsNoBasePathSkipsCheck(t *testing.T) {
	op := &model.Operation{Plugin: scriptPlugin, Operation: scriptTask, Inputs: map[string]any{scriptPathInput: "does/not/exist.sh"}}
	nodes := []*PlanNode{{ID: "a", Operations: map[string]*model.Operation{"create": op}}}
	assert.NoError(t, rewriteScripts(nodes, ""))
}

func TestRewriteScriptsMissingResourceErrors(t *testing.T) {
	dir := t.TempDir()
	op := &model.Operation{Plugin: scriptPlugin, Operation: scriptTask, Inputs: map[string]any{scriptPathInput: "missing.sh"}}
	nodes := []*PlanNode{{ID: "a", Operations: map[string]*model.Operation{"create": op}}}
	err := rewriteScripts(nodes, dir)
	assert.Error(t, err)
}

func TestRewriteScriptsExistingResourcePasses(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "create.sh"), []byte("#!/bin/sh\n"), 0o644))
	op := &model.Operation{Plugin: scriptPlugin, Operation: scriptTask, Inputs: map[string]any{scriptPathInput: "create.sh"}}
	nodes := []*PlanNode{{ID: "a", Operations: map[string]*model.Operation{"create": op}}}
	assert.NoError(t, rewriteScripts(nodes, dir))
}

func TestBuildWorkflowsRewritesUndeclaredPlugin(t *testing.T) {
	bp := model.NewBlueprint()
	bp.Workflows["install"] = &model.WorkflowDef{Plugin: "scripts/install.sh"}
	out, err := buildWorkflows(bp, "")
	require.NoError(t, err)
	wf := out["install"]
	assert.Equal(t, scriptPlugin, wf.Plugin)
	assert.Equal(t, executeWorkflowTask, wf.Operation)
	assert.Equal(t, "scripts/install.sh", wf.Parameters[scriptPathInput])
}

func TestBuildWorkflowsKeepsDeclaredPlugin(t *testing.T) {
	bp := model.NewBlueprint()
	bp.Plugins["wfplugin"] = model.PluginDef{}
	bp.Workflows["install"] = &model.WorkflowDef{Plugin: "wfplugin", Operation: "run"}
	out, err := buildWorkflows(bp, "")
	require.NoError(t, err)
	assert.Equal(t, "wfplugin", out["install"].Plugin)
	assert.Equal(t, "run", out["install"].Operation)
}
