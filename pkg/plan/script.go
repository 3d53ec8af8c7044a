package plan

import (
	"os"
	"path/filepath"

	"github.com/bpforge/blueprint/pkg/dslerrors"
	"github.com/bpforge/blueprint/pkg/model"
)

// executeWorkflowTask is the built-in task a workflow's file-resource
// mapping is rewritten onto (spec.md §4.8).
const executeWorkflowTask = "execute_workflow"

// rewriteScripts verifies that every script-plugin operation's resource
// file exists under basePath. basePath == "" skips the check (the caller
// has no filesystem access to the resources directory).
func rewriteScripts(nodes []*PlanNode, basePath string) error {
	if basePath == "" {
		return nil
	}
	seen := map[*model.Operation]bool{}
	for _, n := range nodes {
		for _, op := range n.Operations {
			if seen[op] || op.Plugin != scriptPlugin {
				continue
			}
			seen[op] = true
			scriptPath, _ := op.Inputs[scriptPathInput].(string)
			if scriptPath == "" {
				continue
			}
			full := filepath.Join(basePath, scriptPath)
			if _, err := os.Stat(full); err != nil {
				return &dslerrors.FormatError{
					Path:    n.ID + "." + op.Operation,
					Message: "script resource \"" + scriptPath + "\" does not exist under resources",
					Cause:   err,
				}
			}
		}
	}
	return nil
}

// buildWorkflows expands every workflow mapping and applies the same
// script-vs-plugin rewrite used for node operations (spec.md §4.8).
func buildWorkflows(bp *model.Blueprint, basePath string) (map[string]*model.WorkflowDef, error) {
	out := make(map[string]*model.WorkflowDef, len(bp.Workflows))
	for name, wf := range bp.Workflows {
		cp := *wf
		if _, declared := bp.Plugins[wf.Plugin]; !declared && wf.Plugin != "" {
			raw := wf.Plugin
			if wf.Operation != "" {
				raw = wf.Plugin + "." + wf.Operation
			}
			params := make(map[string]any, len(wf.Parameters)+1)
			for k, v := range wf.Parameters {
				params[k] = v
			}
			params[scriptPathInput] = raw
			cp.Plugin = scriptPlugin
			cp.Operation = executeWorkflowTask
			cp.Parameters = params

			if basePath != "" {
				if _, err := os.Stat(filepath.Join(basePath, raw)); err != nil {
					return nil, &dslerrors.FormatError{Path: "workflows." + name, Message: "script resource \"" + raw + "\" does not exist under resources", Cause: err}
				}
			}
		}
		out[name] = &cp
	}
	return out, nil
}
