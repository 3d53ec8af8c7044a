package plan

import (
	"fmt"
	"strings"

	"github.com/bpforge/blueprint/pkg/functions"
	"github.com/bpforge/blueprint/pkg/model"
)

// splitImplementation splits an operation's short-form "plugin.task" (or a
// long-form Implementation field of the same shape) on the first dot.
func splitImplementation(src *model.OperationSource) (plugin, operation string) {
	raw := src.Short
	if raw == "" {
		raw = src.Implementation
	}
	if raw == "" {
		return "", ""
	}
	idx := strings.Index(raw, ".")
	if idx < 0 {
		return raw, ""
	}
	return raw[:idx], raw[idx+1:]
}

// mergeOperationSource overrides dst field-by-field with src's explicitly
// set fields, mirroring pkg/types' node-type-level merge but applied at
// the node-template-override level (spec.md §4.3: "Node-template-level
// interface/operation overrides take precedence over node-type-level
// ones, following the same field-level merge").
func mergeOperationSource(dst, src *model.OperationSource) *model.OperationSource {
	merged := *dst
	if src.Short != "" {
		merged.Short = src.Short
		merged.Implementation = ""
	}
	if src.Implementation != "" {
		merged.Implementation = src.Implementation
		merged.Short = ""
	}
	if src.Executor != "" {
		merged.Executor = src.Executor
	}
	if src.MaxRetries != nil {
		merged.MaxRetries = src.MaxRetries
	}
	if src.RetryInterval != nil {
		merged.RetryInterval = src.RetryInterval
	}
	if src.Timeout != nil {
		merged.Timeout = src.Timeout
	}
	if src.TimeoutRecoverable != nil {
		merged.TimeoutRecoverable = src.TimeoutRecoverable
	}
	if src.Inputs != nil {
		in := make(map[string]any, len(merged.Inputs)+len(src.Inputs))
		for k, v := range merged.Inputs {
			in[k] = v
		}
		for k, v := range src.Inputs {
			in[k] = v
		}
		merged.Inputs = in
	}
	return &merged
}

// scriptPlugin and scriptTask are the built-in plugin/task a file-resource
// implementation is rewritten onto (spec.md §4.8 "Script mapping").
const (
	scriptPlugin    = "script"
	scriptTask      = "run"
	scriptPathInput = "script_path"
)

func resolveOperation(src *model.OperationSource, plugins map[string]model.PluginDef) *model.Operation {
	plugin, op := splitImplementation(src)
	raw := src.Short
	if raw == "" {
		raw = src.Implementation
	}
	if raw != "" {
		if _, declared := plugins[plugin]; !declared {
			// Not a "plugin.task" reference: treat the whole string as a
			// script resource path and rewrite onto the built-in script
			// plugin's run task (spec.md §4.8).
			inputs := make(map[string]any, len(src.Inputs)+1)
			for k, v := range src.Inputs {
				inputs[k] = v
			}
			inputs[scriptPathInput] = raw
			plugin, op = scriptPlugin, scriptTask
			src = &model.OperationSource{
				Short: src.Short, Implementation: src.Implementation, Inputs: inputs,
				Executor: src.Executor, MaxRetries: src.MaxRetries, RetryInterval: src.RetryInterval,
				Timeout: src.Timeout, TimeoutRecoverable: src.TimeoutRecoverable,
			}
		}
	}
	executor := src.Executor
	if executor == "" {
		if def, ok := plugins[plugin]; ok {
			executor = def.Executor()
		}
	}
	op2 := &model.Operation{
		Plugin:    plugin,
		Operation: op,
		Inputs:    src.Inputs,
		Executor:  executor,
	}
	if src.MaxRetries != nil {
		op2.MaxRetries = *src.MaxRetries
	}
	if src.RetryInterval != nil {
		op2.RetryInterval = *src.RetryInterval
	}
	if src.Timeout != nil {
		op2.Timeout = *src.Timeout
	}
	if src.TimeoutRecoverable != nil {
		op2.TimeoutRecoverable = *src.TimeoutRecoverable
	}
	return op2
}

// buildOperationsMap walks ifaces and emits both the "iface.op" and "op"
// keys pointing at the same *model.Operation (spec.md §3, §4.3 invariant
// 1). Operation inputs are evaluated (unless deferred by runtimeOnly) and
// has_intrinsic_functions is set accordingly.
func buildOperationsMap(bp *model.Blueprint, ifaces model.InterfaceMap, evaluator *functions.Evaluator, ctx functions.EvalContext, path string, runtimeOnly bool) (map[string]*model.Operation, error) {
	out := map[string]*model.Operation{}
	parseCtx := functions.NodeContext(bp.DSLVersion, true)
	if ctx.Source != "" || ctx.Target != "" {
		parseCtx = functions.RelationshipContext(bp.DSLVersion, true)
	}
	for ifaceName, ops := range ifaces {
		for opName, src := range ops {
			resolved := resolveOperation(src, bp.Plugins)

			inputPath := fmt.Sprintf("%s.%s.%s.inputs", path, ifaceName, opName)
			parsedInputs, err := functions.Parse(parseCtx, inputPath, any(resolved.Inputs))
			if err != nil {
				return nil, err
			}

			finalInputs := parsedInputs
			if !runtimeOnly {
				finalInputs, err = evaluator.Evaluate(ctx, parsedInputs)
				if err != nil {
					return nil, err
				}
			}
			if m, ok := finalInputs.(map[string]any); ok {
				resolved.Inputs = m
			}
			resolved.HasIntrinsicFunctions = functions.ContainsFunction(resolved.Inputs)

			qualified := ifaceName + "." + opName
			out[qualified] = resolved
			out[opName] = resolved
		}
	}
	return out, nil
}
