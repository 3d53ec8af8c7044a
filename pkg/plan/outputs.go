package plan

import (
	"github.com/bpforge/blueprint/pkg/functions"
	"github.com/bpforge/blueprint/pkg/model"
)

// buildOutputs parses every output value under OutputContext (SELF/SOURCE/
// TARGET are illegal, spec.md §3 invariant) and statically evaluates what
// it can; get_attribute and friends remain as AST for a later
// evaluate_outputs call.
func buildOutputs(bp *model.Blueprint, evaluator *functions.Evaluator, runtimeOnly bool) (map[string]any, error) {
	out := make(map[string]any, len(bp.Outputs))
	ctx := functions.OutputContext(bp.DSLVersion, true)
	for name, def := range bp.Outputs {
		path := "outputs." + name + ".value"
		parsed, err := functions.Parse(ctx, path, def.Value)
		if err != nil {
			return nil, err
		}
		if runtimeOnly {
			out[name] = parsed
			continue
		}
		resolved, err := evaluator.Evaluate(functions.EvalContext{}, parsed)
		if err != nil {
			return nil, err
		}
		out[name] = resolved
	}
	return out, nil
}
