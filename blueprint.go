// Package blueprint parses declarative YAML infrastructure blueprints and
// assembles them into a fully-resolved deployment plan: import merging,
// type derivation, and intrinsic function evaluation (spec.md §1). The
// HTTP client, storage/secret backends, CLI, and workflow execution are
// external collaborators, not part of this package.
package blueprint

import (
	"github.com/bpforge/blueprint/pkg/functions"
	"github.com/bpforge/blueprint/pkg/loader"
	"github.com/bpforge/blueprint/pkg/logger"
	"github.com/bpforge/blueprint/pkg/model"
	"github.com/bpforge/blueprint/pkg/plan"
	"github.com/bpforge/blueprint/pkg/storage"
)

var log = logger.New("blueprint")

// Option configures Parse/ParseFromPath; a thin re-export of pkg/loader's
// functional options (spec.md §6).
type Option = loader.Option

var (
	WithResourcesBasePath = loader.WithResourcesBasePath
	WithValidateVersion   = loader.WithValidateVersion
	WithMaxImportDepth    = loader.WithMaxImportDepth
	WithDSLVersion        = loader.WithDSLVersion
)

// Parse parses blueprint text into a merged, derivation-unresolved model
// (spec.md §6, `parse`).
func Parse(text string, opts ...Option) (*model.Blueprint, error) {
	return loader.Parse(text, opts...)
}

// ParseFromPath parses the blueprint at path, resolving imports relative
// to its directory (spec.md §6, `parse_from_path`).
func ParseFromPath(path string, opts ...Option) (*model.Blueprint, error) {
	return loader.ParseFromPath(path, opts...)
}

// PlanOption configures PrepareDeploymentPlan.
type PlanOption func(*plan.Options)

// WithInputs supplies caller input values.
func WithInputs(inputs map[string]any) PlanOption {
	return func(o *plan.Options) { o.Inputs = inputs }
}

// WithSecretStore injects the secret fetcher used during static
// evaluation (spec.md §6 storage collaborator).
func WithSecretStore(s storage.SecretStore) PlanOption {
	return func(o *plan.Options) { o.Secrets = s }
}

// WithRuntimeOnlyEvaluation defers every intrinsic function, leaving only
// arity/shape validation to have run (spec.md §4.7).
func WithRuntimeOnlyEvaluation(runtimeOnly bool) PlanOption {
	return func(o *plan.Options) { o.RuntimeOnlyEvaluation = runtimeOnly }
}

// WithPlanResourcesBasePath enables script resource existence checks
// during plan assembly (spec.md §4.8).
func WithPlanResourcesBasePath(path string) PlanOption {
	return func(o *plan.Options) { o.ResourcesBasePath = path }
}

// WithRecursionLimit overrides the function evaluator's recursion bound
// (default 1000, spec.md §4.7).
func WithRecursionLimit(limit int) PlanOption {
	return func(o *plan.Options) { o.RecursionLimit = limit }
}

// PrepareDeploymentPlan resolves bp's node-type derivation chains and
// statically evaluates its intrinsic functions, producing the final
// deployment plan (spec.md §6, `prepare_deployment_plan`).
func PrepareDeploymentPlan(bp *model.Blueprint, opts ...PlanOption) (*plan.Plan, error) {
	o := plan.Options{}
	for _, opt := range opts {
		opt(&o)
	}
	p, err := plan.Assemble(bp, o)
	if err != nil {
		return nil, err
	}
	log.Debugf("prepared deployment plan: %d nodes", len(p.Nodes))
	return p, nil
}

// EvaluateFunctions evaluates every remaining function in payload against
// storage, returning a copy with runtime functions replaced (spec.md §6,
// `evaluate_functions`). ctx binds SELF/SOURCE/TARGET for this payload's
// position in the document; pass the zero value when none apply. payload
// may hold raw function literals or already-parsed function nodes.
func EvaluateFunctions(payload any, ctx functions.EvalContext, inst storage.InstanceStore, secrets storage.SecretStore, nodeProperties func(string) (map[string]any, bool)) (any, error) {
	evaluator := &functions.Evaluator{
		Secrets:        secrets,
		Storage:        inst,
		NodeProperties: nodeProperties,
	}
	parseCtx := functions.Context{AllowedRefs: map[functions.NodeRef]bool{functions.RefSelf: true, functions.RefSource: true, functions.RefTarget: true}}
	parsed, err := functions.Parse(parseCtx, "payload", payload)
	if err != nil {
		return nil, err
	}
	return evaluator.Evaluate(ctx, parsed)
}

// EvaluateNodeFunctions evaluates every remaining function on a single
// Plan Node's properties and operation inputs against storage (spec.md
// §6, `evaluate_node_functions`).
func EvaluateNodeFunctions(n *plan.PlanNode, inst storage.InstanceStore, secrets storage.SecretStore, nodeProperties func(string) (map[string]any, bool)) (*plan.PlanNode, error) {
	evaluator := &functions.Evaluator{
		Secrets:        secrets,
		Storage:        inst,
		NodeProperties: nodeProperties,
	}
	ctx := functions.EvalContext{Self: n.ID}
	nodeCtx := functions.Context{AllowedRefs: map[functions.NodeRef]bool{functions.RefSelf: true}}

	parsedProps, err := functions.Parse(nodeCtx, "node_templates."+n.ID+".properties", any(n.Properties))
	if err != nil {
		return nil, err
	}
	resolvedProps, err := evaluator.Evaluate(ctx, parsedProps)
	if err != nil {
		return nil, err
	}
	props, _ := resolvedProps.(map[string]any)

	out := *n
	out.Properties = props
	out.Operations = map[string]*model.Operation{}
	seen := map[*model.Operation]*model.Operation{}
	for key, op := range n.Operations {
		resolved, ok := seen[op]
		if !ok {
			parsedInputs, err := functions.Parse(nodeCtx, "node_templates."+n.ID+".operations."+key+".inputs", any(op.Inputs))
			if err != nil {
				return nil, err
			}
			resolvedInputs, err := evaluator.Evaluate(ctx, parsedInputs)
			if err != nil {
				return nil, err
			}
			cp := *op
			if m, ok := resolvedInputs.(map[string]any); ok {
				cp.Inputs = m
			}
			cp.HasIntrinsicFunctions = functions.ContainsFunction(cp.Inputs)
			resolved = &cp
			seen[op] = resolved
		}
		out.Operations[key] = resolved
	}
	return &out, nil
}

// EvaluateOutputs evaluates every output value against storage. A failed
// output does not abort the call: its error message becomes the output's
// string value instead, so that the rest of the map remains observable
// (spec.md §6, §7 — the sole tolerant evaluation path).
func EvaluateOutputs(outputs map[string]any, inst storage.InstanceStore, secrets storage.SecretStore, nodeProperties func(string) (map[string]any, bool)) map[string]any {
	evaluator := &functions.Evaluator{
		Secrets:        secrets,
		Storage:        inst,
		NodeProperties: nodeProperties,
	}
	out := make(map[string]any, len(outputs))
	for name, val := range outputs {
		resolved, err := functions.Parse(functions.Context{}, "outputs."+name+".value", val)
		if err == nil {
			resolved, err = evaluator.Evaluate(functions.EvalContext{}, resolved)
		}
		if err != nil {
			out[name] = errorString(err)
			continue
		}
		out[name] = resolved
	}
	return out
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
