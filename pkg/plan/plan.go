// Package plan assembles the final deployment plan from a resolved
// blueprint: host binding, flat operation maps, plugin installation
// classification, script/workflow rewriting, and scaling group derivation
// (spec.md §4.8).
package plan

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/bpforge/blueprint/pkg/dslerrors"
	"github.com/bpforge/blueprint/pkg/functions"
	"github.com/bpforge/blueprint/pkg/logger"
	"github.com/bpforge/blueprint/pkg/model"
	"github.com/bpforge/blueprint/pkg/schema"
	"github.com/bpforge/blueprint/pkg/storage"
	"github.com/bpforge/blueprint/pkg/types"
)

var log = logger.New("plan:assemble")

// PluginEntry is one dedup'd plugin declaration carried on a node or at
// plan root, alongside the name it was declared under.
type PluginEntry struct {
	Name       string
	Attributes model.PluginDef
}

// PlanRelationship is a node's relationship, enriched with its resolved
// source/target operation maps (spec.md §4.8).
type PlanRelationship struct {
	Type             string
	TargetID         string
	SourceOperations map[string]*model.Operation
	TargetOperations map[string]*model.Operation
}

// PlanNode is a NodeTemplate enriched per spec.md §3 "Plan Node (output)".
type PlanNode struct {
	ID                         string
	Type                       string
	TypeHierarchy              []string
	Properties                 map[string]any
	Operations                 map[string]*model.Operation
	Relationships              []*PlanRelationship
	Plugins                    []PluginEntry
	PluginsToInstall           []PluginEntry
	DeploymentPluginsToInstall []PluginEntry
	HostID                     string
	InstancesDeploy            int
	Capabilities               map[string]any
}

// ScalingGroup is derived from a group's cloudify.policies.scaling policy.
type ScalingGroup struct {
	Members           []string
	DefaultInstances  int
	MinInstances      int
	MaxInstances      int
	CurrentInstances  int
	PlannedInstances  int
}

// Plan is the fully-assembled deployment plan.
type Plan struct {
	Nodes                      []*PlanNode
	Workflows                  map[string]*model.WorkflowDef
	Outputs                    map[string]any
	Inputs                     map[string]any
	Description                string
	PolicyTypes                map[string]*model.PolicyType
	PolicyTriggers             map[string]any
	Groups                     map[string]*model.GroupDef
	Policies                   map[string]*model.PolicyDef
	ScalingGroups              map[string]*ScalingGroup
	DeploymentSettings         map[string]any
	WorkflowPluginsToInstall   []PluginEntry
	DeploymentPluginsToInstall []PluginEntry
	HostAgentPluginsToInstall  []PluginEntry
}

const (
	executorHostAgent        = "host_agent"
	executorCentralDeployment = "central_deployment_agent"
)

// Options configures Assemble.
type Options struct {
	// Inputs holds caller-supplied input values, by name; missing required
	// inputs without a default are a FormatError.
	Inputs map[string]any

	// Secrets resolves get_secret ids during static evaluation. nil means
	// every get_secret stays deferred and is reported only if it survives
	// to the output (spec.md §4.7).
	Secrets storage.SecretStore

	// RuntimeOnlyEvaluation defers every function (spec.md §6).
	RuntimeOnlyEvaluation bool

	// ResourcesBasePath resolves script resource existence checks
	// (spec.md §4.8 script mapping). Empty disables the check (resource
	// existence is assumed, as when the caller has no filesystem access).
	ResourcesBasePath string

	RecursionLimit int
}

// Assemble builds a Plan from bp (spec.md §4.8). Static function
// evaluation (get_input/get_property/get_secret/reducible concat+merge)
// runs inline unless opts.RuntimeOnlyEvaluation is set.
func Assemble(bp *model.Blueprint, opts Options) (*Plan, error) {
	assemblyID := uuid.NewString()
	log.Debugf("assembly %s: starting, %d node template(s)", assemblyID, bp.NodeTemplates.Len())
	resolver := types.NewResolver(bp)

	inputs, err := resolveInputs(bp, opts.Inputs)
	if err != nil {
		return nil, err
	}

	// Apply each node's resolved type schema (defaults, required checks)
	// before parsing function literals, so that get_property against a
	// property the template left to its type-level default still resolves
	// (spec.md §8 seed scenario).
	parsedProps := map[string]map[string]any{}
	resolvedTypes := map[string]*types.ResolvedNodeType{}
	bp.NodeTemplates.Range(func(id string, tpl *model.NodeTemplate) bool {
		if err != nil {
			return false
		}
		var rt *types.ResolvedNodeType
		rt, err = resolver.ResolveNodeType(tpl.Type)
		if err != nil {
			return false
		}
		resolvedTypes[id] = rt

		var applied map[string]any
		applied, err = schema.ApplyProperties("node_templates."+id+".properties", rt.Properties, tpl.Properties, dataTypeLookup(bp, resolver))
		if err != nil {
			return false
		}

		var parsed any
		parsed, err = functions.Parse(functions.NodeContext(bp.DSLVersion, true), "node_templates."+id+".properties", any(applied))
		if err != nil {
			return false
		}
		parsedProps[id] = parsed.(map[string]any)
		return true
	})
	if err != nil {
		return nil, err
	}

	evaluator := &functions.Evaluator{
		Inputs: inputs,
		NodeProperties: func(nodeID string) (map[string]any, bool) {
			p, ok := parsedProps[nodeID]
			return p, ok
		},
		Secrets:        opts.Secrets,
		RecursionLimit: opts.RecursionLimit,
	}

	if !opts.RuntimeOnlyEvaluation && opts.Secrets != nil {
		roots := make([]any, 0, len(parsedProps))
		for _, p := range parsedProps {
			roots = append(roots, p)
		}
		if err := evaluator.PreloadSecrets(roots...); err != nil {
			return nil, err
		}
	}

	plan := &Plan{
		Workflows:      map[string]*model.WorkflowDef{},
		Inputs:         inputs,
		Description:    bp.Description,
		PolicyTypes:    bp.PolicyTypes,
		PolicyTriggers: bp.PolicyTriggers,
		Groups:         bp.Groups,
		Policies:       bp.Policies,
		DeploymentSettings: bp.DeploymentSettings,
	}

	nodes := make([]*PlanNode, 0, bp.NodeTemplates.Len())

	var assembleErr error
	bp.NodeTemplates.Range(func(id string, tpl *model.NodeTemplate) bool {
		if assembleErr != nil {
			return false
		}
		pn, err := assembleNode(bp, resolver, evaluator, id, tpl, resolvedTypes[id], parsedProps[id], opts.RuntimeOnlyEvaluation)
		if err != nil {
			assembleErr = err
			return false
		}
		nodes = append(nodes, pn)
		return true
	})
	if assembleErr != nil {
		return nil, assembleErr
	}
	plan.Nodes = nodes

	if err := bindHosts(bp, resolver, nodes); err != nil {
		return nil, err
	}

	classifyPlugins(nodes)
	plan.WorkflowPluginsToInstall = collectWorkflowPlugins(bp)
	plan.DeploymentPluginsToInstall = unionPluginEntries(nodes, func(n *PlanNode) []PluginEntry { return n.DeploymentPluginsToInstall })
	plan.HostAgentPluginsToInstall = unionPluginEntries(nodes, func(n *PlanNode) []PluginEntry { return n.PluginsToInstall })

	if err := rewriteScripts(nodes, opts.ResourcesBasePath); err != nil {
		return nil, err
	}

	workflows, err := buildWorkflows(bp, opts.ResourcesBasePath)
	if err != nil {
		return nil, err
	}
	plan.Workflows = workflows

	plan.ScalingGroups = deriveScalingGroups(bp)

	outputs, err := buildOutputs(bp, evaluator, opts.RuntimeOnlyEvaluation)
	if err != nil {
		return nil, err
	}
	plan.Outputs = outputs

	log.Debugf("assembled plan: %d nodes, %d workflows", len(plan.Nodes), len(plan.Workflows))
	return plan, nil
}

func resolveInputs(bp *model.Blueprint, supplied map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(bp.Inputs))
	for name, def := range bp.Inputs {
		if v, ok := supplied[name]; ok {
			out[name] = v
			continue
		}
		if def.Default != nil {
			out[name] = def.Default
			continue
		}
		if def.Required == nil || *def.Required {
			return nil, &dslerrors.FormatError{Path: "inputs." + name, Message: "required input is not set and has no default"}
		}
	}
	for name, v := range supplied {
		if _, declared := bp.Inputs[name]; !declared {
			out[name] = v
		}
	}
	return out, nil
}

func dataTypeLookup(bp *model.Blueprint, resolver *types.Resolver) schema.DataTypeLookup {
	return func(name string) (map[string]*model.PropertyDef, bool) {
		if _, ok := bp.DataTypes[name]; !ok {
			return nil, false
		}
		resolved, err := resolver.ResolveDataType(name)
		if err != nil {
			return nil, false
		}
		return resolved.Properties, true
	}
}

func assembleNode(bp *model.Blueprint, resolver *types.Resolver, evaluator *functions.Evaluator, id string, tpl *model.NodeTemplate, resolvedType *types.ResolvedNodeType, parsedProperties map[string]any, runtimeOnly bool) (*PlanNode, error) {
	var resolvedProps any = parsedProperties
	var err error
	if !runtimeOnly {
		resolvedProps, err = evaluator.Evaluate(functions.EvalContext{Self: id}, parsedProperties)
		if err != nil {
			return nil, err
		}
	}

	interfaces := mergeTemplateInterfaces(resolvedType.Interfaces, tpl.Interfaces)
	ops, err := buildOperationsMap(bp, interfaces, evaluator, functions.EvalContext{Self: id}, "node_templates."+id, runtimeOnly)
	if err != nil {
		return nil, err
	}

	plugins := collectPluginsForInterfaces(bp, interfaces)

	var relationships []*PlanRelationship
	for i, rel := range tpl.Relationships {
		relResolved, err := resolver.ResolveRelationshipType(rel.Type)
		if err != nil {
			return nil, err
		}
		sourceIfaces := mergeTemplateInterfaces(relResolved.SourceInterfaces, rel.SourceInterfaces)
		targetIfaces := mergeTemplateInterfaces(relResolved.TargetInterfaces, rel.TargetInterfaces)
		ctx := functions.EvalContext{Self: id, Source: id, Target: rel.Target}
		relPath := fmt.Sprintf("%s.relationships[%d]", "node_templates."+id, i)
		sourceOps, err := buildOperationsMap(bp, sourceIfaces, evaluator, ctx, relPath+".source_interfaces", runtimeOnly)
		if err != nil {
			return nil, err
		}
		targetOps, err := buildOperationsMap(bp, targetIfaces, evaluator, ctx, relPath+".target_interfaces", runtimeOnly)
		if err != nil {
			return nil, err
		}
		relationships = append(relationships, &PlanRelationship{
			Type:             rel.Type,
			TargetID:         rel.Target,
			SourceOperations: sourceOps,
			TargetOperations: targetOps,
		})
		for name, p := range collectPluginsForInterfaces(bp, sourceIfaces) {
			plugins[name] = p
		}
		for name, p := range collectPluginsForInterfaces(bp, targetIfaces) {
			plugins[name] = p
		}
	}

	instancesDeploy := tpl.InstancesDeploy
	if instancesDeploy == 0 {
		instancesDeploy = 1
	}

	pluginEntries := make([]PluginEntry, 0, len(plugins))
	for name, def := range plugins {
		pluginEntries = append(pluginEntries, PluginEntry{Name: name, Attributes: def})
	}

	propsMap, _ := resolvedProps.(map[string]any)
	return &PlanNode{
		ID:              id,
		Type:            tpl.Type,
		TypeHierarchy:   resolvedType.TypeHierarchy,
		Properties:      propsMap,
		Operations:      ops,
		Relationships:   relationships,
		Plugins:         pluginEntries,
		InstancesDeploy: instancesDeploy,
		Capabilities:    tpl.Capabilities,
	}, nil
}

func mergeTemplateInterfaces(base, override model.InterfaceMap) model.InterfaceMap {
	out := model.InterfaceMap{}
	for iface, ops := range base {
		merged := make(map[string]*model.OperationSource, len(ops))
		for op, src := range ops {
			cp := *src
			merged[op] = &cp
		}
		out[iface] = merged
	}
	for iface, ops := range override {
		existing, ok := out[iface]
		if !ok {
			existing = map[string]*model.OperationSource{}
			out[iface] = existing
		}
		for op, src := range ops {
			if anc, ok := existing[op]; ok {
				existing[op] = mergeOperationSource(anc, src)
			} else {
				cp := *src
				existing[op] = &cp
			}
		}
	}
	return out
}

func collectPluginsForInterfaces(bp *model.Blueprint, ifaces model.InterfaceMap) map[string]model.PluginDef {
	out := map[string]model.PluginDef{}
	for _, ops := range ifaces {
		for _, src := range ops {
			name, _ := splitImplementation(src)
			if name == "" {
				continue
			}
			if def, ok := bp.Plugins[name]; ok {
				out[name] = def
			}
		}
	}
	return out
}
