// Package model defines the blueprint DOM: the typed representation of a
// parsed, import-merged blueprint document, before derivation resolution
// and function evaluation. Types here are immutable once merging
// completes (spec.md §3, NodeType lifecycle).
package model

import "github.com/bpforge/blueprint/pkg/version"

// PropertyDef describes one property schema entry: type, default,
// description, and whether the property is required (spec.md §4.4).
// Required is a pointer so derivation merge can distinguish "not
// specified here, inherit from ancestor" from an explicit false.
type PropertyDef struct {
	Type        string
	Default     any
	Description string
	Required    *bool
}

// IsRequired reports the effective requiredness, defaulting to false when
// unspecified.
func (p *PropertyDef) IsRequired() bool {
	return p.Required != nil && *p.Required
}

// OperationSource is the raw, pre-merge representation of an operation:
// either the short form "plugin.task" (Short non-empty) or the long form
// with individually-optional fields. Pointer fields are nil when the
// source omitted them, which is how field-level inheritance from an
// ancestor type is distinguished from an explicit override (spec.md §4.3).
type OperationSource struct {
	Short              string
	Implementation     string
	Inputs             map[string]any
	Executor           string
	MaxRetries         *int
	RetryInterval      *float64
	Timeout            *float64
	TimeoutRecoverable *bool
}

// Operation is the fully-merged operation carried on a Plan Node
// (spec.md §3, "Operation definition").
type Operation struct {
	Plugin                string
	Operation             string
	Inputs                map[string]any
	Executor              string
	HasIntrinsicFunctions bool
	MaxRetries            int
	RetryInterval         float64
	Timeout               float64
	TimeoutRecoverable    bool
}

// InterfaceMap is interface-name -> operation-name -> operation source, the
// shape used by node types, relationship types, and their per-template
// overrides.
type InterfaceMap map[string]map[string]*OperationSource

// NodeType is a reusable schema for node templates (spec.md §3).
type NodeType struct {
	Name        string
	DerivedFrom string
	Properties  map[string]*PropertyDef
	Interfaces  InterfaceMap
}

// RelationshipType describes a typed, directed edge kind. Source/target
// interfaces are declared separately because a relationship type binds
// distinct lifecycle operations to the source and target node.
type RelationshipType struct {
	Name             string
	DerivedFrom      string
	Properties       map[string]*PropertyDef
	SourceInterfaces InterfaceMap
	TargetInterfaces InterfaceMap
}

// DataType is a user-defined nested property schema, usable as a property
// `type:` anywhere a built-in scalar kind is (spec.md §4.4).
type DataType struct {
	Name        string
	DerivedFrom string
	Properties  map[string]*PropertyDef
}

// PolicyType describes a reusable policy schema (e.g. the built-in
// cloudify.policies.scaling type consumed by the plan assembler).
type PolicyType struct {
	Name        string
	DerivedFrom string
	Properties  map[string]*PropertyDef
	Source      string
}

// PluginDef carries a plugin declaration's attributes verbatim; the only
// field the assembler inspects structurally is Executor. Install is
// exposed as an accessor but plan assembly does not consult it.
type PluginDef map[string]any

// Executor returns the plugin's declared executor, or "" if unset.
func (p PluginDef) Executor() string {
	if v, ok := p["executor"].(string); ok {
		return v
	}
	return ""
}

// Install reports whether the plugin should be installed (defaults true).
func (p PluginDef) Install() bool {
	if v, ok := p["install"].(bool); ok {
		return v
	}
	return true
}

// RelationshipInstance is one entry of a node template's ordered
// relationships sequence (spec.md §3, NodeTemplate).
type RelationshipInstance struct {
	Type             string
	Target           string
	SourceInterfaces InterfaceMap
	TargetInterfaces InterfaceMap
}

// NodeTemplate is a declared, named instance of a node type.
type NodeTemplate struct {
	ID              string
	Type            string
	Properties      map[string]any
	Interfaces      InterfaceMap
	Relationships   []*RelationshipInstance
	InstancesDeploy int
	Capabilities    map[string]any
}

// InputDef declares one blueprint input parameter.
type InputDef struct {
	Type        string
	Default     any
	Description string
	Required    *bool
}

// OutputDef declares one blueprint output.
type OutputDef struct {
	Description string
	Value       any
}

// WorkflowDef is a workflow mapping, expanded from either short form
// ("plugin.task") or long form at merge time (spec.md §4.8).
type WorkflowDef struct {
	Plugin      string
	Operation   string
	Parameters  map[string]any
	IsCascading bool
}

// GroupDef declares a named set of member node templates.
type GroupDef struct {
	Members []string
}

// PolicyDef declares a policy instance bound to a policy type and a set of
// group/node targets.
type PolicyDef struct {
	Type       string
	Properties map[string]any
	Targets    []string
}

// Blueprint is the rooted document produced by the import loader: every
// section merged, but before type derivation or function evaluation
// (spec.md §3, "Blueprint (input)").
type Blueprint struct {
	DSLVersion         version.Version
	Description        string
	Inputs             map[string]*InputDef
	DSLDefinitions     map[string]any
	Plugins            map[string]PluginDef
	DataTypes          map[string]*DataType
	NodeTypes          map[string]*NodeType
	RelationshipTypes  map[string]*RelationshipType
	NodeTemplates      *OrderedMap[*NodeTemplate]
	Workflows          map[string]*WorkflowDef
	PolicyTypes        map[string]*PolicyType
	PolicyTriggers     map[string]any
	Groups             map[string]*GroupDef
	Policies           map[string]*PolicyDef
	Outputs            map[string]*OutputDef
	Capabilities       map[string]any
	DeploymentSettings map[string]any
}

// NewBlueprint returns an empty Blueprint with every map/slice field
// initialized, ready to receive merged sections.
func NewBlueprint() *Blueprint {
	return &Blueprint{
		Inputs:            make(map[string]*InputDef),
		DSLDefinitions:    make(map[string]any),
		DeploymentSettings: make(map[string]any),
		Plugins:           make(map[string]PluginDef),
		DataTypes:         make(map[string]*DataType),
		NodeTypes:         make(map[string]*NodeType),
		RelationshipTypes: make(map[string]*RelationshipType),
		NodeTemplates:     NewOrderedMap[*NodeTemplate](),
		Workflows:         make(map[string]*WorkflowDef),
		PolicyTypes:       make(map[string]*PolicyType),
		PolicyTriggers:    make(map[string]any),
		Groups:            make(map[string]*GroupDef),
		Policies:          make(map[string]*PolicyDef),
		Outputs:           make(map[string]*OutputDef),
		Capabilities:      make(map[string]any),
	}
}

// ComputeHostType is the built-in node type whose hierarchy marks a node as
// a compute host (spec.md §4.5).
const ComputeHostType = "cloudify.nodes.Compute"

// ContainedInRelationship is the built-in relationship type (or a subtype
// of it) used to resolve host_id (spec.md §4.5).
const ContainedInRelationship = "cloudify.relationships.contained_in"
