package types

import (
	"github.com/bpforge/blueprint/pkg/dslerrors"
	"github.com/bpforge/blueprint/pkg/logger"
	"github.com/bpforge/blueprint/pkg/model"
)

var log = logger.New("types:resolve")

// ResolvedNodeType is a node type after full derivation-chain merge.
type ResolvedNodeType struct {
	Name          string
	TypeHierarchy []string
	Properties    map[string]*model.PropertyDef
	Interfaces    model.InterfaceMap
}

// ResolvedRelationshipType is a relationship type after full
// derivation-chain merge.
type ResolvedRelationshipType struct {
	Name             string
	TypeHierarchy    []string
	Properties       map[string]*model.PropertyDef
	SourceInterfaces model.InterfaceMap
	TargetInterfaces model.InterfaceMap
}

// ResolvedDataType is a data type after full derivation-chain merge.
type ResolvedDataType struct {
	Name          string
	TypeHierarchy []string
	Properties    map[string]*model.PropertyDef
}

// ResolvedPolicyType is a policy type after full derivation-chain merge.
type ResolvedPolicyType struct {
	Name          string
	TypeHierarchy []string
	Properties    map[string]*model.PropertyDef
	Source        string
}

// Resolver caches derivation resolution across a single blueprint so that
// a type referenced by many node templates is only resolved once.
type Resolver struct {
	bp *model.Blueprint

	nodeTypes    map[string]*ResolvedNodeType
	relTypes     map[string]*ResolvedRelationshipType
	dataTypes    map[string]*ResolvedDataType
	policyTypes  map[string]*ResolvedPolicyType
}

// NewResolver returns a Resolver over bp.
func NewResolver(bp *model.Blueprint) *Resolver {
	return &Resolver{
		bp:          bp,
		nodeTypes:   map[string]*ResolvedNodeType{},
		relTypes:    map[string]*ResolvedRelationshipType{},
		dataTypes:   map[string]*ResolvedDataType{},
		policyTypes: map[string]*ResolvedPolicyType{},
	}
}

// ResolveNodeType resolves name's full derivation chain, merging property
// schema and interfaces root-to-leaf (spec.md §4.3).
func (r *Resolver) ResolveNodeType(name string) (*ResolvedNodeType, error) {
	if cached, ok := r.nodeTypes[name]; ok {
		return cached, nil
	}
	chain, err := derivationChain("node_types", name, func(n string) (string, bool) {
		nt, ok := r.bp.NodeTypes[n]
		if !ok {
			return "", false
		}
		return nt.DerivedFrom, true
	})
	if err != nil {
		return nil, err
	}

	resolved := &ResolvedNodeType{Name: name, TypeHierarchy: chain}
	for _, typeName := range chain {
		nt := r.bp.NodeTypes[typeName]
		resolved.Properties = mergeProperties(resolved.Properties, nt.Properties)
		resolved.Interfaces = mergeInterfaces(resolved.Interfaces, nt.Interfaces)
	}
	log.Debugf("resolved node type %s: hierarchy=%v", name, chain)
	r.nodeTypes[name] = resolved
	return resolved, nil
}

// ResolveRelationshipType resolves name's full derivation chain.
func (r *Resolver) ResolveRelationshipType(name string) (*ResolvedRelationshipType, error) {
	if cached, ok := r.relTypes[name]; ok {
		return cached, nil
	}
	chain, err := derivationChain("relationships", name, func(n string) (string, bool) {
		rt, ok := r.bp.RelationshipTypes[n]
		if !ok {
			return "", false
		}
		return rt.DerivedFrom, true
	})
	if err != nil {
		return nil, err
	}

	resolved := &ResolvedRelationshipType{Name: name, TypeHierarchy: chain}
	for _, typeName := range chain {
		rt := r.bp.RelationshipTypes[typeName]
		resolved.Properties = mergeProperties(resolved.Properties, rt.Properties)
		resolved.SourceInterfaces = mergeInterfaces(resolved.SourceInterfaces, rt.SourceInterfaces)
		resolved.TargetInterfaces = mergeInterfaces(resolved.TargetInterfaces, rt.TargetInterfaces)
	}
	r.relTypes[name] = resolved
	return resolved, nil
}

// ResolveDataType resolves name's full derivation chain.
func (r *Resolver) ResolveDataType(name string) (*ResolvedDataType, error) {
	if cached, ok := r.dataTypes[name]; ok {
		return cached, nil
	}
	chain, err := derivationChain("data_types", name, func(n string) (string, bool) {
		dt, ok := r.bp.DataTypes[n]
		if !ok {
			return "", false
		}
		return dt.DerivedFrom, true
	})
	if err != nil {
		return nil, err
	}

	resolved := &ResolvedDataType{Name: name, TypeHierarchy: chain}
	for _, typeName := range chain {
		dt := r.bp.DataTypes[typeName]
		resolved.Properties = mergeProperties(resolved.Properties, dt.Properties)
	}
	r.dataTypes[name] = resolved
	return resolved, nil
}

// ResolvePolicyType resolves name's full derivation chain.
func (r *Resolver) ResolvePolicyType(name string) (*ResolvedPolicyType, error) {
	if cached, ok := r.policyTypes[name]; ok {
		return cached, nil
	}
	chain, err := derivationChain("policy_types", name, func(n string) (string, bool) {
		pt, ok := r.bp.PolicyTypes[n]
		if !ok {
			return "", false
		}
		return pt.DerivedFrom, true
	})
	if err != nil {
		return nil, err
	}

	resolved := &ResolvedPolicyType{Name: name, TypeHierarchy: chain}
	for _, typeName := range chain {
		pt := r.bp.PolicyTypes[typeName]
		resolved.Properties = mergeProperties(resolved.Properties, pt.Properties)
		if pt.Source != "" {
			resolved.Source = pt.Source
		}
	}
	r.policyTypes[name] = resolved
	return resolved, nil
}

// IsComputeHost reports whether typeName's hierarchy includes
// cloudify.nodes.Compute (spec.md §4.5).
func (r *Resolver) IsComputeHost(typeName string) (bool, error) {
	resolved, err := r.ResolveNodeType(typeName)
	if err != nil {
		return false, err
	}
	for _, t := range resolved.TypeHierarchy {
		if t == model.ComputeHostType {
			return true, nil
		}
	}
	return false, nil
}

// IsContainedInRelationship reports whether typeName's hierarchy derives
// from cloudify.relationships.contained_in (spec.md §4.5).
func (r *Resolver) IsContainedInRelationship(typeName string) (bool, error) {
	resolved, err := r.ResolveRelationshipType(typeName)
	if err != nil {
		return false, err
	}
	for _, t := range resolved.TypeHierarchy {
		if t == model.ContainedInRelationship {
			return true, nil
		}
	}
	return false, nil
}

// ValidateNodeTemplateType reports a LogicError if tpl's declared type is
// not a known node type (spec.md §3 invariant: "Every node template's type
// resolves to a declared node type").
func ValidateNodeTemplateType(bp *model.Blueprint, tplID, typeName string) error {
	if _, ok := bp.NodeTypes[typeName]; !ok {
		return &dslerrors.LogicError{
			Path:    "node_templates." + tplID + ".type",
			Message: "type \"" + typeName + "\" is not declared in node_types",
		}
	}
	return nil
}
