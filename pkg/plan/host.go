package plan

import (
	"github.com/bpforge/blueprint/pkg/model"
	"github.com/bpforge/blueprint/pkg/types"
)

// bindHosts computes host_id for every node (spec.md §4.5): the nearest
// ancestor reached by walking cloudify.relationships.contained_in (or a
// subtype) whose type hierarchy includes cloudify.nodes.Compute. A
// Compute node is its own host. Nodes outside any host chain are left
// with an empty HostID.
func bindHosts(bp *model.Blueprint, resolver *types.Resolver, nodes []*PlanNode) error {
	byID := make(map[string]*PlanNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	var resolve func(id string, visited map[string]bool) (string, error)
	resolve = func(id string, visited map[string]bool) (string, error) {
		if visited[id] {
			return "", nil
		}
		visited[id] = true

		n, ok := byID[id]
		if !ok {
			return "", nil
		}
		isCompute, err := resolver.IsComputeHost(n.Type)
		if err != nil {
			return "", err
		}
		if isCompute {
			return id, nil
		}

		tpl, ok := bp.NodeTemplates.Get(id)
		if !ok {
			return "", nil
		}
		for _, rel := range tpl.Relationships {
			isContained, err := resolver.IsContainedInRelationship(rel.Type)
			if err != nil {
				return "", err
			}
			if !isContained {
				continue
			}
			host, err := resolve(rel.Target, visited)
			if err != nil {
				return "", err
			}
			if host != "" {
				return host, nil
			}
		}
		return "", nil
	}

	for _, n := range nodes {
		host, err := resolve(n.ID, map[string]bool{})
		if err != nil {
			return err
		}
		n.HostID = host
	}
	return nil
}
