// Package types implements derivation resolution for node types,
// relationship types, data types, and policy types: computing
// type_hierarchy and merging properties/interfaces/operations across an
// acyclic derived_from chain (spec.md §4.3).
package types

import (
	"fmt"

	"github.com/bpforge/blueprint/pkg/dslerrors"
	"github.com/bpforge/blueprint/pkg/sliceutil"
)

// derivationChain walks derived_from from leaf to root via lookup, detecting
// cycles and unknown ancestors, and returns the chain in root-to-leaf
// order — the exact shape of type_hierarchy (spec.md §3 invariants:
// "type_hierarchy[-1] == node.type; length >= 1").
func derivationChain(kind, leaf string, lookup func(name string) (derivedFrom string, exists bool)) ([]string, error) {
	var leafToRoot []string
	visited := map[string]bool{}
	current := leaf

	for {
		if !lookupExists(lookup, current) {
			return nil, &dslerrors.LogicError{
				Path:    kind + "." + leaf,
				Message: fmt.Sprintf("%s %q derives from unknown %s %q", kind, leaf, kind, current),
			}
		}
		if visited[current] {
			return nil, &dslerrors.LogicError{
				Path:    kind + "." + leaf,
				Message: fmt.Sprintf("%s %q has a cyclic derived_from chain through %q", kind, leaf, current),
			}
		}
		visited[current] = true
		leafToRoot = append(leafToRoot, current)

		derivedFrom, _ := lookup(current)
		if derivedFrom == "" {
			break
		}
		current = derivedFrom
	}

	return sliceutil.Reverse(leafToRoot), nil
}

func lookupExists(lookup func(name string) (string, bool), name string) bool {
	_, ok := lookup(name)
	return ok
}
