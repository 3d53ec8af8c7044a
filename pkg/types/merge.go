package types

import "github.com/bpforge/blueprint/pkg/model"

// mergeProperties applies src's property schema on top of dst, field by
// field: a property present in both is merged per-field (src's non-nil/
// non-empty fields win, dst's fields fill gaps); a property present only
// in src is added as-is (spec.md §4.3: "Property schema is merged
// key-wise; leaf overrides ancestor per property, field-by-field").
func mergeProperties(dst map[string]*model.PropertyDef, src map[string]*model.PropertyDef) map[string]*model.PropertyDef {
	out := make(map[string]*model.PropertyDef, len(dst)+len(src))
	for k, v := range dst {
		cp := *v
		out[k] = &cp
	}
	for k, v := range src {
		if existing, ok := out[k]; ok {
			merged := *existing
			if v.Type != "" {
				merged.Type = v.Type
			}
			if v.Default != nil {
				merged.Default = v.Default
			}
			if v.Description != "" {
				merged.Description = v.Description
			}
			if v.Required != nil {
				merged.Required = v.Required
			}
			out[k] = &merged
		} else {
			cp := *v
			out[k] = &cp
		}
	}
	return out
}

// mergeOperationSource merges src over dst field by field: any field src
// leaves nil/empty is inherited from dst (spec.md §4.3: "per-operation the
// leaf overrides the ancestor, but missing fields ... inherit from the
// ancestor").
func mergeOperationSource(dst, src *model.OperationSource) *model.OperationSource {
	if dst == nil {
		return src
	}
	if src == nil {
		return dst
	}
	out := *dst
	if src.Short != "" {
		out.Short = src.Short
	}
	if src.Implementation != "" {
		out.Implementation = src.Implementation
	}
	if src.Inputs != nil {
		merged := make(map[string]any, len(dst.Inputs)+len(src.Inputs))
		for k, v := range dst.Inputs {
			merged[k] = v
		}
		for k, v := range src.Inputs {
			merged[k] = v
		}
		out.Inputs = merged
	}
	if src.Executor != "" {
		out.Executor = src.Executor
	}
	if src.MaxRetries != nil {
		out.MaxRetries = src.MaxRetries
	}
	if src.RetryInterval != nil {
		out.RetryInterval = src.RetryInterval
	}
	if src.Timeout != nil {
		out.Timeout = src.Timeout
	}
	if src.TimeoutRecoverable != nil {
		out.TimeoutRecoverable = src.TimeoutRecoverable
	}
	return &out
}

// mergeInterfaces applies src's interface/operation declarations on top of
// dst, merging shared (interface, operation) pairs field-by-field via
// mergeOperationSource and adding any new ones verbatim.
func mergeInterfaces(dst, src model.InterfaceMap) model.InterfaceMap {
	out := make(model.InterfaceMap, len(dst))
	for iface, ops := range dst {
		cp := make(map[string]*model.OperationSource, len(ops))
		for op, def := range ops {
			cp[op] = def
		}
		out[iface] = cp
	}
	for iface, ops := range src {
		existing, ok := out[iface]
		if !ok {
			cp := make(map[string]*model.OperationSource, len(ops))
			for op, def := range ops {
				cp[op] = def
			}
			out[iface] = cp
			continue
		}
		for op, def := range ops {
			existing[op] = mergeOperationSource(existing[op], def)
		}
	}
	return out
}
