package plan

import "github.com/bpforge/blueprint/pkg/model"

const scalingPolicyType = "cloudify.policies.scaling"

// deriveScalingGroups emits one ScalingGroup per group that has a
// cloudify.policies.scaling policy targeting it, with planned/current
// instances seeded from default_instances (spec.md §4.8).
func deriveScalingGroups(bp *model.Blueprint) map[string]*ScalingGroup {
	out := map[string]*ScalingGroup{}
	for _, policy := range bp.Policies {
		if policy.Type != scalingPolicyType {
			continue
		}
		def := intProp(policy.Properties, "default_instances", 1)
		min := intProp(policy.Properties, "min_instances", 0)
		max := intProp(policy.Properties, "max_instances", -1)
		for _, target := range policy.Targets {
			group, ok := bp.Groups[target]
			if !ok {
				continue
			}
			out[target] = &ScalingGroup{
				Members:          group.Members,
				DefaultInstances: def,
				MinInstances:     min,
				MaxInstances:     max,
				CurrentInstances: def,
				PlannedInstances: def,
			}
		}
	}
	return out
}

func intProp(props map[string]any, key string, fallback int) int {
	v, ok := props[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return fallback
	}
}
