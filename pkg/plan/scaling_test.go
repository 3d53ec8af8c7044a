package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bpforge/blueprint/pkg/model"
)

func TestDeriveScalingGroups(t *testing.T) {
	bp := model.NewBlueprint()
	bp.Groups["web_group"] = &model.GroupDef{Members: []string{"web1", "web2"}}
	bp.Policies["web_scale"] = &model.PolicyDef{
		Type:       scalingPolicyType,
		Properties: map[string]any{"default_instances": 2, "min_instances": 1, "max_instances": 5},
		Targets:    []string{"web_group"},
	}

	groups := deriveScalingGroups(bp)
	g, ok := groups["web_group"]
	assert.True(t, ok)
	assert.Equal(t, []string{"web1", "web2"}, g.Members)
	assert.Equal(t, 2, g.DefaultInstances)
	assert.Equal(t, 1, g.MinInstances)
	assert.Equal(t, 5, g.MaxInstances)
	assert.Equal(t, 2, g.CurrentInstances)
	assert.Equal(t, 2, g.PlannedInstances)
}

func TestDeriveScalingGroupsDefaultsWhenPropsMissing(t *testing.T) {
	bp := model.NewBlueprint()
	bp.Groups["g"] = &model.GroupDef{Members: []string{"a"}}
	bp.Policies["p"] = &model.PolicyDef{Type: scalingPolicyType, Targets: []string{"g"}}

	groups := deriveScalingGroups(bp)
	g := groups["g"]
	assert.Equal(t, 1, g.DefaultInstances)
	assert.Equal(t, 0, g.MinInstances)
	assert.Equal(t, -1, g.MaxInstances)
}

func TestDeriveScalingGroupsIgnoresOtherPolicyTypes(t *testing.T) {
	bp := model.NewBlueprint()
	bp.Groups["g"] = &model.GroupDef{Members: []string{"a"}}
	bp.Policies["p"] = &model.PolicyDef{Type: "cloudify.policies.other", Targets: []string{"g"}}

	groups := deriveScalingGroups(bp)
	assert.Empty(t, groups)
}
