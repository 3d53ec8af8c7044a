package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpforge/blueprint/pkg/functions"
	"github.com/bpforge/blueprint/pkg/model"
	"github.com/bpforge/blueprint/pkg/version"
)

func TestBuildOutputsRejectsSelfInOutputs(t *testing.T) {
	bp := model.NewBlueprint()
	bp.DSLVersion = version.Version{Major: 1, Minor: 3}
	bp.Outputs["x"] = &model.OutputDef{Value: map[string]any{"get_attribute": []any{"SELF", "ip"}}}

	evaluator := &functions.Evaluator{}
	_, err := buildOutputs(bp, evaluator, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SELF cannot be used with get_attribute function in outputs.x.value")
}

func TestBuildOutputsRuntimeOnlyLeavesFunctionUnresolved(t *testing.T) {
	bp := model.NewBlueprint()
	bp.DSLVersion = version.Version{Major: 1, Minor: 3}
	bp.Outputs["x"] = &model.OutputDef{Value: map[string]any{"get_input": "port"}}

	evaluator := &functions.Evaluator{Inputs: map[string]any{"port": 1234}}
	out, err := buildOutputs(bp, evaluator, true)
	require.NoError(t, err)
	_, ok := out["x"].(*functions.Function)
	assert.True(t, ok)
}

func TestBuildOutputsEvaluatesStatically(t *testing.T) {
	bp := model.NewBlueprint()
	bp.DSLVersion = version.Version{Major: 1, Minor: 3}
	bp.Outputs["x"] = &model.OutputDef{Value: map[string]any{"get_input": "port"}}

	evaluator := &functions.Evaluator{Inputs: map[string]any{"port": 1234}}
	out, err := buildOutputs(bp, evaluator, false)
	require.NoError(t, err)
	assert.Equal(t, 1234, out["x"])
}
