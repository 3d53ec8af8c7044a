package blueprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpforge/blueprint/pkg/functions"
	"github.com/bpforge/blueprint/pkg/model"
	"github.com/bpforge/blueprint/pkg/plan"
	"github.com/bpforge/blueprint/pkg/storage"
	"github.com/bpforge/blueprint/pkg/storage/memstore"
)

const webBlueprint = `
tosca_definitions_version: cloudify_dsl_1_3

inputs:
  port:
    type: integer
    default: 8080

node_types:
  cloudify.nodes.Root: {}
  cloudify.nodes.Compute:
    derived_from: cloudify.nodes.Root
  cloudify.nodes.WebServer:
    derived_from: cloudify.nodes.Root
    properties:
      port:
        type: integer

relationships:
  cloudify.relationships.contained_in: {}

node_templates:
  vm:
    type: cloudify.nodes.Compute
  web:
    type: cloudify.nodes.WebServer
    properties:
      port: { get_input: port }
    relationships:
      - type: cloudify.relationships.contained_in
        target: vm

outputs:
  port:
    value: { get_property: [ web, port ] }
`

func TestParseThenPrepareDeploymentPlanEndToEnd(t *testing.T) {
	bp, err := Parse(webBlueprint)
	require.NoError(t, err)

	p, err := PrepareDeploymentPlan(bp, WithInputs(map[string]any{"port": 9090}))
	require.NoError(t, err)

	var web *plan.PlanNode
	for _, n := range p.Nodes {
		if n.ID == "web" {
			web = n
		}
	}
	require.NotNil(t, web)
	assert.Equal(t, "vm", web.HostID)
	assert.Equal(t, 9090, web.Properties["port"])
	assert.Equal(t, 9090, p.Outputs["port"])
}

func TestEvaluateOutputsToleratesPerOutputFailure(t *testing.T) {
	outputs := map[string]any{
		"good": 1,
		"bad":  map[string]any{"get_attribute": []any{"missing_node", "ip"}},
	}
	secrets := memstore.Secrets{}
	insts := memstore.NewInstances()

	out := EvaluateOutputs(outputs, insts, secrets, nil)
	assert.Equal(t, 1, out["good"])
	assert.IsType(t, "", out["bad"])
	assert.NotEmpty(t, out["bad"])
}

func TestEvaluateFunctionsResolvesAgainstStorage(t *testing.T) {
	insts := memstore.NewInstances()
	insts.ByNode["vm"] = []storage.NodeInstance{{ID: "vm_1", NodeID: "vm", RuntimeProperties: map[string]any{"ip": "10.0.0.5"}}}
	secrets := memstore.Secrets{}

	payload := map[string]any{"get_attribute": []any{"vm", "ip"}}
	resolved, err := EvaluateFunctions(payload, functions.EvalContext{}, insts, secrets, nil)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", resolved)
}

func TestEvaluateNodeFunctionsResolvesPropertiesAndSharesOperationPointer(t *testing.T) {
	insts := memstore.NewInstances()
	insts.ByNode["vm"] = []storage.NodeInstance{{ID: "vm_1", NodeID: "vm", RuntimeProperties: map[string]any{"ip": "10.0.0.5"}}}
	secrets := memstore.Secrets{}
	nodeProps := func(id string) (map[string]any, bool) { return nil, false }

	op := &model.Operation{Inputs: map[string]any{"ip": map[string]any{"get_attribute": []any{"vm", "ip"}}}}
	n := &plan.PlanNode{
		ID:         "web",
		Properties: map[string]any{"port": 8080},
		Operations: map[string]*model.Operation{"create": op, "configure": op},
	}

	out, err := EvaluateNodeFunctions(n, insts, secrets, nodeProps)
	require.NoError(t, err)
	assert.Equal(t, 8080, out.Properties["port"])
	assert.Equal(t, "10.0.0.5", out.Operations["create"].Inputs["ip"])
	assert.Same(t, out.Operations["create"], out.Operations["configure"], "same *model.Operation pointer resolved once and shared")
}
