package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpforge/blueprint/pkg/model"
	"github.com/bpforge/blueprint/pkg/version"
)

func simpleBlueprint() *model.Blueprint {
	bp := model.NewBlueprint()
	bp.DSLVersion = version.Version{Major: 1, Minor: 3}

	bp.NodeTypes["cloudify.nodes.Root"] = &model.NodeType{Name: "cloudify.nodes.Root"}
	bp.NodeTypes["cloudify.nodes.Compute"] = &model.NodeType{
		Name:        "cloudify.nodes.Compute",
		DerivedFrom: "cloudify.nodes.Root",
	}
	bp.NodeTypes["my.types.App"] = &model.NodeType{
		Name:        "my.types.App",
		DerivedFrom: "cloudify.nodes.Root",
		Properties: map[string]*model.PropertyDef{
			"port": {Type: "integer", Default: 8080},
		},
		Interfaces: model.InterfaceMap{
			"cloudify.interfaces.lifecycle": {
				"create": &model.OperationSource{Implementation: "myplugin.create"},
			},
		},
	}
	bp.RelationshipTypes["cloudify.relationships.contained_in"] = &model.RelationshipType{
		Name: "cloudify.relationships.contained_in",
	}

	bp.Plugins["myplugin"] = model.PluginDef{"executor": "central_deployment_agent"}

	bp.NodeTemplates.Set("vm", &model.NodeTemplate{ID: "vm", Type: "cloudify.nodes.Compute"})
	bp.NodeTemplates.Set("app", &model.NodeTemplate{
		ID:   "app",
		Type: "my.types.App",
		Relationships: []*model.RelationshipInstance{
			{Type: "cloudify.relationships.contained_in", Target: "vm"},
		},
	})

	bp.Outputs["endpoint"] = &model.OutputDef{Value: map[string]any{"get_property": []any{"app", "port"}}}

	return bp
}

func TestAssembleBasicPlan(t *testing.T) {
	bp := simpleBlueprint()
	p, err := Assemble(bp, Options{})
	require.NoError(t, err)
	require.Len(t, p.Nodes, 2)

	var vm, app *PlanNode
	for _, n := range p.Nodes {
		switch n.ID {
		case "vm":
			vm = n
		case "app":
			app = n
		}
	}
	require.NotNil(t, vm)
	require.NotNil(t, app)

	assert.Equal(t, "vm", vm.HostID, "a Compute node is its own host")
	assert.Equal(t, "vm", app.HostID, "app is contained_in vm")

	assert.Equal(t, 8080, app.Properties["port"], "type-level default applied before functions parse")
	assert.Equal(t, 8080, p.Outputs["endpoint"], "get_property[app, port] resolves to the defaulted value")
}

func TestAssembleOperationsMapPointerIdentity(t *testing.T) {
	bp := simpleBlueprint()
	p, err := Assemble(bp, Options{})
	require.NoError(t, err)

	var app *PlanNode
	for _, n := range p.Nodes {
		if n.ID == "app" {
			app = n
		}
	}
	require.NotNil(t, app)

	qualified := app.Operations["cloudify.interfaces.lifecycle.create"]
	bare := app.Operations["create"]
	require.NotNil(t, qualified)
	require.NotNil(t, bare)
	assert.Same(t, qualified, bare, "the qualified and bare operation keys must point at the same Operation")
}

func TestAssembleRewritesScriptImplementation(t *testing.T) {
	bp := model.NewBlueprint()
	bp.DSLVersion = version.Version{Major: 1, Minor: 3}
	bp.NodeTypes["cloudify.nodes.Root"] = &model.NodeType{
		Name: "cloudify.nodes.Root",
		Interfaces: model.InterfaceMap{
			"cloudify.interfaces.lifecycle": {
				"create": &model.OperationSource{Implementation: "scripts/create.sh"},
			},
		},
	}
	bp.NodeTemplates.Set("a", &model.NodeTemplate{ID: "a", Type: "cloudify.nodes.Root"})

	p, err := Assemble(bp, Options{})
	require.NoError(t, err)
	op := p.Nodes[0].Operations["create"]
	require.NotNil(t, op)
	assert.Equal(t, scriptPlugin, op.Plugin)
	assert.Equal(t, scriptTask, op.Operation)
	assert.Equal(t, "scripts/create.sh", op.Inputs[scriptPathInput])
}

func TestAssembleMissingRequiredInput(t *testing.T) {
	bp := model.NewBlueprint()
	bp.DSLVersion = version.Version{Major: 1, Minor: 3}
	required := true
	bp.Inputs["size"] = &model.InputDef{Required: &required}
	_, err := Assemble(bp, Options{})
	assert.Error(t, err)
}

func TestAssembleDeploymentPluginClassification(t *testing.T) {
	bp := simpleBlueprint()
	p, err := Assemble(bp, Options{})
	require.NoError(t, err)
	var names []string
	for _, entry := range p.DeploymentPluginsToInstall {
		names = append(names, entry.Name)
	}
	assert.Contains(t, names, "myplugin")
}
