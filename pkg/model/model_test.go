package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPropertyDefIsRequired(t *testing.T) {
	assert.False(t, (&PropertyDef{}).IsRequired())
	no := false
	assert.False(t, (&PropertyDef{Required: &no}).IsRequired())
	yes := true
	assert.True(t, (&PropertyDef{Required: &yes}).IsRequired())
}

func TestPluginDefExecutorDefaultsEmpty(t *testing.T) {
	assert.Equal(t, "", PluginDef{}.Executor())
	assert.Equal(t, "host_agent", PluginDef{"executor": "host_agent"}.Executor())
}

func TestPluginDefInstallDefaultsTrue(t *testing.T) {
	assert.True(t, PluginDef{}.Install())
	assert.False(t, PluginDef{"install": false}.Install())
	assert.True(t, PluginDef{"install": true}.Install())
}

func TestNewBlueprintInitializesCollections(t *testing.T) {
	bp := NewBlueprint()
	assert.NotNil(t, bp.Inputs)
	assert.NotNil(t, bp.Plugins)
	assert.NotNil(t, bp.DataTypes)
	assert.NotNil(t, bp.NodeTypes)
	assert.NotNil(t, bp.RelationshipTypes)
	assert.NotNil(t, bp.PolicyTypes)
	assert.NotNil(t, bp.Workflows)
	assert.NotNil(t, bp.Groups)
	assert.NotNil(t, bp.Policies)
	assert.NotNil(t, bp.Outputs)
	assert.NotNil(t, bp.NodeTemplates)
	assert.Equal(t, 0, bp.NodeTemplates.Len())
}
