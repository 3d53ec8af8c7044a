package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bpforge/blueprint/pkg/model"
)

func TestSplitImplementation(t *testing.T) {
	plugin, op := splitImplementation(&model.OperationSource{Short: "myplugin.create"})
	assert.Equal(t, "myplugin", plugin)
	assert.Equal(t, "create", op)

	plugin, op = splitImplementation(&model.OperationSource{Implementation: "myplugin.ops.create"})
	assert.Equal(t, "myplugin", plugin)
	assert.Equal(t, "ops.create", op)

	plugin, op = splitImplementation(&model.OperationSource{})
	assert.Equal(t, "", plugin)
	assert.Equal(t, "", op)
}

func TestResolveOperationPluginReference(t *testing.T) {
	plugins := map[string]model.PluginDef{"myplugin": {"executor": "host_agent"}}
	op := resolveOperation(&model.OperationSource{Short: "myplugin.create"}, plugins)
	assert.Equal(t, "myplugin", op.Plugin)
	assert.Equal(t, "create", op.Operation)
	assert.Equal(t, "host_agent", op.Executor)
}

func TestResolveOperationScriptRewrite(t *testing.T) {
	plugins := map[string]model.PluginDef{}
	op := resolveOperation(&model.OperationSource{Implementation: "scripts/configure.py"}, plugins)
	assert.Equal(t, scriptPlugin, op.Plugin)
	assert.Equal(t, scriptTask, op.Operation)
	assert.Equal(t, "scripts/configure.py", op.Inputs[scriptPathInput])
}

func TestResolveOperationExecutorOverridesPluginDefault(t *testing.T) {
	plugins := map[string]model.PluginDef{"myplugin": {"executor": "host_agent"}}
	op := resolveOperation(&model.OperationSource{Short: "myplugin.create", Executor: "central_deployment_agent"}, plugins)
	assert.Equal(t, "central_deployment_agent", op.Executor)
}

func TestMergeOperationSourceOverridesAndClearsOtherForm(t *testing.T) {
	dst := &model.OperationSource{Short: "base.create"}
	src := &model.OperationSource{Implementation: "override/script.sh"}
	merged := mergeOperationSource(dst, src)
	assert.Equal(t, "override/script.sh", merged.Implementation)
	assert.Equal(t, "", merged.Short, "setting Implementation clears the Short form")
}
