package functions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpforge/blueprint/pkg/storage"
	"github.com/bpforge/blueprint/pkg/storage/memstore"
)

func parseAndEval(t *testing.T, ctx Context, evalCtx EvalContext, e *Evaluator, raw any) (any, error) {
	t.Helper()
	parsed, err := Parse(ctx, "node_templates.n.properties.x", raw)
	require.NoError(t, err)
	return e.Evaluate(evalCtx, parsed)
}

func TestEvalGetInput(t *testing.T) {
	e := &Evaluator{Inputs: map[string]any{"port": 8080}}
	raw := map[string]any{"get_input": "port"}
	v, err := parseAndEval(t, NodeContext(v13, true), EvalContext{}, e, raw)
	require.NoError(t, err)
	assert.Equal(t, 8080, v)
}

func TestEvalGetInputUndeclared(t *testing.T) {
	e := &Evaluator{Inputs: map[string]any{}}
	raw := map[string]any{"get_input": "missing"}
	_, err := parseAndEval(t, NodeContext(v13, true), EvalContext{}, e, raw)
	assert.Error(t, err)
}

func TestEvalGetPropertyChain(t *testing.T) {
	// b = {get_property: [SELF, c]}; c = [{get_property: [SELF, a]}, 2]; a = 1
	// expect b = [1, 2]
	props := map[string]any{
		"a": 1,
		"c": []any{map[string]any{"get_property": []any{"SELF", "a"}}, 2},
	}
	parsedC, err := Parse(NodeContext(v13, true), "node_templates.n.properties.c", props["c"])
	require.NoError(t, err)
	props["c"] = parsedC

	e := &Evaluator{
		NodeProperties: func(id string) (map[string]any, bool) {
			if id == "n" {
				return props, true
			}
			return nil, false
		},
	}
	raw := map[string]any{"get_property": []any{"SELF", "c"}}
	v, err := parseAndEval(t, NodeContext(v13, true), EvalContext{Self: "n"}, e, raw)
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2}, v)
}

func TestEvalGetPropertyMissingNode(t *testing.T) {
	e := &Evaluator{NodeProperties: func(string) (map[string]any, bool) { return nil, false }}
	raw := map[string]any{"get_property": []any{"other", "a"}}
	_, err := parseAndEval(t, NodeContext(v13, true), EvalContext{Self: "n"}, e, raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestEvalConcatMixedArgs(t *testing.T) {
	e := &Evaluator{Inputs: map[string]any{"host": "example.com"}}
	raw := map[string]any{"concat": []any{"http://", map[string]any{"get_input": "host"}, ":", 8080}}
	v, err := parseAndEval(t, NodeContext(v13, true), EvalContext{}, e, raw)
	require.NoError(t, err)
	assert.Equal(t, "http://example.com:8080", v)
}

func TestEvalMergeRightBiased(t *testing.T) {
	e := &Evaluator{}
	raw := map[string]any{"merge": []any{
		map[string]any{"k1": "v1"},
		map[string]any{"k2": "v2"},
		map[string]any{"k2": "vA"},
	}}
	v, err := parseAndEval(t, NodeContext(v13, true), EvalContext{}, e, raw)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"k1": "v1", "k2": "vA"}, v)
}

func TestEvalGetSecretScalar(t *testing.T) {
	secrets := memstore.Secrets{"db_password": "hunter2"}
	e := &Evaluator{Secrets: secrets}
	raw := map[string]any{"get_secret": "db_password"}
	v, err := parseAndEval(t, NodeContext(v13, true), EvalContext{}, e, raw)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", v)
}

func TestEvalGetSecretNestedPath(t *testing.T) {
	secrets := memstore.Secrets{"db_creds": `{"user":"admin","nested":{"password":"hunter2"}}`}
	e := &Evaluator{Secrets: secrets}
	raw := map[string]any{"get_secret": []any{"db_creds", "nested", "password"}}
	v, err := parseAndEval(t, NodeContext(v13, true), EvalContext{}, e, raw)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", v)
}

func TestEvalGetSecretNestedPathNotFound(t *testing.T) {
	secrets := memstore.Secrets{"db_creds": `{"user":"admin"}`}
	e := &Evaluator{Secrets: secrets}
	raw := map[string]any{"get_secret": []any{"db_creds", "password"}}
	_, err := parseAndEval(t, NodeContext(v13, true), EvalContext{}, e, raw)
	assert.Error(t, err)
}

func TestPreloadSecretsAggregatesMissing(t *testing.T) {
	secrets := memstore.Secrets{"present": "x"}
	e := &Evaluator{Secrets: secrets}

	rawA, err := Parse(NodeContext(v13, true), "p", map[string]any{"get_secret": "present"})
	require.NoError(t, err)
	rawB, err := Parse(NodeContext(v13, true), "p", map[string]any{"get_secret": "missing1"})
	require.NoError(t, err)
	rawC, err := Parse(NodeContext(v13, true), "p", map[string]any{"get_secret": "missing2"})
	require.NoError(t, err)

	err = e.PreloadSecrets(rawA, rawB, rawC)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing1")
	assert.Contains(t, err.Error(), "missing2")
}

func TestEvalGetAttributeDeferredWithoutStorage(t *testing.T) {
	e := &Evaluator{}
	raw := map[string]any{"get_attribute": []any{"SELF", "ip"}}
	v, err := parseAndEval(t, NodeContext(v13, true), EvalContext{Self: "n"}, e, raw)
	require.NoError(t, err)
	_, ok := v.(*Function)
	assert.True(t, ok, "get_attribute must stay unresolved without a Storage collaborator")
}

func TestEvalGetAttributeResolvesWithStorage(t *testing.T) {
	inst := memstore.NewInstances()
	inst.ByNode["n"] = []storage.NodeInstance{{ID: "n_1", NodeID: "n", RuntimeProperties: map[string]any{"ip": "10.0.0.1"}}}
	e := &Evaluator{Storage: inst}
	raw := map[string]any{"get_attribute": []any{"SELF", "ip"}}
	v, err := parseAndEval(t, NodeContext(v13, true), EvalContext{Self: "n"}, e, raw)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", v)
}

func TestEvalRecursionLimit(t *testing.T) {
	// a references itself: a = {get_property: [SELF, a]}
	props := map[string]any{}
	parsed, err := Parse(NodeContext(v13, true), "node_templates.n.properties.a", map[string]any{"get_property": []any{"SELF", "a"}})
	require.NoError(t, err)
	props["a"] = parsed

	e := &Evaluator{
		RecursionLimit: 20,
		NodeProperties: func(id string) (map[string]any, bool) {
			if id == "n" {
				return props, true
			}
			return nil, false
		},
	}
	_, err = e.Evaluate(EvalContext{Self: "n"}, parsed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get_property[0]")
	assert.Contains(t, err.Error(), "node_templates.n.properties.a")
}
