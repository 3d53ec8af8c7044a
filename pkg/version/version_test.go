package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	v, err := Parse("cloudify_dsl_1_3")
	require.NoError(t, err)
	assert.Equal(t, Version{Major: 1, Minor: 3}, v)

	v, err = Parse("cloudify_dsl_1_3_1")
	require.NoError(t, err)
	assert.Equal(t, Version{Major: 1, Minor: 3, Micro: 1}, v)
}

func TestParseRejectsBadTokens(t *testing.T) {
	cases := []string{
		"",
		"tosca_1_3",
		"cloudify_dsl_1",
		"cloudify_dsl_1_3_1_5",
		"cloudify_dsl_1_x",
	}
	for _, tok := range cases {
		_, err := Parse(tok)
		assert.Error(t, err, tok)
	}
}

func TestCompareAndAtLeast(t *testing.T) {
	a := Version{1, 3, 0}
	b := Version{1, 3, 1}
	assert.Equal(t, -1, Compare(a, b))
	assert.Equal(t, 1, Compare(b, a))
	assert.Equal(t, 0, Compare(a, a))
	assert.True(t, AtLeast(b, a))
	assert.False(t, AtLeast(a, b))
}

func TestString(t *testing.T) {
	assert.Equal(t, "cloudify_dsl_1_3", Version{1, 3, 0}.String())
	assert.Equal(t, "cloudify_dsl_1_3_1", Version{1, 3, 1}.String())
}

func TestGate(t *testing.T) {
	v := Version{1, 0, 0}
	err := Gate(v, Concat, "concat", "node_templates.a.properties.x", true)
	assert.Error(t, err)

	err = Gate(v, Concat, "concat", "node_templates.a.properties.x", false)
	assert.NoError(t, err, "validate=false bypasses the gate")

	v = Version{1, 1, 0}
	err = Gate(v, Concat, "concat", "node_templates.a.properties.x", true)
	assert.NoError(t, err)
}
