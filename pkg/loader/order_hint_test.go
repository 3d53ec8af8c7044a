package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSectionKeyOrderPreservesSourceOrder(t *testing.T) {
	text := []byte(`
node_templates:
  web:
    type: cloudify.nodes.WebServer
  db:
    type: cloudify.nodes.DBMS
  cache:
    type: cloudify.nodes.Root
outputs:
  endpoint:
    value: 1
`)
	order := extractSectionKeyOrder(text, "node_templates")
	assert.Equal(t, []string{"web", "db", "cache"}, order)
}

func TestExtractSectionKeyOrderMissingSectionReturnsNil(t *testing.T) {
	order := extractSectionKeyOrder([]byte("description: x\n"), "node_templates")
	assert.Nil(t, order)
}

func TestOrderKeysHintFirstThenAlphabeticalRemainder(t *testing.T) {
	present := map[string]any{"c": 1, "b": 1, "a": 1, "z": 1}
	order := orderKeys(present, []string{"b", "c"})
	assert.Equal(t, []string{"b", "c", "a", "z"}, order)
}

func TestOrderKeysIgnoresHintEntriesNotPresent(t *testing.T) {
	present := map[string]any{"a": 1}
	order := orderKeys(present, []string{"ghost", "a"})
	assert.Equal(t, []string{"a"}, order)
}
