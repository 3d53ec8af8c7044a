// Package memstore provides in-memory implementations of pkg/storage's
// SecretStore and InstanceStore, for tests only — not a real secret or
// instance backend.
package memstore

import (
	"fmt"

	"github.com/bpforge/blueprint/pkg/storage"
)

// Secrets is a map-backed storage.SecretStore.
type Secrets map[string]string

func (s Secrets) GetSecret(id string) (string, error) {
	v, ok := s[id]
	if !ok {
		return "", &storage.NotFoundError{ID: id}
	}
	return v, nil
}

// Instances is a map-backed storage.InstanceStore keyed by node id, with a
// flat capability table keyed by "depID.capabilityName" and
// "groupID.capabilityName".
type Instances struct {
	ByNode       map[string][]storage.NodeInstance
	Nodes        []storage.NodeSummary
	Capabilities map[string]any
	GroupCaps    map[string]any
}

func NewInstances() *Instances {
	return &Instances{
		ByNode:       map[string][]storage.NodeInstance{},
		Capabilities: map[string]any{},
		GroupCaps:    map[string]any{},
	}
}

func (i *Instances) GetNodeInstances(nodeID string) ([]storage.NodeInstance, error) {
	return i.ByNode[nodeID], nil
}

func (i *Instances) GetNodes() ([]storage.NodeSummary, error) {
	return i.Nodes, nil
}

func (i *Instances) GetCapability(depID, capabilityName string) (any, error) {
	key := fmt.Sprintf("%s.%s", depID, capabilityName)
	v, ok := i.Capabilities[key]
	if !ok {
		return nil, &storage.NotFoundError{ID: key}
	}
	return v, nil
}

func (i *Instances) GetGroupCapability(groupID, capabilityName string) (any, error) {
	key := fmt.Sprintf("%s.%s", groupID, capabilityName)
	v, ok := i.GroupCaps[key]
	if !ok {
		return nil, &storage.NotFoundError{ID: key}
	}
	return v, nil
}
