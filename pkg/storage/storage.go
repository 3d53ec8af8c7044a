// Package storage defines the narrow collaborator interfaces the core
// consumes but never implements: the secret store and the post-
// instantiation instance/capability store (spec.md §6). Concrete
// implementations live outside this module; pkg/storage/memstore provides
// an in-memory one for tests only.
package storage

import "fmt"

// NotFoundError is returned by SecretStore.GetSecret when the requested id
// has no value. The evaluator treats this distinctly from any other
// error: NotFound is aggregated across a whole static-validation pass
// (spec.md §4.7, §7); anything else propagates immediately.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("secret %q not found", e.ID)
}

// SecretStore fetches a secret value by id.
type SecretStore interface {
	GetSecret(id string) (string, error)
}

// NodeInstance is one deployed instance of a node template, consumed by
// get_attribute.
type NodeInstance struct {
	ID                string
	NodeID            string
	RuntimeProperties map[string]any
}

// NodeSummary is the minimal per-node information get_nodes exposes.
type NodeSummary struct {
	ID   string
	Type string
}

// InstanceStore exposes post-instantiation state: node instances (for
// get_attribute) and capabilities (for get_capability/
// get_group_capability). Present only during the runtime evaluation phase
// (spec.md §4.7); nil during static plan preparation.
type InstanceStore interface {
	GetNodeInstances(nodeID string) ([]NodeInstance, error)
	GetNodes() ([]NodeSummary, error)
	GetCapability(depID, capabilityName string) (any, error)
	GetGroupCapability(groupID, capabilityName string) (any, error)
}

// IsNotFound reports whether err is (or wraps) a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return asNotFound(err, &nf)
}

func asNotFound(err error, target **NotFoundError) bool {
	for err != nil {
		if nf, ok := err.(*NotFoundError); ok {
			*target = nf
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}
