// Package functions implements the intrinsic function parser and
// evaluator: get_input, get_property, get_attribute, get_secret,
// get_capability, get_group_capability, concat, and merge (spec.md §4.6,
// §4.7). A function literal is a single-key mapping; the parser replaces
// such literals, wherever they appear in the document, with a typed
// Function AST node — the "dynamic-shape mapping becomes a sum type"
// pattern spec.md §9 calls out.
package functions

// Kind identifies which intrinsic function an AST node represents.
type Kind string

const (
	KindGetInput          Kind = "get_input"
	KindGetProperty       Kind = "get_property"
	KindGetAttribute      Kind = "get_attribute"
	KindGetSecret         Kind = "get_secret"
	KindGetCapability     Kind = "get_capability"
	KindGetGroupCapability Kind = "get_group_capability"
	KindConcat            Kind = "concat"
	KindMerge             Kind = "merge"
)

// knownKinds is the set of recognized intrinsic-function keys. A mapping
// with exactly one key from this set is a function literal.
var knownKinds = map[string]Kind{
	"get_input":           KindGetInput,
	"get_property":        KindGetProperty,
	"get_attribute":       KindGetAttribute,
	"get_secret":          KindGetSecret,
	"get_capability":      KindGetCapability,
	"get_group_capability": KindGetGroupCapability,
	"concat":              KindConcat,
	"merge":               KindMerge,
}

// NodeRef identifies the SELF/SOURCE/TARGET/<explicit-name> first argument
// of get_property, get_attribute, get_capability, and
// get_group_capability.
type NodeRef string

const (
	RefSelf   NodeRef = "SELF"
	RefSource NodeRef = "SOURCE"
	RefTarget NodeRef = "TARGET"
)

// Function is the intrinsic-function AST node. Kind discriminates how Args
// is interpreted:
//
//   - get_input:      Args = [argument]  (argument may itself be a *Function)
//   - get_property:   Args = [nodeRef, pathStep, pathStep, ...]
//   - get_attribute:  Args = [nodeRef, pathStep, pathStep, ...]
//   - get_secret:     Args = [id, pathStep, ...]  (len==1 for the scalar form)
//   - get_capability: Args = [depOrGroupRef, capabilityName, pathStep, ...]
//   - get_group_capability: same shape as get_capability
//   - concat:         Args = the list of sub-expressions to concatenate
//   - merge:          Args = the list of map sub-expressions to merge
//
// Each element of Args has already been recursively parsed: a nested
// function literal has been replaced by its own *Function node.
type Function struct {
	Kind Kind
	Path string
	Args []any
}

// IsFunctionLiteral reports whether raw is a single-key mapping whose key
// names an intrinsic function, and returns which one.
func IsFunctionLiteral(raw any) (Kind, bool) {
	m, ok := raw.(map[string]any)
	if !ok || len(m) != 1 {
		return "", false
	}
	for k := range m {
		kind, known := knownKinds[k]
		return kind, known
	}
	return "", false
}
