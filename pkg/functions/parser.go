package functions

import (
	"fmt"

	"github.com/bpforge/blueprint/pkg/dslerrors"
	"github.com/bpforge/blueprint/pkg/logger"
	"github.com/bpforge/blueprint/pkg/version"
)

var log = logger.New("functions:parser")

// Context carries the static information the parser needs to validate a
// function literal at the point it was found: the blueprint's DSL version
// (for version-gated functions) and which node references are legal at
// this position in the document (spec.md §3 invariants: SOURCE/TARGET only
// inside relationship operation inputs, SELF only inside node-template
// operation inputs/properties).
type Context struct {
	Version         version.Version
	ValidateVersion bool
	AllowedRefs     map[NodeRef]bool
}

// NodeContext returns a Context permitting only SELF, for node-template
// properties and operation inputs.
func NodeContext(v version.Version, validate bool) Context {
	return Context{Version: v, ValidateVersion: validate, AllowedRefs: map[NodeRef]bool{RefSelf: true}}
}

// RelationshipContext returns a Context permitting SOURCE and TARGET, for
// relationship operation inputs.
func RelationshipContext(v version.Version, validate bool) Context {
	return Context{Version: v, ValidateVersion: validate, AllowedRefs: map[NodeRef]bool{RefSource: true, RefTarget: true}}
}

// OutputContext returns a Context for top-level output values, where
// neither SELF nor get_attribute's SELF shorthand is legal (spec.md §8
// seed scenario: get_attribute with SELF in an output is a static error).
func OutputContext(v version.Version, validate bool) Context {
	return Context{Version: v, ValidateVersion: validate, AllowedRefs: map[NodeRef]bool{}}
}

// Parse recursively walks raw, replacing every function literal with a
// *Function AST node, and returns the resulting tree. Non-function maps
// and lists are walked structurally; scalars are returned unchanged.
func Parse(ctx Context, path string, raw any) (any, error) {
	if kind, ok := IsFunctionLiteral(raw); ok {
		m := raw.(map[string]any)
		var arg any
		for _, v := range m {
			arg = v
		}
		return parseFunction(ctx, path, kind, arg)
	}

	switch v := raw.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			parsed, err := Parse(ctx, path+"."+k, val)
			if err != nil {
				return nil, err
			}
			out[k] = parsed
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			parsed, err := Parse(ctx, fmt.Sprintf("%s[%d]", path, i), val)
			if err != nil {
				return nil, err
			}
			out[i] = parsed
		}
		return out, nil
	default:
		return raw, nil
	}
}

func parseFunction(ctx Context, path string, kind Kind, arg any) (*Function, error) {
	switch kind {
	case KindGetInput:
		return parseGetInput(ctx, path, arg)
	case KindGetProperty:
		return parseNodeRefFunction(ctx, path, kind, arg, true)
	case KindGetAttribute:
		return parseNodeRefFunction(ctx, path, kind, arg, true)
	case KindGetSecret:
		return parseGetSecret(ctx, path, arg)
	case KindGetCapability, KindGetGroupCapability:
		return parseCapability(ctx, path, kind, arg)
	case KindConcat:
		return parseConcat(ctx, path, arg)
	case KindMerge:
		return parseMerge(ctx, path, arg)
	default:
		return nil, &dslerrors.FunctionValidationError{Path: path, Message: fmt.Sprintf("unknown function %q", kind)}
	}
}

func parseGetInput(ctx Context, path string, arg any) (*Function, error) {
	switch arg.(type) {
	case []any:
		return nil, &dslerrors.FunctionValidationError{Path: path, Message: "get_input takes a single argument, not a list"}
	}
	if m, ok := arg.(map[string]any); ok {
		if _, isFn := IsFunctionLiteral(m); !isFn {
			return nil, &dslerrors.FunctionValidationError{Path: path, Message: "get_input argument must be a scalar input name or a function"}
		}
	}
	parsed, err := Parse(ctx, path+".get_input", arg)
	if err != nil {
		return nil, err
	}
	return &Function{Kind: KindGetInput, Path: path, Args: []any{parsed}}, nil
}

// parseNodeRefFunction handles get_property and get_attribute, both shaped
// [node_ref, path_step, ...].
func parseNodeRefFunction(ctx Context, path string, kind Kind, arg any, allowChainedSteps bool) (*Function, error) {
	list, ok := arg.([]any)
	if !ok {
		return nil, &dslerrors.FunctionValidationError{Path: path, Message: fmt.Sprintf("%s expects a list [node_ref, path...]", kind)}
	}
	if len(list) < 1 {
		return nil, &dslerrors.FunctionValidationError{Path: path, Message: fmt.Sprintf("%s requires at least a node reference", kind)}
	}
	ref, ok := list[0].(string)
	if !ok {
		return nil, &dslerrors.FunctionValidationError{Path: path, Message: fmt.Sprintf("%s: first argument (node reference) must be statically resolvable", kind)}
	}
	if err := validateNodeRef(ctx, path, kind, ref); err != nil {
		return nil, err
	}

	args := make([]any, 0, len(list))
	args = append(args, ref)
	for i, step := range list[1:] {
		var parsed any
		var err error
		if allowChainedSteps {
			parsed, err = Parse(ctx, fmt.Sprintf("%s[%d]", path, i+1), step)
		} else {
			parsed = step
		}
		if err != nil {
			return nil, err
		}
		args = append(args, parsed)
	}
	return &Function{Kind: kind, Path: path, Args: args}, nil
}

func validateNodeRef(ctx Context, path string, kind Kind, ref string) error {
	switch NodeRef(ref) {
	case RefSelf, RefSource, RefTarget:
		if !ctx.AllowedRefs[NodeRef(ref)] {
			return &dslerrors.FunctionValidationError{
				Path:    path,
				Message: fmt.Sprintf("%s cannot be used with %s function in %s", ref, kind, contextName(path)),
			}
		}
	default:
		// An explicit node template name; always legal, resolved at
		// evaluation time against the blueprint's node templates.
	}
	return nil
}

// contextName renders the full dotted path for the "SELF cannot be
// used with get_attribute function in outputs.<name>.value" style message
// from spec.md §8.
func contextName(path string) string {
	return path
}

func parseGetSecret(ctx Context, path string, arg any) (*Function, error) {
	switch v := arg.(type) {
	case string:
		return &Function{Kind: KindGetSecret, Path: path, Args: []any{v}}, nil
	case []any:
		if len(v) == 0 {
			return nil, &dslerrors.FunctionValidationError{Path: path, Message: "get_secret list form must not be empty"}
		}
		if len(v) < 2 {
			return nil, &dslerrors.FunctionValidationError{Path: path, Message: "get_secret list form requires a secret id and at least one nested path step"}
		}
		args := make([]any, 0, len(v))
		for i, elem := range v {
			if _, isFn := IsFunctionLiteral(elem); isFn {
				parsed, err := Parse(ctx, fmt.Sprintf("%s[%d]", path, i), elem)
				if err != nil {
					return nil, err
				}
				args = append(args, parsed)
				continue
			}
			switch elem.(type) {
			case map[string]any, []any:
				return nil, &dslerrors.FunctionValidationError{Path: fmt.Sprintf("%s[%d]", path, i), Message: "get_secret list elements may not be structured values"}
			default:
				args = append(args, elem)
			}
		}
		return &Function{Kind: KindGetSecret, Path: path, Args: args}, nil
	default:
		return nil, &dslerrors.FunctionValidationError{Path: path, Message: "get_secret expects a scalar id or a list [id, path...]"}
	}
}

func parseCapability(ctx Context, path string, kind Kind, arg any) (*Function, error) {
	list, ok := arg.([]any)
	if !ok {
		return nil, &dslerrors.FunctionValidationError{Path: path, Message: fmt.Sprintf("%s expects a list of at least 2 scalar elements", kind)}
	}
	if len(list) < 2 {
		return nil, &dslerrors.FunctionValidationError{Path: path, Message: fmt.Sprintf("%s expects a list of at least 2 scalar elements", kind)}
	}
	args := make([]any, 0, len(list))
	for i, elem := range list {
		switch elem.(type) {
		case map[string]any, []any:
			return nil, &dslerrors.FunctionValidationError{Path: fmt.Sprintf("%s[%d]", path, i), Message: fmt.Sprintf("%s elements must be scalar", kind)}
		default:
			args = append(args, elem)
		}
	}
	return &Function{Kind: kind, Path: path, Args: args}, nil
}

func parseConcat(ctx Context, path string, arg any) (*Function, error) {
	list, ok := arg.([]any)
	if !ok {
		return nil, &dslerrors.FunctionValidationError{Path: path, Message: "concat expects a list"}
	}
	if err := version.Gate(ctx.Version, version.Concat, "concat", path, ctx.ValidateVersion); err != nil {
		return nil, err
	}
	args := make([]any, 0, len(list))
	for i, elem := range list {
		parsed, err := Parse(ctx, fmt.Sprintf("%s[%d]", path, i), elem)
		if err != nil {
			return nil, err
		}
		args = append(args, parsed)
	}
	return &Function{Kind: KindConcat, Path: path, Args: args}, nil
}

func parseMerge(ctx Context, path string, arg any) (*Function, error) {
	list, ok := arg.([]any)
	if !ok {
		return nil, &dslerrors.FunctionValidationError{Path: path, Message: "merge expects a list of maps"}
	}
	if err := version.Gate(ctx.Version, version.Merge, "merge", path, ctx.ValidateVersion); err != nil {
		return nil, err
	}
	args := make([]any, 0, len(list))
	for i, elem := range list {
		if _, isFn := IsFunctionLiteral(elem); isFn {
			parsed, err := Parse(ctx, fmt.Sprintf("%s[%d]", path, i), elem)
			if err != nil {
				return nil, err
			}
			args = append(args, parsed)
			continue
		}
		if _, ok := elem.(map[string]any); !ok {
			return nil, &dslerrors.FunctionValidationError{Path: fmt.Sprintf("%s[%d]", path, i), Message: "merge list elements must be maps"}
		}
		parsed, err := Parse(ctx, fmt.Sprintf("%s[%d]", path, i), elem)
		if err != nil {
			return nil, err
		}
		args = append(args, parsed)
	}
	log.Debugf("parsed merge at %s with %d argument(s)", path, len(args))
	return &Function{Kind: KindMerge, Path: path, Args: args}, nil
}

// ContainsFunction reports whether raw (already Parse'd) still contains an
// unresolved *Function anywhere in its tree — used to compute
// has_intrinsic_functions (spec.md §3 invariant).
func ContainsFunction(raw any) bool {
	switch v := raw.(type) {
	case *Function:
		return true
	case map[string]any:
		for _, val := range v {
			if ContainsFunction(val) {
				return true
			}
		}
	case []any:
		for _, val := range v {
			if ContainsFunction(val) {
				return true
			}
		}
	}
	return false
}
