package functions

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"dario.cat/mergo"
	"github.com/tidwall/gjson"

	"github.com/bpforge/blueprint/pkg/dslerrors"
	"github.com/bpforge/blueprint/pkg/logger"
	"github.com/bpforge/blueprint/pkg/storage"
)

var evalLog = logger.New("functions:evaluator")

// DefaultRecursionLimit bounds function-evaluation descent depth. There is
// no cycle detection over a reference graph; a circular get_property chain
// simply drives the call stack past this bound (spec.md §4.7, §9).
const DefaultRecursionLimit = 1000

// EvalContext carries the SELF/SOURCE/TARGET node-id bindings in effect at
// the point being evaluated. A zero value context has none bound, which is
// correct for output values (spec.md §3: SELF/SOURCE/TARGET are illegal in
// outputs).
type EvalContext struct {
	Self   string
	Source string
	Target string
}

// Evaluator resolves a Parse'd expression tree. Inputs and NodeProperties
// back the static phase; Storage is nil during plan preparation and
// supplied during post-instantiation runtime evaluation, at which point
// get_attribute/get_capability/get_group_capability become resolvable
// (spec.md §4.7).
type Evaluator struct {
	// Inputs holds the blueprint's resolved input values, keyed by name.
	Inputs map[string]any

	// NodeProperties returns the (possibly still-functional) property tree
	// declared on the node template named nodeID.
	NodeProperties func(nodeID string) (map[string]any, bool)

	// Secrets fetches a secret's raw string value. nil disables get_secret
	// resolution entirely (every get_secret stays deferred).
	Secrets storage.SecretStore

	// Storage exposes post-instantiation state. nil during static
	// evaluation; get_attribute/get_capability/get_group_capability are
	// left as unresolved *Function nodes until it is supplied.
	Storage storage.InstanceStore

	// RecursionLimit overrides DefaultRecursionLimit when non-zero.
	RecursionLimit int

	secretCache map[string]string
}

func (e *Evaluator) limit() int {
	if e.RecursionLimit > 0 {
		return e.RecursionLimit
	}
	return DefaultRecursionLimit
}

// PreloadSecrets walks every root, collects every statically-named
// get_secret id, and fetches them all up front so that missing ones are
// reported together as a single UnknownSecretError rather than one at a
// time (spec.md §4.7, §7 testable properties).
func (e *Evaluator) PreloadSecrets(roots ...any) error {
	ids := map[string]bool{}
	var collect func(v any)
	collect = func(v any) {
		switch t := v.(type) {
		case *Function:
			if t.Kind == KindGetSecret {
				if len(t.Args) > 0 {
					if id, ok := t.Args[0].(string); ok {
						ids[id] = true
					}
				}
			}
			for _, a := range t.Args {
				collect(a)
			}
		case map[string]any:
			for _, val := range t {
				collect(val)
			}
		case []any:
			for _, val := range t {
				collect(val)
			}
		}
	}
	for _, r := range roots {
		collect(r)
	}
	if len(ids) == 0 {
		return nil
	}

	if e.secretCache == nil {
		e.secretCache = map[string]string{}
	}
	var missing []string
	for id := range ids {
		val, err := e.fetchSecretRaw(id)
		if err != nil {
			if storage.IsNotFound(err) {
				missing = append(missing, id)
				continue
			}
			return err
		}
		e.secretCache[id] = val
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		evalLog.Debugf("unresolved secrets: %v", missing)
		return &dslerrors.UnknownSecretError{SecretIDs: missing}
	}
	return nil
}

func (e *Evaluator) fetchSecretRaw(id string) (string, error) {
	if e.Secrets == nil {
		return "", &storage.NotFoundError{ID: id}
	}
	return e.Secrets.GetSecret(id)
}

func (e *Evaluator) fetchSecret(id, path string) (string, error) {
	if v, ok := e.secretCache[id]; ok {
		return v, nil
	}
	v, err := e.fetchSecretRaw(id)
	if err != nil {
		if storage.IsNotFound(err) {
			return "", &dslerrors.UnknownSecretError{SecretIDs: []string{id}}
		}
		return "", &dslerrors.FunctionEvaluationError{Path: path, Message: err.Error()}
	}
	if e.secretCache == nil {
		e.secretCache = map[string]string{}
	}
	e.secretCache[id] = v
	return v, nil
}

// depthCounter bounds recursive descent and remembers the breadcrumb of the
// last function node entered, so a tripped limit can report where it
// happened (e.g. "node_templates.n.properties.a.get_property[0]") instead
// of an unlocated error.
type depthCounter struct {
	n    int
	path string
}

// Evaluate walks value (the result of a prior Parse call), resolving every
// *Function node it can given the current phase's collaborators, and
// returns the reduced tree. Sub-trees that can't yet be resolved — because
// they depend on runtime state not yet supplied — are returned unchanged,
// still carrying their *Function nodes, for a later Evaluate call once
// Storage is populated.
func (e *Evaluator) Evaluate(ctx EvalContext, value any) (any, error) {
	return e.eval(ctx, value, &depthCounter{})
}

func (e *Evaluator) eval(ctx EvalContext, value any, depth *depthCounter) (any, error) {
	depth.n++
	defer func() { depth.n-- }()
	if depth.n > e.limit() {
		return nil, &dslerrors.RecursionLimitError{Path: depth.path, Limit: e.limit()}
	}

	switch v := value.(type) {
	case *Function:
		depth.path = fmt.Sprintf("%s.%s[0]", v.Path, v.Kind)
		return e.evalFunction(ctx, v, depth)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			r, err := e.eval(ctx, val, depth)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			r, err := e.eval(ctx, val, depth)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	default:
		return value, nil
	}
}

func (e *Evaluator) evalFunction(ctx EvalContext, fn *Function, depth *depthCounter) (any, error) {
	switch fn.Kind {
	case KindGetInput:
		return e.evalGetInput(ctx, fn, depth)
	case KindGetProperty:
		return e.evalGetProperty(ctx, fn, depth)
	case KindGetAttribute:
		return e.evalGetAttribute(ctx, fn, depth)
	case KindGetSecret:
		return e.evalGetSecret(ctx, fn, depth)
	case KindGetCapability:
		return e.evalCapability(ctx, fn, depth, false)
	case KindGetGroupCapability:
		return e.evalCapability(ctx, fn, depth, true)
	case KindConcat:
		return e.evalConcat(ctx, fn, depth)
	case KindMerge:
		return e.evalMerge(ctx, fn, depth)
	default:
		return nil, &dslerrors.FunctionEvaluationError{Path: fn.Path, Message: fmt.Sprintf("unhandled function kind %q", fn.Kind)}
	}
}

func (e *Evaluator) evalGetInput(ctx EvalContext, fn *Function, depth *depthCounter) (any, error) {
	resolved, err := e.eval(ctx, fn.Args[0], depth)
	if err != nil {
		return nil, err
	}
	name, ok := resolved.(string)
	if !ok {
		if ContainsFunction(resolved) {
			return nil, &dslerrors.FunctionEvaluationError{Path: fn.Path, Message: "get_input: argument is an unresolved function"}
		}
		return fn, nil
	}
	val, ok := e.Inputs[name]
	if !ok {
		return nil, &dslerrors.FunctionEvaluationError{Path: fn.Path, Message: fmt.Sprintf("input %q is not declared", name)}
	}
	return e.eval(ctx, val, depth)
}

func (e *Evaluator) resolveRef(ctx EvalContext, ref, path string) (string, error) {
	switch NodeRef(ref) {
	case RefSelf:
		if ctx.Self == "" {
			return "", &dslerrors.FunctionEvaluationError{Path: path, Message: "SELF is not bound in this context"}
		}
		return ctx.Self, nil
	case RefSource:
		if ctx.Source == "" {
			return "", &dslerrors.FunctionEvaluationError{Path: path, Message: "SOURCE is not bound in this context"}
		}
		return ctx.Source, nil
	case RefTarget:
		if ctx.Target == "" {
			return "", &dslerrors.FunctionEvaluationError{Path: path, Message: "TARGET is not bound in this context"}
		}
		return ctx.Target, nil
	default:
		return ref, nil
	}
}

func (e *Evaluator) evalGetProperty(ctx EvalContext, fn *Function, depth *depthCounter) (any, error) {
	nodeID, err := e.resolveRef(ctx, fn.Args[0].(string), fn.Path)
	if err != nil {
		return nil, err
	}
	props, ok := e.NodeProperties(nodeID)
	if !ok {
		return nil, &dslerrors.FunctionEvaluationError{Path: fn.Path, Message: fmt.Sprintf("node template %q does not exist", nodeID)}
	}
	steps, err := e.evalSteps(ctx, fn.Args[1:], depth)
	if err != nil {
		return nil, err
	}
	val, err := indexPath(props, steps, fn.Path)
	if err != nil {
		return nil, err
	}
	return e.eval(ctx, val, depth)
}

func (e *Evaluator) evalGetAttribute(ctx EvalContext, fn *Function, depth *depthCounter) (any, error) {
	if e.Storage == nil {
		return fn, nil
	}
	nodeID, err := e.resolveRef(ctx, fn.Args[0].(string), fn.Path)
	if err != nil {
		return nil, err
	}
	instances, err := e.Storage.GetNodeInstances(nodeID)
	if err != nil {
		return nil, &dslerrors.FunctionEvaluationError{Path: fn.Path, Message: err.Error()}
	}
	if len(instances) == 0 {
		return nil, &dslerrors.FunctionEvaluationError{Path: fn.Path, Message: fmt.Sprintf("node %q does not exist or has no instances", nodeID)}
	}
	steps, err := e.evalSteps(ctx, fn.Args[1:], depth)
	if err != nil {
		return nil, err
	}
	val, err := indexPath(instances[0].RuntimeProperties, steps, fn.Path)
	if err != nil {
		return nil, err
	}
	return e.eval(ctx, val, depth)
}

func (e *Evaluator) evalCapability(ctx EvalContext, fn *Function, depth *depthCounter, group bool) (any, error) {
	if e.Storage == nil {
		return fn, nil
	}
	ref, ok := fn.Args[0].(string)
	if !ok {
		return fn, nil
	}
	capName, ok := fn.Args[1].(string)
	if !ok {
		return fn, nil
	}
	var val any
	var err error
	if group {
		val, err = e.Storage.GetGroupCapability(ref, capName)
	} else {
		val, err = e.Storage.GetCapability(ref, capName)
	}
	if err != nil {
		return nil, &dslerrors.FunctionEvaluationError{Path: fn.Path, Message: err.Error()}
	}
	if len(fn.Args) > 2 {
		steps, serr := e.evalSteps(ctx, fn.Args[2:], depth)
		if serr != nil {
			return nil, serr
		}
		val, err = indexPath(val, steps, fn.Path)
		if err != nil {
			return nil, err
		}
	}
	return e.eval(ctx, val, depth)
}

func (e *Evaluator) evalGetSecret(ctx EvalContext, fn *Function, depth *depthCounter) (any, error) {
	if e.Secrets == nil {
		return fn, nil
	}
	idRaw, err := e.eval(ctx, fn.Args[0], depth)
	if err != nil {
		return nil, err
	}
	id, ok := idRaw.(string)
	if !ok {
		return fn, nil
	}
	raw, err := e.fetchSecret(id, fn.Path)
	if err != nil {
		return nil, err
	}
	if len(fn.Args) == 1 {
		return raw, nil
	}
	if !gjson.Valid(raw) {
		return nil, &dslerrors.FunctionEvaluationError{Path: fn.Path, Message: fmt.Sprintf("could not parse secret %q as JSON", id)}
	}
	steps, err := e.evalSteps(ctx, fn.Args[1:], depth)
	if err != nil {
		return nil, err
	}
	gpath := gjsonPath(steps)
	result := gjson.Get(raw, gpath)
	if !result.Exists() {
		return nil, &dslerrors.FunctionEvaluationError{Path: fn.Path, Message: fmt.Sprintf("path %q not found in secret %q", gpath, id)}
	}
	return result.Value(), nil
}

func (e *Evaluator) evalConcat(ctx EvalContext, fn *Function, depth *depthCounter) (any, error) {
	var sb strings.Builder
	for _, argRaw := range fn.Args {
		v, err := e.eval(ctx, argRaw, depth)
		if err != nil {
			return nil, err
		}
		if ContainsFunction(v) {
			return fn, nil
		}
		sb.WriteString(toStringValue(v))
	}
	return sb.String(), nil
}

func (e *Evaluator) evalMerge(ctx EvalContext, fn *Function, depth *depthCounter) (any, error) {
	result := map[string]any{}
	for _, argRaw := range fn.Args {
		v, err := e.eval(ctx, argRaw, depth)
		if err != nil {
			return nil, err
		}
		if ContainsFunction(v) {
			return fn, nil
		}
		m, ok := v.(map[string]any)
		if !ok {
			return nil, &dslerrors.FunctionEvaluationError{Path: fn.Path, Message: "merge argument did not resolve to a mapping"}
		}
		if err := mergo.Merge(&result, m, mergo.WithOverride); err != nil {
			return nil, &dslerrors.FunctionEvaluationError{Path: fn.Path, Message: err.Error()}
		}
	}
	return result, nil
}

func (e *Evaluator) evalSteps(ctx EvalContext, raw []any, depth *depthCounter) ([]any, error) {
	steps := make([]any, len(raw))
	for i, r := range raw {
		v, err := e.eval(ctx, r, depth)
		if err != nil {
			return nil, err
		}
		steps[i] = normalizeStep(v)
	}
	return steps, nil
}

func normalizeStep(v any) any {
	if f, ok := v.(float64); ok && f == float64(int(f)) {
		return int(f)
	}
	return v
}

// indexPath walks container by steps, each either a string (map key) or an
// int (list index).
func indexPath(container any, steps []any, path string) (any, error) {
	cur := container
	for _, step := range steps {
		switch s := step.(type) {
		case int:
			list, ok := cur.([]any)
			if !ok {
				return nil, &dslerrors.TypeError{Path: path, Want: "a list (integer index)", Got: fmt.Sprintf("%T", cur)}
			}
			if s < 0 || s >= len(list) {
				return nil, &dslerrors.IndexError{Path: path, Index: s, Len: len(list)}
			}
			cur = list[s]
		case string:
			m, ok := cur.(map[string]any)
			if !ok {
				return nil, &dslerrors.TypeError{Path: path, Want: "a mapping (string key)", Got: fmt.Sprintf("%T", cur)}
			}
			val, ok := m[s]
			if !ok {
				return nil, &dslerrors.KeyError{Path: path, Key: s}
			}
			cur = val
		default:
			return nil, &dslerrors.TypeError{Path: path, Want: "a string or integer path step", Got: fmt.Sprintf("%T", step)}
		}
	}
	return cur, nil
}

func gjsonPath(steps []any) string {
	parts := make([]string, len(steps))
	for i, s := range steps {
		switch v := s.(type) {
		case int:
			parts[i] = strconv.Itoa(v)
		default:
			parts[i] = fmt.Sprintf("%v", v)
		}
	}
	return strings.Join(parts, ".")
}

func toStringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	case bool:
		if t {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}
