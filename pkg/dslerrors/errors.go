// Package dslerrors defines the typed error taxonomy raised by the
// loader, type resolver, schema validator, and function evaluator.
// Every error carries a dotted breadcrumb locating the offending
// expression in the source document, per spec.md §6.
package dslerrors

import "fmt"

// FormatError reports a structural/schema problem in the source document:
// a missing required field, an operation in the wrong shape, an
// unparsable YAML document. Corresponds to DSLParsingFormatException.
type FormatError struct {
	Path    string
	Message string
	Cause   error
}

func (e *FormatError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *FormatError) Unwrap() error { return e.Cause }

// LogicError reports a semantic violation discovered after structural
// parsing: a non-mergeable import collision, an unknown derived_from
// target, a duplicate type name across imports. Corresponds to
// DSLParsingLogicException.
type LogicError struct {
	Path    string
	Message string
	Cause   error
}

func (e *LogicError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *LogicError) Unwrap() error { return e.Cause }

// FunctionValidationError reports an intrinsic-function arity/shape/version
// misuse caught by the function parser, e.g. get_secret given a structured
// list element, or concat used below DSL version 1.1.0.
type FunctionValidationError struct {
	Path    string
	Message string
}

func (e *FunctionValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// FunctionEvaluationError reports a runtime-impossible evaluation: an
// unresolved argument passed to get_input, a secret value that can't be
// parsed as JSON when a nested path is requested.
type FunctionEvaluationError struct {
	Path    string
	Message string
}

func (e *FunctionEvaluationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// UnknownSecretError aggregates every get_secret id that could not be
// resolved during static evaluation, reported together rather than on
// first failure.
type UnknownSecretError struct {
	SecretIDs []string
}

func (e *UnknownSecretError) Error() string {
	return fmt.Sprintf("Required secrets: %v don't exist in the secret store", e.SecretIDs)
}

// RecursionLimitError reports that function evaluation descended past the
// configured recursion bound, almost always a circular get_property/
// get_attribute reference.
type RecursionLimitError struct {
	Path  string
	Limit int
}

func (e *RecursionLimitError) Error() string {
	return fmt.Sprintf("%s: evaluation recursion limit (%d) reached, possible circular function reference", e.Path, e.Limit)
}

// KeyError reports a missing map key while indexing a nested-path step.
type KeyError struct {
	Path string
	Key  string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("%s: key %q not found", e.Path, e.Key)
}

// IndexError reports an out-of-range list index while indexing a
// nested-path step.
type IndexError struct {
	Path  string
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s: index %d out of range (length %d)", e.Path, e.Index, e.Len)
}

// TypeError reports a step of the wrong kind applied to a value, e.g. a
// string key applied to a list.
type TypeError struct {
	Path string
	Want string
	Got  string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Path, e.Want, e.Got)
}
