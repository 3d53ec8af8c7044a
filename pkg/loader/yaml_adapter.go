// Package loader implements the merged-document loader: multi-file import
// graph resolution, version gating, and per-section merge semantics
// (spec.md §4.2). It wraps goccy/go-yaml, which expands anchors (&a) and
// merge keys (<<: *a) during Unmarshal per the YAML 1.1 spec before any of
// this package's section-merge logic ever runs, matching the teacher's use
// of the same library in pkg/parser/yaml_error.go.
package loader

import (
	"fmt"

	"github.com/bpforge/blueprint/pkg/dslerrors"
	"github.com/bpforge/blueprint/pkg/logger"
	"github.com/goccy/go-yaml"
)

var yamlLog = logger.New("loader:yaml")

// decodeYAML decodes raw YAML bytes into a generic document, relying on
// goccy/go-yaml to expand anchors/aliases/merge-keys. On failure the error
// is wrapped with yaml.FormatError source context the way the teacher's
// FormatYAMLError does, so callers get a line/column-annotated message.
func decodeYAML(path string, data []byte) (map[string]any, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		yamlLog.Debugf("yaml decode failed for %s: %v", path, err)
		formatted := yaml.FormatError(err, false, true)
		return nil, &dslerrors.FormatError{
			Path:    path,
			Message: fmt.Sprintf("invalid YAML: %s", formatted),
			Cause:   err,
		}
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

// asMap asserts v is a map[string]any, producing a breadcrumbed FormatError
// otherwise. Section decoders use this pervasively since every section of
// the document is dynamically shaped YAML.
func asMap(path string, v any) (map[string]any, error) {
	if v == nil {
		return map[string]any{}, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, &dslerrors.FormatError{Path: path, Message: fmt.Sprintf("expected a mapping, got %T", v)}
	}
	return m, nil
}

// asList asserts v is a []any.
func asList(path string, v any) ([]any, error) {
	if v == nil {
		return nil, nil
	}
	l, ok := v.([]any)
	if !ok {
		return nil, &dslerrors.FormatError{Path: path, Message: fmt.Sprintf("expected a list, got %T", v)}
	}
	return l, nil
}

// asString asserts v is a string.
func asString(path string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", &dslerrors.FormatError{Path: path, Message: fmt.Sprintf("expected a string, got %T", v)}
	}
	return s, nil
}
