package loader

import (
	"path/filepath"

	"github.com/bpforge/blueprint/pkg/dslerrors"
	"github.com/bpforge/blueprint/pkg/logger"
	"github.com/bpforge/blueprint/pkg/model"
	"github.com/bpforge/blueprint/pkg/schema"
	"github.com/bpforge/blueprint/pkg/version"
)

var loaderLog = logger.New("loader:loader")

// Options configures a single parse call (spec.md §6 entry points).
type Options struct {
	ResourcesBasePath string
	ValidateVersion   bool
	MaxImportDepth    int
	DSLVersion        string // fallback if the document itself omits tosca_definitions_version
	BaseDir           string // directory imports in the root document resolve against
}

// Option mutates Options; functional-options style, matching the way the
// teacher threads optional compiler configuration through its workflow
// compiler constructors.
type Option func(*Options)

// WithResourcesBasePath sets the fallback base path for import resolution.
func WithResourcesBasePath(path string) Option {
	return func(o *Options) { o.ResourcesBasePath = path }
}

// WithValidateVersion toggles version-gate enforcement (default true).
func WithValidateVersion(validate bool) Option {
	return func(o *Options) { o.ValidateVersion = validate }
}

// WithMaxImportDepth overrides the import-DAG depth bound (default 200,
// per spec.md §5's recommendation).
func WithMaxImportDepth(depth int) Option {
	return func(o *Options) { o.MaxImportDepth = depth }
}

// WithDSLVersion supplies a version to use when the document itself omits
// tosca_definitions_version.
func WithDSLVersion(v string) Option {
	return func(o *Options) { o.DSLVersion = v }
}

func defaultOptions() Options {
	return Options{ValidateVersion: true, MaxImportDepth: 200}
}

// Parse parses blueprint text with no import base directory: imports must
// be absolute, file:// URIs, or resolvable via WithResourcesBasePath
// (spec.md §6, `parse`).
func Parse(text string, opts ...Option) (*model.Blueprint, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return load(text, "", o)
}

// ParseFromPath parses the blueprint at path, resolving imports relative to
// its directory (spec.md §6, `parse_from_path`).
func ParseFromPath(path string, opts ...Option) (*model.Blueprint, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.BaseDir == "" {
		o.BaseDir = filepath.Dir(path)
	}
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return load(string(data), path, o)
}

func load(text string, rootURI string, o Options) (*model.Blueprint, error) {
	rootSections, err := decodeYAML(rootURI, []byte(text))
	if err != nil {
		return nil, err
	}

	v, err := resolveVersion(rootSections, o)
	if err != nil {
		return nil, err
	}

	root := &rawDoc{URI: rootURI, Dir: o.BaseDir, Sections: rootSections}
	importDocs, err := buildImportGraph(root, o.ResourcesBasePath, o.MaxImportDepth)
	if err != nil {
		return nil, err
	}
	docs := append(importDocs, root)

	loaderLog.Printf("merging %d document(s) (%d import(s))", len(docs), len(importDocs))

	merged, err := mergeDocuments(docs, v, o.ValidateVersion)
	if err != nil {
		return nil, err
	}

	if err := schema.ValidateDocumentShape(documentShape(merged)); err != nil {
		return nil, err
	}

	hint := extractSectionKeyOrder([]byte(text), "node_templates")
	return decodeBlueprint(merged, v, hint)
}

func resolveVersion(rootSections map[string]any, o Options) (version.Version, error) {
	token, ok := rootSections["tosca_definitions_version"].(string)
	if !ok || token == "" {
		if o.DSLVersion != "" {
			return version.Parse(o.DSLVersion)
		}
		if !o.ValidateVersion {
			return version.Version{}, nil
		}
		return version.Version{}, &dslerrors.FormatError{
			Path:    "tosca_definitions_version",
			Message: "missing required field 'tosca_definitions_version'",
		}
	}
	v, err := version.Parse(token)
	if err != nil && !o.ValidateVersion {
		return version.Version{}, nil
	}
	return v, err
}
