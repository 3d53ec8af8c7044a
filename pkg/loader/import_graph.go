package loader

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/bpforge/blueprint/pkg/logger"
	"golang.org/x/sync/errgroup"
)

var importLog = logger.New("loader:import")

// importTrace emits structured, machine-readable import-graph traces
// (uri/depth/count fields) alongside importLog's human-readable lines, for
// callers piping diagnostics into a log aggregator.
var importTrace = logger.NewStructured("loader:import")

// rawDoc is one decoded YAML document in the import graph, before any
// section merging has happened.
type rawDoc struct {
	URI      string
	Dir      string
	Sections map[string]any
}

// frontierItem is one import still to be resolved and read.
type frontierItem struct {
	spec string // as written in the importing document
	dir  string // directory the spec is relative to
}

// buildImportGraph performs a breadth-first walk of the import DAG rooted
// at root, tolerating cycles by never re-reading an already-visited URI
// (spec.md §4.2: "cycles are tolerated (skip re-import of already-visited
// uri); diamond imports yield a single merged image"). It returns the
// imported documents in BFS discovery order; the caller appends root to
// the end of that list so root's scalar values win ties during merge.
func buildImportGraph(root *rawDoc, resourcesBasePath string, maxDepth int) ([]*rawDoc, error) {
	visited := map[string]bool{}
	if root.URI != "" {
		visited[normalizeURI(root.URI)] = true
	}

	var ordered []*rawDoc
	frontier, err := importSpecsOf(root)
	if err != nil {
		return nil, err
	}
	items := make([]frontierItem, 0, len(frontier))
	for _, spec := range frontier {
		items = append(items, frontierItem{spec: spec, dir: root.Dir})
	}

	depth := 0
	for len(items) > 0 {
		depth++
		if maxDepth > 0 && depth > maxDepth {
			return nil, fmt.Errorf("import graph exceeds max depth %d (possible runaway import chain)", maxDepth)
		}

		// Resolve + dedupe this frontier level before reading, so diamond
		// imports discovered at the same level only get read once.
		type resolved struct {
			uri string
			dir string
		}
		var toRead []resolved
		for _, it := range items {
			uri, err := resolveImportURI(it.spec, it.dir, resourcesBasePath)
			if err != nil {
				return nil, err
			}
			key := normalizeURI(uri)
			if visited[key] {
				importLog.Debugf("skipping already-visited import %s", uri)
				continue
			}
			visited[key] = true
			toRead = append(toRead, resolved{uri: uri, dir: filepath.Dir(uri)})
		}

		importTrace.Debugw("resolving import frontier", "depth", depth, "count", len(toRead))

		docs := make([]*rawDoc, len(toRead))
		g, _ := errgroup.WithContext(context.Background())
		for i, r := range toRead {
			i, r := i, r
			g.Go(func() error {
				data, err := readFile(r.uri)
				if err != nil {
					return fmt.Errorf("reading import %s: %w", r.uri, err)
				}
				sections, err := decodeYAML(r.uri, data)
				if err != nil {
					return err
				}
				docs[i] = &rawDoc{URI: r.uri, Dir: r.dir, Sections: sections}
				importTrace.Debugw("read import document", "uri", r.uri, "depth", depth, "sections", len(sections))
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		var next []frontierItem
		for _, doc := range docs {
			ordered = append(ordered, doc)
			specs, err := importSpecsOf(doc)
			if err != nil {
				return nil, err
			}
			for _, spec := range specs {
				next = append(next, frontierItem{spec: spec, dir: doc.Dir})
			}
		}
		items = next
	}

	return ordered, nil
}

// importSpecsOf extracts the "imports" list of a raw document, each entry
// a plain path or file:// URI string.
func importSpecsOf(doc *rawDoc) ([]string, error) {
	raw, ok := doc.Sections["imports"]
	if !ok || raw == nil {
		return nil, nil
	}
	list, err := asList(doc.URI+".imports", raw)
	if err != nil {
		return nil, err
	}
	specs := make([]string, 0, len(list))
	for i, item := range list {
		s, err := asString(fmt.Sprintf("%s.imports[%d]", doc.URI, i), item)
		if err != nil {
			return nil, err
		}
		specs = append(specs, s)
	}
	return specs, nil
}
