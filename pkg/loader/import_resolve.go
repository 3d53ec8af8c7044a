package loader

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// resolveImportURI resolves a single import string against the importing
// document's directory and the optional resources base path, following
// the precedence order of spec.md §4.2: absolute URI > file URI
// (file:///...) > path relative to the importing document > path relative
// to resourcesBasePath.
func resolveImportURI(importPath, importingDir, resourcesBasePath string) (string, error) {
	if importPath == "" {
		return "", fmt.Errorf("empty import path")
	}

	if u, err := url.Parse(importPath); err == nil && u.Scheme == "file" {
		return filepath.Clean(u.Path), nil
	}

	if filepath.IsAbs(importPath) {
		return filepath.Clean(importPath), nil
	}

	if importingDir != "" {
		candidate := filepath.Clean(filepath.Join(importingDir, importPath))
		if fileExists(candidate) {
			return candidate, nil
		}
	}

	if resourcesBasePath != "" {
		candidate := filepath.Clean(filepath.Join(resourcesBasePath, importPath))
		return candidate, nil
	}

	// No resources_base_path configured and the file wasn't found relative
	// to the importing document: still resolve relative to importingDir so
	// the caller gets a meaningful "file not found" error at read time
	// rather than a silently wrong absolute path.
	if importingDir != "" {
		return filepath.Clean(filepath.Join(importingDir, importPath)), nil
	}
	return filepath.Clean(importPath), nil
}

// normalizeURI canonicalizes a resolved import URI for use as a visited-set
// key, so that "a/../a/x.yaml" and "a/x.yaml" dedupe to the same import.
func normalizeURI(uri string) string {
	return filepath.Clean(strings.TrimPrefix(uri, "file://"))
}
