package loader

import (
	"regexp"
	"sort"
	"strings"
)

// topLevelKeyPattern matches a mapping key at the start of a line, with its
// leading indentation captured separately.
var topLevelKeyPattern = regexp.MustCompile(`^(\s*)(["']?)([^:"'#\s][^:#]*?)(["']?)\s*:`)

// extractSectionKeyOrder scans raw YAML text for the given top-level
// section and returns the order in which its immediate child keys appear
// in the source. This is a line-oriented heuristic rather than a full AST
// walk: it is enough to satisfy spec.md §5's "node list... preserve
// source order" guarantee for the overwhelmingly common case of a single,
// conventionally-indented blueprint file, and degrades gracefully (empty
// result) for anything it cannot confidently parse, letting callers fall
// back to a deterministic sorted order instead of Go's randomized map
// iteration.
func extractSectionKeyOrder(yamlText []byte, section string) []string {
	lines := strings.Split(string(yamlText), "\n")

	sectionLine := -1
	for i, line := range lines {
		m := topLevelKeyPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		indent, key := m[1], m[3]
		if indent == "" && key == section {
			sectionLine = i
			break
		}
	}
	if sectionLine == -1 {
		return nil
	}

	childIndent := -1
	var order []string
	for i := sectionLine + 1; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			continue
		}
		m := topLevelKeyPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		indent, key := len(m[1]), m[3]
		if childIndent == -1 {
			if indent == 0 {
				// Section had no children (empty mapping).
				break
			}
			childIndent = indent
		}
		if indent < childIndent {
			break
		}
		if indent == childIndent {
			order = append(order, key)
		}
	}
	return order
}

// orderKeys returns the keys of present sorted first by hint order (for
// hints that name a present key), then alphabetically for any remaining
// keys, guaranteeing a fully deterministic result regardless of Go's
// randomized map iteration.
func orderKeys(present map[string]any, hint []string) []string {
	seen := make(map[string]bool, len(present))
	order := make([]string, 0, len(present))
	for _, k := range hint {
		if _, ok := present[k]; ok && !seen[k] {
			order = append(order, k)
			seen[k] = true
		}
	}
	var rest []string
	for k := range present {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}
