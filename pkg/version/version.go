// Package version implements the tosca_definitions_version gate: parsing
// and ordering "cloudify_dsl_<M>_<m>[_<p>]" tokens and gating individual
// features by a minimum version.
package version

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bpforge/blueprint/pkg/dslerrors"
	"github.com/bpforge/blueprint/pkg/logger"
)

var log = logger.New("version:gate")

const prefix = "cloudify_dsl_"

// Version is a parsed (major, minor, micro) triple.
type Version struct {
	Major int
	Minor int
	Micro int
}

// Min versions for gated features, per spec.md §4.1.
var (
	Concat           = Version{1, 1, 0}
	Merge            = Version{1, 3, 0}
	ImportMergeExtra = Version{1, 3, 0} // inputs/node_templates/outputs/policy_types/policy_triggers/groups
)

// Parse parses a "cloudify_dsl_<M>_<m>[_<p>]" token.
func Parse(token string) (Version, error) {
	token = strings.TrimSpace(token)
	if !strings.HasPrefix(token, prefix) {
		return Version{}, &dslerrors.FormatError{
			Path:    "tosca_definitions_version",
			Message: fmt.Sprintf("unsupported version token %q: must start with %q", token, prefix),
		}
	}
	rest := strings.TrimPrefix(token, prefix)
	parts := strings.Split(rest, "_")
	if len(parts) < 2 || len(parts) > 3 {
		return Version{}, &dslerrors.FormatError{
			Path:    "tosca_definitions_version",
			Message: fmt.Sprintf("unsupported version token %q: expected <major>_<minor>[_<micro>]", token),
		}
	}
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Version{}, &dslerrors.FormatError{
				Path:    "tosca_definitions_version",
				Message: fmt.Sprintf("unsupported version token %q: non-numeric component %q", token, p),
			}
		}
		nums[i] = n
	}
	v := Version{Major: nums[0], Minor: nums[1]}
	if len(nums) == 3 {
		v.Micro = nums[2]
	}
	log.Debugf("parsed version token %q as %+v", token, v)
	return v, nil
}

// Compare returns -1, 0, or 1 as a is less than, equal to, or greater than b,
// ordered lexicographically on (Major, Minor, Micro).
func Compare(a, b Version) int {
	if a.Major != b.Major {
		return cmp(a.Major, b.Major)
	}
	if a.Minor != b.Minor {
		return cmp(a.Minor, b.Minor)
	}
	return cmp(a.Micro, b.Micro)
}

func cmp(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether v satisfies the minimum requirement min.
func AtLeast(v, min Version) bool {
	return Compare(v, min) >= 0
}

// String renders a Version back to its canonical token form.
func (v Version) String() string {
	if v.Micro == 0 {
		return fmt.Sprintf("%s%d_%d", prefix, v.Major, v.Minor)
	}
	return fmt.Sprintf("%s%d_%d_%d", prefix, v.Major, v.Minor, v.Micro)
}

// Gate validates that a feature requiring min is permitted under v. When
// validate is false the gate is bypassed entirely (parse still proceeds).
func Gate(v Version, min Version, feature, path string, validate bool) error {
	if !validate {
		return nil
	}
	if !AtLeast(v, min) {
		return &dslerrors.FunctionValidationError{
			Path:    path,
			Message: fmt.Sprintf("%s requires tosca_definitions_version >= %s, got %s", feature, min, v),
		}
	}
	return nil
}
