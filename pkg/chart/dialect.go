package chart

import (
	"strings"

	"github.com/vegakit/vegasave/pkg/errors"
)

// vegaOnlyKeys are top-level properties that appear in vega specs but never
// as a full set in vega-lite specs. A single match is treated as sufficient
// evidence for the vega dialect; this deliberately coarse heuristic is part
// of the inference contract and must not be re-weighted.
var vegaOnlyKeys = []string{"axes", "legends", "marks", "projections", "scales", "signals"}

// InferDialect determines whether a spec is vega or vega-lite.
//
// It checks, in priority order:
//  1. A $schema string containing "/vega-lite/" or "/vega/".
//  2. The presence of any vega-only top-level key.
//  3. A fixed vega-lite default.
//
// The function is total: it returns a dialect for any spec, including nil.
func InferDialect(spec Spec) string {
	if schema, ok := spec["$schema"]; ok {
		if s, ok := schema.(string); ok {
			if strings.Contains(s, "/vega-lite/") {
				return DialectVegaLite
			}
			if strings.Contains(s, "/vega/") {
				return DialectVega
			}
		}
	}

	for _, key := range vegaOnlyKeys {
		if _, ok := spec[key]; ok {
			return DialectVega
		}
	}

	return DialectVegaLite
}

// ValidateMode checks that a mode names one of the two dialects.
func ValidateMode(mode string) error {
	if mode != DialectVega && mode != DialectVegaLite {
		return errors.New(errors.ErrCodeInvalidMode,
			"invalid mode %q (must be vega or vega-lite)", mode)
	}
	return nil
}

// ExtractFormat infers an output format from a file name. The dialect JSON
// conventions are checked first: ".vg.json" means vega and any other ".json"
// means vega-lite. Otherwise the extension after the final dot is taken
// literally as the format name; callers validate it against the registry.
//
// An empty name (an anonymous output stream, say) cannot be inferred from.
func ExtractFormat(name string) (string, error) {
	if name == "" {
		return "", errors.New(errors.ErrCodeCannotInfer, "cannot infer format without a filename")
	}
	if strings.HasSuffix(name, ".vg.json") {
		return FormatVega, nil
	}
	if strings.HasSuffix(name, ".json") {
		return FormatVegaLite, nil
	}
	// No special case for dotless names: the trailing segment is returned
	// as-is and rejected downstream by ValidateFormat if it is not a format.
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:], nil
	}
	return name, nil
}
