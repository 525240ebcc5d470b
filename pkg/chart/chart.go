// Package chart defines the core vocabulary of the conversion pipeline:
// chart specifications, dialects, output formats, and their MIME types.
//
// A chart specification is a JSON document in one of two dialects:
//
//   - vega-lite: the high-level declarative grammar
//   - vega: the lower-level grammar that vega-lite compiles to
//
// Output formats are independent of dialect. The six recognized formats are
// the two dialect JSON forms plus svg, png, pdf, and html. Format and MIME
// type lookups are total over this closed vocabulary and fail explicitly for
// anything else; there is no silent default.
package chart

import (
	"encoding/json"
	"fmt"
)

// Dialect constants for the two specification grammars.
const (
	DialectVega     = "vega"
	DialectVegaLite = "vega-lite"
)

// Format constants for output formats.
const (
	FormatVegaLite = "vega-lite"
	FormatVega     = "vega"
	FormatSVG      = "svg"
	FormatPNG      = "png"
	FormatPDF      = "pdf"
	FormatHTML     = "html"
)

// Default dialect schema versions. These track the bundled renderer
// toolchain and can be overridden per call.
const (
	DefaultVegaLiteVersion = "5.17.0"
	DefaultVegaVersion     = "5.30.0"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatVegaLite: true,
	FormatVega:     true,
	FormatSVG:      true,
	FormatPNG:      true,
	FormatPDF:      true,
	FormatHTML:     true,
}

// Formats lists the supported output formats in display order.
var Formats = []string{
	FormatVegaLite,
	FormatVega,
	FormatSVG,
	FormatPNG,
	FormatPDF,
	FormatHTML,
}

// Spec is a parsed chart specification. The document is treated as opaque:
// the pipeline only ever inspects $schema and a handful of top-level keys,
// and never mutates it.
type Spec map[string]any

// ParseSpec decodes a JSON document into a Spec.
func ParseSpec(data []byte) (Spec, error) {
	var spec Spec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse spec: %w", err)
	}
	return spec, nil
}

// Marshal encodes the spec back to indented JSON.
func (s Spec) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode spec: %w", err)
	}
	return data, nil
}

// BinaryFormat reports whether a format produces binary (rather than text)
// output. Used to pick file modes and payload encodings.
func BinaryFormat(format string) bool {
	return format == FormatPNG || format == FormatPDF
}
